/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: challenge.go
Description: The Smashlab vulnerable challenge program. One secret routine
that should never be called, one input routine that copies a line into a
fixed stack buffer without checking its length, and an entry point that
leaks the secret routine's address and then invites disaster. A hardened
mode swaps the unchecked copy for a bounds-checked one so the same payload
can be shown failing.
*/

package target

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/kleascm/smashlab/pkg/logging"
	"github.com/kleascm/smashlab/pkg/stack"
)

// Flag is printed by the secret routine once it is reached.
const Flag = "ctf{smashing_the_stack_for_fun}"

// SegfaultExitCode is the exit code used when the return slot holds an
// address that is not code, mirroring SIGSEGV's 128+11.
const SegfaultExitCode = 139

// Config controls how a Challenge runs.
type Config struct {
	// Hardened swaps the unchecked copy for a bounds-checked one. The
	// mitigations toggle: off reproduces the teaching artifact, on shows
	// the same payload bouncing off a length check.
	Hardened bool

	// Input and Output are the challenge's standard streams. Nil defaults
	// to os.Stdin and os.Stdout.
	Input  io.Reader
	Output io.Writer

	// Logger receives structured lab events. Nil disables them.
	Logger *logging.Logger

	// ExitFn terminates the challenge. Nil defaults to os.Exit. Tests
	// inject a recorder here.
	ExitFn func(code int)
}

// Challenge is one instance of the vulnerable program.
type Challenge struct {
	hardened bool
	in       *bufio.Reader
	out      io.Writer
	logger   *logging.Logger
	exit     func(int)

	registry     *stack.Registry
	secretAddr   uintptr
	farewellAddr uintptr
}

// New creates a challenge and registers its routines. The secret routine's
// address is fixed from this point on; it is what the entry point leaks.
func New(cfg Config) *Challenge {
	if cfg.Input == nil {
		cfg.Input = os.Stdin
	}
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	if cfg.ExitFn == nil {
		cfg.ExitFn = os.Exit
	}

	c := &Challenge{
		hardened: cfg.Hardened,
		in:       bufio.NewReader(cfg.Input),
		out:      cfg.Output,
		logger:   cfg.Logger,
		exit:     cfg.ExitFn,
	}

	c.registry = stack.NewRegistry()
	c.secretAddr = c.registry.Register(c.secretRoutine)
	c.farewellAddr = c.registry.Register(c.farewell)

	return c
}

// SecretAddress returns the entry address of the secret routine, the same
// value the entry point prints.
func (c *Challenge) SecretAddress() uintptr {
	return c.secretAddr
}

// Dispatch transfers control to the routine registered at addr, exactly
// as a return through a frame's slot would. Lets the secret routine be
// exercised in isolation.
func (c *Challenge) Dispatch(addr uintptr) error {
	return c.registry.Dispatch(addr)
}

// Run is the entry point: banner, address leak, the vulnerable input
// routine, then a return through whatever the frame's return slot holds
// by the time the routine is done.
func (c *Challenge) Run() {
	fmt.Fprintln(c.out, "=== Welcome to the Vulnerable Program ===")
	fmt.Fprintf(c.out, "Address of secret_function: %#x\n", c.secretAddr)
	fmt.Fprintln(c.out)

	if c.logger != nil {
		c.logger.LogLeak(fmt.Sprintf("%#x", c.secretAddr), map[string]interface{}{
			"hardened": c.hardened,
		})
	}

	frame := stack.NewFrame(c.farewellAddr)
	c.vulnerableRoutine(frame)

	ret := frame.Return()
	if ret != c.farewellAddr && c.logger != nil {
		c.logger.LogHijack(fmt.Sprintf("%#x", ret), nil)
	}

	if err := c.registry.Dispatch(ret); err != nil {
		// Returned into something that is not code.
		fmt.Fprintln(c.out, "Segmentation fault (simulated)")
		if c.logger != nil {
			c.logger.Error("Challenge crashed", map[string]interface{}{
				"return_slot": fmt.Sprintf("%#x", ret),
				"error":       err.Error(),
			})
		}
		c.exit(SegfaultExitCode)
	}
}

// vulnerableRoutine prompts for a line of text, copies it into the frame's
// fixed buffer, and echoes it back. In the teaching configuration the copy
// has no length check, so a long enough line overwrites the saved return
// address sitting just past the buffer.
func (c *Challenge) vulnerableRoutine(frame *stack.Frame) {
	fmt.Fprint(c.out, "Enter your name: ")

	line, err := c.readLine()
	if err != nil {
		fmt.Fprintf(c.out, "failed to read input: %v\n", err)
		return
	}

	if c.hardened {
		if err := stack.BoundedCopy(frame, line); err != nil {
			fmt.Fprintf(c.out, "[!] %v\n", err)
			if c.logger != nil {
				c.logger.Warning("Oversized input rejected", map[string]interface{}{
					"input_len": len(line),
					"capacity":  stack.BufferCapacity,
				})
			}
			return
		}
	} else {
		if len(line) > stack.BufferCapacity && c.logger != nil {
			c.logger.LogOverflow(len(line), stack.BufferCapacity, nil)
		}
		stack.OverflowCopy(frame, line)
	}

	fmt.Fprintf(c.out, "Hello, %s!\n", frame.Text())
}

// readLine reads one line of unbounded length, the way gets() would: up to
// a newline or the end of input, whichever comes first. The terminator is
// not part of the captured text.
func (c *Challenge) readLine() ([]byte, error) {
	line, err := c.in.ReadBytes('\n')
	if err != nil && err != io.EOF {
		return nil, err
	}
	if n := len(line); n > 0 && line[n-1] == '\n' {
		line = line[:n-1]
		if n := len(line); n > 0 && line[n-1] == '\r' {
			line = line[:n-1]
		}
	}
	return line, nil
}

// secretRoutine should never be called directly. Reaching it is the whole
// point of the exercise.
func (c *Challenge) secretRoutine() {
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, "[+] Congratulations! You called the secret function!")
	fmt.Fprintf(c.out, "[+] Flag: %s\n", Flag)
	c.exit(0)
}

// farewell is the normal return path.
func (c *Challenge) farewell() {
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, "Goodbye!")
	c.exit(0)
}
