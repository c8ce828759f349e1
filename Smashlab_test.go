/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: Smashlab_test.go
Description: Tests for the standalone lab driver. Runs the scenario helpers
against a scripted challenge stand-in and checks that every result carries
a parseable duration, including the exploit scenario's error paths.
*/

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScriptedTarget drops a shell script that leaks an address, echoes
// one line of input back, and claims the hijack succeeded.
func writeScriptedTarget(t *testing.T) string {
	t.Helper()
	script := "#!/bin/sh\n" +
		"echo 'Address of secret_function: 0x4011d6'\n" +
		"read line\n" +
		"echo 'You called the secret function!'\n"
	path := filepath.Join(t.TempDir(), "vuln")
	require.NoError(t, os.WriteFile(path, []byte(script), 0755))
	return path
}

// TestRunScenarioRecordsDuration verifies a plain scenario result carries
// the target output and a parseable wall-time duration
func TestRunScenarioRecordsDuration(t *testing.T) {
	result := runScenario(writeScriptedTarget(t), "polite", []byte("smasher"))

	assert.Equal(t, "ok", result.Status)
	assert.Contains(t, result.Output, "Address of secret_function")

	d, err := time.ParseDuration(result.Duration)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, d, time.Duration(0))
}

// TestRunExploitScenarioRecordsDuration verifies the leak-then-smash
// scenario reports a duration on its success path
func TestRunExploitScenarioRecordsDuration(t *testing.T) {
	result := runExploitScenario(writeScriptedTarget(t))

	assert.Equal(t, "ok", result.Status)
	assert.Contains(t, result.Output, "secret function")
	assert.NotEmpty(t, result.Input)

	d, err := time.ParseDuration(result.Duration)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, d, time.Duration(0))
}

// TestRunExploitScenarioErrorPathsRecordDuration verifies the duration is
// still populated when the target cannot start or never leaks an address
func TestRunExploitScenarioErrorPathsRecordDuration(t *testing.T) {
	result := runExploitScenario(filepath.Join(t.TempDir(), "missing"))
	assert.Equal(t, "error", result.Status)
	_, err := time.ParseDuration(result.Duration)
	assert.NoError(t, err)

	silent := filepath.Join(t.TempDir(), "silent")
	require.NoError(t, os.WriteFile(silent, []byte("#!/bin/sh\necho 'Enter your name: '\n"), 0755))

	result = runExploitScenario(silent)
	assert.Equal(t, "error", result.Status)
	assert.Contains(t, result.Error, "no leaked address")
	_, err = time.ParseDuration(result.Duration)
	assert.NoError(t, err)
}
