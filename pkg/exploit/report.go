/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: report.go
Description: Attempt records and JSON report output for the Smashlab exploit
harness. Every attempt gets a unique ID and a self-contained report so a
learner can compare payloads and outcomes across runs.
*/

package exploit

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Attempt records one exploit attempt from leak to verdict.
type Attempt struct {
	ID            string        `json:"id"`             // Unique identifier for this attempt
	Target        string        `json:"target"`         // Path to the challenge binary
	LeakedAddress string        `json:"leaked_address"` // Address parsed from the target's output
	Payload       []byte        `json:"-"`              // Raw crafted input
	PayloadHex    string        `json:"payload_hex"`    // Hex form for the report
	FlagFound     bool          `json:"flag_found"`     // Whether the secret routine's flag appeared
	ExitCode      int           `json:"exit_code"`      // Target's exit code
	Output        string        `json:"output"`         // Everything the target printed
	Duration      time.Duration `json:"-"`              // Wall time for the attempt
	DurationText  string        `json:"duration"`       // Human-readable form for the report
	CreatedAt     time.Time     `json:"created_at"`     // When the attempt started
}

// NewAttempt creates an attempt record with a fresh ID.
func NewAttempt(targetPath string) *Attempt {
	return &Attempt{
		ID:        uuid.New().String(),
		Target:    targetPath,
		CreatedAt: time.Now(),
	}
}

// WriteReport writes the attempt as an indented JSON file in the
// harness's output directory and returns the file path.
func (h *Harness) WriteReport(attempt *Attempt) (string, error) {
	if err := os.MkdirAll(h.config.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	attempt.PayloadHex = hex.EncodeToString(attempt.Payload)
	attempt.DurationText = attempt.Duration.String()

	data, err := json.MarshalIndent(attempt, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal attempt %s: %w", attempt.ID, err)
	}

	path := filepath.Join(h.config.OutputDir, fmt.Sprintf("attempt_%s.json", attempt.ID))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	return path, nil
}
