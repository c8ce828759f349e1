/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: pattern.go
Description: Pattern command implementations for Smashlab. Generates de
Bruijn cyclic patterns and locates probes within them so a learner can
measure the distance from the buffer to the return slot.
*/

package commands

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/kleascm/smashlab/pkg/pattern"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RunPattern prints a cyclic pattern of the configured length
func RunPattern(cmd *cobra.Command, args []string) error {
	if err := LoadConfig(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	length := viper.GetInt("pattern_length")

	p, err := pattern.Cyclic(length)
	if err != nil {
		return fmt.Errorf("failed to generate pattern: %w", err)
	}

	fmt.Println(string(p))
	return nil
}

// RunPatternOffset locates a probe within the cyclic pattern. The probe is
// the bytes that landed in the return slot, given either literally or as
// 0x-prefixed hex of the faulting address.
func RunPatternOffset(cmd *cobra.Command, args []string) error {
	if err := LoadConfig(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	probe, err := parseProbe(viper.GetString("pattern_probe"))
	if err != nil {
		return err
	}

	offset, err := pattern.Offset(probe)
	if err != nil {
		return fmt.Errorf("failed to locate probe: %w", err)
	}

	fmt.Printf("Offset: %d bytes\n", offset)
	return nil
}

// parseProbe interprets the probe flag. A 0x prefix means the probe is the
// hex of a little-endian value read out of the return slot, so the bytes
// come back reversed before searching.
func parseProbe(raw string) ([]byte, error) {
	if raw == "" {
		return nil, fmt.Errorf("probe is required")
	}

	if !strings.HasPrefix(raw, "0x") {
		return []byte(raw), nil
	}

	decoded, err := hex.DecodeString(strings.TrimPrefix(raw, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to decode probe hex: %w", err)
	}

	for i, j := 0, len(decoded)-1; i < j; i, j = i+1, j-1 {
		decoded[i], decoded[j] = decoded[j], decoded[i]
	}
	return decoded, nil
}
