/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: check.go
Description: Self-check command for Smashlab. Validates the frame layout the
exercise depends on, plus challenge binary existence and report directory
writability when configured. Useful before handing the lab to a class.
*/

package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kleascm/smashlab/pkg/stack"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// PerformSelfCheck validates the lab's prerequisites
func PerformSelfCheck(cmd *cobra.Command, args []string) error {
	fmt.Println("🔍 Performing lab self-checks...")
	fmt.Println()

	if err := LoadConfig(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	var failures []string

	// The exercise only works if the return slot really sits directly
	// past the buffer.
	if got := stack.RetOffset(); got != stack.BufferCapacity {
		failures = append(failures, fmt.Sprintf(
			"frame layout broken: return slot at offset %d, want %d", got, stack.BufferCapacity))
	} else {
		fmt.Printf("✅ Frame layout: return slot at offset %d\n", stack.BufferCapacity)
	}

	if stack.PointerSize != 8 {
		fmt.Printf("⚠️  Warning: pointer size is %d bytes; payload recipes in the lab text assume 8\n",
			stack.PointerSize)
	} else {
		fmt.Printf("✅ Pointer size: %d bytes\n", stack.PointerSize)
	}

	// Validate the challenge binary when one is configured
	if targetPath := viper.GetString("target_path"); targetPath != "" {
		if info, err := os.Stat(targetPath); err != nil {
			failures = append(failures, fmt.Sprintf("challenge binary not found: %s", targetPath))
		} else if info.Mode()&0111 == 0 {
			failures = append(failures, fmt.Sprintf("challenge binary not executable: %s", targetPath))
		} else {
			fmt.Printf("✅ Challenge binary: %s\n", targetPath)
		}
	}

	// Validate the report directory when one is configured
	if outputDir := viper.GetString("output_dir"); outputDir != "" {
		if err := checkWritable(outputDir); err != nil {
			failures = append(failures, fmt.Sprintf("report directory not writable: %v", err))
		} else {
			fmt.Printf("✅ Report directory: %s\n", outputDir)
		}
	}

	if len(failures) > 0 {
		return fmt.Errorf("self-check failed:\n  %s", strings.Join(failures, "\n  "))
	}

	fmt.Println("\n✨ All checks passed - the lab is ready.")
	return nil
}

// checkWritable verifies a directory exists (creating it if needed) and
// accepts a test file.
func checkWritable(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	probe := filepath.Join(dir, ".smashlab_check")
	if err := os.WriteFile(probe, []byte("check"), 0644); err != nil {
		return err
	}
	return os.Remove(probe)
}
