/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: exploit.go
Description: Exploit command implementation for Smashlab. Drives the harness
against a challenge binary with real-time progress output and a final
verdict, plus optional JSON attempt reports.
*/

package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kleascm/smashlab/pkg/exploit"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RunExploit executes the exploit harness against a challenge binary
func RunExploit(cmd *cobra.Command, args []string) error {
	fmt.Println("💥 Smashlab - Exploit Session")
	fmt.Println("=============================")
	fmt.Println()

	// Load configuration first
	if err := LoadConfig(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Setup logging
	logger, err := SetupLogging()
	if err != nil {
		return err
	}
	defer logger.Close()

	// Create harness configuration
	config := &exploit.Config{
		Target:     viper.GetString("target_path"),
		TargetArgs: viper.GetStringSlice("target_args"),
		Offset:     viper.GetInt("offset"),
		Attempts:   viper.GetInt("attempts"),
		Timeout:    viper.GetDuration("timeout"),
		OutputDir:  viper.GetString("output_dir"),
	}

	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Set up signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\n🛑 Received shutdown signal, stopping harness...")
		cancel()
	}()

	harness := exploit.NewHarness(config, logger)

	attempt, err := harness.Run(ctx)
	if err != nil {
		return fmt.Errorf("exploit failed: %w", err)
	}

	printVerdict(attempt)
	return nil
}

// printVerdict prints the outcome of the final attempt
func printVerdict(attempt *exploit.Attempt) {
	fmt.Println("\n📊 Exploit Verdict")
	fmt.Println("==================")
	fmt.Printf("Attempt ID: %s\n", attempt.ID)
	fmt.Printf("Target: %s\n", attempt.Target)
	fmt.Printf("Leaked Address: %s\n", attempt.LeakedAddress)
	fmt.Printf("Payload Size: %d bytes\n", len(attempt.Payload))
	fmt.Printf("Exit Code: %d\n", attempt.ExitCode)
	fmt.Printf("Duration: %v\n", attempt.Duration)

	if attempt.FlagFound {
		fmt.Println("\n✨ Flag captured - the return address was yours all along!")
	} else {
		fmt.Println("\n❌ No flag in the output. Check the offset, or try a cyclic pattern.")
	}
}
