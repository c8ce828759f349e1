/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: main.go
Description: Main command-line interface for Smashlab. Provides the run,
exploit, pattern, and check commands with configuration management and
comprehensive flag handling for the stack buffer-overflow teaching lab.
*/

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/kleascm/smashlab/cmd/smashlab/commands"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Configuration
	configFile string
	logLevel   string
	jsonLogs   bool
	logDir     string

	// Challenge configuration
	hardened bool

	// Exploit configuration
	targetPath string
	targetArgs []string
	offset     int
	attempts   int
	timeout    time.Duration
	outputDir  string

	// Pattern configuration
	patternLength int
	patternProbe  string
)

func main() {
	// Create root command
	rootCmd := &cobra.Command{
		Use:   "smashlab",
		Short: "Smashlab - Stack buffer-overflow teaching lab",
		Long: `Smashlab is a deliberately-vulnerable teaching lab for classic stack
buffer-overflow exploitation. It serves the vulnerable challenge, ships the
exploit harness that solves it, and carries the cyclic-pattern tooling a
learner uses to find the return-address offset for themselves.`,
		Version: "1.0.0",
	}

	// Add persistent flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Logging level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Use JSON log format")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "Log output directory (empty = console only)")

	// Bind flags to viper
	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("json_logs", rootCmd.PersistentFlags().Lookup("json-logs"))
	viper.BindPFlag("log_dir", rootCmd.PersistentFlags().Lookup("log-dir"))

	// Add run command
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the vulnerable challenge",
		Long: `Run the vulnerable challenge on this process's standard streams. The
challenge prints the secret routine's address, reads one line of unbounded
input into a 64-byte buffer, and returns through whatever ends up in the
frame's return slot. Pass --hardened for the bounds-checked variant.`,
		RunE: commands.RunChallenge,
	}

	runCmd.Flags().BoolVar(&hardened, "hardened", false, "Use the bounds-checked copy instead of the vulnerable one")
	viper.BindPFlag("hardened", runCmd.Flags().Lookup("hardened"))

	rootCmd.AddCommand(runCmd)

	// Add exploit command
	exploitCmd := &cobra.Command{
		Use:   "exploit",
		Short: "Exploit a challenge binary end to end",
		Long: `Run the exploit harness against a challenge binary: capture the leaked
address, build the padding-plus-pointer payload, feed it on stdin, and verify
that the flag appears. Writes a JSON report per attempt when --output is set.`,
		RunE: commands.RunExploit,
	}

	exploitCmd.Flags().StringVar(&targetPath, "target", "", "Path to challenge binary (required)")
	exploitCmd.Flags().StringSliceVar(&targetArgs, "args", []string{}, "Extra arguments for the challenge binary")
	exploitCmd.Flags().IntVar(&offset, "offset", 0, "Padding bytes before the return slot (0 = buffer capacity)")
	exploitCmd.Flags().IntVar(&attempts, "attempts", 1, "Number of exploit attempts")
	exploitCmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Timeout per attempt")
	exploitCmd.Flags().StringVar(&outputDir, "output", "", "Directory for JSON attempt reports")

	exploitCmd.MarkFlagRequired("target")

	viper.BindPFlag("target_path", exploitCmd.Flags().Lookup("target"))
	viper.BindPFlag("target_args", exploitCmd.Flags().Lookup("args"))
	viper.BindPFlag("offset", exploitCmd.Flags().Lookup("offset"))
	viper.BindPFlag("attempts", exploitCmd.Flags().Lookup("attempts"))
	viper.BindPFlag("timeout", exploitCmd.Flags().Lookup("timeout"))
	viper.BindPFlag("output_dir", exploitCmd.Flags().Lookup("output"))

	rootCmd.AddCommand(exploitCmd)

	// Add pattern command with offset subcommand
	patternCmd := &cobra.Command{
		Use:   "pattern",
		Short: "Generate a cyclic pattern for offset discovery",
		Long: `Generate a de Bruijn cyclic pattern. Feeding the pattern to the challenge
and reading back which bytes landed in the return slot tells a learner the
exact padding distance without counting.`,
		RunE: commands.RunPattern,
	}

	patternCmd.Flags().IntVar(&patternLength, "length", 128, "Pattern length in bytes")
	viper.BindPFlag("pattern_length", patternCmd.Flags().Lookup("length"))

	patternOffsetCmd := &cobra.Command{
		Use:   "offset",
		Short: "Locate a probe within the cyclic pattern",
		RunE:  commands.RunPatternOffset,
	}

	patternOffsetCmd.Flags().StringVar(&patternProbe, "probe", "", "Probe bytes observed in the return slot (required)")
	patternOffsetCmd.MarkFlagRequired("probe")
	viper.BindPFlag("pattern_probe", patternOffsetCmd.Flags().Lookup("probe"))

	patternCmd.AddCommand(patternOffsetCmd)
	rootCmd.AddCommand(patternCmd)

	// Add check command for built-in self-checks
	rootCmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Perform built-in self-checks for lab validation",
		Long: `Perform checks to validate challenge binary existence, report directory
writability, and the simulated frame layout the exercise depends on. Useful
before handing the lab to a class.`,
		RunE: commands.PerformSelfCheck,
	})

	// Execute root command
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
