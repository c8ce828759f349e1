/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: run.go
Description: Run command implementation for Smashlab. Serves the vulnerable
challenge on the process's standard streams with the configured mitigations
toggle.
*/

package commands

import (
	"fmt"

	"github.com/kleascm/smashlab/pkg/target"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RunChallenge runs the vulnerable challenge program
func RunChallenge(cmd *cobra.Command, args []string) error {
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

	hardened := viper.GetBool("hardened")
	logger.Info("Challenge starting", map[string]interface{}{
		"hardened": hardened,
	})

	challenge := target.New(target.Config{
		Hardened: hardened,
		Logger:   logger,
	})
	challenge.Run()

	return nil
}
