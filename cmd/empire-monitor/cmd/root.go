// Package cmd implements the CLI commands for the empire-monitor server.
package cmd

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "empire-monitor",
	Short: "Monitor the CSGOEmpire listing feed for target items",
	Long: "A service that watches the CSGOEmpire marketplace feed, classifies every " +
		"listed item against a configurable target list and keychain rules, and " +
		"delivers match notifications with full history.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
