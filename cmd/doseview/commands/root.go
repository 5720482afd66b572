// Package commands implements the doseview CLI commands using cobra.
package commands

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version is set at build time
	Version = "0.1.0"
)

var configFlag string

var rootCmd = &cobra.Command{
	Use:   "doseview",
	Short: "Dosing schedule comparison and window progress for Nightscout",
	Long: `Doseview compares insulin dosing profiles and tracks how far active
temporary targets and profile switches have progressed.

Point it at a Nightscout server or at local profile JSON files.`,
	Version: Version,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Config file path (default ~/.config/doseview/doseview.yaml)")
}
