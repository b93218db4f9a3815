// Package main provides incentivectl, a command line front end to the
// allocation engine for finance staff checking a split offline.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "incentivectl",
	Short:         "Research incentive allocation tool",
	Long:          "Computes per-author incentive amounts and research points for a publication, using a policy file or the built-in presets.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
