package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "alsign",
	Short: "Metric calculation engine for market event documents",
	Long: `alsign derives financial metric documents from raw provider data.

Metric definitions form a dependency graph; evaluation runs in
topological order so aggregations and expressions always see their
inputs. A separate consensus resolver links analyst price-target
events to the same analyst's previous publication.

Usage:
  go run ./cmd/alsign [command]

Examples:
  go run ./cmd/alsign api
  go run ./cmd/alsign validate
  go run ./cmd/alsign compute --ticker AAPL --date 2026-08-25
  go run ./cmd/alsign consensus resolve`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
