// Package main provides the entry point for the tune-scout CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "tune_scout",
	Short: "Hymn tune scraper and classifier for hymnary.org",
	Long: `tune_scout builds a hymn-to-tune index for an organ's built-in hymn list.

The scrape phase politely fetches tune search results and tune detail pages
from hymnary.org into a permanent local cache, and the classify phase uses
repeated Gemini judgments with a majority vote to decide which candidate
tunes are genuine settings of each hymn. Both phases checkpoint after every
hymn, so an interrupted run resumes where it stopped.`,
	PersistentPreRunE: setupLogger,
	PersistentPostRun: func(*cobra.Command, []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var (
	rootVerbose bool
	logger      *zap.Logger
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&rootVerbose, "verbose", "v", false, "Print detailed debug information")
}

func setupLogger(*cobra.Command, []string) error {
	cfg := zap.NewProductionConfig()
	if rootVerbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	var err error
	logger, err = cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
