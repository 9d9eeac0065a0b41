package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/tune-scout/internal/checkpoint"
	"github.com/jonathan/tune-scout/internal/config"
	"github.com/jonathan/tune-scout/internal/pipeline"
	"github.com/jonathan/tune-scout/internal/storage"
	"github.com/jonathan/tune-scout/internal/types"
)

var statusCommand = &cobra.Command{
	Use:   "status",
	Short: "Show checkpoint progress for both phases",
	RunE:  runStatusCmd,
}

var (
	statusConfigPath string
	statusDataDir    string
)

func init() {
	statusCommand.Flags().StringVar(&statusConfigPath, "config", "", "Path to config.json file")
	statusCommand.Flags().StringVar(&statusDataDir, "data-dir", "", "Root directory for cache, checkpoints, and outputs")

	rootCmd.AddCommand(statusCommand)
}

func runStatusCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadMergedConfig(statusConfigPath)
	if err != nil {
		return err
	}
	cfg = cfg.MergeWithDefaults(config.Default())
	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir = statusDataDir
	}
	paths := pipeline.NewPaths(cfg.DataDir)

	if err := printPhase("Scrape", paths.ScrapeCheckpoint()); err != nil {
		return err
	}
	if err := printPhase("Classify", paths.ClassifyCheckpoint()); err != nil {
		return err
	}

	var hymns []types.Hymn
	if ok, err := storage.ReadJSON(paths.HymnTuneIndex(), &hymns); err != nil {
		return err
	} else if ok {
		tunes := 0
		for _, h := range hymns {
			tunes += len(h.TunesFound)
		}
		fmt.Printf("Scraped data: %d hymns, %d candidate tunes\n", len(hymns), tunes)
	} else {
		fmt.Println("Scraped data: none")
	}
	return nil
}

func printPhase(name, checkpointPath string) error {
	state, err := checkpoint.NewStore(checkpointPath).Load()
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d completed, %d failed\n", name, len(state.Completed), len(state.Failed))
	for key, reason := range state.Failed {
		fmt.Printf("  failed %s: %s\n", key, reason)
	}
	return nil
}
