package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/jonathan/tune-scout/internal/config"
	"github.com/jonathan/tune-scout/internal/matching"
	"github.com/jonathan/tune-scout/internal/pipeline"
	"github.com/jonathan/tune-scout/internal/storage"
	"github.com/jonathan/tune-scout/internal/types"
)

var matchCommand = &cobra.Command{
	Use:   "match",
	Short: "Cross-reference scraped tunes against a hymn book export",
	Long: `Reports which of the scraped candidate tunes also appear, by normalized
tune name, in a hymn book export CSV. Prefers the classification-filtered
index when it exists, so the report covers consensus-relevant tunes only.`,
	RunE: runMatchCmd,
}

var (
	matchConfigPath string
	matchDataDir    string
	matchBook       string
)

func init() {
	matchCommand.Flags().StringVar(&matchConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	matchCommand.Flags().StringVar(&matchDataDir, "data-dir", "", "Root directory for cache, checkpoints, and outputs")
	matchCommand.Flags().StringVar(&matchBook, "book", "", "Path to the hymn book export CSV")

	rootCmd.AddCommand(matchCommand)
}

func runMatchCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadMergedConfig(matchConfigPath)
	if err != nil {
		return err
	}
	cfg = cfg.MergeWithDefaults(config.Default())
	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir = matchDataDir
	}
	if cmd.Flags().Changed("book") {
		cfg.HymnBook = matchBook
	}

	if cfg.HymnBook == "" {
		return fmt.Errorf("--book is required (via flag or config)")
	}
	book, err := matching.LoadBook(cfg.HymnBook)
	if err != nil {
		return fmt.Errorf("failed to load hymn book export: %w", err)
	}

	paths := pipeline.NewPaths(cfg.DataDir)
	hymns, source, err := loadBestIndex(paths)
	if err != nil {
		return err
	}
	fmt.Printf("Matching %s against %d tune names from the hymn book\n", source, book.Size())

	matched, unmatched := 0, 0
	type miss struct{ hymn, tune string }
	var misses []miss
	for _, hymn := range hymns {
		for _, cand := range hymn.TunesFound {
			title := cand.Detail.Title
			if title == "" {
				title = cand.SearchCard.Title
			}
			if book.Contains(title) {
				matched++
			} else {
				unmatched++
				misses = append(misses, miss{hymn: hymn.FullTitle, tune: title})
			}
		}
	}

	fmt.Printf("Matched %d tunes; %d not found in the book\n", matched, unmatched)
	sort.Slice(misses, func(i, j int) bool { return misses[i].hymn < misses[j].hymn })
	for _, m := range misses {
		fmt.Printf("  missing: %q for %q\n", m.tune, m.hymn)
	}
	return nil
}

// loadBestIndex prefers the classification-filtered index, falling back to
// the full scrape output.
func loadBestIndex(paths pipeline.Paths) ([]types.Hymn, string, error) {
	var hymns []types.Hymn
	if ok, err := storage.ReadJSON(paths.FilteredIndex(), &hymns); err != nil {
		return nil, "", err
	} else if ok {
		return hymns, "filtered index", nil
	}
	if ok, err := storage.ReadJSON(paths.HymnTuneIndex(), &hymns); err != nil {
		return nil, "", err
	} else if ok {
		return hymns, "scraped index", nil
	}
	return nil, "", fmt.Errorf("no scraped hymn data found, run scrape first")
}
