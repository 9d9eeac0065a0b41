package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/tune-scout/internal/cache"
	"github.com/jonathan/tune-scout/internal/checkpoint"
	"github.com/jonathan/tune-scout/internal/config"
	"github.com/jonathan/tune-scout/internal/fetch"
	"github.com/jonathan/tune-scout/internal/ingestion"
	"github.com/jonathan/tune-scout/internal/pipeline"
)

var scrapeCommand = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape candidate tunes for every hymn in the list",
	Long: `Fetches the tune search results for each hymn, keeps the most widely
published candidates, and fetches each candidate's detail page. All pages
are cached permanently; completed hymns are checkpointed and skipped on
later runs. Ctrl-C saves progress and exits cleanly.

Configuration can be loaded from a JSON file using --config. Command-line
arguments override config file values.`,
	RunE: runScrapeCmd,
}

var (
	scrapeConfigPath string
	scrapeHymns      string
	scrapeDataDir    string
	scrapeDelay      float64
	scrapeRetries    int
	scrapeMaxTunes   int
	scrapeLimit      int
	scrapeReset      bool
	scrapeUseBrowser bool
)

func init() {
	scrapeCommand.Flags().StringVar(&scrapeConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	scrapeCommand.Flags().StringVarP(&scrapeHymns, "hymns", "i", "", "Path to the hymn list CSV")
	scrapeCommand.Flags().StringVar(&scrapeDataDir, "data-dir", "", "Root directory for cache, checkpoints, and outputs")
	scrapeCommand.Flags().Float64Var(&scrapeDelay, "delay", 0, "Seconds to wait before each uncached request")
	scrapeCommand.Flags().IntVar(&scrapeRetries, "max-retries", 0, "Attempts per request before the hymn is marked failed")
	scrapeCommand.Flags().IntVar(&scrapeMaxTunes, "max-tunes", 0, "Candidate tunes kept per hymn")
	scrapeCommand.Flags().IntVar(&scrapeLimit, "limit", 0, "Process at most this many hymns (0 = all)")
	scrapeCommand.Flags().BoolVar(&scrapeReset, "reset", false, "Clear the checkpoint and derived outputs first (the page cache is kept)")
	scrapeCommand.Flags().BoolVar(&scrapeUseBrowser, "use-browser", false, "Render suspiciously small pages in a headless browser (requires Chrome)")

	rootCmd.AddCommand(scrapeCommand)
}

// scrapeConfig resolves the effective configuration: config file values are
// filled from defaults first, then explicitly set flags win, including zero
// values like --delay 0.
func scrapeConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := loadMergedConfig(scrapeConfigPath)
	if err != nil {
		return config.Config{}, err
	}
	cfg = cfg.MergeWithDefaults(config.Default())

	// Only override if the flag was explicitly set
	if cmd.Flags().Changed("hymns") {
		cfg.Hymns = scrapeHymns
	}
	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir = scrapeDataDir
	}
	if cmd.Flags().Changed("delay") {
		cfg.DelaySeconds = scrapeDelay
	}
	if cmd.Flags().Changed("max-retries") {
		cfg.MaxRetries = scrapeRetries
	}
	if cmd.Flags().Changed("max-tunes") {
		cfg.MaxTunesPerHymn = scrapeMaxTunes
	}
	if cmd.Flags().Changed("use-browser") {
		cfg.UseBrowser = scrapeUseBrowser
	}
	return cfg, nil
}

func runScrapeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := scrapeConfig(cmd)
	if err != nil {
		return err
	}

	if cfg.Hymns == "" {
		return fmt.Errorf("--hymns is required (via flag or config)")
	}

	hymns, err := ingestion.LoadHymns(cfg.Hymns)
	if err != nil {
		return fmt.Errorf("failed to load hymn list: %w", err)
	}

	paths := pipeline.NewPaths(cfg.DataDir)
	checkpoints := checkpoint.NewStore(paths.ScrapeCheckpoint())
	if scrapeReset {
		if err := checkpoints.Reset(paths.ScrapeOutputs()...); err != nil {
			return fmt.Errorf("failed to reset: %w", err)
		}
		logger.Info("checkpoint and outputs cleared, cache kept")
	}

	fetcher := fetch.NewFetcher(
		fetch.NewClient(fetch.DefaultOptions()),
		cache.NewStore(paths.CacheDir()),
		fetch.Config{
			Delay:          time.Duration(cfg.DelaySeconds * float64(time.Second)),
			MaxAttempts:    cfg.MaxRetries,
			BackoffFactor:  cfg.BackoffFactor,
			UseBrowser:     cfg.UseBrowser,
			BrowserTimeout: 60 * time.Second,
		},
		logger,
	)
	scraper := pipeline.NewScraper(fetcher, checkpoints, paths, cfg.MaxTunesPerHymn, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := scraper.Run(ctx, hymns, scrapeLimit)
	if err != nil {
		return err
	}

	fmt.Printf("Scrape complete: %d processed, %d skipped, %d failed (of %d)\n",
		summary.Processed, summary.Skipped, summary.Failed, summary.Total)
	if summary.Interrupted {
		fmt.Println("Interrupted; progress saved. Re-run to resume.")
	}
	return nil
}

// loadMergedConfig loads and validates the config file when a path is
// given, otherwise returns an empty config for flag merging.
func loadMergedConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Config{}, nil
	}
	loaded, err := config.LoadConfig(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	if err := loaded.Validate(); err != nil {
		return config.Config{}, err
	}
	logger.Info("loaded config", zap.String("path", path))
	return *loaded, nil
}
