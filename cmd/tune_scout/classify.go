package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/tune-scout/internal/checkpoint"
	"github.com/jonathan/tune-scout/internal/classify"
	"github.com/jonathan/tune-scout/internal/config"
	"github.com/jonathan/tune-scout/internal/llm"
	"github.com/jonathan/tune-scout/internal/matching"
	"github.com/jonathan/tune-scout/internal/pipeline"
)

var classifyCommand = &cobra.Command{
	Use:   "classify",
	Short: "Judge which scraped tunes genuinely belong to each hymn",
	Long: `Runs each hymn's candidate tunes through the Gemini judge several times
and reduces the verdicts by majority vote. Requires scrape output. Completed
hymns are checkpointed and skipped on later runs; Ctrl-C saves progress and
exits cleanly.

Configuration can be loaded from a JSON file using --config. Command-line
arguments override config file values.`,
	RunE: runClassifyCmd,
}

var (
	classifyConfigPath string
	classifyDataDir    string
	classifyRuns       int
	classifyModel      string
	classifyAPIKey     string
	classifyBook       string
	classifyLimit      int
	classifyReset      bool
)

func init() {
	classifyCommand.Flags().StringVar(&classifyConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	classifyCommand.Flags().StringVar(&classifyDataDir, "data-dir", "", "Root directory for cache, checkpoints, and outputs")
	classifyCommand.Flags().IntVar(&classifyRuns, "runs", 0, "Independent classification runs per hymn (majority vote)")
	classifyCommand.Flags().StringVar(&classifyModel, "model", "", "Override the classification model")
	classifyCommand.Flags().StringVar(&classifyBook, "book", "", "Path to a hymn book export CSV for tune-name cross-reference")
	classifyCommand.Flags().IntVar(&classifyLimit, "limit", 0, "Classify at most this many hymns (0 = all)")
	classifyCommand.Flags().BoolVar(&classifyReset, "reset", false, "Clear the classification checkpoint and derived outputs first")

	// API key can be passed as a flag, or read from env var GEMINI_API_KEY
	classifyCommand.Flags().StringVar(&classifyAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")

	rootCmd.AddCommand(classifyCommand)
}

// classifyConfig resolves the effective configuration: config file values
// are filled from defaults first, then explicitly set flags win.
func classifyConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := loadMergedConfig(classifyConfigPath)
	if err != nil {
		return config.Config{}, err
	}
	cfg = cfg.MergeWithDefaults(config.Default())

	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir = classifyDataDir
	}
	if cmd.Flags().Changed("runs") {
		cfg.Runs = classifyRuns
	}
	if cmd.Flags().Changed("model") {
		cfg.Model = classifyModel
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = classifyAPIKey
	}
	if cmd.Flags().Changed("book") {
		cfg.HymnBook = classifyBook
	}
	return cfg, nil
}

func runClassifyCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := classifyConfig(cmd)
	if err != nil {
		return err
	}

	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable or --api-key flag is required")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	llmConfig := llm.DefaultConfig()
	if cfg.Model != "" {
		llmConfig = llmConfig.WithModel(llm.TierStandard, cfg.Model)
	}
	client, err := llm.NewClient(ctx, llmConfig, cfg.APIKey)
	if err != nil {
		return fmt.Errorf("failed to create judgment client: %w", err)
	}
	defer client.Close()

	judge, err := classify.NewGeminiJudge(client, llm.TierStandard, logger)
	if err != nil {
		return err
	}

	var book *matching.Book
	if cfg.HymnBook != "" {
		book, err = matching.LoadBook(cfg.HymnBook)
		if err != nil {
			return fmt.Errorf("failed to load hymn book export: %w", err)
		}
		fmt.Printf("Loaded %d tune names from hymn book export\n", book.Size())
	}

	paths := pipeline.NewPaths(cfg.DataDir)
	checkpoints := checkpoint.NewStore(paths.ClassifyCheckpoint())
	if classifyReset {
		if err := checkpoints.Reset(paths.ClassifyOutputs()...); err != nil {
			return fmt.Errorf("failed to reset: %w", err)
		}
		logger.Info("classification checkpoint and outputs cleared")
	}

	classifier := pipeline.NewClassifier(judge, checkpoints, paths, cfg.Runs, book, logger)
	summary, err := classifier.Run(ctx, classifyLimit)
	if err != nil {
		if errors.Is(err, pipeline.ErrNoScrapedData) {
			return fmt.Errorf("%w (expected %s)", err, paths.HymnTuneIndex())
		}
		return err
	}

	fmt.Printf("Classification complete: %d processed, %d skipped, %d failed (of %d)\n",
		summary.Processed, summary.Skipped, summary.Failed, summary.Total)
	if summary.TunesTotal > 0 {
		fmt.Printf("Consensus: %d of %d candidate tunes judged relevant\n",
			summary.TunesRelevant, summary.TunesTotal)
	}
	if summary.Interrupted {
		fmt.Println("Interrupted; progress saved. Re-run to resume.")
	}
	return nil
}
