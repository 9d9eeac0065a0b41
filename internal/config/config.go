// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
)

// Config represents the CLI configuration that can be loaded from a JSON
// file. All fields are optional; missing values use defaults or come from
// CLI flags, which always win.
type Config struct {
	// Paths
	Hymns    string `json:"hymns,omitempty"`     // Path to the hymn list CSV
	HymnBook string `json:"hymn_book,omitempty"` // Path to the hymn book export CSV (optional)
	DataDir  string `json:"data_dir,omitempty"`  // Root for cache, checkpoints, and outputs

	// Politeness
	DelaySeconds  float64 `json:"delay_seconds,omitempty" validate:"gte=0"`  // Seconds to wait before each uncached request
	MaxRetries    int     `json:"max_retries,omitempty" validate:"gte=0"`    // Attempts per request
	BackoffFactor float64 `json:"backoff_factor,omitempty" validate:"gte=0"` // Exponential backoff base

	// Limits
	MaxTunesPerHymn int `json:"max_tunes_per_hymn,omitempty" validate:"gte=0"` // Candidate cap per hymn
	Runs            int `json:"runs,omitempty" validate:"gte=0,lte=15"`        // Classification runs per hymn

	// Behavior
	APIKey     string `json:"api_key,omitempty"`     // Gemini API key
	Model      string `json:"model,omitempty"`       // Override for the classification model
	UseBrowser bool   `json:"use_browser,omitempty"` // Headless-browser fallback for stub pages
	Verbose    bool   `json:"verbose,omitempty"`     // Print detailed debug information
}

// Default returns the configuration used when neither the config file nor
// the flags say otherwise.
func Default() Config {
	return Config{
		DataDir:         "data",
		DelaySeconds:    15,
		MaxRetries:      3,
		BackoffFactor:   2,
		MaxTunesPerHymn: 5,
		Runs:            3,
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks numeric ranges via struct tags and that referenced input
// files exist. Required fields are enforced by flag validation after
// merging, not here.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	if c.Hymns != "" {
		if _, err := os.Stat(c.Hymns); os.IsNotExist(err) {
			return fmt.Errorf("config error: hymn list not found: %s", c.Hymns)
		}
	}
	if c.HymnBook != "" {
		if _, err := os.Stat(c.HymnBook); os.IsNotExist(err) {
			return fmt.Errorf("config error: hymn book export not found: %s", c.HymnBook)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with zero-valued fields filled
// from defaults. Zero means unset here, so callers must merge before
// applying explicitly set flag values on top. Bool fields are never
// merged: unset and false are indistinguishable, so CLI flags always win
// for those.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Hymns == "" {
		result.Hymns = defaults.Hymns
	}
	if result.HymnBook == "" {
		result.HymnBook = defaults.HymnBook
	}
	if result.DataDir == "" {
		result.DataDir = defaults.DataDir
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.Model == "" {
		result.Model = defaults.Model
	}

	if result.DelaySeconds == 0 {
		result.DelaySeconds = defaults.DelaySeconds
	}
	if result.MaxRetries == 0 {
		result.MaxRetries = defaults.MaxRetries
	}
	if result.BackoffFactor == 0 {
		result.BackoffFactor = defaults.BackoffFactor
	}
	if result.MaxTunesPerHymn == 0 {
		result.MaxTunesPerHymn = defaults.MaxTunesPerHymn
	}
	if result.Runs == 0 {
		result.Runs = defaults.Runs
	}

	return result
}
