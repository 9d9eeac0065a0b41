package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `{
  "data_dir": "organ_data",
  "delay_seconds": 20,
  "max_retries": 5,
  "runs": 7,
  "use_browser": true
}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "organ_data", cfg.DataDir)
	assert.Equal(t, 20.0, cfg.DelaySeconds)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 7, cfg.Runs)
	assert.True(t, cfg.UseBrowser)
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	_, err := LoadConfig("")
	assert.Error(t, err)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config")
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	path := writeConfig(t, "{not valid")
	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestValidate_RangeViolations(t *testing.T) {
	cfg := &Config{DelaySeconds: -1}
	assert.Error(t, cfg.Validate())

	cfg = &Config{Runs: 100}
	assert.Error(t, cfg.Validate())
}

func TestValidate_MissingInputFiles(t *testing.T) {
	cfg := &Config{Hymns: filepath.Join(t.TempDir(), "absent.csv")}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hymn list not found")
}

func TestValidate_ExistingFilesPass(t *testing.T) {
	dir := t.TempDir()
	hymns := filepath.Join(dir, "hymns.csv")
	require.NoError(t, os.WriteFile(hymns, []byte("h\n"), 0o644))

	cfg := &Config{Hymns: hymns, DelaySeconds: 15, Runs: 3}
	assert.NoError(t, cfg.Validate())
}

func TestMergeWithDefaults(t *testing.T) {
	cfg := Config{DataDir: "custom", Runs: 5}
	merged := cfg.MergeWithDefaults(Default())

	// Explicit values survive.
	assert.Equal(t, "custom", merged.DataDir)
	assert.Equal(t, 5, merged.Runs)

	// Zero values are filled in.
	assert.Equal(t, 15.0, merged.DelaySeconds)
	assert.Equal(t, 3, merged.MaxRetries)
	assert.Equal(t, 2.0, merged.BackoffFactor)
	assert.Equal(t, 5, merged.MaxTunesPerHymn)
}

func TestMergeWithDefaults_BoolsNotMerged(t *testing.T) {
	defaults := Default()
	defaults.UseBrowser = true

	merged := (&Config{}).MergeWithDefaults(defaults)
	assert.False(t, merged.UseBrowser)
}
