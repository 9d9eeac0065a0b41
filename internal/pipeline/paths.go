// Package pipeline drives the two batch phases over the hymn list: the
// scrape phase (search + detail fetch + parse) and the classify phase
// (N-run consensus classification). Both phases share the same loop
// discipline: skip completed items, survive individual failures, persist
// the checkpoint after every item, and flush outputs periodically.
package pipeline

import "path/filepath"

// Paths derives the on-disk layout of all pipeline state from one data
// root. Raw cached HTML is permanent; interim and processed files are
// derived and can be rebuilt (or reset) at any time.
type Paths struct {
	Root string
}

// NewPaths returns the layout rooted at dir.
func NewPaths(dir string) Paths {
	return Paths{Root: dir}
}

// CacheDir is the root of the raw page cache.
func (p Paths) CacheDir() string { return filepath.Join(p.Root, "raw") }

// InterimDir holds checkpoints and intermediate indexes.
func (p Paths) InterimDir() string { return filepath.Join(p.Root, "interim") }

// ProcessedDir holds the final output artifacts.
func (p Paths) ProcessedDir() string { return filepath.Join(p.Root, "processed") }

// ScrapeCheckpoint tracks scrape-phase completion.
func (p Paths) ScrapeCheckpoint() string { return filepath.Join(p.InterimDir(), "checkpoint.json") }

// ClassifyCheckpoint tracks classify-phase completion.
func (p Paths) ClassifyCheckpoint() string {
	return filepath.Join(p.InterimDir(), "filter_checkpoint.json")
}

// SearchIndex maps each hymn key to its candidate tune slugs.
func (p Paths) SearchIndex() string { return filepath.Join(p.InterimDir(), "search_index.json") }

// HymnTuneIndex is the master scrape output: every hymn with its full
// candidate evidence.
func (p Paths) HymnTuneIndex() string {
	return filepath.Join(p.ProcessedDir(), "hymn_tune_index.json")
}

// TunesJSON is the deduplicated slug-to-detail map.
func (p Paths) TunesJSON() string { return filepath.Join(p.ProcessedDir(), "tunes.json") }

// SummaryCSV is the flat per-tune scrape summary.
func (p Paths) SummaryCSV() string { return filepath.Join(p.ProcessedDir(), "summary.csv") }

// Classifications is the full classification log: raw runs plus consensus
// per hymn.
func (p Paths) Classifications() string {
	return filepath.Join(p.ProcessedDir(), "classifications.json")
}

// FilteredIndex is the hymn-tune index with only relevant tunes kept.
func (p Paths) FilteredIndex() string {
	return filepath.Join(p.ProcessedDir(), "hymn_tune_index_filtered.json")
}

// FilteredCSV is the flat summary with verdict columns.
func (p Paths) FilteredCSV() string {
	return filepath.Join(p.ProcessedDir(), "summary_filtered.csv")
}

// ScrapeOutputs lists the derived files a scrape reset removes.
func (p Paths) ScrapeOutputs() []string {
	return []string{p.HymnTuneIndex(), p.TunesJSON(), p.SearchIndex(), p.SummaryCSV()}
}

// ClassifyOutputs lists the derived files a classify reset removes.
func (p Paths) ClassifyOutputs() []string {
	return []string{p.Classifications(), p.FilteredIndex(), p.FilteredCSV()}
}
