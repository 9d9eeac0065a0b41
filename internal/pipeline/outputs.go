package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jonathan/tune-scout/internal/matching"
	"github.com/jonathan/tune-scout/internal/storage"
	"github.com/jonathan/tune-scout/internal/types"
)

// writeOutputs rewrites every scrape artifact from the full result set.
// Outputs are always regenerated whole so a resumed run produces the same
// files a single uninterrupted run would.
func (s *Scraper) writeOutputs(results []types.Hymn) error {
	if err := storage.WriteJSON(s.paths.HymnTuneIndex(), results); err != nil {
		return err
	}

	tunes := make(map[string]types.TuneDetail)
	searchIndex := make(map[string][]string)
	for _, hymn := range results {
		searchIndex[hymn.HymnKey] = hymn.CandidateSlugs()
		for _, cand := range hymn.TunesFound {
			if cand.Detail.FetchError != "" {
				continue
			}
			if _, seen := tunes[cand.TuneSlug]; !seen {
				tunes[cand.TuneSlug] = cand.Detail
			}
		}
	}
	if err := storage.WriteJSON(s.paths.TunesJSON(), tunes); err != nil {
		return err
	}
	if err := storage.WriteJSON(s.paths.SearchIndex(), searchIndex); err != nil {
		return err
	}
	return writeSummaryCSV(s.paths.SummaryCSV(), results)
}

// writeSummaryCSV emits one row per (hymn, candidate tune) pair, plus a
// row with empty tune columns for hymns that found nothing.
func writeSummaryCSV(path string, results []types.Hymn) error {
	rows := [][]string{{
		"hymn_key", "full_title", "total_search_results",
		"tune_slug", "tune_title", "composer", "meter", "key", "num_hymnals", "error",
	}}
	for _, hymn := range results {
		base := []string{hymn.HymnKey, hymn.FullTitle, strconv.Itoa(hymn.TotalSearchResults)}
		if len(hymn.TunesFound) == 0 {
			rows = append(rows, append(base, "", "", "", "", "", "", ""))
			continue
		}
		for _, cand := range hymn.TunesFound {
			rows = append(rows, append(append([]string{}, base...),
				cand.TuneSlug,
				firstOf(cand.Detail.Title, cand.SearchCard.Title),
				firstOf(cand.Detail.Composer, cand.SearchCard.Composer),
				firstOf(cand.Detail.Meter, cand.SearchCard.Meter),
				firstOf(cand.Detail.Key, cand.SearchCard.TuneKey),
				strconv.Itoa(max(cand.Detail.NumHymnals, cand.SearchCard.NumHymnals)),
				cand.Detail.FetchError,
			))
		}
	}
	return writeCSVAtomic(path, rows)
}

// writeFilteredOutputs rewrites the classification artifacts: the filtered
// hymn-tune index (only consensus-relevant tunes kept; unclassified hymns
// pass through untouched) and the verdict CSV. book may be nil.
func writeFilteredOutputs(paths Paths, results []types.Hymn, classifications map[string]*types.HymnClassification, book *matching.Book) error {
	filtered := make([]types.Hymn, 0, len(results))
	for _, hymn := range results {
		cls, ok := classifications[hymn.HymnKey]
		if !ok {
			filtered = append(filtered, hymn)
			continue
		}
		kept := hymn
		kept.TunesFound = nil
		for _, cand := range hymn.TunesFound {
			if entry, found := cls.ConsensusFor(cand.TuneSlug); found && entry.IsRelevant {
				kept.TunesFound = append(kept.TunesFound, cand)
			}
		}
		filtered = append(filtered, kept)
	}
	if err := storage.WriteJSON(paths.FilteredIndex(), filtered); err != nil {
		return err
	}

	header := []string{
		"hymn_key", "full_title", "tune_slug", "tune_title",
		"is_relevant", "vote_count", "total_runs", "confidence", "reasoning",
	}
	if book != nil {
		header = append(header, "in_hymn_book")
	}
	rows := [][]string{header}
	for _, hymn := range results {
		cls, ok := classifications[hymn.HymnKey]
		if !ok {
			continue
		}
		for _, cand := range hymn.TunesFound {
			entry, found := cls.ConsensusFor(cand.TuneSlug)
			if !found {
				continue
			}
			row := []string{
				hymn.HymnKey,
				hymn.FullTitle,
				cand.TuneSlug,
				firstOf(cand.Detail.Title, cand.SearchCard.Title),
				strconv.FormatBool(entry.IsRelevant),
				strconv.Itoa(entry.VoteCount),
				strconv.Itoa(entry.TotalRuns),
				entry.Confidence,
				entry.Reasoning,
			}
			if book != nil {
				title := firstOf(cand.Detail.Title, cand.SearchCard.Title)
				row = append(row, strconv.FormatBool(book.Contains(title)))
			}
			rows = append(rows, row)
		}
	}
	return writeCSVAtomic(paths.FilteredCSV(), rows)
}

// writeCSVAtomic writes rows through a temp file in the target directory
// so readers never see a half-written summary.
func writeCSVAtomic(path string, rows [][]string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
