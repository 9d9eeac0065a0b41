package pipeline

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/jonathan/tune-scout/internal/cache"
	"github.com/jonathan/tune-scout/internal/checkpoint"
	"github.com/jonathan/tune-scout/internal/fetch"
	"github.com/jonathan/tune-scout/internal/hymnary"
	"github.com/jonathan/tune-scout/internal/storage"
	"github.com/jonathan/tune-scout/internal/types"
)

const (
	// DefaultMaxTunesPerHymn caps how many candidates get a detail fetch,
	// keeping the most widely published ones.
	DefaultMaxTunesPerHymn = 5

	// scrapeFlushEvery controls how often outputs are rewritten mid-run.
	scrapeFlushEvery = 5
)

// Scraper runs the scrape phase: for each hymn, fetch the tune search
// results, pick the strongest candidates, fetch and parse each candidate's
// detail page, and persist the accumulated evidence.
type Scraper struct {
	fetcher     *fetch.Fetcher
	checkpoints *checkpoint.Store
	paths       Paths
	log         *zap.Logger
	maxTunes    int
}

// NewScraper creates a Scraper. maxTunes <= 0 falls back to the default
// cap. A nil logger falls back to zap.NewNop.
func NewScraper(fetcher *fetch.Fetcher, checkpoints *checkpoint.Store, paths Paths, maxTunes int, log *zap.Logger) *Scraper {
	if maxTunes <= 0 {
		maxTunes = DefaultMaxTunesPerHymn
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scraper{
		fetcher:     fetcher,
		checkpoints: checkpoints,
		paths:       paths,
		log:         log,
		maxTunes:    maxTunes,
	}
}

// Run processes hymns in order, skipping ones the checkpoint already marks
// completed. A limit > 0 truncates the input list. One hymn's failure is
// recorded and the loop moves on; context cancellation persists all state
// and returns cleanly with Interrupted set, so a later run resumes where
// this one stopped.
func (s *Scraper) Run(ctx context.Context, hymns []types.Hymn, limit int) (*ScrapeSummary, error) {
	state, err := s.checkpoints.Load()
	if err != nil {
		return nil, err
	}

	var existing []types.Hymn
	if _, err := storage.ReadJSON(s.paths.HymnTuneIndex(), &existing); err != nil {
		return nil, err
	}
	results := newResultSet(existing)

	if limit > 0 && limit < len(hymns) {
		hymns = hymns[:limit]
	}
	summary := &ScrapeSummary{Total: len(hymns)}

	for i, hymn := range hymns {
		if ctx.Err() != nil {
			return s.interrupted(summary, state, results)
		}
		if state.IsCompleted(hymn.HymnKey) {
			s.log.Debug("already completed, skipping", zap.String("hymn", hymn.HymnKey))
			summary.Skipped++
			continue
		}

		s.log.Info("processing hymn",
			zap.Int("index", i+1),
			zap.Int("total", len(hymns)),
			zap.String("title", hymn.FullTitle))

		scraped, err := s.processHymn(ctx, hymn)
		if err != nil {
			if ctx.Err() != nil {
				return s.interrupted(summary, state, results)
			}
			s.log.Error("hymn failed", zap.String("hymn", hymn.HymnKey), zap.Error(err))
			state.MarkFailed(hymn.HymnKey, err.Error())
			summary.Failed++
		} else {
			results.set(*scraped)
			state.MarkCompleted(hymn.HymnKey)
			summary.Processed++
			s.log.Info("hymn done",
				zap.String("hymn", hymn.HymnKey),
				zap.Int("tunes", len(scraped.TunesFound)))
		}

		if err := s.checkpoints.Save(state); err != nil {
			return summary, err
		}
		if summary.Processed > 0 && summary.Processed%scrapeFlushEvery == 0 {
			if err := s.writeOutputs(results.list()); err != nil {
				return summary, err
			}
		}
	}

	if err := s.writeOutputs(results.list()); err != nil {
		return summary, err
	}
	s.logFailures(state)
	return summary, nil
}

// interrupted persists everything accumulated so far and reports a clean
// partial run.
func (s *Scraper) interrupted(summary *ScrapeSummary, state *checkpoint.State, results *resultSet) (*ScrapeSummary, error) {
	s.log.Warn("interrupted, saving progress")
	if err := s.checkpoints.Save(state); err != nil {
		return summary, err
	}
	if err := s.writeOutputs(results.list()); err != nil {
		return summary, err
	}
	summary.Interrupted = true
	return summary, nil
}

// processHymn fetches and parses everything for one hymn. Detail-page
// failures are tolerated per tune: the candidate is kept with FetchError
// set so the search-card evidence still reaches the output.
func (s *Scraper) processHymn(ctx context.Context, hymn types.Hymn) (*types.Hymn, error) {
	query := hymnary.SearchQuery(hymn.FullTitle)
	searchHTML, err := s.fetcher.Fetch(ctx, fetch.Resource{
		Namespace: cache.NamespaceSearch,
		Key:       hymn.HymnKey,
		URL:       hymnary.SearchURL(query),
	})
	if err != nil {
		return nil, fmt.Errorf("search results for %q: %w", hymn.FullTitle, err)
	}

	cards, err := hymnary.ParseSearchResults(searchHTML)
	if err != nil {
		return nil, fmt.Errorf("parsing search results for %q: %w", hymn.FullTitle, err)
	}

	hymn.SearchQuery = query
	hymn.TotalSearchResults = len(cards)
	hymn.TunesFound = nil

	sort.SliceStable(cards, func(i, j int) bool {
		return cards[i].NumHymnals > cards[j].NumHymnals
	})
	if len(cards) > s.maxTunes {
		s.log.Info("capping candidates",
			zap.String("hymn", hymn.HymnKey),
			zap.Int("found", len(cards)),
			zap.Int("kept", s.maxTunes))
		cards = cards[:s.maxTunes]
	}

	for _, card := range cards {
		if card.TuneSlug == "" {
			s.log.Warn("search card without a tune link, skipping", zap.String("title", card.Title))
			continue
		}
		detail := s.fetchDetail(ctx, card.TuneSlug)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		hymn.TunesFound = append(hymn.TunesFound, types.TuneCandidate{
			TuneSlug:   card.TuneSlug,
			SearchCard: card,
			Detail:     detail,
		})
	}

	return &hymn, nil
}

// fetchDetail retrieves and parses one tune page. Any failure is folded
// into the returned detail rather than surfaced, so one bad tune page
// never costs the whole hymn.
func (s *Scraper) fetchDetail(ctx context.Context, slug string) types.TuneDetail {
	html, err := s.fetcher.Fetch(ctx, fetch.Resource{
		Namespace: cache.NamespaceTune,
		Key:       slug,
		URL:       hymnary.TuneURL(slug),
	})
	if err != nil {
		s.log.Warn("tune page fetch failed", zap.String("slug", slug), zap.Error(err))
		return types.TuneDetail{TuneSlug: slug, FetchError: err.Error()}
	}
	detail, err := hymnary.ParseTuneDetail(html)
	if err != nil {
		s.log.Warn("tune page parse failed", zap.String("slug", slug), zap.Error(err))
		return types.TuneDetail{TuneSlug: slug, FetchError: err.Error()}
	}
	if detail.TuneSlug == "" {
		detail.TuneSlug = slug
	}
	return *detail
}

func (s *Scraper) logFailures(state *checkpoint.State) {
	if len(state.Failed) == 0 {
		return
	}
	for key, msg := range state.Failed {
		s.log.Warn("still failing", zap.String("hymn", key), zap.String("reason", msg))
	}
}

// resultSet accumulates scraped hymns, preserving first-seen order so that
// resumed runs rewrite outputs deterministically. Reprocessing a hymn
// replaces its entry in place.
type resultSet struct {
	order []string
	byKey map[string]types.Hymn
}

func newResultSet(existing []types.Hymn) *resultSet {
	rs := &resultSet{byKey: make(map[string]types.Hymn, len(existing))}
	for _, h := range existing {
		rs.set(h)
	}
	return rs
}

func (rs *resultSet) set(h types.Hymn) {
	if _, ok := rs.byKey[h.HymnKey]; !ok {
		rs.order = append(rs.order, h.HymnKey)
	}
	rs.byKey[h.HymnKey] = h
}

func (rs *resultSet) list() []types.Hymn {
	out := make([]types.Hymn, 0, len(rs.order))
	for _, key := range rs.order {
		out = append(out, rs.byKey[key])
	}
	return out
}
