package pipeline

import (
	"context"
	"encoding/csv"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jonathan/tune-scout/internal/cache"
	"github.com/jonathan/tune-scout/internal/checkpoint"
	"github.com/jonathan/tune-scout/internal/fetch"
	"github.com/jonathan/tune-scout/internal/storage"
	"github.com/jonathan/tune-scout/internal/types"
)

const amazingGraceSearchHTML = `
<html><body>
<div class="resultcard resultcard-normal">
  <h2><a href="/tune/amazing_grace_arnold">AMAZING GRACE (Arnold)</a></h2>
  <span data-fieldname="total"><b class="fieldLabel">Appears in:</b> 12 hymnals</span>
</div>
<div class="resultcard resultcard-normal">
  <h2><a href="/tune/new_britain_scottish">NEW BRITAIN</a></h2>
  <span data-fieldname="total"><b class="fieldLabel">Appears in:</b> 1049 hymnals</span>
</div>
</body></html>`

func tunePageHTML(slug, title string) string {
	return `<html><body class="page-tune-` + slug + `"><h1>` + title + `</h1></body></html>`
}

// newTestScraper seeds the page cache so no test ever reaches the network.
func newTestScraper(t *testing.T, maxTunes int) (*Scraper, Paths, *cache.Store) {
	t.Helper()
	paths := NewPaths(t.TempDir())
	store := cache.NewStore(paths.CacheDir())
	fetcher := fetch.NewFetcher(
		fetch.NewClient(fetch.DefaultOptions()),
		store,
		fetch.Config{Delay: time.Hour, MaxAttempts: 1, BackoffFactor: 2},
		zap.NewNop(),
	)
	checkpoints := checkpoint.NewStore(paths.ScrapeCheckpoint())
	return NewScraper(fetcher, checkpoints, paths, maxTunes, zap.NewNop()), paths, store
}

func amazingGraceHymn() types.Hymn {
	return types.Hymn{
		ConsoleDisplay: "AMAZING GRACE",
		FullTitle:      "Amazing Grace! How Sweet the Sound",
		HymnKey:        "amazing_grace_how_sweet_the_sound",
	}
}

func seedAmazingGrace(t *testing.T, store *cache.Store) {
	t.Helper()
	require.NoError(t, store.Put(cache.NamespaceSearch, "amazing_grace_how_sweet_the_sound", []byte(amazingGraceSearchHTML)))
	require.NoError(t, store.Put(cache.NamespaceTune, "new_britain_scottish",
		[]byte(tunePageHTML("new-britain-scottish", "NEW BRITAIN"))))
	require.NoError(t, store.Put(cache.NamespaceTune, "amazing_grace_arnold",
		[]byte(tunePageHTML("amazing-grace-arnold", "AMAZING GRACE"))))
}

func TestScraper_Run(t *testing.T) {
	scraper, paths, store := newTestScraper(t, 5)
	seedAmazingGrace(t, store)

	summary, err := scraper.Run(context.Background(), []types.Hymn{amazingGraceHymn()}, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)
	assert.Zero(t, summary.Failed)
	assert.False(t, summary.Interrupted)

	var results []types.Hymn
	ok, err := storage.ReadJSON(paths.HymnTuneIndex(), &results)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, results, 1)

	hymn := results[0]
	assert.Equal(t, "Amazing+Grace+How+Sweet+the+Sound", hymn.SearchQuery)
	assert.Equal(t, 2, hymn.TotalSearchResults)
	require.Len(t, hymn.TunesFound, 2)
	// Candidates are ordered by hymnal count, most published first.
	assert.Equal(t, "new_britain_scottish", hymn.TunesFound[0].TuneSlug)
	assert.Equal(t, "NEW BRITAIN", hymn.TunesFound[0].Detail.Title)
	assert.Equal(t, "amazing_grace_arnold", hymn.TunesFound[1].TuneSlug)

	var tunes map[string]types.TuneDetail
	ok, err = storage.ReadJSON(paths.TunesJSON(), &tunes)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, tunes, "new_britain_scottish")
	assert.Contains(t, tunes, "amazing_grace_arnold")

	var index map[string][]string
	ok, err = storage.ReadJSON(paths.SearchIndex(), &index)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"new_britain_scottish", "amazing_grace_arnold"}, index[hymn.HymnKey])

	_, err = os.Stat(paths.SummaryCSV())
	assert.NoError(t, err)
}

func TestScraper_Run_CapsCandidates(t *testing.T) {
	scraper, paths, store := newTestScraper(t, 1)
	seedAmazingGrace(t, store)

	_, err := scraper.Run(context.Background(), []types.Hymn{amazingGraceHymn()}, 0)
	require.NoError(t, err)

	var results []types.Hymn
	_, err = storage.ReadJSON(paths.HymnTuneIndex(), &results)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 2, results[0].TotalSearchResults)
	require.Len(t, results[0].TunesFound, 1)
	assert.Equal(t, "new_britain_scottish", results[0].TunesFound[0].TuneSlug)
}

func TestScraper_Run_SecondRunSkipsCompleted(t *testing.T) {
	scraper, _, store := newTestScraper(t, 5)
	seedAmazingGrace(t, store)
	hymns := []types.Hymn{amazingGraceHymn()}

	first, err := scraper.Run(context.Background(), hymns, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Processed)

	second, err := scraper.Run(context.Background(), hymns, 0)
	require.NoError(t, err)
	assert.Zero(t, second.Processed)
	assert.Equal(t, 1, second.Skipped)
}

func TestScraper_Run_Limit(t *testing.T) {
	scraper, _, store := newTestScraper(t, 5)
	seedAmazingGrace(t, store)

	hymns := []types.Hymn{
		amazingGraceHymn(),
		{FullTitle: "Never Reached", HymnKey: "never_reached"},
	}
	summary, err := scraper.Run(context.Background(), hymns, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 1, summary.Processed)
}

func TestScraper_Run_CancelledContextSavesAndReturnsClean(t *testing.T) {
	scraper, paths, store := newTestScraper(t, 5)
	seedAmazingGrace(t, store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := scraper.Run(ctx, []types.Hymn{amazingGraceHymn()}, 0)
	require.NoError(t, err)
	assert.True(t, summary.Interrupted)
	assert.Zero(t, summary.Processed)

	// Checkpoint and outputs exist even though nothing was processed.
	_, err = os.Stat(paths.ScrapeCheckpoint())
	assert.NoError(t, err)
	_, err = os.Stat(paths.HymnTuneIndex())
	assert.NoError(t, err)
}

func TestScraper_Run_MergesWithExistingResults(t *testing.T) {
	scraper, paths, store := newTestScraper(t, 5)
	seedAmazingGrace(t, store)

	prior := types.Hymn{FullTitle: "Earlier Hymn", HymnKey: "earlier_hymn"}
	require.NoError(t, storage.WriteJSON(paths.HymnTuneIndex(), []types.Hymn{prior}))

	_, err := scraper.Run(context.Background(), []types.Hymn{amazingGraceHymn()}, 0)
	require.NoError(t, err)

	var results []types.Hymn
	_, err = storage.ReadJSON(paths.HymnTuneIndex(), &results)
	require.NoError(t, err)
	require.Len(t, results, 2)
	// First-seen order is preserved across runs.
	assert.Equal(t, "earlier_hymn", results[0].HymnKey)
	assert.Equal(t, "amazing_grace_how_sweet_the_sound", results[1].HymnKey)
}

func TestWriteSummaryCSV_RowPerCandidate(t *testing.T) {
	paths := NewPaths(t.TempDir())
	results := []types.Hymn{
		{
			HymnKey:            "with_tunes",
			FullTitle:          "With Tunes",
			TotalSearchResults: 1,
			TunesFound: []types.TuneCandidate{{
				TuneSlug:   "nicaea",
				SearchCard: types.SearchCard{Title: "NICAEA", NumHymnals: 800},
			}},
		},
		{HymnKey: "empty_hymn", FullTitle: "Empty Hymn"},
	}
	require.NoError(t, writeSummaryCSV(paths.SummaryCSV(), results))

	f, err := os.Open(paths.SummaryCSV())
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 3) // header + one candidate row + one empty-hymn row
	assert.Equal(t, "hymn_key", rows[0][0])
	assert.Equal(t, "nicaea", rows[1][3])
	assert.Equal(t, "800", rows[1][8])
	assert.Equal(t, "empty_hymn", rows[2][0])
	assert.Empty(t, rows[2][3])
}
