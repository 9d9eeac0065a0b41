package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/tune-scout/internal/checkpoint"
	"github.com/jonathan/tune-scout/internal/classify"
	"github.com/jonathan/tune-scout/internal/matching"
	"github.com/jonathan/tune-scout/internal/storage"
	"github.com/jonathan/tune-scout/internal/types"
)

// classifyFlushEvery controls how often the filtered outputs are rewritten
// mid-run. The classification log itself is persisted after every hymn.
const classifyFlushEvery = 10

// ErrNoScrapedData is returned when classification is requested before any
// scrape output exists.
var ErrNoScrapedData = errors.New("no scraped hymn data found, run scrape first")

// Classifier runs the classify phase over scraped hymns: each hymn's
// candidates are judged numRuns times and reduced to a majority-vote
// consensus, then the filtered artifacts are rewritten.
type Classifier struct {
	judge       classify.Judge
	checkpoints *checkpoint.Store
	paths       Paths
	numRuns     int
	book        *matching.Book
	log         *zap.Logger
}

// NewClassifier creates a Classifier. numRuns <= 0 falls back to the
// default run count. book is optional; when present the verdict CSV gains
// an in_hymn_book column.
func NewClassifier(judge classify.Judge, checkpoints *checkpoint.Store, paths Paths, numRuns int, book *matching.Book, log *zap.Logger) *Classifier {
	if numRuns <= 0 {
		numRuns = classify.DefaultRuns
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Classifier{
		judge:       judge,
		checkpoints: checkpoints,
		paths:       paths,
		numRuns:     numRuns,
		book:        book,
		log:         log,
	}
}

// Run classifies every scraped hymn not already marked completed. Hymns
// with no candidates are completed immediately without a judge call. A
// single failed hymn is recorded and skipped; all runs for a hymn must
// succeed before its verdict is kept, so a hymn interrupted mid-judgment
// is retried whole on the next run.
func (c *Classifier) Run(ctx context.Context, limit int) (*ClassifySummary, error) {
	var allHymns []types.Hymn
	if ok, err := storage.ReadJSON(c.paths.HymnTuneIndex(), &allHymns); err != nil {
		return nil, err
	} else if !ok || len(allHymns) == 0 {
		return nil, ErrNoScrapedData
	}

	state, err := c.checkpoints.Load()
	if err != nil {
		return nil, err
	}
	classifications, err := c.loadClassifications()
	if err != nil {
		return nil, err
	}

	// Limit bounds the iteration only; the filtered outputs are always
	// rebuilt from the full index so earlier verdicts survive partial runs.
	hymns := allHymns
	if limit > 0 && limit < len(hymns) {
		hymns = hymns[:limit]
	}
	summary := &ClassifySummary{Total: len(hymns)}

	for i, hymn := range hymns {
		if ctx.Err() != nil {
			return c.interrupted(summary, state, allHymns, classifications)
		}
		if state.IsCompleted(hymn.HymnKey) {
			c.log.Debug("already classified, skipping", zap.String("hymn", hymn.HymnKey))
			summary.Skipped++
			continue
		}
		if len(hymn.TunesFound) == 0 {
			c.log.Info("no candidates, nothing to judge", zap.String("hymn", hymn.HymnKey))
			state.MarkCompleted(hymn.HymnKey)
			summary.Processed++
			if err := c.checkpoints.Save(state); err != nil {
				return summary, err
			}
			continue
		}

		c.log.Info("classifying hymn",
			zap.Int("index", i+1),
			zap.Int("total", len(hymns)),
			zap.String("title", hymn.FullTitle),
			zap.Int("candidates", len(hymn.TunesFound)))

		result, err := classify.ClassifyHymn(ctx, c.judge, &hymn, c.numRuns, c.log)
		if err != nil {
			if ctx.Err() != nil {
				return c.interrupted(summary, state, allHymns, classifications)
			}
			c.log.Error("classification failed", zap.String("hymn", hymn.HymnKey), zap.Error(err))
			state.MarkFailed(hymn.HymnKey, err.Error())
			summary.Failed++
		} else {
			classifications[hymn.HymnKey] = result
			state.MarkCompleted(hymn.HymnKey)
			summary.Processed++
			c.logConsensus(result)
		}

		if err := c.checkpoints.Save(state); err != nil {
			return summary, err
		}
		if err := c.saveClassifications(classifications); err != nil {
			return summary, err
		}
		if summary.Processed > 0 && summary.Processed%classifyFlushEvery == 0 {
			if err := writeFilteredOutputs(c.paths, allHymns, classifications, c.book); err != nil {
				return summary, err
			}
		}
	}

	if err := writeFilteredOutputs(c.paths, allHymns, classifications, c.book); err != nil {
		return summary, err
	}
	c.tally(summary, classifications)
	return summary, nil
}

func (c *Classifier) interrupted(summary *ClassifySummary, state *checkpoint.State, hymns []types.Hymn, classifications map[string]*types.HymnClassification) (*ClassifySummary, error) {
	c.log.Warn("interrupted, saving progress")
	if err := c.checkpoints.Save(state); err != nil {
		return summary, err
	}
	if err := c.saveClassifications(classifications); err != nil {
		return summary, err
	}
	if err := writeFilteredOutputs(c.paths, hymns, classifications, c.book); err != nil {
		return summary, err
	}
	summary.Interrupted = true
	return summary, nil
}

func (c *Classifier) loadClassifications() (map[string]*types.HymnClassification, error) {
	classifications := make(map[string]*types.HymnClassification)
	if _, err := storage.ReadJSON(c.paths.Classifications(), &classifications); err != nil {
		return nil, err
	}
	return classifications, nil
}

func (c *Classifier) saveClassifications(classifications map[string]*types.HymnClassification) error {
	return storage.WriteJSON(c.paths.Classifications(), classifications)
}

func (c *Classifier) logConsensus(result *types.HymnClassification) {
	for _, entry := range result.Consensus {
		c.log.Info("consensus",
			zap.String("hymn", result.HymnKey),
			zap.String("tune", entry.TuneSlug),
			zap.Bool("relevant", entry.IsRelevant),
			zap.String("votes", voteString(entry)),
			zap.String("confidence", entry.Confidence))
	}
}

func (c *Classifier) tally(summary *ClassifySummary, classifications map[string]*types.HymnClassification) {
	for _, cls := range classifications {
		for _, entry := range cls.Consensus {
			summary.TunesTotal++
			if entry.IsRelevant {
				summary.TunesRelevant++
			}
		}
	}
}

func voteString(entry types.ConsensusEntry) string {
	return fmt.Sprintf("%d/%d", entry.VoteCount, entry.TotalRuns)
}
