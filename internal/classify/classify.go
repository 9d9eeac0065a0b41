package classify

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/tune-scout/internal/types"
)

// DefaultRuns is the default number of classification runs per hymn.
const DefaultRuns = 3

// ClassifyHymn obtains numRuns independent classification runs for the
// hymn and reduces them to one consensus verdict per candidate tune. Any
// single run failing aborts the whole attempt: runs are not individually
// checkpointed, so the orchestrator retries the entire item later.
func ClassifyHymn(ctx context.Context, judge Judge, hymn *types.Hymn, numRuns int, log *zap.Logger) (*types.HymnClassification, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if numRuns <= 0 {
		numRuns = DefaultRuns
	}

	runs := make([]types.ClassificationRun, 0, numRuns)
	for i := 0; i < numRuns; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		log.Info("classification run",
			zap.String("hymn_key", hymn.HymnKey),
			zap.Int("run", i+1),
			zap.Int("total_runs", numRuns))

		run, err := judge.Classify(ctx, hymn)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return &types.HymnClassification{
		HymnKey:   hymn.HymnKey,
		FullTitle: hymn.FullTitle,
		SessionID: uuid.NewString(),
		Runs:      runs,
		Consensus: Reduce(hymn.CandidateSlugs(), runs, numRuns),
	}, nil
}
