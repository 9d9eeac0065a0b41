package classify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jonathan/tune-scout/internal/types"
)

// scriptedJudge returns pre-built runs in order, or an error.
type scriptedJudge struct {
	runs  []types.ClassificationRun
	err   error
	calls int
}

func (s *scriptedJudge) Classify(_ context.Context, _ *types.Hymn) (types.ClassificationRun, error) {
	if s.err != nil {
		return types.ClassificationRun{}, s.err
	}
	run := s.runs[s.calls%len(s.runs)]
	s.calls++
	return run, nil
}

func TestClassifyHymn(t *testing.T) {
	hymn := testHymn()
	judge := &scriptedJudge{runs: []types.ClassificationRun{
		runWith(vote("nicaea", true, "high", "canonical"), vote("other_tune", false, "high", "no")),
		runWith(vote("nicaea", true, "medium", "likely"), vote("other_tune", false, "medium", "no")),
		runWith(vote("nicaea", false, "low", "doubt"), vote("other_tune", true, "low", "maybe")),
	}}

	result, err := ClassifyHymn(context.Background(), judge, hymn, 3, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, 3, judge.calls)
	assert.Equal(t, "holy_holy_holy", result.HymnKey)
	assert.NotEmpty(t, result.SessionID)
	require.Len(t, result.Runs, 3)
	require.Len(t, result.Consensus, 2)

	nicaea, ok := result.ConsensusFor("nicaea")
	require.True(t, ok)
	assert.True(t, nicaea.IsRelevant)
	assert.Equal(t, 2, nicaea.VoteCount)

	other, ok := result.ConsensusFor("other_tune")
	require.True(t, ok)
	assert.False(t, other.IsRelevant)
	assert.Equal(t, 1, other.VoteCount)
}

func TestClassifyHymn_ZeroRunsFallsBackToDefault(t *testing.T) {
	judge := &scriptedJudge{runs: []types.ClassificationRun{
		runWith(vote("nicaea", true, "high", "ok")),
	}}

	result, err := ClassifyHymn(context.Background(), judge, testHymn(), 0, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, DefaultRuns, judge.calls)
	assert.Len(t, result.Runs, DefaultRuns)
}

func TestClassifyHymn_AnyRunFailureAborts(t *testing.T) {
	judge := &scriptedJudge{err: errors.New("service down")}

	_, err := ClassifyHymn(context.Background(), judge, testHymn(), 3, zap.NewNop())
	require.Error(t, err)
	assert.Zero(t, judge.calls)
}

func TestClassifyHymn_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	judge := &scriptedJudge{runs: []types.ClassificationRun{runWith()}}
	_, err := ClassifyHymn(ctx, judge, testHymn(), 3, zap.NewNop())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, judge.calls)
}

func TestClassifyHymn_FreshSessionPerCall(t *testing.T) {
	judge := &scriptedJudge{runs: []types.ClassificationRun{
		runWith(vote("nicaea", true, "high", "ok")),
	}}

	first, err := ClassifyHymn(context.Background(), judge, testHymn(), 1, zap.NewNop())
	require.NoError(t, err)
	second, err := ClassifyHymn(context.Background(), judge, testHymn(), 1, zap.NewNop())
	require.NoError(t, err)
	assert.NotEqual(t, first.SessionID, second.SessionID)
}
