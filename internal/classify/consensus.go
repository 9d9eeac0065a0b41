package classify

import "github.com/jonathan/tune-scout/internal/types"

// Placeholder consensus values used when no run's vote matches the final
// verdict, which only happens for a candidate no run voted on at all.
const (
	noConsensusReasoning  = "No consensus."
	noConsensusConfidence = "low"
)

// ballot is one run's vote on one tune, in run order.
type ballot struct {
	relevant   bool
	confidence string
	reasoning  string
}

// Reduce combines the runs into one ConsensusEntry per candidate slug.
//
// Per slug, one boolean vote is collected from each run that mentions it;
// a run omitting a slug contributes nothing, though TotalRuns still
// reports the configured totalRuns. The verdict is relevant iff the
// relevant-vote count strictly exceeds totalRuns/2 (real division), so an
// even split resolves to not relevant. Confidence and reasoning are
// copied from the first run in run order whose vote matches the verdict;
// with zero votes the placeholder pair is used.
//
// Reduce is a pure function of (slugs, runs, totalRuns): identical inputs
// always yield identical output.
func Reduce(slugs []string, runs []types.ClassificationRun, totalRuns int) []types.ConsensusEntry {
	ballots := make(map[string][]ballot, len(slugs))
	known := make(map[string]struct{}, len(slugs))
	for _, slug := range slugs {
		known[slug] = struct{}{}
	}

	// Single pass over the runs, tallying per candidate. Slugs the input
	// hymn never contained are dropped.
	for _, run := range runs {
		for _, clf := range run.Classifications {
			if _, ok := known[clf.TuneSlug]; !ok {
				continue
			}
			ballots[clf.TuneSlug] = append(ballots[clf.TuneSlug], ballot{
				relevant:   clf.IsRelevant,
				confidence: clf.Confidence,
				reasoning:  clf.Reasoning,
			})
		}
	}

	threshold := float64(totalRuns) / 2
	consensus := make([]types.ConsensusEntry, 0, len(slugs))
	for _, slug := range slugs {
		votes := 0
		for _, b := range ballots[slug] {
			if b.relevant {
				votes++
			}
		}
		verdict := float64(votes) > threshold

		confidence, reasoning := noConsensusConfidence, noConsensusReasoning
		for _, b := range ballots[slug] {
			if b.relevant == verdict {
				confidence, reasoning = b.confidence, b.reasoning
				break
			}
		}

		consensus = append(consensus, types.ConsensusEntry{
			TuneSlug:   slug,
			IsRelevant: verdict,
			VoteCount:  votes,
			TotalRuns:  totalRuns,
			Confidence: confidence,
			Reasoning:  reasoning,
		})
	}

	return consensus
}
