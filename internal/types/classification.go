package types

// TuneRelevance is the verdict for one tune from a single classification
// run: whether the tune is a genuine setting of the hymn, with the model's
// confidence label and a short justification.
type TuneRelevance struct {
	TuneSlug   string `json:"tune_slug"`
	IsRelevant bool   `json:"is_relevant"`
	Confidence string `json:"confidence"`
	Reasoning  string `json:"reasoning"`
}

// ClassificationRun is the full output of one judgment call covering all
// of a hymn's candidate tunes.
type ClassificationRun struct {
	HymnKey         string          `json:"hymn_key"`
	Classifications []TuneRelevance `json:"classifications"`
}

// ConsensusEntry is the reduced majority-vote verdict for one tune across
// all runs. VoteCount is the number of runs that voted relevant; TotalRuns
// always reports the configured number of runs even when some runs omitted
// the tune.
type ConsensusEntry struct {
	TuneSlug   string `json:"tune_slug"`
	IsRelevant bool   `json:"is_relevant"`
	VoteCount  int    `json:"vote_count"`
	TotalRuns  int    `json:"total_runs"`
	Confidence string `json:"confidence"`
	Reasoning  string `json:"reasoning"`
}

// HymnClassification bundles the raw runs and the consensus for one hymn,
// as persisted in the classification log.
type HymnClassification struct {
	HymnKey   string              `json:"hymn_key"`
	FullTitle string              `json:"full_title"`
	SessionID string              `json:"session_id,omitempty"`
	Runs      []ClassificationRun `json:"runs"`
	Consensus []ConsensusEntry    `json:"consensus"`
}

// ConsensusFor returns the consensus entry for a tune slug, if present.
func (c *HymnClassification) ConsensusFor(slug string) (ConsensusEntry, bool) {
	for _, entry := range c.Consensus {
		if entry.TuneSlug == slug {
			return entry, true
		}
	}
	return ConsensusEntry{}, false
}
