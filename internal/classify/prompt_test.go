package classify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/tune-scout/internal/types"
)

func TestBuildEvidence_PrefersDetailOverSearchCard(t *testing.T) {
	hymn := &types.Hymn{
		TunesFound: []types.TuneCandidate{{
			TuneSlug:   "nicaea",
			SearchCard: types.SearchCard{Title: "NICAEA (card)", Composer: "card composer", NumHymnals: 10},
			Detail: types.TuneDetail{
				Title:      "NICAEA",
				Composer:   "John B. Dykes",
				Meter:      "11.12.12.10",
				NumHymnals: 847,
			},
		}},
	}

	evidence := buildEvidence(hymn)
	assert.Contains(t, evidence, "## Tune 1: NICAEA\n")
	assert.Contains(t, evidence, "John B. Dykes")
	assert.NotContains(t, evidence, "card composer")
	assert.Contains(t, evidence, "**num_hymnals**: 847")
}

func TestBuildEvidence_FallsBackToSearchCard(t *testing.T) {
	hymn := &types.Hymn{
		TunesFound: []types.TuneCandidate{{
			TuneSlug:   "broken",
			SearchCard: types.SearchCard{Title: "BROKEN", Composer: "Somebody", NumHymnals: 3},
			Detail:     types.TuneDetail{FetchError: "HTTP status 503"},
		}},
	}

	evidence := buildEvidence(hymn)
	assert.Contains(t, evidence, "## Tune 1: BROKEN")
	assert.Contains(t, evidence, "Somebody")
	assert.Contains(t, evidence, "**num_hymnals**: 3")
}

func TestBuildEvidence_MissingFieldsRenderAsDash(t *testing.T) {
	hymn := &types.Hymn{
		TunesFound: []types.TuneCandidate{{TuneSlug: "bare"}},
	}

	evidence := buildEvidence(hymn)
	assert.Contains(t, evidence, "## Tune 1: bare")
	assert.Contains(t, evidence, "**composer**: —")
	assert.Contains(t, evidence, "**num_hymnals**: —")
}

func TestBuildEvidence_TruncatesLongNotes(t *testing.T) {
	hymn := &types.Hymn{
		TunesFound: []types.TuneCandidate{{
			TuneSlug: "wordy",
			Detail:   types.TuneDetail{Notes: strings.Repeat("x", maxNotesLength+50)},
		}},
	}

	evidence := buildEvidence(hymn)
	assert.Contains(t, evidence, strings.Repeat("x", maxNotesLength)+"…")
	assert.NotContains(t, evidence, strings.Repeat("x", maxNotesLength+1))
}

func TestBuildEvidence_AssociatedTextsAndPercentages(t *testing.T) {
	hymn := &types.Hymn{
		TunesFound: []types.TuneCandidate{{
			TuneSlug: "new_britain",
			Detail: types.TuneDetail{
				AssociatedTexts: []types.TextRef{{Name: "Amazing Grace"}, {Name: "Other Text"}},
				InstancePercentages: []types.InstancePercentage{
					{Name: "Amazing Grace", Percent: 92.5},
				},
			},
		}},
	}

	evidence := buildEvidence(hymn)
	assert.Contains(t, evidence, "**associated_texts**: Amazing Grace; Other Text")
	assert.Contains(t, evidence, "Amazing Grace (92.5%)")
}

func TestBuildPrompt_FillsTemplate(t *testing.T) {
	hymn := &types.Hymn{
		FullTitle:          "Amazing Grace",
		HymnKey:            "amazing_grace",
		TotalSearchResults: 7,
		TunesFound:         []types.TuneCandidate{{TuneSlug: "new_britain"}},
	}

	prompt := buildPrompt(hymn)
	assert.Contains(t, prompt, "Amazing Grace")
	assert.Contains(t, prompt, "amazing_grace")
	assert.Contains(t, prompt, "new_britain")
	assert.NotContains(t, prompt, "{{.")
}
