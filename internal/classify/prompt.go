package classify

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jonathan/tune-scout/internal/prompts"
	"github.com/jonathan/tune-scout/internal/types"
)

// maxNotesLength truncates long tune notes to keep token counts sane.
const maxNotesLength = 400

// buildPrompt assembles the full classification prompt for one hymn.
func buildPrompt(hymn *types.Hymn) string {
	template := prompts.MustGet("classify.json", "classify-tunes")
	return prompts.Format(template, map[string]string{
		"Title":        hymn.FullTitle,
		"HymnKey":      hymn.HymnKey,
		"TotalResults": strconv.Itoa(hymn.TotalSearchResults),
		"TuneCount":    strconv.Itoa(len(hymn.TunesFound)),
		"Evidence":     buildEvidence(hymn),
	})
}

// buildEvidence renders the per-tune evidence block: metadata from the
// search card and detail page, associated texts, instance percentages,
// and truncated notes.
func buildEvidence(hymn *types.Hymn) string {
	var b strings.Builder

	for i, tune := range hymn.TunesFound {
		card := tune.SearchCard
		detail := tune.Detail

		fmt.Fprintf(&b, "## Tune %d: %s\n", i+1, firstNonEmpty(detail.Title, card.Title, tune.TuneSlug))
		fmt.Fprintf(&b, "- **tune_slug**: `%s`\n", tune.TuneSlug)
		fmt.Fprintf(&b, "- **composer**: %s\n", firstNonEmpty(detail.Composer, card.Composer, "—"))
		fmt.Fprintf(&b, "- **meter**: %s\n", firstNonEmpty(detail.Meter, card.Meter, "—"))
		fmt.Fprintf(&b, "- **key**: %s\n", firstNonEmpty(detail.Key, card.TuneKey, "—"))
		fmt.Fprintf(&b, "- **num_hymnals**: %s\n", firstNonEmpty(nonZero(detail.NumHymnals), nonZero(card.NumHymnals), "—"))

		if card.UsedWithText != "" {
			fmt.Fprintf(&b, "- **used_with_text** (search card): %s\n", card.UsedWithText)
		}
		if len(detail.AssociatedTexts) > 0 {
			names := make([]string, 0, len(detail.AssociatedTexts))
			for _, t := range detail.AssociatedTexts {
				names = append(names, t.Name)
			}
			fmt.Fprintf(&b, "- **associated_texts**: %s\n", strings.Join(names, "; "))
		}
		if len(detail.InstancePercentages) > 0 {
			pcts := make([]string, 0, len(detail.InstancePercentages))
			for _, ip := range detail.InstancePercentages {
				pcts = append(pcts, fmt.Sprintf("%s (%.1f%%)", ip.Name, ip.Percent))
			}
			fmt.Fprintf(&b, "- **instance_percentages**: %s\n", strings.Join(pcts, "; "))
		}
		if notes := detail.Notes; notes != "" {
			if len(notes) > maxNotesLength {
				notes = notes[:maxNotesLength] + "…"
			}
			fmt.Fprintf(&b, "- **notes**: %s\n", notes)
		}
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func nonZero(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}
