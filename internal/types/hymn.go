// Package types defines the core data structures shared across the
// scraping and classification pipelines.
package types

// Hymn is one unit of batch processing: a hymn from the organ's built-in
// list together with the candidate tunes collected for it. The HymnKey is
// stable and filesystem-safe; it addresses cache entries, checkpoint
// records, and classification output for this hymn.
type Hymn struct {
	ConsoleDisplay     string          `json:"console_display"`
	FullTitle          string          `json:"full_title"`
	HymnKey            string          `json:"hymn_key"`
	SearchQuery        string          `json:"search_query,omitempty"`
	TotalSearchResults int             `json:"total_search_results"`
	TunesFound         []TuneCandidate `json:"tunes_found"`
}

// TuneCandidate is one tune associated with a hymn, carrying the evidence
// gathered from the search results page and the tune detail page.
type TuneCandidate struct {
	TuneSlug   string     `json:"tune_slug"`
	SearchCard SearchCard `json:"search_card"`
	Detail     TuneDetail `json:"detail"`
}

// SearchCard holds the fields scraped from one result card on a
// hymnary.org search results page.
type SearchCard struct {
	Title        string `json:"title"`
	TuneSlug     string `json:"tune_slug"`
	TuneURL      string `json:"tune_url"`
	Meter        string `json:"meter,omitempty"`
	NumHymnals   int    `json:"num_hymnals"`
	Composer     string `json:"composer,omitempty"`
	TuneKey      string `json:"tune_key,omitempty"`
	Incipit      string `json:"incipit,omitempty"`
	UsedWithText string `json:"used_with_text,omitempty"`
}

// TuneDetail holds the full metadata scraped from a /tune/{slug} page.
// FetchError is set instead of the other fields when the detail page could
// not be fetched or parsed; the candidate is still kept.
type TuneDetail struct {
	Title               string               `json:"title,omitempty"`
	TuneSlug            string               `json:"tune_slug,omitempty"`
	HymnaryURL          string               `json:"hymnary_url,omitempty"`
	Composer            string               `json:"composer,omitempty"`
	PlaceOfOrigin       string               `json:"place_of_origin,omitempty"`
	Meter               string               `json:"meter,omitempty"`
	Incipit             string               `json:"incipit,omitempty"`
	Key                 string               `json:"key,omitempty"`
	Copyright           string               `json:"copyright,omitempty"`
	Date                string               `json:"date,omitempty"`
	Source              string               `json:"source,omitempty"`
	AlternateTitle      string               `json:"alternate_title,omitempty"`
	NumHymnals          int                  `json:"num_hymnals,omitempty"`
	MIDIURL             string               `json:"midi_url,omitempty"`
	PDFURL              string               `json:"pdf_url,omitempty"`
	RecordingURL        string               `json:"recording_url,omitempty"`
	MusicXMLURL         string               `json:"musicxml_url,omitempty"`
	AssociatedTexts     []TextRef            `json:"associated_texts,omitempty"`
	AlternativeTunes    []TuneRef            `json:"alternative_tunes,omitempty"`
	Notes               string               `json:"notes,omitempty"`
	InstancePercentages []InstancePercentage `json:"instance_percentages,omitempty"`
	ExtraFields         map[string]string    `json:"extra_fields,omitempty"`
	FetchError          string               `json:"error,omitempty"`
}

// TextRef is a link from a tune page to a hymn text that uses the tune.
type TextRef struct {
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
	URL  string `json:"url,omitempty"`
}

// TuneRef is a link from a tune page to an alternative tune.
type TuneRef struct {
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
	URL  string `json:"url,omitempty"`
}

// InstancePercentage records how often a tune appears with a given text,
// extracted from the chart data embedded in the tune page.
type InstancePercentage struct {
	Name    string  `json:"name"`
	Percent float64 `json:"percent"`
	Slug    string  `json:"slug,omitempty"`
}

// CandidateSlugs returns the tune slugs of this hymn's candidates in order.
func (h *Hymn) CandidateSlugs() []string {
	slugs := make([]string, 0, len(h.TunesFound))
	for _, t := range h.TunesFound {
		if t.TuneSlug != "" {
			slugs = append(slugs, t.TuneSlug)
		}
	}
	return slugs
}
