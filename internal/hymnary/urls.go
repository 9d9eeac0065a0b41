// Package hymnary knows hymnary.org: URL construction, search query
// normalization, and HTML parsing of search-result and tune-detail pages.
package hymnary

import (
	"fmt"
	"regexp"
	"strings"
)

// BaseURL is the root of the remote catalog.
const BaseURL = "https://hymnary.org"

var (
	variantSuffixRe = regexp.MustCompile(`\s*-\s*[AB]$`)
	punctuationRe   = regexp.MustCompile(`[!?,;:"'()]`)
	whitespaceRe    = regexp.MustCompile(`\s+`)
	unsafeCharsRe   = regexp.MustCompile(`[^\w\s-]`)
)

// SearchURL returns the tune-search URL for a prepared query string.
func SearchURL(query string) string {
	return fmt.Sprintf("%s/search?qu=%s+in%%3Atunes", BaseURL, query)
}

// TextSearchURL returns the text-search fallback URL, used when a tune
// search yields nothing but the title matches a text entry.
func TextSearchURL(query string) string {
	return fmt.Sprintf("%s/search?qu=%s+in%%3Atexts", BaseURL, query)
}

// TuneURL returns the detail page URL for a tune slug.
func TuneURL(slug string) string {
	return fmt.Sprintf("%s/tune/%s", BaseURL, slug)
}

// NormalizeTitle cleans a hymn title for use as a search query: variant
// suffixes like " - A" / " - B" are stripped, punctuation that confuses
// the search is removed, and whitespace is collapsed.
func NormalizeTitle(title string) string {
	title = variantSuffixRe.ReplaceAllString(strings.TrimSpace(title), "")
	title = punctuationRe.ReplaceAllString(title, "")
	title = whitespaceRe.ReplaceAllString(title, " ")
	return strings.TrimSpace(title)
}

// SearchQuery converts a hymn title to hymnary.org's search syntax, with
// spaces encoded as '+'.
func SearchQuery(title string) string {
	return strings.ReplaceAll(NormalizeTitle(title), " ", "+")
}

// SafeKey converts arbitrary text to a lowercase filesystem-safe key, used
// both as checkpoint identity and cache address.
func SafeKey(text string) string {
	safe := unsafeCharsRe.ReplaceAllString(text, "")
	safe = whitespaceRe.ReplaceAllString(safe, "_")
	return strings.ToLower(strings.Trim(safe, "_"))
}
