package hymnary

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/tune-scout/internal/types"
)

var tuneSlugRe = regexp.MustCompile(`/tune/([a-z0-9_]+)`)
var firstNumberRe = regexp.MustCompile(`(\d+)`)

// ParseSearchResults extracts tune cards from a search results page.
//
// Two layouts occur. A combined search groups result cards under headings
// ("Texts", "Tunes", "Instances", ...), and only cards in the "Tunes"
// group count. A tune-filtered search ("in:tunes") has no group headers at
// all, and every normal card is a tune.
func ParseSearchResults(html string) ([]types.SearchCard, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &ParseError{Message: "failed to parse search results HTML", Cause: err}
	}

	var cards []types.SearchCard

	if doc.Find("div.resultcard-grouphead").Length() > 0 {
		currentGroup := ""
		doc.Find("div.resultcard").Each(func(_ int, sel *goquery.Selection) {
			if sel.HasClass("resultcard-grouphead") {
				currentGroup = strings.TrimSpace(sel.Find("h2").First().Text())
				return
			}
			if sel.HasClass("resultcard-tiny") || currentGroup != "Tunes" {
				return
			}
			if card, ok := parseTuneCard(sel); ok {
				cards = append(cards, card)
			}
		})
	} else {
		doc.Find("div.resultcard.resultcard-normal").Each(func(_ int, sel *goquery.Selection) {
			if card, ok := parseTuneCard(sel); ok {
				cards = append(cards, card)
			}
		})
	}

	return cards, nil
}

// parseTuneCard extracts one card's fields; ok is false when the card has
// no title link.
func parseTuneCard(sel *goquery.Selection) (types.SearchCard, bool) {
	titleLink := sel.Find("h2 > a").First()
	if titleLink.Length() == 0 {
		return types.SearchCard{}, false
	}

	title := strings.TrimSpace(titleLink.Text())
	href, _ := titleLink.Attr("href")

	slug := ""
	if m := tuneSlugRe.FindStringSubmatch(href); m != nil {
		slug = m[1]
	}
	tuneURL := href
	if slug != "" {
		tuneURL = TuneURL(slug)
	}

	// Field spans carry a data-fieldname attribute plus a bold label prefix
	// that has to be stripped from the text.
	fields := map[string]string{}
	sel.Find("span[data-fieldname]").Each(func(_ int, span *goquery.Selection) {
		name, _ := span.Attr("data-fieldname")
		text := strings.TrimSpace(span.Text())
		if label := span.Find("b.fieldLabel").First(); label.Length() > 0 {
			text = strings.TrimSpace(strings.Replace(text, label.Text(), "", 1))
		}
		fields[name] = text
	})

	numHymnals := 0
	if m := firstNumberRe.FindStringSubmatch(strings.ReplaceAll(fields["total"], ",", "")); m != nil {
		numHymnals, _ = strconv.Atoi(m[1])
	}

	return types.SearchCard{
		Title:        title,
		TuneSlug:     slug,
		TuneURL:      tuneURL,
		Meter:        stripFieldLabel(fields["meter"], "Meter:"),
		NumHymnals:   numHymnals,
		Composer:     stripFieldLabel(fields["Composer and/or Arranger"], "Composer and/or Arranger:", "Composer and/or  Arranger:"),
		TuneKey:      stripFieldLabel(fields["tuneKey"], "Tune Key:"),
		Incipit:      stripFieldLabel(fields["incipit"], "Incipit:"),
		UsedWithText: stripFieldLabel(fields["usedWithText"], "Used With Text:"),
	}, true
}

// stripFieldLabel removes any of the given label prefixes from a field
// value. Some cards embed the label text despite the fieldLabel element.
func stripFieldLabel(value string, labels ...string) string {
	for _, label := range labels {
		value = strings.Replace(value, label, "", 1)
	}
	return strings.TrimSpace(value)
}

// ExtractTuneSlugs returns just the slugs from a search results page.
func ExtractTuneSlugs(html string) ([]string, error) {
	cards, err := ParseSearchResults(html)
	if err != nil {
		return nil, err
	}
	slugs := make([]string, 0, len(cards))
	for _, c := range cards {
		if c.TuneSlug != "" {
			slugs = append(slugs, c.TuneSlug)
		}
	}
	return slugs, nil
}
