package hymnary

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/tune-scout/internal/types"
)

var (
	publishedInRe         = regexp.MustCompile(`Published in (\d[\d,]*) hymnals?`)
	textSlugRe            = regexp.MustCompile(`/text/([a-z0-9_]+)`)
	instancePercentagesRe = regexp.MustCompile(`(?s)var instancePercentages\s*=\s*(\[.+?\]);`)
)

// infoLabelKeys maps hymnary.org info-table labels to TuneDetail fields.
var infoLabelKeys = map[string]func(d *types.TuneDetail, v string){
	"Title":           func(d *types.TuneDetail, v string) { d.Title = v },
	"Composer":        func(d *types.TuneDetail, v string) { d.Composer = v },
	"Place Of Origin": func(d *types.TuneDetail, v string) { d.PlaceOfOrigin = v },
	"Meter":           func(d *types.TuneDetail, v string) { d.Meter = v },
	"Incipit":         func(d *types.TuneDetail, v string) { d.Incipit = v },
	"Key":             func(d *types.TuneDetail, v string) { d.Key = v },
	"Copyright":       func(d *types.TuneDetail, v string) { d.Copyright = v },
	"Date":            func(d *types.TuneDetail, v string) { d.Date = v },
	"Source":          func(d *types.TuneDetail, v string) { d.Source = v },
	"Alternate Title": func(d *types.TuneDetail, v string) { d.AlternateTitle = v },
}

// ParseTuneDetail extracts the full metadata from a /tune/{slug} page: the
// info table, hymnal count and media links from the above-fold area,
// associated texts, alternative tunes, notes, and the instance-percentage
// chart data embedded in page JavaScript.
func ParseTuneDetail(html string) (*types.TuneDetail, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &ParseError{Message: "failed to parse tune detail HTML", Cause: err}
	}

	detail := &types.TuneDetail{}
	detail.Title = strings.TrimSpace(doc.Find("h1").First().Text())

	// The canonical slug is encoded in the body element's class list.
	if bodyClass, ok := doc.Find("body").First().Attr("class"); ok {
		for _, cls := range strings.Fields(bodyClass) {
			if strings.HasPrefix(cls, "page-tune-") {
				slug := strings.ReplaceAll(strings.TrimPrefix(cls, "page-tune-"), "-", "_")
				detail.TuneSlug = slug
				detail.HymnaryURL = TuneURL(slug)
				break
			}
		}
	}

	parseInfoTable(doc, detail)
	parseAboveFold(doc, detail)
	parseAssociatedTexts(doc, detail)
	parseAlternativeTunes(doc, detail)

	if notes := doc.Find("#notes_content"); notes.Length() > 0 {
		detail.Notes = squashWhitespace(notes.Text())
	}

	parseInstancePercentages(doc, detail)

	return detail, nil
}

func parseInfoTable(doc *goquery.Document, detail *types.TuneDetail) {
	doc.Find("#at_tuneinfo tr.result-row").Each(func(_ int, row *goquery.Selection) {
		labelEl := row.Find("span.hy_infoLabel").First()
		itemEl := row.Find("span.hy_infoItem").First()
		if labelEl.Length() == 0 || itemEl.Length() == 0 {
			return
		}
		label := strings.TrimSuffix(strings.TrimSpace(labelEl.Text()), ":")
		value := strings.TrimSpace(itemEl.Text())

		if set, ok := infoLabelKeys[label]; ok {
			set(detail, value)
			return
		}
		if detail.ExtraFields == nil {
			detail.ExtraFields = map[string]string{}
		}
		detail.ExtraFields[label] = value
	})
}

func parseAboveFold(doc *goquery.Document, detail *types.TuneDetail) {
	above := doc.Find("#authority_above_fold")
	if above.Length() == 0 {
		return
	}

	if m := publishedInRe.FindStringSubmatch(squashWhitespace(above.Text())); m != nil {
		n, _ := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
		detail.NumHymnals = n
	}

	// Media links appear as labelled anchors; only the first of each kind
	// is the primary one.
	above.Find("a[href*='media/fetch']").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if href == "" {
			return
		}
		if !strings.HasPrefix(href, "http") {
			href = BaseURL + href
		}
		linkText := strings.ToLower(strings.TrimSpace(a.Text()))
		switch {
		case strings.Contains(linkText, "midi") && detail.MIDIURL == "":
			detail.MIDIURL = href
		case strings.Contains(linkText, "pdf") && detail.PDFURL == "":
			detail.PDFURL = href
		case strings.Contains(linkText, "recording") && detail.RecordingURL == "":
			detail.RecordingURL = href
		case strings.Contains(linkText, "musicxml") && detail.MusicXMLURL == "":
			detail.MusicXMLURL = href
		}
	})
}

func parseAssociatedTexts(doc *goquery.Document, detail *types.TuneDetail) {
	doc.Find("#at_texts a").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if !strings.Contains(href, "/text/") {
			return
		}
		name := strings.TrimSpace(a.Text())
		if name == "" || name == "Go to text page..." {
			return
		}
		slug := ""
		if m := textSlugRe.FindStringSubmatch(href); m != nil {
			slug = m[1]
		}
		detail.AssociatedTexts = append(detail.AssociatedTexts, types.TextRef{
			Name: name,
			Slug: slug,
			URL:  absoluteURL(href),
		})
	})
}

func parseAlternativeTunes(doc *goquery.Document, detail *types.TuneDetail) {
	doc.Find("#at_alternatives a").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if !strings.Contains(href, "/tune/") {
			return
		}
		slug := ""
		if m := tuneSlugRe.FindStringSubmatch(href); m != nil {
			slug = m[1]
		}
		detail.AlternativeTunes = append(detail.AlternativeTunes, types.TuneRef{
			Name: strings.TrimSpace(a.Text()),
			Slug: slug,
			URL:  absoluteURL(href),
		})
	})
}

// parseInstancePercentages pulls the chart data out of an inline script:
// var instancePercentages = [["A Mighty Fortress",56.27,"slug"],...];
func parseInstancePercentages(doc *goquery.Document, detail *types.TuneDetail) {
	doc.Find("script").EachWithBreak(func(_ int, script *goquery.Selection) bool {
		text := script.Text()
		if !strings.Contains(text, "instancePercentages") {
			return true
		}
		m := instancePercentagesRe.FindStringSubmatch(text)
		if m == nil {
			return false
		}
		var raw [][]any
		if err := json.Unmarshal([]byte(m[1]), &raw); err != nil {
			return false
		}
		for _, row := range raw {
			if len(row) < 2 {
				continue
			}
			name, _ := row[0].(string)
			percent, _ := row[1].(float64)
			entry := types.InstancePercentage{Name: name, Percent: percent}
			if len(row) > 2 {
				entry.Slug, _ = row[2].(string)
			}
			detail.InstancePercentages = append(detail.InstancePercentages, entry)
		}
		return false
	})
}

func absoluteURL(href string) string {
	if strings.HasPrefix(href, "http") {
		return href
	}
	return BaseURL + href
}

func squashWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
