// Package matching cross-references scraped tune titles against a printed
// tune book's index, so the final report can flag which tunes the
// congregation already owns music for.
package matching

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

// BookColumn is the required header in the tune-book CSV.
const BookColumn = "HymnTuneName"

// NormalizeTuneTitle reduces a title to uppercase alphanumerics so that
// punctuation and spacing differences between the book index and
// hymnary.org never block a match.
func NormalizeTuneTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(title) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Book is the normalized set of tune names from a printed tune book.
type Book struct {
	names map[string]struct{}
}

// LoadBook reads the tune-book CSV. Files exported from old spreadsheet
// software are often Latin-1 rather than UTF-8; invalid UTF-8 input is
// transparently re-decoded byte-for-byte.
func LoadBook(path string) (*Book, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tune book %s: %w", path, err)
	}
	if !utf8.Valid(data) {
		data = latin1ToUTF8(data)
	}

	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read tune book header: %w", err)
	}
	col := -1
	for i, name := range header {
		if strings.TrimSpace(name) == BookColumn {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("tune book %s is missing the %q column", path, BookColumn)
	}

	book := &Book{names: map[string]struct{}{}}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read tune book %s: %w", path, err)
		}
		if col >= len(record) {
			continue
		}
		if norm := NormalizeTuneTitle(record[col]); norm != "" {
			book.names[norm] = struct{}{}
		}
	}
	return book, nil
}

// Contains reports whether a tune title (in any formatting) appears in
// the book.
func (b *Book) Contains(title string) bool {
	norm := NormalizeTuneTitle(title)
	if norm == "" {
		return false
	}
	_, ok := b.names[norm]
	return ok
}

// Size returns the number of unique normalized tune names in the book.
func (b *Book) Size() int {
	return len(b.names)
}

// latin1ToUTF8 re-decodes Latin-1 bytes: each byte maps 1:1 to the rune
// with the same value.
func latin1ToUTF8(data []byte) []byte {
	var b strings.Builder
	b.Grow(len(data))
	for _, c := range data {
		b.WriteRune(rune(c))
	}
	return []byte(b.String())
}
