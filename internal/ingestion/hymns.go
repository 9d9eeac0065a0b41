// Package ingestion loads the static input data the pipelines run over.
package ingestion

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jonathan/tune-scout/internal/hymnary"
	"github.com/jonathan/tune-scout/internal/types"
)

// Input CSV column headers.
const (
	columnConsoleDisplay = "Console Controller Display"
	columnFullTitle      = "Full Hymn Title"
)

// LoadHymns reads the organ hymn list CSV and returns one Hymn per row,
// with the filesystem-safe key derived from the full title. The input is
// read-only and loaded fresh each run; resumability comes entirely from
// the cache, checkpoint, and output files.
func LoadHymns(path string) ([]types.Hymn, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open hymn list %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}

	consoleIdx, titleIdx := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case columnConsoleDisplay:
			consoleIdx = i
		case columnFullTitle:
			titleIdx = i
		}
	}
	if consoleIdx < 0 || titleIdx < 0 {
		return nil, fmt.Errorf("hymn list %s is missing required columns %q and %q",
			path, columnConsoleDisplay, columnFullTitle)
	}

	var hymns []types.Hymn
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		if consoleIdx >= len(record) || titleIdx >= len(record) {
			continue
		}
		title := strings.TrimSpace(record[titleIdx])
		if title == "" {
			continue
		}
		hymns = append(hymns, types.Hymn{
			ConsoleDisplay: strings.TrimSpace(record[consoleIdx]),
			FullTitle:      title,
			HymnKey:        hymnary.SafeKey(title),
		})
	}

	return hymns, nil
}
