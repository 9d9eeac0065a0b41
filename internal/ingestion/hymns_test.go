package ingestion

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hymns.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadHymns(t *testing.T) {
	path := writeCSV(t, `Console Controller Display,Full Hymn Title
AMAZING GRACE,Amazing Grace! How Sweet the Sound
HOLY HOLY,"Holy, Holy, Holy! Lord God Almighty"
`)

	hymns, err := LoadHymns(path)
	require.NoError(t, err)
	require.Len(t, hymns, 2)

	assert.Equal(t, "AMAZING GRACE", hymns[0].ConsoleDisplay)
	assert.Equal(t, "Amazing Grace! How Sweet the Sound", hymns[0].FullTitle)
	assert.Equal(t, "amazing_grace_how_sweet_the_sound", hymns[0].HymnKey)
	assert.Equal(t, "holy_holy_holy_lord_god_almighty", hymns[1].HymnKey)
}

func TestLoadHymns_ExtraColumnsIgnored(t *testing.T) {
	path := writeCSV(t, `Number,Console Controller Display,Full Hymn Title,Notes
1,ABIDE,Abide With Me,evening
`)

	hymns, err := LoadHymns(path)
	require.NoError(t, err)
	require.Len(t, hymns, 1)
	assert.Equal(t, "Abide With Me", hymns[0].FullTitle)
}

func TestLoadHymns_SkipsBlankTitles(t *testing.T) {
	path := writeCSV(t, `Console Controller Display,Full Hymn Title
KEEP,Kept Hymn
SKIP,
SKIP2,
`)

	hymns, err := LoadHymns(path)
	require.NoError(t, err)
	require.Len(t, hymns, 1)
	assert.Equal(t, "Kept Hymn", hymns[0].FullTitle)
}

func TestLoadHymns_MissingColumns(t *testing.T) {
	path := writeCSV(t, "Wrong,Header\na,b\n")

	_, err := LoadHymns(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required columns")
}

func TestLoadHymns_MissingFile(t *testing.T) {
	_, err := LoadHymns(filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)
}
