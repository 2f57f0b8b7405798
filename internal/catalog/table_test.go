package catalog_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/music-engine/backend/internal/catalog"
)

func TestFindByTitle(t *testing.T) {
	table := catalog.Table{
		{Title: "Yesterday", Artist: "The Beatles"},
		{Title: "Hurt", Artist: "Nine Inch Nails"},
		{Title: "Hurt", Artist: "Johnny Cash"},
	}

	assert.Equal(t, 0, table.FindByTitle("Yesterday"))
	assert.Equal(t, 1, table.FindByTitle("Hurt"), "duplicate titles resolve to the first table row")
	assert.Equal(t, -1, table.FindByTitle("Unknown Song"))
}

func TestArtistsDeduplicated(t *testing.T) {
	table := catalog.Table{
		{Title: "A", Artist: "ABBA"},
		{Title: "B", Artist: "Queen"},
		{Title: "C", Artist: "ABBA"},
	}

	assert.Equal(t, []string{"ABBA", "Queen"}, table.Artists())
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "songs.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadCSV(t *testing.T) {
	path := writeCSV(t, "song,artist,text,link\n"+
		"Yesterday,The Beatles,all my troubles seemed so far away,http://example.com\n"+
		"Hurt,Johnny Cash,i hurt myself today,http://example.com\n")

	table, err := catalog.LoadCSV(path, 0, 42)
	require.NoError(t, err)
	require.Len(t, table, 2)

	assert.Equal(t, "Yesterday", table[0].Title)
	assert.Equal(t, "The Beatles", table[0].Artist)
	assert.Equal(t, "i hurt myself today", table[1].Text)
}

func TestLoadCSVMissingColumn(t *testing.T) {
	path := writeCSV(t, "song,artist\nYesterday,The Beatles\n")

	_, err := catalog.LoadCSV(path, 0, 42)
	assert.Error(t, err)
}

func TestLoadCSVMalformedRow(t *testing.T) {
	path := writeCSV(t, "song,artist,text\n"+
		"One,a,first\n"+
		"Broken \"Row,b,second\n"+
		"Three,c,third\n"+
		"Four,d,fourth\n")

	// A malformed row is an error, not a silently truncated corpus.
	table, err := catalog.LoadCSV(path, 0, 42)
	assert.Error(t, err)
	assert.Nil(t, table)
}

func TestLoadCSVSamplingDeterministic(t *testing.T) {
	content := "song,artist,text\n"
	for _, row := range []string{
		"A,a,one", "B,b,two", "C,c,three", "D,d,four", "E,e,five", "F,f,six",
	} {
		content += row + "\n"
	}
	path := writeCSV(t, content)

	first, err := catalog.LoadCSV(path, 3, 42)
	require.NoError(t, err)
	second, err := catalog.LoadCSV(path, 3, 42)
	require.NoError(t, err)

	assert.Len(t, first, 3)
	assert.Equal(t, first, second, "same seed must select the same sample")
}

func TestLoadCSVMissingFile(t *testing.T) {
	_, err := catalog.LoadCSV(filepath.Join(t.TempDir(), "missing.csv"), 0, 42)
	assert.Error(t, err)
}
