package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
)

// LoadCSV reads the raw dataset. The header must contain song, artist and
// text columns; genre, popularity and release_date are carried through when
// present, and the dataset's link column is dropped. A positive sampleSize
// takes a deterministic random sample (seeded shuffle) so repeated training
// runs over the same file see the same rows.
func LoadCSV(path string, sampleSize int, seed int64) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading dataset header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, required := range []string{"song", "artist", "text"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("dataset missing required column %q", required)
		}
	}

	field := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	var table Table
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// A malformed row must not silently truncate the corpus.
			return nil, fmt.Errorf("reading dataset row %d: %w", len(table)+2, err)
		}
		table = append(table, Song{
			Title:       field(rec, "song"),
			Artist:      field(rec, "artist"),
			Text:        field(rec, "text"),
			Genre:       field(rec, "genre"),
			Popularity:  field(rec, "popularity"),
			ReleaseDate: field(rec, "release_date"),
		})
	}

	if sampleSize > 0 && sampleSize < len(table) {
		rng := rand.New(rand.NewSource(seed))
		rng.Shuffle(len(table), func(i, j int) {
			table[i], table[j] = table[j], table[i]
		})
		table = table[:sampleSize]
	}
	return table, nil
}
