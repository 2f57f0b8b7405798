package recommend_test

import (
	"context"
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/music-engine/backend/internal/artifacts"
	"github.com/music-engine/backend/internal/catalog"
	"github.com/music-engine/backend/internal/config"
	"github.com/music-engine/backend/internal/enrich"
	"github.com/music-engine/backend/internal/recommend"
	"github.com/music-engine/backend/internal/vecindex"
)

func testLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger.WithField("test", "recommend")
}

func testCfg() config.RecommendConfig {
	return config.RecommendConfig{DefaultTopK: 15, GrowthFactor: 2}
}

// unit returns the 2-dimensional unit vector with the given cosine
// similarity to (1, 0).
func unit(cos float64) []float32 {
	return []float32{float32(cos), float32(math.Sqrt(1 - cos*cos))}
}

func buildBundle(t *testing.T, titles []string, vectors [][]float32) *artifacts.Bundle {
	t.Helper()
	table := make(catalog.Table, len(titles))
	for i, title := range titles {
		table[i] = catalog.Song{Title: title, Artist: "Artist " + title}
	}
	index, err := vecindex.Build(vectors)
	require.NoError(t, err)
	return &artifacts.Bundle{Table: table, Embeddings: vectors, Index: index}
}

func TestRecommendRanking(t *testing.T) {
	// cos(A,B)=0.9, cos(A,C)=0.1.
	bundle := buildBundle(t,
		[]string{"A", "B", "C"},
		[][]float32{unit(1), unit(0.9), unit(0.1)})
	eng := recommend.NewEngine(bundle, nil, testCfg(), testLogger())

	results := eng.Recommend(context.Background(), "A", 2, recommend.Options{})
	require.Len(t, results, 2)
	assert.Equal(t, "B", results[0].Title)
	assert.Equal(t, "C", results[1].Title)

	// Never the seed, scores non-increasing.
	for i, res := range results {
		assert.NotEqual(t, 0, res.Row)
		if i > 0 {
			assert.LessOrEqual(t, res.Score, results[i-1].Score)
		}
	}
}

func TestRecommendUnknownSeed(t *testing.T) {
	bundle := buildBundle(t, []string{"A", "B"}, [][]float32{unit(1), unit(0.5)})
	eng := recommend.NewEngine(bundle, nil, testCfg(), testLogger())

	results := eng.Recommend(context.Background(), "Nope", 5, recommend.Options{})
	assert.Empty(t, results)
}

func TestRecommendShortCorpus(t *testing.T) {
	bundle := buildBundle(t,
		[]string{"A", "B", "C", "D", "E"},
		[][]float32{unit(1), unit(0.9), unit(0.8), unit(0.7), unit(0.6)})
	eng := recommend.NewEngine(bundle, nil, testCfg(), testLogger())

	// topK 10, but only 4 other songs exist.
	results := eng.Recommend(context.Background(), "A", 10, recommend.Options{})
	assert.Len(t, results, 4)
}

func TestRecommendDuplicateTitles(t *testing.T) {
	table := catalog.Table{
		{Title: "Hurt", Artist: "Nine Inch Nails"},
		{Title: "Hurt", Artist: "Johnny Cash"},
		{Title: "Other", Artist: "X"},
	}
	vectors := [][]float32{unit(1), unit(0.2), unit(0.95)}
	index, err := vecindex.Build(vectors)
	require.NoError(t, err)
	bundle := &artifacts.Bundle{Table: table, Embeddings: vectors, Index: index}
	eng := recommend.NewEngine(bundle, nil, testCfg(), testLogger())

	// The seed resolves to row 0, so row 0 is excluded and row 1 (the
	// other "Hurt") is a legitimate candidate.
	results := eng.Recommend(context.Background(), "Hurt", 2, recommend.Options{})
	require.Len(t, results, 2)
	assert.Equal(t, "Other", results[0].Title)
	assert.Equal(t, 1, results[1].Row)
}

func TestRecommendDeterministic(t *testing.T) {
	bundle := buildBundle(t,
		[]string{"A", "B", "C", "D"},
		[][]float32{unit(1), unit(0.9), unit(0.9), unit(0.1)})
	eng := recommend.NewEngine(bundle, nil, testCfg(), testLogger())

	first := eng.Recommend(context.Background(), "A", 3, recommend.Options{})
	second := eng.Recommend(context.Background(), "A", 3, recommend.Options{})
	assert.Equal(t, first, second)

	// Equal scores resolve by ascending row.
	assert.Equal(t, 1, first[0].Row)
	assert.Equal(t, 2, first[1].Row)
}

// stubEnricher serves canned enrichment data keyed by song title. A missing
// entry is a no-match.
type stubEnricher struct {
	infos   map[string]*enrich.TrackInfo
	lookups int
}

func (s *stubEnricher) Lookup(_ context.Context, song, _ string) *enrich.TrackInfo {
	s.lookups++
	return s.infos[song]
}

func TestRecommendEnrichment(t *testing.T) {
	bundle := buildBundle(t,
		[]string{"A", "B", "C"},
		[][]float32{unit(1), unit(0.9), unit(0.1)})
	stub := &stubEnricher{infos: map[string]*enrich.TrackInfo{
		"B": {Album: "Album B", PreviewURL: "http://preview/b"},
		"C": {Album: "Album C"},
	}}
	eng := recommend.NewEngine(bundle, stub, testCfg(), testLogger())

	results := eng.Recommend(context.Background(), "A", 2, recommend.Options{})
	require.Len(t, results, 2)
	assert.Equal(t, "Album B", results[0].Info.Album)
}

func TestRecommendFilterOverFetch(t *testing.T) {
	// Six songs; the top-ranked candidates have no preview clip, so the
	// engine must examine beyond topK+1 to fill the result.
	bundle := buildBundle(t,
		[]string{"Seed", "S1", "S2", "S3", "S4", "S5"},
		[][]float32{unit(1), unit(0.95), unit(0.9), unit(0.8), unit(0.7), unit(0.6)})
	stub := &stubEnricher{infos: map[string]*enrich.TrackInfo{
		"S1": {Album: "1"},
		"S2": {Album: "2"},
		"S3": {Album: "3"},
		"S4": {Album: "4", PreviewURL: "http://preview/4"},
		"S5": {Album: "5", PreviewURL: "http://preview/5"},
	}}
	eng := recommend.NewEngine(bundle, stub, testCfg(), testLogger())

	results := eng.Recommend(context.Background(), "Seed", 2, recommend.Options{HideNoPreview: true})
	require.Len(t, results, 2)
	assert.Equal(t, "S4", results[0].Title)
	assert.Equal(t, "S5", results[1].Title)
}

func TestRecommendAllFiltered(t *testing.T) {
	bundle := buildBundle(t,
		[]string{"Seed", "S1", "S2"},
		[][]float32{unit(1), unit(0.9), unit(0.8)})
	stub := &stubEnricher{infos: map[string]*enrich.TrackInfo{}}
	eng := recommend.NewEngine(bundle, stub, testCfg(), testLogger())

	// Every candidate is a no-match: empty result, never an error.
	results := eng.Recommend(context.Background(), "Seed", 5, recommend.Options{})
	assert.Empty(t, results)
}

func TestRecommendCountsQueries(t *testing.T) {
	bundle := buildBundle(t, []string{"A", "B"}, [][]float32{unit(1), unit(0.5)})
	eng := recommend.NewEngine(bundle, nil, testCfg(), testLogger())

	eng.Recommend(context.Background(), "A", 1, recommend.Options{})
	eng.Recommend(context.Background(), "missing", 1, recommend.Options{})
	assert.Equal(t, int64(2), eng.Queries())
}
