package feature_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/music-engine/backend/internal/feature"
)

func TestVectorizerFitTransform(t *testing.T) {
	corpus := []string{
		"apple banana",
		"apple orange",
	}

	v := feature.NewVectorizer(100)
	x, err := v.FitTransform(corpus)
	require.NoError(t, err)

	assert.Len(t, v.Vocabulary, 3, "expected vocabulary apple, banana, orange")
	rows, cols := x.Dims()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 3, cols)

	// Rows are L2-normalized.
	for i := 0; i < rows; i++ {
		var sumSq float64
		for j := 0; j < cols; j++ {
			sumSq += x.At(i, j) * x.At(i, j)
		}
		assert.InDelta(t, 1.0, math.Sqrt(sumSq), 1e-9, "row %d should be unit length", i)
	}

	// The shared term carries less weight than the distinctive one.
	appleCol := v.Vocabulary["apple"]
	bananaCol := v.Vocabulary["banana"]
	assert.Less(t, x.At(0, appleCol), x.At(0, bananaCol))
}

func TestVectorizerStopWordsRemoved(t *testing.T) {
	v := feature.NewVectorizer(100)
	_, err := v.FitTransform([]string{"the apple and the banana"})
	require.NoError(t, err)

	_, hasThe := v.Vocabulary["the"]
	assert.False(t, hasThe, "stop words must not enter the vocabulary")
	assert.Len(t, v.Vocabulary, 2)
}

func TestVectorizerMaxFeatures(t *testing.T) {
	corpus := []string{
		"alpha beta gamma delta",
		"alpha beta gamma",
		"alpha beta",
		"alpha",
	}

	v := feature.NewVectorizer(2)
	_, err := v.FitTransform(corpus)
	require.NoError(t, err)

	// The two highest-document-frequency terms survive.
	assert.Len(t, v.Vocabulary, 2)
	_, hasAlpha := v.Vocabulary["alpha"]
	_, hasBeta := v.Vocabulary["beta"]
	assert.True(t, hasAlpha)
	assert.True(t, hasBeta)
}

func TestVectorizerOutOfVocabularyRow(t *testing.T) {
	v := feature.NewVectorizer(100)
	_, err := v.FitTransform([]string{"apple banana", "apple orange"})
	require.NoError(t, err)

	row := v.Transform("completely unknown words")
	for i, x := range row {
		assert.Zero(t, x, "column %d should be zero", i)
	}
}

func TestVectorizerEmptyDocumentRow(t *testing.T) {
	v := feature.NewVectorizer(100)
	x, err := v.FitTransform([]string{"apple banana", ""})
	require.NoError(t, err)

	_, cols := x.Dims()
	for j := 0; j < cols; j++ {
		assert.Zero(t, x.At(1, j), "empty document must map to an all-zero row")
	}
}

func TestVectorizerEmptyCorpus(t *testing.T) {
	v := feature.NewVectorizer(100)
	_, err := v.FitTransform(nil)

	var cfgErr *feature.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestVectorizerSingleFit(t *testing.T) {
	v := feature.NewVectorizer(100)
	_, err := v.FitTransform([]string{"apple banana"})
	require.NoError(t, err)

	_, err = v.FitTransform([]string{"apple banana"})
	var cfgErr *feature.ConfigError
	assert.ErrorAs(t, err, &cfgErr, "a vectorizer is fit exactly once per training run")
}
