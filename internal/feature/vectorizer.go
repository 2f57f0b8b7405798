package feature

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/james-bowman/sparse"
)

// ConfigError reports an invalid training hyperparameter. It is fatal: the
// pipeline aborts before any artifact is written.
type ConfigError struct {
	Param  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Param, e.Reason)
}

// DefaultMaxFeatures caps the TF-IDF vocabulary size.
const DefaultMaxFeatures = 5000

// Vectorizer implements Term Frequency - Inverse Document Frequency over a
// bounded vocabulary. Fit exactly once per training run; the fitted
// vocabulary and IDF weights are retained so previously-unseen text can be
// embedded later.
type Vectorizer struct {
	MaxFeatures int
	Vocabulary  map[string]int
	Terms       []string
	IDF         []float64

	fitted bool
}

func NewVectorizer(maxFeatures int) *Vectorizer {
	if maxFeatures <= 0 {
		maxFeatures = DefaultMaxFeatures
	}
	return &Vectorizer{
		MaxFeatures: maxFeatures,
		Vocabulary:  make(map[string]int),
	}
}

// terms splits an already-normalized document into countable terms, dropping
// stop words and single-character tokens.
func terms(doc string) []string {
	fields := strings.Fields(doc)
	out := fields[:0]
	for _, f := range fields {
		if len(f) < 2 || EnglishStopWords[f] {
			continue
		}
		out = append(out, f)
	}
	return out
}

// FitTransform builds the vocabulary and IDF statistics from the corpus and
// returns the weighted document-term matrix [N x V]. Vocabulary is selected
// by document frequency (ties broken alphabetically) and capped at
// MaxFeatures. Rows are L2-normalized; a document with no in-vocabulary
// terms yields an all-zero row. A corpus with no usable terms in any
// document is a ConfigError rather than an all-zero matrix: there is
// nothing to decompose downstream, so training fails fast before any
// artifact is written.
func (v *Vectorizer) FitTransform(corpus []string) (*sparse.CSR, error) {
	if v.fitted {
		return nil, &ConfigError{Param: "vectorizer", Reason: "already fitted; one fit per training run"}
	}

	docTerms := make([][]string, len(corpus))
	df := make(map[string]int)
	for i, doc := range corpus {
		toks := terms(doc)
		docTerms[i] = toks
		seen := make(map[string]bool, len(toks))
		for _, t := range toks {
			if !seen[t] {
				df[t]++
				seen[t] = true
			}
		}
	}
	if len(df) == 0 {
		return nil, &ConfigError{Param: "corpus", Reason: "no usable terms in any document"}
	}

	// Rank terms by document frequency, alphabetical on ties, cap at
	// MaxFeatures.
	ranked := make([]string, 0, len(df))
	for t := range df {
		ranked = append(ranked, t)
	}
	sort.Slice(ranked, func(a, b int) bool {
		if df[ranked[a]] != df[ranked[b]] {
			return df[ranked[a]] > df[ranked[b]]
		}
		return ranked[a] < ranked[b]
	})
	if len(ranked) > v.MaxFeatures {
		ranked = ranked[:v.MaxFeatures]
	}
	sort.Strings(ranked)

	v.Terms = ranked
	for i, t := range ranked {
		v.Vocabulary[t] = i
	}

	// Smooth IDF: ln((1+N)/(1+df)) + 1.
	n := float64(len(corpus))
	v.IDF = make([]float64, len(ranked))
	for i, t := range ranked {
		v.IDF[i] = math.Log((1+n)/(1+float64(df[t]))) + 1
	}
	v.fitted = true

	dok := sparse.NewDOK(len(corpus), len(ranked))
	for i, toks := range docTerms {
		for col, w := range v.weights(toks) {
			dok.Set(i, col, w)
		}
	}
	return dok.ToCSR(), nil
}

// Transform embeds an out-of-sample normalized document against the fitted
// vocabulary, returning a dense L2-normalized row of length V. Unknown terms
// are ignored; a document with no in-vocabulary terms yields a zero row.
func (v *Vectorizer) Transform(doc string) []float64 {
	row := make([]float64, len(v.Terms))
	for col, w := range v.weights(terms(doc)) {
		row[col] = w
	}
	return row
}

// weights computes the L2-normalized tf-idf weights of one document, keyed
// by vocabulary column.
func (v *Vectorizer) weights(toks []string) map[int]float64 {
	tf := make(map[int]float64)
	for _, t := range toks {
		if col, ok := v.Vocabulary[t]; ok {
			tf[col]++
		}
	}
	var sumSq float64
	for col := range tf {
		tf[col] *= v.IDF[col]
		sumSq += tf[col] * tf[col]
	}
	if sumSq > 0 {
		norm := math.Sqrt(sumSq)
		for col := range tf {
			tf[col] /= norm
		}
	}
	return tf
}
