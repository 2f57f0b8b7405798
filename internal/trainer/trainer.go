// Package trainer sequences the offline pipeline: corpus loading, text
// normalization, vectorization, dimensionality reduction, embedding
// normalization, index build and bundle persistence.
package trainer

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/music-engine/backend/internal/artifacts"
	"github.com/music-engine/backend/internal/catalog"
	"github.com/music-engine/backend/internal/config"
	"github.com/music-engine/backend/internal/feature"
	"github.com/music-engine/backend/internal/textnorm"
	"github.com/music-engine/backend/internal/vecindex"
)

// Step is a pipeline stage. Stages advance one way only.
type Step int

const (
	Idle Step = iota
	DataLoaded
	EmbeddingsBuilt
	IndexBuilt
	Saved
)

func (s Step) String() string {
	switch s {
	case Idle:
		return "Idle"
	case DataLoaded:
		return "DataLoaded"
	case EmbeddingsBuilt:
		return "EmbeddingsBuilt"
	case IndexBuilt:
		return "IndexBuilt"
	case Saved:
		return "Saved"
	}
	return fmt.Sprintf("Step(%d)", int(s))
}

// StepError reports a pipeline step invoked out of order. It names the
// prerequisite stage that has not completed. Fatal to the run: no partial
// artifacts are published and the caller must restart from a fresh Trainer.
type StepError struct {
	Attempted string
	Required  Step
	Current   Step
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s requires stage %s, but trainer is at %s", e.Attempted, e.Required, e.Current)
}

// Trainer owns one training run's in-memory state, including the fitted
// feature state needed to embed future unseen songs.
type Trainer struct {
	cfg    config.TrainingConfig
	logger *logrus.Entry

	step       Step
	table      catalog.Table
	embeddings [][]float32
	index      *vecindex.Flat
	state      *feature.State
}

func New(cfg config.TrainingConfig, logger *logrus.Entry) *Trainer {
	return &Trainer{cfg: cfg, logger: logger, step: Idle}
}

// Step reports the current pipeline stage.
func (t *Trainer) Step() Step { return t.step }

// FeatureState returns the fitted vectorizer and reducer, available once
// embeddings have been built.
func (t *Trainer) FeatureState() *feature.State { return t.state }

// LoadData reads and samples the dataset CSV. Idle -> DataLoaded.
func (t *Trainer) LoadData() error {
	if t.step != Idle {
		return &StepError{Attempted: "LoadData", Required: Idle, Current: t.step}
	}
	table, err := catalog.LoadCSV(t.cfg.DatasetPath, t.cfg.SampleSize, t.cfg.SampleSeed)
	if err != nil {
		return err
	}
	t.table = table
	t.step = DataLoaded
	t.logger.WithField("songs", len(table)).Info("Dataset loaded")
	return nil
}

// BuildEmbeddings normalizes every song text, fits the TF-IDF vectorizer
// and the SVD reducer, and L2-normalizes the resulting latent vectors.
// DataLoaded -> EmbeddingsBuilt.
func (t *Trainer) BuildEmbeddings() error {
	if t.step != DataLoaded {
		return &StepError{Attempted: "BuildEmbeddings", Required: DataLoaded, Current: t.step}
	}

	corpus := make([]string, len(t.table))
	for i := range t.table {
		corpus[i] = textnorm.Normalize(t.table[i].Text)
	}

	vectorizer := feature.NewVectorizer(t.cfg.MaxFeatures)
	tfidf, err := vectorizer.FitTransform(corpus)
	if err != nil {
		return err
	}

	reducer := feature.NewReducer(t.cfg.Components)
	embeddings, err := reducer.FitTransform(tfidf)
	if err != nil {
		return err
	}
	feature.NormalizeRows(embeddings)

	t.embeddings = embeddings
	t.state = &feature.State{Vectorizer: vectorizer, Reducer: reducer}
	t.step = EmbeddingsBuilt
	t.logger.WithFields(logrus.Fields{
		"vocabulary": len(vectorizer.Terms),
		"dimensions": reducer.Components,
	}).Info("Embeddings built")
	return nil
}

// BuildIndex constructs the exact inner-product index over the embeddings.
// EmbeddingsBuilt -> IndexBuilt.
func (t *Trainer) BuildIndex() error {
	if t.step != EmbeddingsBuilt {
		return &StepError{Attempted: "BuildIndex", Required: EmbeddingsBuilt, Current: t.step}
	}
	index, err := vecindex.Build(t.embeddings)
	if err != nil {
		return err
	}
	t.index = index
	t.step = IndexBuilt
	t.logger.WithField("vectors", index.Len()).Info("Index built")
	return nil
}

// Save publishes the artifact bundle atomically. IndexBuilt -> Saved.
func (t *Trainer) Save() error {
	if t.step != IndexBuilt {
		return &StepError{Attempted: "Save", Required: IndexBuilt, Current: t.step}
	}
	bundle := &artifacts.Bundle{
		Table:      t.table,
		Embeddings: t.embeddings,
		Index:      t.index,
	}
	if err := artifacts.Save(t.cfg.ModelDir, bundle); err != nil {
		return err
	}
	t.step = Saved
	t.logger.WithField("dir", t.cfg.ModelDir).Info("Artifacts saved")
	return nil
}

// Train runs the full pipeline in order. Any failure discards the run's
// in-memory state; restart from a fresh Trainer.
func (t *Trainer) Train() error {
	for _, step := range []func() error{t.LoadData, t.BuildEmbeddings, t.BuildIndex, t.Save} {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}
