// Package recommend is the online serving counterpart of the training
// pipeline: given a seed song it queries the vector index for the most
// similar tracks, excludes the seed itself, applies enrichment-based
// filters and returns a ranked candidate list.
package recommend

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/music-engine/backend/internal/artifacts"
	"github.com/music-engine/backend/internal/config"
	"github.com/music-engine/backend/internal/enrich"
	"github.com/music-engine/backend/internal/feature"
)

// Result is one recommended track in rank order. Info is nil when no
// enricher is configured.
type Result struct {
	Row    int
	Title  string
	Artist string
	Score  float32
	Info   *enrich.TrackInfo
}

// Options are per-request knobs.
type Options struct {
	// HideNoPreview drops candidates whose catalog entry has no preview
	// clip. Requires a configured enricher.
	HideNoPreview bool
}

// Engine serves similarity queries over a loaded artifact bundle. The
// bundle is read-only after load, so concurrent Recommend calls share it
// without locking; the only mutable state is the enricher's internal cache
// and the query counter.
type Engine struct {
	bundle   *artifacts.Bundle
	enricher enrich.Enricher
	logger   *logrus.Entry
	cfg      config.RecommendConfig

	startTime time.Time
	queries   int64
}

// NewEngine wires a loaded bundle with an optional enricher. A nil enricher
// disables enrichment and filtering; every candidate is returned as-is.
func NewEngine(bundle *artifacts.Bundle, enricher enrich.Enricher, cfg config.RecommendConfig, logger *logrus.Entry) *Engine {
	if cfg.GrowthFactor < 2 {
		cfg.GrowthFactor = 2
	}
	return &Engine{
		bundle:    bundle,
		enricher:  enricher,
		logger:    logger,
		cfg:       cfg,
		startTime: time.Now(),
	}
}

// Bundle exposes the loaded artifacts for read-only consumers (the API's
// song and artist listings).
func (e *Engine) Bundle() *artifacts.Bundle { return e.bundle }

// StartTime reports when the engine was created.
func (e *Engine) StartTime() time.Time { return e.startTime }

// Queries reports how many recommendation requests have been served.
func (e *Engine) Queries() int64 { return atomic.LoadInt64(&e.queries) }

// Recommend returns up to topK tracks most similar to the seed song,
// in descending similarity order. An unknown seed, an empty corpus or an
// over-filtered candidate set yields a short or empty slice, never an
// error: "nothing to show" is a normal outcome.
//
// The seed is resolved by exact title match; when several rows share the
// title the first table row wins. The seed's own row is never part of the
// result.
func (e *Engine) Recommend(ctx context.Context, seed string, topK int, opts Options) []Result {
	atomic.AddInt64(&e.queries, 1)

	if topK <= 0 {
		topK = e.cfg.DefaultTopK
	}

	row := e.bundle.Table.FindByTitle(seed)
	if row < 0 {
		e.logger.WithField("seed", seed).Debug("Seed song not in catalog")
		return nil
	}

	// Re-normalize a copy of the seed embedding defensively before
	// querying; the stored vector must stay untouched.
	query := append([]float32(nil), e.bundle.Embeddings[row]...)
	feature.NormalizeVector(query)

	n := e.bundle.Index.Len()
	results := make([]Result, 0, topK)

	// One extra slot for the seed, which is always its own nearest
	// neighbor. When filtering rejects candidates the fetch depth grows
	// geometrically, capped at the corpus size.
	fetchK := topK + 1
	if fetchK > n {
		fetchK = n
	}
	examined := 0

	for {
		hits, err := e.bundle.Index.Search(query, fetchK)
		if err != nil {
			e.logger.WithError(err).Error("Index query failed")
			return nil
		}

		for _, hit := range hits[examined:] {
			if hit.Row == row {
				continue
			}
			song := e.bundle.Table[hit.Row]

			var info *enrich.TrackInfo
			if e.enricher != nil {
				info = e.enricher.Lookup(ctx, song.Title, song.Artist)
				if info == nil {
					continue
				}
				if opts.HideNoPreview && info.PreviewURL == "" {
					continue
				}
			}

			results = append(results, Result{
				Row:    hit.Row,
				Title:  song.Title,
				Artist: song.Artist,
				Score:  hit.Score,
				Info:   info,
			})
			if len(results) == topK {
				return results
			}
		}
		examined = len(hits)

		if fetchK >= n {
			return results
		}
		fetchK *= e.cfg.GrowthFactor
		if fetchK > n {
			fetchK = n
		}
	}
}
