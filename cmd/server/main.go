package main

import (
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/music-engine/backend/internal/api"
	"github.com/music-engine/backend/internal/artifacts"
	"github.com/music-engine/backend/internal/config"
	"github.com/music-engine/backend/internal/enrich"
	"github.com/music-engine/backend/internal/recommend"
)

func main() {
	// Setup Logging
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	entry := logger.WithField("service", "recommender-api")

	entry.Info("Starting Music Recommendation API Service")

	// 1. Config (.env is optional)
	_ = godotenv.Load()
	cfg := config.Load()

	// 2. Trained Artifacts — refuse to serve against an inconsistent
	// bundle.
	bundle, err := artifacts.Load(cfg.Server.ModelDir)
	if err != nil {
		entry.Fatalf("Failed to load artifact bundle: %v", err)
	}
	entry.Infof("Loaded %d songs (%d-dim embeddings)", len(bundle.Table), bundle.Index.Dim())

	// 3. Enrichment (optional — without credentials the engine serves raw
	// similarity results)
	var enricher enrich.Enricher
	if cfg.Enrichment.ClientID != "" && cfg.Enrichment.ClientSecret != "" {
		enricher = enrich.NewClient(cfg.Enrichment, logger.WithField("component", "enrich"))
	} else {
		entry.Warn("No enrichment credentials configured; serving without catalog metadata")
	}

	// 4. Engine
	eng := recommend.NewEngine(bundle, enricher, cfg.Recommend, logger.WithField("component", "recommend"))

	// 5. API Server
	server := api.NewServer(eng, entry)

	entry.Infof("Music Recommendation API ready on %s", cfg.Server.ListenAddr)
	if err := server.Start(cfg.Server.ListenAddr); err != nil {
		entry.Fatal(err)
	}
}
