package main

import (
	"flag"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/music-engine/backend/internal/config"
	"github.com/music-engine/backend/internal/trainer"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	entry := logger.WithField("service", "trainer")

	_ = godotenv.Load()
	cfg := config.Load()

	dataset := flag.String("dataset", cfg.Training.DatasetPath, "path to the song dataset CSV")
	modelDir := flag.String("out", cfg.Training.ModelDir, "output directory for the artifact bundle")
	sample := flag.Int("sample", cfg.Training.SampleSize, "sample size (0 = full dataset)")
	flag.Parse()

	cfg.Training.DatasetPath = *dataset
	cfg.Training.ModelDir = *modelDir
	cfg.Training.SampleSize = *sample

	entry.WithFields(logrus.Fields{
		"dataset":    cfg.Training.DatasetPath,
		"out":        cfg.Training.ModelDir,
		"components": cfg.Training.Components,
	}).Info("Starting training run")

	t := trainer.New(cfg.Training, entry)
	if err := t.Train(); err != nil {
		entry.Fatalf("Training failed: %v", err)
	}

	entry.Info("Training completed successfully")
}
