package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the configuration for the recommendation service
type Config struct {
	Training   TrainingConfig
	Server     ServerConfig
	Recommend  RecommendConfig
	Enrichment EnrichmentConfig
}

// TrainingConfig holds offline pipeline configuration
type TrainingConfig struct {
	DatasetPath string
	ModelDir    string
	SampleSize  int
	SampleSeed  int64
	MaxFeatures int
	Components  int
}

// ServerConfig holds API server configuration
type ServerConfig struct {
	ListenAddr string
	ModelDir   string
}

// RecommendConfig holds recommendation engine configuration
type RecommendConfig struct {
	DefaultTopK int
	// GrowthFactor controls how aggressively the engine re-queries the
	// index when post-filtering leaves fewer than topK candidates.
	GrowthFactor int
}

// EnrichmentConfig holds external catalog API configuration
type EnrichmentConfig struct {
	BaseURL       string
	TokenURL      string
	ClientID      string
	ClientSecret  string
	LookupTimeout time.Duration
	MaxInFlight   int
	MinDelay      time.Duration
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		Training: TrainingConfig{
			DatasetPath: GetStringEnv("TRAINING_DATASET_PATH", "./data/songs.csv"),
			ModelDir:    GetStringEnv("MODEL_DIR", "./models"),
			SampleSize:  GetIntEnv("TRAINING_SAMPLE_SIZE", 15000),
			SampleSeed:  int64(GetIntEnv("TRAINING_SAMPLE_SEED", 42)),
			MaxFeatures: GetIntEnv("TRAINING_MAX_FEATURES", 5000),
			Components:  GetIntEnv("TRAINING_COMPONENTS", 256),
		},
		Server: ServerConfig{
			ListenAddr: GetStringEnv("SERVER_LISTEN_ADDR", ":8080"),
			ModelDir:   GetStringEnv("MODEL_DIR", "./models"),
		},
		Recommend: RecommendConfig{
			DefaultTopK:  GetIntEnv("RECOMMEND_DEFAULT_TOP_K", 15),
			GrowthFactor: GetIntEnv("RECOMMEND_GROWTH_FACTOR", 2),
		},
		Enrichment: EnrichmentConfig{
			BaseURL:       GetStringEnv("ENRICHMENT_BASE_URL", "https://api.spotify.com/v1"),
			TokenURL:      GetStringEnv("ENRICHMENT_TOKEN_URL", "https://accounts.spotify.com/api/token"),
			ClientID:      GetStringEnv("ENRICHMENT_CLIENT_ID", ""),
			ClientSecret:  GetStringEnv("ENRICHMENT_CLIENT_SECRET", ""),
			LookupTimeout: GetDurationEnv("ENRICHMENT_LOOKUP_TIMEOUT", 5*time.Second),
			MaxInFlight:   GetIntEnv("ENRICHMENT_MAX_IN_FLIGHT", 4),
			MinDelay:      GetDurationEnv("ENRICHMENT_MIN_DELAY", 50*time.Millisecond),
		},
	}
}

func GetStringEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func GetIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func GetBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func GetDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
