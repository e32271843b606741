package config

import (
	"os"
	"strconv"
	"strings"

	"crosspred/internal/errors"

	"github.com/joho/godotenv"
)

// Config represents the complete application configuration
type Config struct {
	Data     DataConfig
	Database DatabaseConfig
	Server   ServerConfig
	Analysis AnalysisConfig
	LogLevel string
}

// DataConfig holds input and output locations
type DataConfig struct {
	LabelsFile string
	FCDir      string
	OutputDir  string
}

// DatabaseConfig holds the optional Postgres connection. An empty URL
// selects the CSV result store.
type DatabaseConfig struct {
	URL string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// AnalysisConfig drives the cross-prediction study
type AnalysisConfig struct {
	NumPermutations int
	Seed            int64
	Workers         int
	CVSplits        int
	CVRepeats       int
	NumBins         int
	WISCLevel       int
	Measures        []string // empty means every measure of WISCLevel
	Models          []string
	Scorer          string
	RidgeAlpha      float64
	PLSComponents   int
}

// Load reads an optional .env file, then the environment, then the optional
// study plan named by STUDY_FILE, and validates the result
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := FromEnv()
	if path := os.Getenv("STUDY_FILE"); path != "" {
		plan, err := LoadStudy(path)
		if err != nil {
			return nil, err
		}
		plan.Apply(&cfg.Analysis)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return cfg, nil
}

// FromEnv builds a configuration from environment variables and defaults
func FromEnv() *Config {
	return &Config{
		Data: DataConfig{
			LabelsFile: getEnvOrDefault("LABELS_FILE", ""),
			FCDir:      getEnvOrDefault("FC_DIR", ""),
			OutputDir:  getEnvOrDefault("OUTPUT_DIR", "results"),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Server: ServerConfig{
			Port:    getEnvOrDefault("PORT", "8080"),
			GinMode: getEnvOrDefault("GIN_MODE", "release"),
		},
		Analysis: AnalysisConfig{
			NumPermutations: getEnvIntOrDefault("N_PERMUTATIONS", 500),
			Seed:            int64(getEnvIntOrDefault("SEED", 42)),
			Workers:         getEnvIntOrDefault("WORKERS", 1),
			CVSplits:        getEnvIntOrDefault("CV_SPLITS", 10),
			CVRepeats:       getEnvIntOrDefault("CV_REPEATS", 10),
			NumBins:         getEnvIntOrDefault("NUM_BINS", 3),
			WISCLevel:       getEnvIntOrDefault("WISC_LEVEL", 5),
			Measures:        getEnvListOrDefault("MEASURES", nil),
			Models:          getEnvListOrDefault("MODELS", []string{"ridge", "pls"}),
			Scorer:          getEnvOrDefault("SCORER", "unimetric"),
			RidgeAlpha:      getEnvFloatOrDefault("RIDGE_ALPHA", 1.0),
			PLSComponents:   getEnvIntOrDefault("PLS_COMPONENTS", 2),
		},
		LogLevel: getEnvOrDefault("LOG_LEVEL", "INFO"),
	}
}

// Validate checks the analysis parameters. Paths are checked by the
// commands that need them.
func (c *Config) Validate() error {
	a := c.Analysis
	switch {
	case a.NumPermutations < 0:
		return errors.ConfigInvalid("N_PERMUTATIONS must not be negative")
	case a.Workers < 1:
		return errors.ConfigInvalid("WORKERS must be at least 1")
	case a.CVSplits < 2:
		return errors.ConfigInvalid("CV_SPLITS must be at least 2")
	case a.CVRepeats < 1:
		return errors.ConfigInvalid("CV_REPEATS must be at least 1")
	case a.NumBins != 2 && a.NumBins != 3:
		return errors.ConfigInvalid("NUM_BINS must be 2 or 3")
	case a.WISCLevel < 0 || a.WISCLevel > 5:
		return errors.ConfigInvalid("WISC_LEVEL must be between 0 and 5")
	case len(a.Models) == 0:
		return errors.ConfigInvalid("MODELS must name at least one model")
	case a.RidgeAlpha < 0:
		return errors.ConfigInvalid("RIDGE_ALPHA must not be negative")
	case a.PLSComponents < 1:
		return errors.ConfigInvalid("PLS_COMPONENTS must be at least 1")
	}
	return nil
}

// RequireData checks that the inputs needed to build a cohort are set
func (c *Config) RequireData() error {
	if c.Data.LabelsFile == "" {
		return errors.ConfigInvalid("LABELS_FILE is required")
	}
	if c.Data.FCDir == "" {
		return errors.ConfigInvalid("FC_DIR is required")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
