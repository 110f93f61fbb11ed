package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var validate = validator.New()

// Config holds all comparison-core settings, populated from environment
// variables (optionally via a .env file).
type Config struct {
	// CompareDir is the directory scanned for user CSV files.
	CompareDir string `validate:"required"`

	// MonthWindow is the default retention window in calendar months.
	MonthWindow int `validate:"gt=0"`

	// SimilarityThreshold is the minimum fuzzy-match score for mapping a
	// header to a canonical metric key.
	SimilarityThreshold float64 `validate:"gt=0,lte=1"`

	// ColorSeed seeds color generation when set, making the generated
	// portion of the palette reproducible across runs.
	ColorSeed    int64
	ColorSeedSet bool

	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=json text"`
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("INFO: could not load .env file: %v", err)
	}

	monthWindow, err := getenvInt("MONTH_WINDOW", 12)
	if err != nil {
		return nil, err
	}

	threshold, err := getenvFloat("SIMILARITY_THRESHOLD", 0.6)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		CompareDir:          getenvDefault("COMPARE_DIR", "data/comparison"),
		MonthWindow:         monthWindow,
		SimilarityThreshold: threshold,
		LogLevel:            getenvDefault("LOG_LEVEL", "info"),
		LogFormat:           getenvDefault("LOG_FORMAT", "json"),
	}

	if s := os.Getenv("COLOR_SEED"); s != "" {
		seed, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid COLOR_SEED: %w", err)
		}
		cfg.ColorSeed = seed
		cfg.ColorSeedSet = true
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}
