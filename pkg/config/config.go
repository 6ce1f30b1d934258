package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application. Environment
// variables are read here and nowhere else; pipeline stages receive
// their settings as explicit values, never from process-wide state.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Market data source
	MarketData MarketDataConfig

	// Analysis defaults
	Analysis AnalysisConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	URL string

	// Connection pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// MarketDataConfig holds the price-history source configuration.
type MarketDataConfig struct {
	BaseURL        string
	SymbolsURL     string
	RequestsPerSec float64
	Timeout        time.Duration
	StartDate      string // YYYY-MM-DD
	EndDate        string // YYYY-MM-DD
}

// AnalysisConfig holds default parameters for the correlation pipeline.
// These are defaults only: every pipeline call receives its own copy.
type AnalysisConfig struct {
	Threshold      float64
	LayoutSeed     int64
	LayoutDim      int
	SpringConstant float64
	LayoutIters    int
	DataDir        string
}

// Load reads configuration from environment variables. This is the only
// function in the repository that calls os.Getenv.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom is Load with an explicit env file. An empty path falls back
// to the usual .env search; a named path must exist.
func LoadFrom(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("loading env file %s: %w", envFile, err)
		}
	} else {
		loadEnvFile()
	}

	cfg := &Config{
		Port: getEnv("PORT", "8090"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvDuration("DB_MAX_CONN_LIFETIME", time.Hour),
			MaxConnIdleTime: getEnvDuration("DB_MAX_CONN_IDLE_TIME", 30*time.Minute),
		},

		MarketData: MarketDataConfig{
			BaseURL:        getEnv("MARKETDATA_BASE_URL", "https://stooq.com/q/d/l/"),
			SymbolsURL:     getEnv("MARKETDATA_SYMBOLS_URL", "https://www.slickcharts.com/sp500"),
			RequestsPerSec: getEnvFloat("MARKETDATA_RPS", 2.0),
			Timeout:        getEnvDuration("MARKETDATA_TIMEOUT", 30*time.Second),
			StartDate:      getEnv("MARKETDATA_START_DATE", "2020-01-01"),
			EndDate:        getEnv("MARKETDATA_END_DATE", "2024-01-01"),
		},

		Analysis: AnalysisConfig{
			Threshold:      getEnvFloat("ANALYSIS_THRESHOLD", 0.5),
			LayoutSeed:     int64(getEnvInt("ANALYSIS_LAYOUT_SEED", 42)),
			LayoutDim:      getEnvInt("ANALYSIS_LAYOUT_DIM", 3),
			SpringConstant: getEnvFloat("ANALYSIS_SPRING_CONSTANT", 0.3),
			LayoutIters:    getEnvInt("ANALYSIS_LAYOUT_ITERS", 50),
			DataDir:        getEnv("ANALYSIS_DATA_DIR", "data"),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Analysis.Threshold < 0 || c.Analysis.Threshold > 1 {
		return fmt.Errorf("ANALYSIS_THRESHOLD must be in [0, 1], got %v", c.Analysis.Threshold)
	}
	if c.Analysis.LayoutDim != 2 && c.Analysis.LayoutDim != 3 {
		return fmt.Errorf("ANALYSIS_LAYOUT_DIM must be 2 or 3, got %d", c.Analysis.LayoutDim)
	}
	if c.Analysis.LayoutIters <= 0 {
		return fmt.Errorf("ANALYSIS_LAYOUT_ITERS must be positive, got %d", c.Analysis.LayoutIters)
	}
	if c.MarketData.RequestsPerSec <= 0 {
		return fmt.Errorf("MARKETDATA_RPS must be positive, got %v", c.MarketData.RequestsPerSec)
	}
	return nil
}

// loadEnvFile tries common locations for a .env file. Missing files are
// fine; real deployments set variables directly.
func loadEnvFile() {
	candidates := []string{
		".env",
		filepath.Join("..", ".env"),
		filepath.Join("..", "..", ".env"),
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
