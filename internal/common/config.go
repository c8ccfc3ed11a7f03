package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Batch    BatchConfig
	Extract  ExtractConfig
}

// DatabaseConfig holds archive-store configuration.
// When DSN is empty the store falls back to local SQLite.
type DatabaseConfig struct {
	DSN             string
	SQLitePath      string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// BatchConfig holds batch-processing configuration
type BatchConfig struct {
	Workers   int
	Tolerance string // absolute net+VAT vs gross tolerance, decimal string
	RulesPath string // optional ruleset override; empty -> embedded default
}

// ExtractConfig holds text-extraction configuration
type ExtractConfig struct {
	Pdftotext string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:             getEnv("DB_URL", ""),
			SQLitePath:      getEnv("SQLITE_PATH", "file::memory:?cache=shared"),
			MaxConns:        getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt32("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Batch: BatchConfig{
			Workers:   getEnvAsInt("WORKERS", 4),
			Tolerance: getEnv("TOLERANCE", "0.01"),
			RulesPath: getEnv("RULES_PATH", ""),
		},
		Extract: ExtractConfig{
			Pdftotext: getEnv("PDFTOTEXT", "pdftotext"),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Batch.Workers < 1 {
		return fmt.Errorf("WORKERS must be >= 1, got %d", c.Batch.Workers)
	}
	if _, err := decimal.NewFromString(c.Batch.Tolerance); err != nil {
		return fmt.Errorf("TOLERANCE must be a decimal string: %w", err)
	}
	return nil
}

// ToleranceDecimal parses the configured tolerance, falling back to 0.01.
func (c *Config) ToleranceDecimal() decimal.Decimal {
	d, err := decimal.NewFromString(c.Batch.Tolerance)
	if err != nil || d.IsNegative() {
		return decimal.New(1, -2)
	}
	return d
}
