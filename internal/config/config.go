// Package config provides configuration management for the cellar tracker application.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Cache      CacheConfig
	Enrichment EnrichmentConfig
	Vivino     VivinoConfig
	Vision     VisionConfig
	RateLimit  RateLimitConfig
	Logging    LoggingConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Host string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Postgres   PostgresConfig
	ClickHouse ClickHouseConfig
	Redis      RedisConfig
}

// PostgresConfig holds Postgres configuration
type PostgresConfig struct {
	Host           string
	Port           string
	Database       string
	User           string
	Password       string
	MaxConnections int
}

// ClickHouseConfig holds ClickHouse configuration
type ClickHouseConfig struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host           string
	Port           string
	Password       string
	DB             int
	MaxConnections int
}

// CacheConfig holds cache configuration
type CacheConfig struct {
	TTL          time.Duration
	SharedViewTTL time.Duration
}

// EnrichmentConfig holds batch enrichment sweep configuration
type EnrichmentConfig struct {
	// FetchDelay is the unconditional pause after every external fetch.
	// This is the entire rate-limiting mechanism for the sweep.
	FetchDelay time.Duration
	// DefaultLimit caps a sweep when the caller supplies no limit
	DefaultLimit int
}

// VivinoConfig holds Vivino API configuration
type VivinoConfig struct {
	BaseURL           string
	RequestsPerSecond float64
}

// VisionConfig holds label-scan vision API configuration
type VisionConfig struct {
	APIKey string
	Model  string
}

// RateLimitConfig holds per-caller API rate limiting configuration
type RateLimitConfig struct {
	AuthedRPS    int
	AnonymousRPS int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from .env file and environment variables
func LoadConfig() (*Config, error) {
	// Load .env file (optional in production)
	if err := godotenv.Load(); err != nil {
		// .env file is optional - environment variables can be set directly
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Postgres: PostgresConfig{
				Host:           getEnv("POSTGRES_HOST", "localhost"),
				Port:           getEnv("POSTGRES_PORT", "5432"),
				Database:       getEnv("POSTGRES_DB", "cellar_tracker"),
				User:           getEnv("POSTGRES_USER", "cellar"),
				Password:       getEnv("POSTGRES_PASSWORD", ""),
				MaxConnections: getEnvAsInt("POSTGRES_MAX_CONNECTIONS", 50),
			},
			ClickHouse: ClickHouseConfig{
				Host:     getEnv("CLICKHOUSE_HOST", "localhost"),
				Port:     getEnv("CLICKHOUSE_PORT", "9000"),
				Database: getEnv("CLICKHOUSE_DB", "cellar_tracker"),
				User:     getEnv("CLICKHOUSE_USER", "default"),
				Password: getEnv("CLICKHOUSE_PASSWORD", ""),
			},
			Redis: RedisConfig{
				Host:           getEnv("REDIS_HOST", "localhost"),
				Port:           getEnv("REDIS_PORT", "6379"),
				Password:       getEnv("REDIS_PASSWORD", ""),
				DB:             getEnvAsInt("REDIS_DB", 0),
				MaxConnections: getEnvAsInt("REDIS_MAX_CONNECTIONS", 20),
			},
		},
		Cache: CacheConfig{
			TTL:           getEnvAsDuration("CACHE_TTL", time.Minute),
			SharedViewTTL: getEnvAsDuration("CACHE_SHARED_VIEW_TTL", 30*time.Second),
		},
		Enrichment: EnrichmentConfig{
			FetchDelay:   getEnvAsDuration("ENRICHMENT_FETCH_DELAY", 2*time.Second),
			DefaultLimit: getEnvAsInt("ENRICHMENT_DEFAULT_LIMIT", 50),
		},
		Vivino: VivinoConfig{
			BaseURL:           getEnv("VIVINO_BASE_URL", "https://www.vivino.com/api"),
			RequestsPerSecond: getEnvAsFloat("VIVINO_REQUESTS_PER_SECOND", 0.5),
		},
		Vision: VisionConfig{
			APIKey: getEnv("VISION_API_KEY", ""),
			Model:  getEnv("VISION_MODEL", "gpt-4o-mini"),
		},
		RateLimit: RateLimitConfig{
			AuthedRPS:    getEnvAsInt("RATE_LIMIT_AUTHED_RPS", 20),
			AnonymousRPS: getEnvAsInt("RATE_LIMIT_ANONYMOUS_RPS", 5),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// validate checks configuration invariants that would otherwise fail at runtime
func (c *Config) validate() error {
	if c.Enrichment.FetchDelay < 0 {
		return fmt.Errorf("ENRICHMENT_FETCH_DELAY must not be negative")
	}
	if c.Enrichment.DefaultLimit <= 0 {
		return fmt.Errorf("ENRICHMENT_DEFAULT_LIMIT must be positive")
	}
	if c.Database.Postgres.MaxConnections <= 0 {
		return fmt.Errorf("POSTGRES_MAX_CONNECTIONS must be positive")
	}
	return nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat gets an environment variable as a float with a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
