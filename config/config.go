package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/krisalay/ephemeral-cache/staleness"
)

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Cache   CacheConfig
	Log     LogConfig
	Metrics MetricsConfig
}

type CacheConfig struct {
	// DefaultMaxAge is the staleness threshold used when a check gives none.
	DefaultMaxAge time.Duration
	Shards        int
}

type LogConfig struct {
	Level  string
	Format string // json or text
}

type MetricsConfig struct {
	// Addr is where /metrics is served. Empty disables the endpoint.
	Addr string
}

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Cache: CacheConfig{
			DefaultMaxAge: getDurationEnv("CACHE_DEFAULT_MAX_AGE", staleness.DefaultMaxAge),
			Shards:        getIntEnv("CACHE_SHARDS", 16),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Metrics: MetricsConfig{
			Addr: getEnv("METRICS_ADDR", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Cache.Shards <= 0 {
		return fmt.Errorf("%w: CACHE_SHARDS must be positive, got %d", ErrInvalidConfig, c.Cache.Shards)
	}
	if c.Cache.DefaultMaxAge <= 0 {
		return fmt.Errorf("%w: CACHE_DEFAULT_MAX_AGE must be positive, got %s", ErrInvalidConfig, c.Cache.DefaultMaxAge)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("%w: LOG_FORMAT must be json or text, got %q", ErrInvalidConfig, c.Log.Format)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
