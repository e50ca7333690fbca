package config

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds process configuration, loaded from the environment.
type Config struct {
	// RedisAddr points at the backend store and push transport
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// UserID and Username identify the local viewer
	UserID   string `env:"VIBEMAP_USER_ID"`
	Username string `env:"VIBEMAP_USERNAME"`

	// TickInterval drives lifecycle countdown recomputation
	TickInterval time.Duration `env:"VIBEMAP_TICK_INTERVAL" envDefault:"45s"`

	// MetricsAddr serves prometheus metrics; empty disables the listener
	MetricsAddr string `env:"VIBEMAP_METRICS_ADDR" envDefault:":9102"`
}

// Load parses configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if cfg.UserID == "" {
		return nil, errors.New("VIBEMAP_USER_ID is required")
	}

	return cfg, nil
}
