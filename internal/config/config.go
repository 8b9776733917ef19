// Package config loads and validates runtime configuration at startup.
// Fail-fast: if a required setting is missing, the process exits.
package config

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
)

// Config holds all runtime configuration for the matcher service.
type Config struct {
	Port        string `mapstructure:"port"`
	DatabaseURL string `mapstructure:"database_url"`
	RedisURL    string `mapstructure:"redis_url"`

	// Workers is the number of concurrent queue consumers.
	Workers int `mapstructure:"workers"`
	// MaxRetries is the default retry budget stamped on new queue items.
	MaxRetries int `mapstructure:"max_retries"`

	ItemTimeout  time.Duration `mapstructure:"item_timeout"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	// PolicyCacheTTL bounds how stale a cached policy may be served.
	PolicyCacheTTL time.Duration `mapstructure:"policy_cache_ttl"`
	// CleanupIntervalHours is how often the duplicate cleanup cron fires.
	CleanupIntervalHours int `mapstructure:"cleanup_interval_hours"`
}

// Load reads configuration from the environment (and an optional config
// file already registered with viper) and returns a validated Config.
func Load() (*Config, error) {
	v := viper.GetViper()

	v.SetDefault("port", "8083")
	v.SetDefault("workers", 4)
	v.SetDefault("max_retries", 3)
	v.SetDefault("item_timeout", 2*time.Minute)
	v.SetDefault("poll_interval", 2*time.Second)
	v.SetDefault("policy_cache_ttl", time.Minute)
	v.SetDefault("cleanup_interval_hours", 6)

	v.AutomaticEnv()
	for _, key := range []string{
		"port", "database_url", "redis_url", "workers", "max_retries",
		"item_timeout", "poll_interval", "policy_cache_ttl", "cleanup_interval_hours",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, errors.Wrapf(err, "bind %s", key)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.Workers < 1 {
		return nil, errors.Newf("WORKERS must be a positive integer, got %d", cfg.Workers)
	}
	if cfg.CleanupIntervalHours < 1 {
		return nil, errors.Newf("CLEANUP_INTERVAL_HOURS must be a positive integer, got %d", cfg.CleanupIntervalHours)
	}

	return &cfg, nil
}
