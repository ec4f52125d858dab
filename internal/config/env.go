package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
)

// EnvPrefix prefixes every environment variable read by LoadFromEnv.
const EnvPrefix = "ADMUTER_"

// LoadFromEnv loads configuration from environment variables.
// Variables that are not set keep the values already in cfg.
func LoadFromEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return errors.Wrap(err, "parse environment")
	}
	return nil
}

// New creates a new Config with default values and loads from environment
func New() (*Config, error) {
	cfg := Default()
	if err := LoadFromEnv(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
