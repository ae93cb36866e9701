// Package config holds the application configuration and the per-run
// settings file describing a disaggregation.
package config

import (
	"fmt"
	"runtime"

	"github.com/kelseyhightower/envconfig"
)

// Config represents the application configuration. Values come from the
// environment with MRIO_ prefixed variables.
type Config struct {
	Logging LoggingConfig `envconfig:"LOGGING"`
	Workers int           `envconfig:"WORKERS" default:"0"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level       string `envconfig:"LEVEL" default:"info"`
	Format      string `envconfig:"FORMAT" default:"text"`
	Output      string `envconfig:"OUTPUT" default:"console"`
	FilePath    string `envconfig:"FILE_PATH" default:"logs/disaggregate.log"`
	Development bool   `envconfig:"DEVELOPMENT" default:"false"`
}

// Load loads the application configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("MRIO", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	return &cfg, nil
}

// Default returns the configuration used when the environment provides
// nothing.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "console",
		},
		Workers: runtime.NumCPU(),
	}
}
