// Package config loads the questrules configuration from an optional YAML
// file and environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "QUESTRULES_"

// Config holds all questrules configuration.
type Config struct {
	// Packages is the root directory holding one subdirectory per package.
	Packages string `yaml:"packages" env:"PACKAGES"`
	// Database is the SQLite file actor records are stored in.
	Database string `yaml:"database" env:"DB"`
	// SaveDir holds console snapshots written by /save.
	SaveDir string `yaml:"save_dir" env:"SAVE_DIR"`
	// Watch reloads packages when their files change.
	Watch    bool          `yaml:"watch" env:"WATCH"`
	Debounce time.Duration `yaml:"debounce" env:"DEBOUNCE"`

	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level       string `yaml:"level" env:"LOG_LEVEL"` // debug, info, warn, error
	Development bool   `yaml:"development" env:"LOG_DEVELOPMENT"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Packages: "./packages",
		Database: "questrules.db",
		SaveDir:  "saves",
		Debounce: 500 * time.Millisecond,
		Logging:  LoggingConfig{Level: "info"},
	}
}

// Load reads path over the defaults, then applies environment overrides.
// A missing file is not an error; an empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks required settings.
func (c Config) Validate() error {
	if c.Packages == "" {
		return errors.New("config: packages directory is required")
	}
	if c.Debounce < 0 {
		return errors.New("config: debounce must not be negative")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.Logging.Level)
	}
	return nil
}

// Save writes the configuration as YAML.
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
