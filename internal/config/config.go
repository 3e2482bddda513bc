// Package config loads socialctl settings: built-in defaults, then an optional
// YAML file, then SOCIAL_* environment variables.
package config

import (
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/DaDevFox/task-systems/social-core/internal/logging"
)

// Supported feed store kinds
const (
	FeedStoreMemory = "memory"
	FeedStoreBadger = "badger"
	FeedStoreBolt   = "bolt"
	FeedStorePebble = "pebble"
	FeedStoreSQLite = "sqlite"
)

// Config holds everything needed to assemble a directory service
type Config struct {
	LogLevel  string `yaml:"log_level" env:"SOCIAL_LOG_LEVEL"`
	LogFormat string `yaml:"log_format" env:"SOCIAL_LOG_FORMAT"`
	RootName  string `yaml:"root_name" env:"SOCIAL_ROOT_NAME"`
	FeedStore string `yaml:"feed_store" env:"SOCIAL_FEED_STORE"`
	DataDir   string `yaml:"data_dir" env:"SOCIAL_DATA_DIR"`
	SeedFile  string `yaml:"seed_file" env:"SOCIAL_SEED_FILE"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		RootName:  "Root",
		FeedStore: FeedStoreMemory,
		DataDir:   "./data",
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and the environment. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config %s", path)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, "parse env")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads variables from a .env file into the process environment.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return errors.Wrapf(err, "load %s", path)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if !logging.ValidLevel(c.LogLevel) {
		return errors.Errorf("invalid log level %q", c.LogLevel)
	}
	if !logging.ValidFormat(c.LogFormat) {
		return errors.Errorf("invalid log format %q", c.LogFormat)
	}
	if strings.TrimSpace(c.RootName) == "" {
		return errors.New("root name cannot be empty")
	}
	switch c.FeedStore {
	case FeedStoreMemory:
	case FeedStoreBadger, FeedStoreBolt, FeedStorePebble, FeedStoreSQLite:
		if c.DataDir == "" {
			return errors.Errorf("feed store %s needs a data directory", c.FeedStore)
		}
	default:
		return errors.Errorf("unsupported feed store %q", c.FeedStore)
	}
	return nil
}
