package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the top-level application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	Sweep    SweepConfig    `yaml:"sweep"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig holds database connection settings. URL is overridden
// by the DATABASE_URL environment variable when set.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// StorageConfig holds blob storage settings.
type StorageConfig struct {
	Dir string `yaml:"dir"` // upload root, one subdirectory per document
}

// SweepConfig holds settings for the abandoned-upload sweeper.
// An empty schedule disables the sweep.
type SweepConfig struct {
	Schedule   string        `yaml:"schedule"`    // cron expression, e.g. "@every 5m"
	StaleAfter time.Duration `yaml:"stale_after"` // age before a blobless "created" row counts as abandoned
}

// defaults returns a Config populated with sensible default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Dir: "data/uploads",
		},
		Sweep: SweepConfig{
			Schedule:   "@every 5m",
			StaleAfter: 15 * time.Minute,
		},
	}
}

// Load reads a YAML configuration file at path and returns a Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnv(cfg)
	return cfg, nil
}

// LoadDefault tries to load "config.yaml" from the current directory.
// If the file does not exist, it returns defaults with environment
// overrides applied. Any other error (e.g. permission denied,
// malformed YAML) is returned.
func LoadDefault() (*Config, error) {
	cfg, err := Load("config.yaml")
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg = defaults()
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("UPLOADS_DIR"); v != "" {
		cfg.Storage.Dir = v
	}
}
