// Package cli holds the wiring shared by the tendril commands: config
// loading, snapshot store construction and the demo notes app.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the YAML configuration for the tendril command.
type Config struct {
	Name     string      `yaml:"name"`
	LogLevel string      `yaml:"log_level"`
	Listen   string      `yaml:"listen"`
	SaveURL  string      `yaml:"save_url"`
	Store    StoreConfig `yaml:"store"`
}

// StoreConfig selects and configures the snapshot store backend.
type StoreConfig struct {
	// Backend is one of "memory", "file", "redis" or "bolt".
	Backend  string `yaml:"backend"`
	Path     string `yaml:"path"`     // file: directory, bolt: db file
	Address  string `yaml:"address"`  // redis
	Password string `yaml:"password"` // redis
	DB       int    `yaml:"db"`       // redis
	Prefix   string `yaml:"prefix"`   // redis
	TTL      string `yaml:"ttl"`      // redis, e.g. "1h"
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Name:     "tendril",
		LogLevel: "info",
		Listen:   ":8080",
		SaveURL:  "http://localhost:8080/save",
		Store:    StoreConfig{Backend: "memory"},
	}
}

// LoadConfig reads a YAML config file, filling unset fields from the
// defaults. An empty path returns the defaults unchanged.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = "memory"
	}
	return cfg, nil
}

// Level parses the configured log level, defaulting to info.
func (c Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
