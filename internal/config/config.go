// Swan-Z Style Engine - Personalization and Recommendation
// Copyright 2026 Swan-Z Style
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swanz/styleengine

// Package config loads layered application configuration using Koanf v2.
// Precedence is environment variables over the optional YAML config file
// over built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/swanz/styleengine/internal/logging"
	"github.com/swanz/styleengine/internal/recommend"
	"github.com/swanz/styleengine/internal/recommend/profile"
	"github.com/swanz/styleengine/internal/remote"
)

// DefaultConfigPaths lists where config files are searched, in order. The
// first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/styleengine/config.yaml",
	"/etc/styleengine/config.yml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "STYLEENGINE_CONFIG"

// envPrefix namespaces environment variable overrides. Double underscores
// separate nesting levels so snake_case field names survive:
// STYLEENGINE_ENGINE__WEIGHTS__POPULARITY -> engine.weights.popularity
const envPrefix = "STYLEENGINE_"

// Config is the full application configuration.
type Config struct {
	// Engine configures signal weights, limits, and the response cache.
	Engine recommend.Config `koanf:"engine" json:"engine"`

	// Updater configures the preference update loop.
	Updater profile.UpdaterConfig `koanf:"updater" json:"updater"`

	// Remote configures the external AI style scorer client.
	Remote remote.Config `koanf:"remote" json:"remote"`

	// ProfileStore selects profile persistence: memory or badger.
	// Default: memory.
	ProfileStore string `koanf:"profile_store" json:"profile_store"`

	// ProfileStorePath is the BadgerDB directory when ProfileStore is
	// badger.
	// Default: /data/profiles.
	ProfileStorePath string `koanf:"profile_store_path" json:"profile_store_path"`

	// Log configures the global logger.
	Log logging.Config `koanf:"log" json:"log"`
}

// defaultConfig returns built-in defaults, applied before file and env
// layers.
func defaultConfig() *Config {
	return &Config{
		Engine:           *recommend.DefaultConfig(),
		Updater:          profile.DefaultUpdaterConfig(),
		Remote:           remote.DefaultConfig(),
		ProfileStore:     "memory",
		ProfileStorePath: "/data/profiles",
		Log:              logging.DefaultConfig(),
	}
}

// Load builds configuration from three layers:
//  1. Built-in defaults
//  2. Optional YAML config file
//  3. STYLEENGINE_-prefixed environment variables (highest priority)
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// STYLEENGINE_ENGINE__LIMITS__MAX_LIMIT -> engine.limits.max_limit
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks cross-field constraints that koanf cannot express.
func (c *Config) Validate() error {
	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	if c.Updater.LearningRate <= 0 || c.Updater.LearningRate > 1 {
		return fmt.Errorf("updater: learning_rate must be in (0, 1], got %v", c.Updater.LearningRate)
	}
	if c.Updater.MaxRetries < 1 {
		return fmt.Errorf("updater: max_retries must be at least 1, got %d", c.Updater.MaxRetries)
	}
	switch c.ProfileStore {
	case "memory", "badger":
	default:
		return fmt.Errorf("profile_store must be memory or badger, got %q", c.ProfileStore)
	}
	if c.ProfileStore == "badger" && c.ProfileStorePath == "" {
		return errors.New("profile_store_path required when profile_store is badger")
	}
	return nil
}

// findConfigFile returns the path of the first config file found, or empty.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
		return ""
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
