// Swan-Z Style Engine - Personalization and Recommendation
// Copyright 2026 Swan-Z Style
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swanz/styleengine

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// No t.Parallel in this package: Load reads the process environment and the
// working directory.

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaultConfig().Validate() = %v, want nil", err)
	}
	if cfg.ProfileStore != "memory" {
		t.Errorf("ProfileStore = %s, want memory", cfg.ProfileStore)
	}
	if cfg.Updater.LearningRate != 0.1 {
		t.Errorf("Updater.LearningRate = %v, want 0.1", cfg.Updater.LearningRate)
	}
	if cfg.Remote.Timeout != 3*time.Second {
		t.Errorf("Remote.Timeout = %v, want 3s", cfg.Remote.Timeout)
	}
}

func TestLoad_Defaults(t *testing.T) {
	chdirEmpty(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Engine.Weights.StyleMatch != 0.5 {
		t.Errorf("Engine.Weights.StyleMatch = %v, want 0.5", cfg.Engine.Weights.StyleMatch)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %s, want info", cfg.Log.Level)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := chdirEmpty(t)

	content := strings.Join([]string{
		"engine:",
		"  limits:",
		"    default_limit: 25",
		"updater:",
		"  learning_rate: 0.2",
		"profile_store: badger",
		"profile_store_path: " + filepath.Join(dir, "profiles"),
		"log:",
		"  level: debug",
	}, "\n")
	writeFile(t, filepath.Join(dir, "config.yaml"), content)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Engine.Limits.DefaultLimit != 25 {
		t.Errorf("Engine.Limits.DefaultLimit = %d, want 25", cfg.Engine.Limits.DefaultLimit)
	}
	if cfg.Updater.LearningRate != 0.2 {
		t.Errorf("Updater.LearningRate = %v, want 0.2", cfg.Updater.LearningRate)
	}
	if cfg.ProfileStore != "badger" {
		t.Errorf("ProfileStore = %s, want badger", cfg.ProfileStore)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %s, want debug", cfg.Log.Level)
	}
	// Untouched fields keep their defaults.
	if cfg.Updater.MaxRetries != 5 {
		t.Errorf("Updater.MaxRetries = %d, want default 5", cfg.Updater.MaxRetries)
	}
}

func TestLoad_ConfigPathEnvVar(t *testing.T) {
	dir := chdirEmpty(t)

	path := filepath.Join(dir, "elsewhere.yaml")
	writeFile(t, path, "log:\n  level: warn\n")
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %s, want warn", cfg.Log.Level)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := chdirEmpty(t)

	writeFile(t, filepath.Join(dir, "config.yaml"), "log:\n  level: debug\n")
	t.Setenv("STYLEENGINE_LOG__LEVEL", "error")
	t.Setenv("STYLEENGINE_ENGINE__LIMITS__MAX_LIMIT", "250")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("Log.Level = %s, want env override error", cfg.Log.Level)
	}
	if cfg.Engine.Limits.MaxLimit != 250 {
		t.Errorf("Engine.Limits.MaxLimit = %d, want 250", cfg.Engine.Limits.MaxLimit)
	}
}

func TestLoad_InvalidFileRejected(t *testing.T) {
	dir := chdirEmpty(t)

	writeFile(t, filepath.Join(dir, "config.yaml"), "updater:\n  learning_rate: 7\n")

	if _, err := Load(); err == nil {
		t.Error("Load() error = nil, want validation failure")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults valid", func(*Config) {}, false},
		{"learning rate zero", func(c *Config) { c.Updater.LearningRate = 0 }, true},
		{"learning rate above one", func(c *Config) { c.Updater.LearningRate = 1.5 }, true},
		{"max retries zero", func(c *Config) { c.Updater.MaxRetries = 0 }, true},
		{"unknown profile store", func(c *Config) { c.ProfileStore = "redis" }, true},
		{"badger without path", func(c *Config) {
			c.ProfileStore = "badger"
			c.ProfileStorePath = ""
		}, true},
		{"badger with path", func(c *Config) { c.ProfileStore = "badger" }, false},
		{"negative signal weight", func(c *Config) { c.Engine.Weights.Popularity = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// chdirEmpty moves the test into an empty temp dir so stray config files in
// the working directory cannot leak into Load, and clears the path env var.
func chdirEmpty(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Errorf("restore wd: %v", err)
		}
	})
	t.Setenv(ConfigPathEnvVar, "")
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
