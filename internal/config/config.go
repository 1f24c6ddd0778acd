// SPDX-License-Identifier: MIT

// Package config loads daemon configuration with the precedence
// ENV > config file > defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all daemon settings.
type Config struct {
	Listen         string        `yaml:"listen"`
	DataDir        string        `yaml:"data_dir"`
	StoreBackend   string        `yaml:"store_backend"` // "memory" or "sqlite"
	StorePath      string        `yaml:"store_path"`
	LogLevel       string        `yaml:"log_level"`
	WatchDir       string        `yaml:"watch_dir"` // empty disables the watch-folder intake
	WatchLanguage  string        `yaml:"watch_language"`
	PollInterval   time.Duration `yaml:"poll_interval"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
	RateLimitRPM   int           `yaml:"rate_limit_rpm"` // requests per minute per IP, 0 disables
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Listen:         ":8080",
		DataDir:        "/var/lib/meetscribe",
		StoreBackend:   "sqlite",
		StorePath:      "", // derived from DataDir when empty
		LogLevel:       "info",
		WatchLanguage:  "mixed",
		PollInterval:   5 * time.Second,
		MaxUploadBytes: 256 << 20,
		RateLimitRPM:   120,
	}
}

// Load builds the effective configuration. path may be empty, in which case
// only defaults and environment apply.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if cfg.StorePath == "" && cfg.StoreBackend == "sqlite" {
		cfg.StorePath = cfg.DataDir + "/meetings.db"
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Listen = ParseString("MEETSCRIBE_LISTEN", c.Listen)
	c.DataDir = ParseString("MEETSCRIBE_DATA", c.DataDir)
	c.StoreBackend = ParseString("MEETSCRIBE_STORE_BACKEND", c.StoreBackend)
	c.StorePath = ParseString("MEETSCRIBE_STORE_PATH", c.StorePath)
	c.LogLevel = ParseString("MEETSCRIBE_LOG_LEVEL", c.LogLevel)
	c.WatchDir = ParseString("MEETSCRIBE_WATCH_DIR", c.WatchDir)
	c.WatchLanguage = ParseString("MEETSCRIBE_WATCH_LANGUAGE", c.WatchLanguage)
	c.PollInterval = ParseDuration("MEETSCRIBE_POLL_INTERVAL", c.PollInterval)
	c.MaxUploadBytes = ParseInt64("MEETSCRIBE_MAX_UPLOAD_BYTES", c.MaxUploadBytes)
	c.RateLimitRPM = ParseInt("MEETSCRIBE_RATE_LIMIT_RPM", c.RateLimitRPM)
}

func (c *Config) validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	if c.DataDir == "" {
		return fmt.Errorf("data dir must not be empty")
	}
	switch c.StoreBackend {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("unknown store backend %q", c.StoreBackend)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive")
	}
	return nil
}
