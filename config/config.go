// Package config loads service configuration from an optional YAML file with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	TelegramToken    string `yaml:"telegram_token"`
	APIURL           string `yaml:"api_url"`
	StorageBucket    string `yaml:"storage_bucket"`
	LocalStorage     string `yaml:"local_storage"`
	CheckIntervalSec int    `yaml:"check_interval_secs"`
	FetchTimeoutSec  int    `yaml:"fetch_timeout_secs"`
	StrictGroupMatch bool   `yaml:"strict_group_match"`
	LogLevel         string `yaml:"log_level"`
}

// Defaults returns a Config with all default values set.
func Defaults() Config {
	return Config{
		CheckIntervalSec: 300,
		FetchTimeoutSec:  15,
		LogLevel:         "info",
	}
}

// Load reads the YAML config file (if present) over the defaults and applies
// environment overrides: TELEGRAM_BOT_TOKEN, STORAGE_BUCKET, LOCAL_STORAGE
// and LOE_NOTIFIER_CONFIG (alternate config path).
func Load(path string) (Config, error) {
	if envPath := os.Getenv("LOE_NOTIFIER_CONFIG"); envPath != "" {
		path = envPath
	}

	cfg := Defaults()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// Env-only configuration is fine.
	default:
		return Config{}, fmt.Errorf("read config file %s: %w", path, err)
	}

	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		cfg.TelegramToken = token
	}
	if bucket := os.Getenv("STORAGE_BUCKET"); bucket != "" {
		cfg.StorageBucket = bucket
	}
	if local := os.Getenv("LOCAL_STORAGE"); local != "" {
		cfg.LocalStorage = local
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks that required fields are present and values are sane.
func (c *Config) Validate() error {
	if c.TelegramToken == "" {
		return errors.New("telegram_token is required (or set TELEGRAM_BOT_TOKEN)")
	}
	if c.CheckIntervalSec <= 0 {
		return fmt.Errorf("check_interval_secs must be positive, got %d", c.CheckIntervalSec)
	}
	if c.FetchTimeoutSec <= 0 {
		return fmt.Errorf("fetch_timeout_secs must be positive, got %d", c.FetchTimeoutSec)
	}
	return nil
}

// CheckInterval returns the poll cadence as a duration.
func (c *Config) CheckInterval() time.Duration {
	return time.Duration(c.CheckIntervalSec) * time.Second
}

// FetchTimeout returns the per-fetch HTTP timeout as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSec) * time.Second
}
