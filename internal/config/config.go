// Package config loads process configuration from a TOML file and
// GETRACKER_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	toml "github.com/pelletier/go-toml/v2"
)

const (
	// DefaultConfigPath is used when no path is given.
	DefaultConfigPath = "~/.config/getracker/config.toml"

	defaultDBPath         = "~/.getracker/getracker.db"
	defaultAPIBind        = "127.0.0.1:7488"
	defaultPriceSourceURL = "https://secure.runescape.com/m=itemdb_rs/viewitem"
)

// Config holds process-level settings. User settings (interval, alerts,
// display) live in the synced store, not here.
type Config struct {
	DBPath               string        `env:"GETRACKER_DB_PATH"`
	APIBind              string        `env:"GETRACKER_API_BIND"`
	PriceSourceURL       string        `env:"GETRACKER_PRICE_SOURCE_URL"`
	FetchDelay           time.Duration `env:"GETRACKER_FETCH_DELAY"`
	FetchTimeout         time.Duration `env:"GETRACKER_FETCH_TIMEOUT"`
	FetchRetryBase       time.Duration `env:"GETRACKER_FETCH_RETRY_BASE"`
	SyncQuotaBytes       int           `env:"GETRACKER_SYNC_QUOTA_BYTES"`
	QuotaSafetyMargin    int           `env:"GETRACKER_QUOTA_SAFETY_MARGIN"`
	ThresholdVerifyDelay time.Duration `env:"GETRACKER_THRESHOLD_VERIFY_DELAY"`
	ThresholdRetryBase   time.Duration `env:"GETRACKER_THRESHOLD_RETRY_BASE"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DBPath:               mustExpand(defaultDBPath),
		APIBind:              defaultAPIBind,
		PriceSourceURL:       defaultPriceSourceURL,
		FetchDelay:           time.Second,
		FetchTimeout:         30 * time.Second,
		FetchRetryBase:       time.Second,
		SyncQuotaBytes:       102400,
		QuotaSafetyMargin:    5120,
		ThresholdVerifyDelay: 100 * time.Millisecond,
		ThresholdRetryBase:   200 * time.Millisecond,
	}
}

type fileConfig struct {
	DBPath               string `toml:"db_path"`
	APIBind              string `toml:"api_bind"`
	PriceSourceURL       string `toml:"price_source_url"`
	FetchDelay           string `toml:"fetch_delay"`
	FetchTimeout         string `toml:"fetch_timeout"`
	FetchRetryBase       string `toml:"fetch_retry_base"`
	SyncQuotaBytes       int    `toml:"sync_quota_bytes"`
	QuotaSafetyMargin    int    `toml:"quota_safety_margin"`
	ThresholdVerifyDelay string `toml:"threshold_verify_delay"`
	ThresholdRetryBase   string `toml:"threshold_retry_base"`
}

// Load reads the config file at path (DefaultConfigPath when empty),
// falling back to defaults when it is missing, then applies environment
// overrides.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()
	if err := applyFile(&cfg, resolved); err != nil {
		return Config{}, err
	}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.DBPath = mustExpand(cfg.DBPath)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the services cannot run with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.DBPath) == "" {
		return errors.New("db_path must not be empty")
	}
	if c.SyncQuotaBytes <= 0 {
		return fmt.Errorf("sync_quota_bytes must be positive, got %d", c.SyncQuotaBytes)
	}
	if c.QuotaSafetyMargin < 0 || c.QuotaSafetyMargin >= c.SyncQuotaBytes {
		return fmt.Errorf("quota_safety_margin must be in [0, %d), got %d", c.SyncQuotaBytes, c.QuotaSafetyMargin)
	}
	if c.FetchDelay < 0 || c.FetchTimeout <= 0 || c.FetchRetryBase <= 0 {
		return errors.New("fetch durations must be positive")
	}
	if c.ThresholdVerifyDelay <= 0 || c.ThresholdRetryBase <= 0 {
		return errors.New("threshold durations must be positive")
	}
	return nil
}

func applyFile(cfg *Config, path string) error {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var raw fileConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.DBPath); v != "" {
		cfg.DBPath = v
	}
	if v := strings.TrimSpace(raw.APIBind); v != "" {
		cfg.APIBind = v
	}
	if v := strings.TrimSpace(raw.PriceSourceURL); v != "" {
		cfg.PriceSourceURL = v
	}
	if raw.SyncQuotaBytes != 0 {
		cfg.SyncQuotaBytes = raw.SyncQuotaBytes
	}
	if raw.QuotaSafetyMargin != 0 {
		cfg.QuotaSafetyMargin = raw.QuotaSafetyMargin
	}

	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"fetch_delay", raw.FetchDelay, &cfg.FetchDelay},
		{"fetch_timeout", raw.FetchTimeout, &cfg.FetchTimeout},
		{"fetch_retry_base", raw.FetchRetryBase, &cfg.FetchRetryBase},
		{"threshold_verify_delay", raw.ThresholdVerifyDelay, &cfg.ThresholdVerifyDelay},
		{"threshold_retry_base", raw.ThresholdRetryBase, &cfg.ThresholdRetryBase},
	}
	for _, d := range durations {
		if strings.TrimSpace(d.raw) == "" {
			continue
		}
		parsed, err := time.ParseDuration(strings.TrimSpace(d.raw))
		if err != nil {
			return fmt.Errorf("parse config: %s: %w", d.key, err)
		}
		*d.dst = parsed
	}
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(DefaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
