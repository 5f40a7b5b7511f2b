package infra

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application settings. LoadConfig reads the YAML file and
// then applies environment overrides for endpoints.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Feed struct {
		WSURL     string `yaml:"ws_url"`
		Symbol    string `yaml:"symbol"`
		Timeframe string `yaml:"timeframe"`
	} `yaml:"feed"`

	History struct {
		RestURL   string `yaml:"rest_url"`
		Limit     int    `yaml:"limit"`
		RateBurst int    `yaml:"rate_burst"`
		RatePerS  int    `yaml:"rate_per_s"`
	} `yaml:"history"`

	Chart struct {
		ViewportTTLMin      int     `yaml:"viewport_ttl_min"`
		ViewportMax         int     `yaml:"viewport_max"`
		PersistDebounceMS   int     `yaml:"persist_debounce_ms"`
		BackfillDebounceMS  int     `yaml:"backfill_debounce_ms"`
		BackfillThreshold   float64 `yaml:"backfill_threshold"`
		SettleWindowMS      int     `yaml:"settle_window_ms"`
		OverlayIntervalMS   int     `yaml:"overlay_interval_ms"`
		WatchdogIntervalMS  int     `yaml:"watchdog_interval_ms"`
		ViewportStoragePath string  `yaml:"viewport_storage_path"`
	} `yaml:"chart"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads and validates the configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if c.Feed.WSURL != "" &&
		!strings.HasPrefix(c.Feed.WSURL, "ws://") && !strings.HasPrefix(c.Feed.WSURL, "wss://") {
		return fmt.Errorf("invalid feed WS URL: %s", c.Feed.WSURL)
	}
	if c.Feed.Symbol == "" {
		return fmt.Errorf("feed symbol is required")
	}
	if c.History.Limit < 0 {
		return fmt.Errorf("history limit must not be negative")
	}
	if c.Chart.ViewportMax < 0 || c.Chart.ViewportTTLMin < 0 {
		return fmt.Errorf("chart cache settings must not be negative")
	}
	return nil
}

// ViewportTTL returns the configured TTL, or 0 when unset (caller defaults).
func (c *Config) ViewportTTL() time.Duration {
	return time.Duration(c.Chart.ViewportTTLMin) * time.Minute
}

// overrideWithEnv applies environment variables over file values. Endpoints
// are the usual thing overridden per deployment.
func overrideWithEnv(cfg *Config) {
	if v := os.Getenv("CHART_FEED_WS_URL"); v != "" {
		cfg.Feed.WSURL = v
	}
	if v := os.Getenv("CHART_FEED_SYMBOL"); v != "" {
		cfg.Feed.Symbol = v
	}
	if v := os.Getenv("CHART_HISTORY_REST_URL"); v != "" {
		cfg.History.RestURL = v
	}
	if v := os.Getenv("CHART_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
