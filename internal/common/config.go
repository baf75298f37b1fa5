package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment" validate:"omitempty,oneof=development production"` // controls endpoint-override validation
	Server      ServerConfig     `toml:"server"`
	Logging     LoggingConfig    `toml:"logging"`
	Storage     StorageConfig    `toml:"storage"`
	MarketData  MarketDataConfig `toml:"market_data"`
	Claude      ClaudeConfig     `toml:"claude"`
	Gemini      GeminiConfig     `toml:"gemini"`
	Narrative   NarrativeConfig  `toml:"narrative"`
	Scheduler   SchedulerConfig  `toml:"scheduler"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"gte=0,lte=65535"`
	Host string `toml:"host"`
}

type LoggingConfig struct {
	Level      string   `toml:"level" validate:"omitempty,oneof=debug info warn error"`
	Output     []string `toml:"output"` // "stdout", "file"
	TimeFormat string   `toml:"time_format"`
}

type StorageConfig struct {
	Type   string       `toml:"type" validate:"omitempty,oneof=badger"`
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

// MarketDataConfig configures the EOD market-data client.
type MarketDataConfig struct {
	BaseURL       string `toml:"base_url"` // endpoint override; SSRF-guarded, https-only in production
	APIKey        string `toml:"api_key"`
	Timeout       string `toml:"timeout"`
	RateLimit     int    `toml:"rate_limit" validate:"gte=0"`  // requests per second
	CacheMaxAge   string `toml:"cache_max_age"`                // candle cache staleness bound, e.g. "6h"
	HistoryPeriod string `toml:"history_period" validate:"omitempty,oneof=3m 6m 1y 2y 5y"`
	DefaultRange  int    `toml:"default_range" validate:"gte=0"` // cap on samples fed to the analyzer, 0 for no cap
}

// ClaudeConfig configures the primary narrative provider.
type ClaudeConfig struct {
	APIKey    string `toml:"api_key"`
	Model     string `toml:"model"`
	Timeout   string `toml:"timeout"`
	MaxTokens int    `toml:"max_tokens" validate:"gte=0"`
}

// GeminiConfig configures the fallback narrative provider.
type GeminiConfig struct {
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
	Timeout string `toml:"timeout"`
}

// NarrativeConfig selects the provider order for reading narration.
type NarrativeConfig struct {
	Enabled      bool   `toml:"enabled"`
	PrimaryTier  string `toml:"primary_tier" validate:"omitempty,oneof=claude gemini"`
	FallbackTier string `toml:"fallback_tier" validate:"omitempty,oneof=claude gemini none"`
}

// SchedulerConfig drives periodic watchlist analysis.
type SchedulerConfig struct {
	Enabled   bool     `toml:"enabled"`
	Schedule  string   `toml:"schedule"` // cron format
	Watchlist []string `toml:"watchlist"`
}

// DefaultConfig returns the base configuration before file and env overlays
func DefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8085,
			Host: "localhost",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05",
		},
		Storage: StorageConfig{
			Type: "badger",
			Badger: BadgerConfig{
				Path: "./data/psiema",
			},
		},
		MarketData: MarketDataConfig{
			Timeout:       "30s",
			RateLimit:     10,
			CacheMaxAge:   "6h",
			HistoryPeriod: "1y",
			DefaultRange:  120,
		},
		Claude: ClaudeConfig{
			Timeout:   "60s",
			MaxTokens: 1024,
		},
		Gemini: GeminiConfig{
			Timeout: "60s",
		},
		Narrative: NarrativeConfig{
			PrimaryTier:  "claude",
			FallbackTier: "gemini",
		},
		Scheduler: SchedulerConfig{
			Schedule: "0 */6 * * *",
		},
	}
}

// LoadConfig loads configuration in layers: defaults -> file(s) -> environment.
// Later files override earlier ones; environment variables override everything.
func LoadConfig(paths ...string) (*Config, error) {
	config := DefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// A configured endpoint override must survive the SSRF guard before any
	// client is built from it.
	if config.MarketData.BaseURL != "" {
		if err := ValidateEndpoint(config.MarketData.BaseURL, config.Environment == "production"); err != nil {
			return nil, fmt.Errorf("market_data.base_url rejected: %w", err)
		}
	}

	return config, nil
}

// applyEnvOverrides layers PSIEMA_* (and provider-native) environment
// variables over the loaded configuration.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("PSIEMA_ENVIRONMENT"); v != "" {
		config.Environment = v
	}
	if v := os.Getenv("PSIEMA_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Server.Port = port
		}
	}
	if v := os.Getenv("PSIEMA_HOST"); v != "" {
		config.Server.Host = v
	}
	if v := os.Getenv("PSIEMA_LOG_LEVEL"); v != "" {
		config.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("PSIEMA_DATA_PATH"); v != "" {
		config.Storage.Badger.Path = v
	}
	if v := os.Getenv("PSIEMA_MARKET_API_KEY"); v != "" {
		config.MarketData.APIKey = v
	}
	if v := os.Getenv("PSIEMA_MARKET_BASE_URL"); v != "" {
		config.MarketData.BaseURL = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		config.Claude.APIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		config.Gemini.APIKey = v
	}
}
