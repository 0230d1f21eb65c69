// Package config handles configuration loading for finmetrics.
// It supports YAML config files with environment variable overrides and an
// optional .env file in the working directory.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. FINMETRICS_API_PORT.
const EnvPrefix = "FINMETRICS"

// Fundamentals providers.
const (
	ProviderFinviz = "finviz"
	ProviderFMP    = "fmp"
)

// Config represents the complete application configuration.
type Config struct {
	API          APIConfig          `mapstructure:"api"          yaml:"api"          json:"api"`
	Finviz       FinvizConfig       `mapstructure:"finviz"       yaml:"finviz"       json:"finviz"`
	Fundamentals FundamentalsConfig `mapstructure:"fundamentals" yaml:"fundamentals" json:"fundamentals"`
	FMP          FMPConfig          `mapstructure:"fmp"          yaml:"fmp"          json:"fmp"`
	Yahoo        YahooConfig        `mapstructure:"yahoo"        yaml:"yahoo"        json:"yahoo"`
	Analysis     AnalysisConfig     `mapstructure:"analysis"     yaml:"analysis"     json:"analysis"`
	Logging      LoggingConfig      `mapstructure:"logging"      yaml:"logging"      json:"logging"`

	// File is the config file that was read, or "" when only defaults and
	// environment were used.
	File string `mapstructure:"-" yaml:"-" json:"-"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"         json:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"         json:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins" json:"cors_origins"`
}

// Addr returns the listen address in host:port form.
func (a APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// FinvizConfig holds the quote page scraper settings.
type FinvizConfig struct {
	BaseURL    string `mapstructure:"base_url"    yaml:"base_url"    json:"base_url"`
	UserAgent  string `mapstructure:"user_agent"  yaml:"user_agent"  json:"user_agent"`
	TimeoutSec int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
}

// Timeout returns the per-fetch timeout.
func (f FinvizConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutSec) * time.Second
}

// FundamentalsConfig selects the bulk fundamentals source for the F-Score.
type FundamentalsConfig struct {
	Provider string `mapstructure:"provider" yaml:"provider" json:"provider"` // "finviz" or "fmp"
}

// FMPConfig holds Financial Modeling Prep settings.
type FMPConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url" json:"base_url"`
	APIKey  string `mapstructure:"api_key"  yaml:"api_key"  json:"-"`
}

// YahooConfig holds Yahoo Finance endpoints used for fair value and headlines.
type YahooConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url" json:"base_url"`
	FeedURL string `mapstructure:"feed_url" yaml:"feed_url" json:"feed_url"`
}

// AnalysisConfig holds analysis engine settings.
type AnalysisConfig struct {
	ConcurrentFetches int `mapstructure:"concurrent_fetches" yaml:"concurrent_fetches" json:"concurrent_fetches"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"  json:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format" json:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.finmetrics/config.yaml (home directory)
//  3. /etc/finmetrics/config.yaml (system)
//
// A .env file in the working directory is loaded into the environment first.
// Environment variables override config file values.
// Format: FINMETRICS_<SECTION>_<KEY>, e.g., FINMETRICS_FMP_API_KEY
func Load() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".finmetrics"))
	v.AddConfigPath("/etc/finmetrics")

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	return decode(v)
}

// Validate reports settings that would make the service misbehave.
func (c *Config) Validate() error {
	switch c.Fundamentals.Provider {
	case ProviderFinviz, ProviderFMP:
	default:
		return fmt.Errorf("fundamentals.provider: unknown provider %q (want %q or %q)",
			c.Fundamentals.Provider, ProviderFinviz, ProviderFMP)
	}
	if c.Analysis.ConcurrentFetches < 1 {
		return fmt.Errorf("analysis.concurrent_fetches: must be at least 1, got %d", c.Analysis.ConcurrentFetches)
	}
	if c.Finviz.TimeoutSec < 1 {
		return fmt.Errorf("finviz.timeout_sec: must be at least 1, got %d", c.Finviz.TimeoutSec)
	}
	if c.API.Port < 0 || c.API.Port > 65535 {
		return fmt.Errorf("api.port: out of range: %d", c.API.Port)
	}
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	cfg.File = v.ConfigFileUsed()
	overrideFromEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 10000)
	v.SetDefault("api.cors_origins", []string{})

	// Finviz defaults
	v.SetDefault("finviz.base_url", "https://finviz.com")
	v.SetDefault("finviz.user_agent", "Mozilla/5.0")
	v.SetDefault("finviz.timeout_sec", 10)

	// Fundamentals source
	v.SetDefault("fundamentals.provider", ProviderFinviz)

	// FMP defaults
	v.SetDefault("fmp.base_url", "https://financialmodelingprep.com/api/v3")
	v.SetDefault("fmp.api_key", "")

	// Yahoo defaults
	v.SetDefault("yahoo.base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("yahoo.feed_url", "https://feeds.finance.yahoo.com/rss/2.0/headline")

	// Analysis defaults
	v.SetDefault("analysis.concurrent_fetches", 4)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv explicitly reads sensitive keys and the platform PORT
// variable from the environment.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv("FINMETRICS_FMP_API_KEY"); key != "" {
		cfg.FMP.APIKey = key
	}
	if port := os.Getenv("PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil {
			cfg.API.Port = n
		}
	}
}

// loadDotEnv loads KEY=VALUE pairs from path into the process environment.
// Variables that are already set win. A missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("error loading %s: %w", path, err)
	}
	return nil
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
