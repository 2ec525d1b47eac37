package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"CoinChart/internal/filter"
)

// ErrMissingAPIKey is returned when the live data source has no API key.
var ErrMissingAPIKey = errors.New("api_key is required")

const (
	ProviderAlphaVantage = "alphavantage"
	ProviderMock         = "mock"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"server"`
	DataSource struct {
		Provider string `yaml:"provider"`
		BaseURL  string `yaml:"base_url"`
		APIKey   string `yaml:"api_key"`
		Symbol   string `yaml:"symbol"`
		Market   string `yaml:"market"`
	} `yaml:"data_source"`
	Chart struct {
		Variant       string `yaml:"variant"`
		DefaultPeriod string `yaml:"default_period"`
		Height        int    `yaml:"height"`
		Background    string `yaml:"background"`
	} `yaml:"chart"`
	Schedule struct {
		SummaryCron string `yaml:"summary_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies .env and environment
// variable overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// .env never overrides variables already set in the process environment.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	// Environment variable overrides
	if v := os.Getenv("api_key"); v != "" {
		cfg.DataSource.APIKey = v
	} else if v := os.Getenv("ALPHAVANTAGE_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("ALPHAVANTAGE_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("SYMBOL"); v != "" {
		cfg.DataSource.Symbol = v
	}
	if v := os.Getenv("MARKET"); v != "" {
		cfg.DataSource.Market = v
	}
	if v := os.Getenv("CHART_VARIANT"); v != "" {
		cfg.Chart.Variant = v
	}
	if v := os.Getenv("HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("CRON_SUMMARY"); v != "" {
		cfg.Schedule.SummaryCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}

	// Defaults
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8050
	}
	if cfg.DataSource.Provider == "" {
		cfg.DataSource.Provider = ProviderAlphaVantage
	}
	if cfg.DataSource.Symbol == "" {
		cfg.DataSource.Symbol = "BTC"
	}
	if cfg.DataSource.Market == "" {
		cfg.DataSource.Market = "USD"
	}
	if cfg.Chart.Variant == "" {
		cfg.Chart.Variant = string(filter.Standard)
	}
	if cfg.Chart.DefaultPeriod == "" {
		cfg.Chart.DefaultPeriod = string(filter.DefaultPeriod)
	}
	if cfg.Chart.Height == 0 {
		cfg.Chart.Height = 600
	}
	if cfg.Chart.Background == "" {
		cfg.Chart.Background = "#cccccc"
	}
	if cfg.Schedule.SummaryCron == "" {
		cfg.Schedule.SummaryCron = "0 5 0 * * *"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/coinchart.db"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	switch c.DataSource.Provider {
	case ProviderAlphaVantage:
		if c.DataSource.APIKey == "" {
			return ErrMissingAPIKey
		}
	case ProviderMock:
	default:
		return fmt.Errorf("data_source.provider must be %q or %q", ProviderAlphaVantage, ProviderMock)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	v := filter.Variant(c.Chart.Variant)
	if !v.Valid() {
		return fmt.Errorf("chart.variant must be %q or %q", filter.Standard, filter.Extended)
	}
	p, err := filter.ParsePeriod(c.Chart.DefaultPeriod)
	if err != nil {
		return fmt.Errorf("chart.default_period: %w", err)
	}
	if !v.Allows(p) {
		return fmt.Errorf("chart.default_period %q is not offered by variant %q", p, v)
	}
	if c.Chart.Height <= 0 {
		return fmt.Errorf("chart.height must be positive")
	}
	return nil
}

// Addr returns the listen address of the web server.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// Variant returns the configured dashboard variant.
func (c *Config) Variant() filter.Variant { return filter.Variant(c.Chart.Variant) }

// DefaultPeriod returns the period selected on first load. Call after Validate.
func (c *Config) DefaultPeriod() filter.Period {
	p, _ := filter.ParsePeriod(c.Chart.DefaultPeriod)
	return p
}
