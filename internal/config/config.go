package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Invoice synthesis strategies. See migrate.InvoiceSynthesizer for the
// behavioral difference.
const (
	InvoiceStrategyGrouped = "grouped"
	InvoiceStrategyDerived = "derived"
)

// Config holds all configuration for the migrator.
type Config struct {
	LemonSqueezy LemonSqueezyConfig `yaml:"lemonsqueezy"`
	ChartMogul   ChartMogulConfig   `yaml:"chartmogul"`
	Invoices     InvoicesConfig     `yaml:"invoices"`
	Purge        PurgeConfig        `yaml:"purge"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// LemonSqueezyConfig holds source billing API configuration.
type LemonSqueezyConfig struct {
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the configured timeout as a duration.
func (c LemonSqueezyConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ChartMogulConfig holds destination analytics API configuration.
type ChartMogulConfig struct {
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	DataSourceUUID string `yaml:"data_source_uuid"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the configured timeout as a duration.
func (c ChartMogulConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// InvoicesConfig selects how stage 4 builds destination invoices.
type InvoicesConfig struct {
	Strategy string `yaml:"strategy"`
}

// PurgeConfig controls the optional pre-run wipe of all destination data.
type PurgeConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level        string `yaml:"level"`
	RedactEmails *bool  `yaml:"redact_emails"`
}

// RedactEmailsEnabled reports whether email redaction is on. Defaults to true
// when the key is absent from the config file.
func (c LoggingConfig) RedactEmailsEnabled() bool {
	if c.RedactEmails == nil {
		return true
	}
	return *c.RedactEmails
}

// Load reads the YAML config at path and applies defaults. A missing file is
// not an error: every setting can come from the environment instead.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	// Set defaults
	if cfg.LemonSqueezy.BaseURL == "" {
		cfg.LemonSqueezy.BaseURL = "https://api.lemonsqueezy.com/v1"
	}
	if cfg.LemonSqueezy.TimeoutSeconds == 0 {
		cfg.LemonSqueezy.TimeoutSeconds = 30
	}
	if cfg.ChartMogul.BaseURL == "" {
		cfg.ChartMogul.BaseURL = "https://api.chartmogul.com/v1"
	}
	if cfg.ChartMogul.TimeoutSeconds == 0 {
		cfg.ChartMogul.TimeoutSeconds = 30
	}
	if cfg.Invoices.Strategy == "" {
		cfg.Invoices.Strategy = InvoiceStrategyGrouped
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	return &cfg, nil
}

// LoadFromEnv loads the config file, then layers .env and environment
// variables on top. Environment always wins over the file.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("LEMONSQUEEZY_API_KEY"); v != "" {
		cfg.LemonSqueezy.APIKey = v
	}
	if v := os.Getenv("LEMONSQUEEZY_BASE_URL"); v != "" {
		cfg.LemonSqueezy.BaseURL = v
	}
	if v := os.Getenv("CHARTMOGUL_API_KEY"); v != "" {
		cfg.ChartMogul.APIKey = v
	}
	if v := os.Getenv("CHARTMOGUL_BASE_URL"); v != "" {
		cfg.ChartMogul.BaseURL = v
	}
	if v := os.Getenv("CHARTMOGUL_DATA_SOURCE_UUID"); v != "" {
		cfg.ChartMogul.DataSourceUUID = v
	}
	if v := os.Getenv("INVOICE_STRATEGY"); v != "" {
		cfg.Invoices.Strategy = v
	}
	if v := os.Getenv("PURGE_DESTINATION"); v == "true" || v == "1" {
		cfg.Purge.Enabled = true
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	return cfg, nil
}

// Validate checks that every required credential is present and that
// enum-valued settings hold known values.
func (c *Config) Validate() error {
	if c.LemonSqueezy.APIKey == "" {
		return fmt.Errorf("LEMONSQUEEZY_API_KEY is required")
	}
	if c.ChartMogul.APIKey == "" {
		return fmt.Errorf("CHARTMOGUL_API_KEY is required")
	}
	if c.ChartMogul.DataSourceUUID == "" {
		return fmt.Errorf("CHARTMOGUL_DATA_SOURCE_UUID is required")
	}
	switch c.Invoices.Strategy {
	case InvoiceStrategyGrouped, InvoiceStrategyDerived:
	default:
		return fmt.Errorf("unknown invoice strategy %q (want %q or %q)",
			c.Invoices.Strategy, InvoiceStrategyGrouped, InvoiceStrategyDerived)
	}
	return nil
}
