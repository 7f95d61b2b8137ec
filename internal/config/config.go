package config

import (
	"fmt"
	"strings"
	"time"
)

// Config represents the application configuration
type Config struct {
	HTTP        HTTPConfig        `mapstructure:"http" yaml:"http"`
	Budget      BudgetConfig      `mapstructure:"budget" yaml:"budget"`
	Concurrency ConcurrencyConfig `mapstructure:"concurrency" yaml:"concurrency"`
	Providers   ProvidersConfig   `mapstructure:"providers" yaml:"providers"`
	Scoring     ScoringConfig     `mapstructure:"scoring" yaml:"scoring"`
	Output      OutputConfig      `mapstructure:"output" yaml:"output"`
	Logging     LoggingConfig     `mapstructure:"logging" yaml:"logging"`
}

// HTTPConfig contains upstream HTTP client settings
type HTTPConfig struct {
	Timeout          time.Duration `mapstructure:"timeout" yaml:"timeout"`
	UserAgent        string        `mapstructure:"user_agent" yaml:"user_agent"`
	MaxResponseBytes int64         `mapstructure:"max_response_bytes" yaml:"max_response_bytes"`
	MaxRetries       int           `mapstructure:"max_retries" yaml:"max_retries"`
}

// BudgetConfig contains section selection budget settings
type BudgetConfig struct {
	MaxBytes int `mapstructure:"max_bytes" yaml:"max_bytes"`
}

// ConcurrencyConfig contains fan-out settings
type ConcurrencyConfig struct {
	Workers         int           `mapstructure:"workers" yaml:"workers"`
	ProviderTimeout time.Duration `mapstructure:"provider_timeout" yaml:"provider_timeout"`
}

// ProvidersConfig contains provider registry settings and credentials
type ProvidersConfig struct {
	Enabled      []string `mapstructure:"enabled" yaml:"enabled"`
	GitHubToken  string   `mapstructure:"github_token" yaml:"github_token"`
	GoogleAPIKey string   `mapstructure:"google_api_key" yaml:"google_api_key"`
	GoogleCSEID  string   `mapstructure:"google_cse_id" yaml:"google_cse_id"`
	CratesRPS    float64  `mapstructure:"crates_rps" yaml:"crates_rps"`
}

// ScoringConfig points at the section scoring table. Rules may be given
// inline or loaded from a standalone YAML file; inline rules win.
type ScoringConfig struct {
	File  string      `mapstructure:"file" yaml:"file"`
	Rules []ScoreRule `mapstructure:"rules" yaml:"rules"`
}

// ScoreRule maps a heading title pattern to a relevance score
type ScoreRule struct {
	Match string `mapstructure:"match" yaml:"match"`
	Score int    `mapstructure:"score" yaml:"score"`
}

// OutputConfig contains output-related settings
type OutputConfig struct {
	Format    string `mapstructure:"format" yaml:"format"`
	Directory string `mapstructure:"directory" yaml:"directory"`
	Overwrite bool   `mapstructure:"overwrite" yaml:"overwrite"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Validate validates the configuration and applies defaults for
// out-of-range values
func (c *Config) Validate() error {
	if c.HTTP.Timeout < time.Second {
		c.HTTP.Timeout = DefaultHTTPTimeout
	}
	if c.HTTP.MaxResponseBytes < 1 {
		c.HTTP.MaxResponseBytes = DefaultMaxResponseBytes
	}
	if c.HTTP.MaxRetries < 0 {
		c.HTTP.MaxRetries = 0
	}
	if c.Budget.MaxBytes < 1 {
		c.Budget.MaxBytes = DefaultMaxBytes
	}
	if c.Concurrency.Workers < 1 {
		c.Concurrency.Workers = DefaultWorkers
	}
	if c.Concurrency.ProviderTimeout < time.Second {
		c.Concurrency.ProviderTimeout = DefaultProviderTimeout
	}
	if c.Providers.CratesRPS <= 0 {
		c.Providers.CratesRPS = DefaultCratesRPS
	}
	if len(c.Providers.Enabled) == 0 {
		c.Providers.Enabled = DefaultProviders()
	}

	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))
	switch c.Output.Format {
	case "":
		c.Output.Format = DefaultOutputFormat
	case "json", "toon":
	default:
		return fmt.Errorf("invalid output.format %q (want json or toon)", c.Output.Format)
	}

	for i, rule := range c.Scoring.Rules {
		if strings.TrimSpace(rule.Match) == "" {
			return fmt.Errorf("scoring.rules[%d]: empty match pattern", i)
		}
	}

	return nil
}
