package config

import (
	"os"
	"path/filepath"
	"time"
)

// Default values
const (
	// HTTP defaults
	DefaultHTTPTimeout      = 30 * time.Second
	DefaultMaxResponseBytes = 10 << 20 // 10 MiB
	DefaultMaxRetries       = 3

	// Budget defaults
	DefaultMaxBytes = 8192

	// Concurrency defaults
	DefaultWorkers         = 5
	DefaultProviderTimeout = 15 * time.Second

	// Provider defaults
	DefaultCratesRPS = 1.0

	// Output defaults
	DefaultOutputFormat = "json"
	DefaultOutputDir    = "./docs"

	// Logging defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "pretty"
)

// DefaultProviders returns the providers enabled out of the box
func DefaultProviders() []string {
	return []string{"pypi", "crates", "npm", "godocs", "github", "google"}
}

// ConfigDir returns the config directory path
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".rtfd"
	}
	return filepath.Join(home, ".rtfd")
}

// ConfigFilePath returns the config file path
func ConfigFilePath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:          DefaultHTTPTimeout,
			UserAgent:        "",
			MaxResponseBytes: DefaultMaxResponseBytes,
			MaxRetries:       DefaultMaxRetries,
		},
		Budget: BudgetConfig{
			MaxBytes: DefaultMaxBytes,
		},
		Concurrency: ConcurrencyConfig{
			Workers:         DefaultWorkers,
			ProviderTimeout: DefaultProviderTimeout,
		},
		Providers: ProvidersConfig{
			Enabled:   DefaultProviders(),
			CratesRPS: DefaultCratesRPS,
		},
		Output: OutputConfig{
			Format:    DefaultOutputFormat,
			Directory: DefaultOutputDir,
			Overwrite: false,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
