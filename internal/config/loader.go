package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Load loads configuration from file, environment, and defaults
// Uses the global viper instance to access CLI flag bindings
func Load() (*Config, error) {
	// Use global viper instance to get CLI flag bindings
	v := viper.GetViper()
	return load(v)
}

// LoadWithViper loads configuration on a fresh viper instance, without
// the global CLI flag bindings
func LoadWithViper() (*Config, *viper.Viper, error) {
	v := viper.New()
	cfg, err := load(v)
	if err != nil {
		return nil, nil, err
	}
	return cfg, v, nil
}

func load(v *viper.Viper) (*Config, error) {
	// Set defaults
	setDefaults(v)

	// Config file settings. An explicit file (--config flag) wins over
	// the search path; SetConfigName would discard it.
	if v.ConfigFileUsed() == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(ConfigDir())
		v.AddConfigPath(".")
	}

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	// Environment variables (RTFD_*)
	v.SetEnvPrefix("RTFD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Credentials are also honored under their conventional bare names
	bindCredentialEnv(v)

	// Unmarshal config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// USE_TOON switches the output encoding without any other config
	if isTruthy(os.Getenv("USE_TOON")) {
		cfg.Output.Format = "toon"
	}

	// Validate and apply defaults for invalid values
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// bindCredentialEnv maps bare environment variable names onto config
// keys, so GITHUB_TOKEN works without the RTFD_ prefix
func bindCredentialEnv(v *viper.Viper) {
	_ = v.BindEnv("providers.github_token", "RTFD_PROVIDERS_GITHUB_TOKEN", "GITHUB_TOKEN")
	_ = v.BindEnv("providers.google_api_key", "RTFD_PROVIDERS_GOOGLE_API_KEY", "GOOGLE_API_KEY")
	_ = v.BindEnv("providers.google_cse_id", "RTFD_PROVIDERS_GOOGLE_CSE_ID", "GOOGLE_CSE_ID")
}

func isTruthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// setDefaults sets default values in viper
func setDefaults(v *viper.Viper) {
	// HTTP defaults
	v.SetDefault("http.timeout", DefaultHTTPTimeout)
	v.SetDefault("http.user_agent", "")
	v.SetDefault("http.max_response_bytes", DefaultMaxResponseBytes)
	v.SetDefault("http.max_retries", DefaultMaxRetries)

	// Budget defaults
	v.SetDefault("budget.max_bytes", DefaultMaxBytes)

	// Concurrency defaults
	v.SetDefault("concurrency.workers", DefaultWorkers)
	v.SetDefault("concurrency.provider_timeout", DefaultProviderTimeout)

	// Provider defaults
	v.SetDefault("providers.enabled", DefaultProviders())
	v.SetDefault("providers.crates_rps", DefaultCratesRPS)

	// Scoring defaults (empty means the built-in table)
	v.SetDefault("scoring.file", "")

	// Output defaults
	v.SetDefault("output.format", DefaultOutputFormat)
	v.SetDefault("output.directory", DefaultOutputDir)
	v.SetDefault("output.overwrite", false)

	// Logging defaults
	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.format", DefaultLogFormat)
}

// EnsureConfigDir creates the config directory if it doesn't exist
func EnsureConfigDir() error {
	return os.MkdirAll(ConfigDir(), 0755)
}
