package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// envPrefix is the prefix of every recognized environment variable.
const envPrefix = "PARROT_"

// Load reads configuration from a YAML file, applies defaults and
// environment variable overrides, and validates the result.
//
// The loading sequence is:
//  1. Parse YAML from path (a missing file is not an error: defaults
//     plus environment variables can form a complete configuration)
//  2. Apply default values
//  3. Apply PARROT_* environment overrides
//  4. Validate the final configuration
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	case os.IsNotExist(err):
		// Fall through to defaults and environment.
	default:
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// applyEnvOverrides applies PARROT_SECTION_FIELD environment variables.
// Environment variables always take precedence over file values.
func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv(envPrefix + "PROVIDER_NAME"); val != "" {
		cfg.Provider.Name = val
	}
	if val := os.Getenv(envPrefix + "PROVIDER_BASE_URL"); val != "" {
		cfg.Provider.BaseURL = val
	}
	if val := os.Getenv(envPrefix + "PROVIDER_API_KEY"); val != "" {
		cfg.Provider.APIKey = val
	}
	if val := os.Getenv(envPrefix + "PROVIDER_MODELS"); val != "" {
		cfg.Provider.Models = val
	}
	if val := os.Getenv(envPrefix + "PROVIDER_DEFAULT_MODEL"); val != "" {
		cfg.Provider.DefaultModel = val
	}
	if val := os.Getenv(envPrefix + "PROVIDER_PROXY_URL"); val != "" {
		cfg.Provider.ProxyURL = val
	}
	if val := os.Getenv(envPrefix + "PROVIDER_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Provider.Timeout = d
		}
	}

	if val := os.Getenv(envPrefix + "TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv(envPrefix + "TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv(envPrefix + "TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv(envPrefix + "TELEMETRY_METRICS_LISTEN_ADDRESS"); val != "" {
		cfg.Telemetry.Metrics.ListenAddress = val
	}

	if val := os.Getenv(envPrefix + "USAGE_LEDGER_PATH"); val != "" {
		cfg.Usage.LedgerPath = val
	}
	if val := os.Getenv(envPrefix + "USAGE_RETENTION_DAYS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Usage.RetentionDays = i
		}
	}
	if val := os.Getenv(envPrefix + "USAGE_PRUNE_SCHEDULE"); val != "" {
		cfg.Usage.PruneSchedule = val
	}
}
