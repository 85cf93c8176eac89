package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the configuration for errors that would prevent the
// client from operating. It is called after defaults and environment
// overrides are applied.
func Validate(cfg *Config) error {
	p := &cfg.Provider

	if p.APIKey == "" {
		return fmt.Errorf("provider.api_key is required: insert your %s API key "+
			"in the configuration file or set %sPROVIDER_API_KEY", p.Name, envPrefix)
	}

	if err := validateURL("provider.base_url", p.BaseURL); err != nil {
		return err
	}
	if p.ProxyURL != "" {
		if err := validateURL("provider.proxy_url", p.ProxyURL); err != nil {
			return err
		}
	}

	switch cfg.Telemetry.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("telemetry.logging.level: unknown level %q", cfg.Telemetry.Logging.Level)
	}
	switch cfg.Telemetry.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("telemetry.logging.format: unknown format %q", cfg.Telemetry.Logging.Format)
	}

	if cfg.Usage.RetentionDays < 0 {
		return fmt.Errorf("usage.retention_days must not be negative")
	}

	return nil
}

// validateURL checks that a field holds an absolute http(s) URL.
func validateURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: invalid URL %q: %w", field, raw, err)
	}
	if !strings.HasPrefix(u.Scheme, "http") || u.Host == "" {
		return fmt.Errorf("%s: expected an absolute http(s) URL, got %q", field, raw)
	}
	return nil
}
