package config

import "time"

// Default values applied to unset fields.
const (
	DefaultProviderName = "OpenAICompatible"
	DefaultBaseURL      = "https://api.openai.com/v1"
	DefaultTimeout      = 120 * time.Second

	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"

	DefaultMetricsListenAddress = "127.0.0.1:9090"
	DefaultMetricsPath          = "/metrics"
	DefaultMetricsNamespace     = "parrot"

	DefaultRetentionDays = 90
	DefaultPruneSchedule = "0 3 * * *"
)

// ApplyDefaults fills unset fields with their default values.
// Explicitly configured values are never overwritten.
func ApplyDefaults(cfg *Config) {
	if cfg.Provider.Name == "" {
		cfg.Provider.Name = DefaultProviderName
	}
	if cfg.Provider.BaseURL == "" {
		cfg.Provider.BaseURL = DefaultBaseURL
	}
	if cfg.Provider.Timeout == 0 {
		cfg.Provider.Timeout = DefaultTimeout
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLogLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLogFormat
	}

	if cfg.Telemetry.Metrics.ListenAddress == "" {
		cfg.Telemetry.Metrics.ListenAddress = DefaultMetricsListenAddress
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}

	if cfg.Usage.RetentionDays == 0 {
		cfg.Usage.RetentionDays = DefaultRetentionDays
	}
	if cfg.Usage.PruneSchedule == "" {
		cfg.Usage.PruneSchedule = DefaultPruneSchedule
	}
}
