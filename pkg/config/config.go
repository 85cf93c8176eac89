package config

import "time"

// Config is the root configuration structure for parrot.
// It contains the provider identity the client needs, telemetry
// settings, and the usage ledger configuration.
type Config struct {
	// Provider identifies the OpenAI-compatible backend to talk to.
	Provider ProviderConfig `yaml:"provider"`

	// Telemetry contains logging and metrics settings.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Usage contains settings for persistent token accounting.
	Usage UsageConfig `yaml:"usage"`
}

// ProviderConfig identifies one OpenAI-compatible backend. The client
// receives these values already resolved; this package owns loading,
// defaulting, and validating them.
type ProviderConfig struct {
	// Name is the display name used in menus and logs.
	// Default: "OpenAICompatible"
	Name string `yaml:"name"`

	// BaseURL is the API root.
	// Default: "https://api.openai.com/v1"
	BaseURL string `yaml:"base_url"`

	// APIKey is the bearer token. Required; may also come from the
	// PARROT_PROVIDER_API_KEY environment variable.
	APIKey string `yaml:"api_key"`

	// Models lists the selectable model identifiers as a single string
	// holding either a JSON array or comma-separated names (the
	// historical configuration format).
	Models string `yaml:"models"`

	// DefaultModel is the model used when the caller names none.
	// Default: the first parsed entry of Models
	DefaultModel string `yaml:"default_model"`

	// ProxyURL optionally routes requests through an HTTP proxy.
	ProxyURL string `yaml:"proxy_url"`

	// Timeout bounds each request.
	// Default: 120s
	Timeout time.Duration `yaml:"timeout"`
}

// TelemetryConfig contains observability settings.
type TelemetryConfig struct {
	// Logging configures the structured logger.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	// Level is the minimum log level ("debug", "info", "warn", "error").
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the output format ("json" or "text").
	// Default: "text"
	Format string `yaml:"format"`
}

// MetricsConfig configures the Prometheus metrics endpoint.
type MetricsConfig struct {
	// Enabled controls whether metrics are served.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// ListenAddress is where the metrics endpoint listens.
	// Default: "127.0.0.1:9090"
	ListenAddress string `yaml:"listen_address"`

	// Path is the HTTP path of the metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace prefixes every metric name.
	// Default: "parrot"
	Namespace string `yaml:"namespace"`
}

// UsageConfig configures the persistent usage ledger.
type UsageConfig struct {
	// LedgerPath is the SQLite database file for per-request usage
	// rows. Empty disables persistence.
	LedgerPath string `yaml:"ledger_path"`

	// RetentionDays is how long ledger rows are kept.
	// Default: 90
	RetentionDays int `yaml:"retention_days"`

	// PruneSchedule is a cron expression for scheduled pruning.
	// Empty disables the scheduler.
	// Default: "0 3 * * *" (daily at 3 AM)
	PruneSchedule string `yaml:"prune_schedule"`
}
