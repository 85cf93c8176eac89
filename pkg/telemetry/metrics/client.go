package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"parrot-hq/parrot/pkg/client"
	"parrot-hq/parrot/pkg/config"
)

// ClientMetrics tracks chat completion request health and token
// consumption. It implements client.Observer.
//
// Metrics:
//   - <ns>_client_requests_total: Total requests by model and mode
//   - <ns>_client_errors_total: Error count by model and kind
//   - <ns>_client_tokens_total: Token consumption by model and direction
//   - <ns>_client_latency_seconds: Request latency
type ClientMetrics struct {
	// Total requests by model and mode ("stream" or "sync")
	requests *prometheus.CounterVec

	// Error counter by model and error kind
	errors *prometheus.CounterVec

	// Token counter by model and direction ("input" or "output")
	tokens *prometheus.CounterVec

	// Request latency histogram
	latency *prometheus.HistogramVec

	registry *prometheus.Registry
}

// NewClientMetrics creates and registers client metrics on a fresh
// registry. The namespace prefixes every metric name.
func NewClientMetrics(cfg config.MetricsConfig) *ClientMetrics {
	cm := &ClientMetrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "client",
				Name:      "requests_total",
				Help:      "Total number of chat completion requests",
			},
			[]string{"model", "mode"},
		),

		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "client",
				Name:      "errors_total",
				Help:      "Total number of failed requests by error kind",
			},
			[]string{"model", "kind"},
		),

		tokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "client",
				Name:      "tokens_total",
				Help:      "Total tokens consumed by direction",
			},
			[]string{"model", "direction"},
		),

		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "client",
				Name:      "latency_seconds",
				Help:      "Chat completion request latency in seconds",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"model"},
		),

		registry: prometheus.NewRegistry(),
	}

	cm.registry.MustRegister(
		cm.requests,
		cm.errors,
		cm.tokens,
		cm.latency,
	)

	return cm
}

// RecordRequest records one outgoing request.
func (cm *ClientMetrics) RecordRequest(model string, stream bool) {
	mode := "sync"
	if stream {
		mode = "stream"
	}
	cm.requests.WithLabelValues(model, mode).Inc()
}

// RecordError records a failed request.
//
// Common kinds:
//   - "status": non-success HTTP status from the backend
//   - "transport": network or timeout failure before a response
//   - "decode": unparseable response body
//   - "backend": an error envelope in an otherwise successful response
func (cm *ClientMetrics) RecordError(model, kind string) {
	cm.errors.WithLabelValues(model, kind).Inc()
}

// RecordUsage records the token usage reported for one request.
func (cm *ClientMetrics) RecordUsage(model string, usage client.Usage) {
	cm.tokens.WithLabelValues(model, "input").Add(float64(usage.PromptTokens))
	cm.tokens.WithLabelValues(model, "output").Add(float64(usage.CompletionTokens))
}

// RecordLatency records the wall time of one request.
func (cm *ClientMetrics) RecordLatency(model string, seconds float64) {
	cm.latency.WithLabelValues(model).Observe(seconds)
}

// Registry exposes the underlying registry for the HTTP handler.
func (cm *ClientMetrics) Registry() *prometheus.Registry {
	return cm.registry
}
