// Package metrics exposes Prometheus instrumentation for the chat
// client. ClientMetrics implements client.Observer and records request
// counts, error kinds, token consumption, and latency per model.
// A small standalone HTTP server publishes the exposition endpoint.
package metrics
