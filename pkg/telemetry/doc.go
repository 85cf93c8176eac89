// Package telemetry groups the observability subpackages: structured
// logging setup and Prometheus metrics for the chat client.
package telemetry
