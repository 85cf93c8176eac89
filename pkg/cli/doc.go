// Package cli contains supporting helpers for the command-line
// frontend: output formatting for usage reports and signal-driven
// context cancellation.
package cli
