package client

import (
	"encoding/json"
	"fmt"
	"io"
)

// StatusError represents a non-2xx HTTP response from the backend.
// It carries the numeric status and a best-effort decoded body message.
type StatusError struct {
	// StatusCode is the HTTP status code
	StatusCode int

	// Message is the decoded error body, or the raw body when it could
	// not be decoded
	Message string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// TransportError represents a network-level failure: connection refused,
// DNS resolution, TLS handshake, or timeout. It is reported, never
// retried, by the client itself.
type TransportError struct {
	// Cause is the underlying network error
	Cause error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("connection error: %v", e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *TransportError) Unwrap() error {
	return e.Cause
}

// DecodeError represents a malformed top-level JSON body in a
// non-streaming response. It is fatal to that request only; per-line
// parse failures during streaming are skipped instead.
type DecodeError struct {
	// Cause is the underlying parse error
	Cause error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("response decode error: %v", e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// errorMessage extracts a human-readable message from a backend error
// value. The value is usually an object with a "message" field, but may
// be a bare string or an arbitrary structure, in which case its string
// form is returned.
func errorMessage(raw json.RawMessage) string {
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Message != "" {
		return obj.Message
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	return string(raw)
}

// extractBodyMessage reads at most 4KB of an error response body and
// tries to decode the standard {"error":{"message":...}} envelope,
// falling back to the raw body text.
func extractBodyMessage(body io.Reader) string {
	if body == nil {
		return ""
	}

	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}

	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && len(envelope.Error) > 0 {
		return errorMessage(envelope.Error)
	}

	return string(data)
}
