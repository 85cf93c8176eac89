package client

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// DefaultTimeout is the ceiling on request establishment when the
// caller does not configure one.
const DefaultTimeout = 120 * time.Second

// Transport issues single HTTP POST requests against the backend.
// It does exactly one attempt per call: retry policy, if any, belongs
// to the caller.
type Transport struct {
	client *http.Client
}

// NewTransport creates a Transport with connection pooling, optional
// proxy routing, and system-default TLS validation. An empty proxyURL
// falls back to the environment proxy settings.
func NewTransport(proxyURL string, timeout time.Duration) (*Transport, error) {
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 5,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}

	if proxyURL != "" {
		parsed, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL %q: %w", proxyURL, err)
		}
		transport.Proxy = http.ProxyURL(parsed)
	}

	return &Transport{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
	}, nil
}

// Post sends one POST request and returns the response with a 2xx
// status. The caller owns resp.Body and must close it, either reading
// it whole (non-streaming) or line by line (streaming).
//
// Failures are distinguishable: a *TransportError for network-level
// problems, a *StatusError (with decoded body message) for non-2xx
// responses. No internal retries.
func (t *Transport) Post(ctx context.Context, url string, headers map[string]string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}
	if req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, &TransportError{Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := extractBodyMessage(resp.Body)
		resp.Body.Close()
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Message:    message,
		}
	}

	return resp, nil
}

// Close releases idle connections held by the pool.
func (t *Transport) Close() error {
	t.client.CloseIdleConnections()
	return nil
}
