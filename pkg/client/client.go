package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// completionsPath is appended to the base URL to form the endpoint.
const completionsPath = "/chat/completions"

// Config identifies one backend model selection. The values arrive
// already resolved; loading and validating them belongs to the
// surrounding configuration layer.
type Config struct {
	// Model is the model identifier sent with every request
	Model string

	// APIKey authenticates requests via a bearer token
	APIKey string

	// BaseURL is the API root, e.g. "https://api.openai.com/v1"
	BaseURL string

	// ProxyURL optionally routes requests through an HTTP proxy
	ProxyURL string

	// Timeout bounds each request; zero means DefaultTimeout
	Timeout time.Duration
}

// Observer receives request-level telemetry. Implementations must be
// safe for concurrent use.
type Observer interface {
	RecordRequest(model string, stream bool)
	RecordError(model, kind string)
	RecordUsage(model string, usage Usage)
	RecordLatency(model string, seconds float64)
}

// UsageRecorder receives the usage reported for one request, keyed by
// the request's correlation ID.
type UsageRecorder interface {
	Record(requestID, model string, usage Usage)
}

// Option configures optional client collaborators.
type Option func(*Client)

// WithExecutor sets the executor all callbacks are delivered on.
// The default runs callbacks inline.
func WithExecutor(exec Executor) Option {
	return func(c *Client) { c.exec = exec }
}

// WithObserver attaches a telemetry observer.
func WithObserver(obs Observer) Option {
	return func(c *Client) { c.observer = obs }
}

// WithRecorder attaches a per-request usage recorder.
func WithRecorder(rec UsageRecorder) Option {
	return func(c *Client) { c.recorder = rec }
}

// Client sends conversations to an OpenAI-compatible chat completions
// endpoint and delivers results through a Handler, either as one
// response message or as an incrementally decoded token stream.
//
// A Client is created once per configured model selection and lives
// for the session; replace it when configuration changes. Its token
// counters only ever increase and are safe for concurrent queries.
type Client struct {
	model    string
	apiKey   string
	endpoint string

	transport *Transport
	exec      Executor
	observer  Observer
	recorder  UsageRecorder
	logger    *slog.Logger

	inputTokens  atomic.Int64
	outputTokens atomic.Int64
}

// New creates a Client for the given backend identity.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	transport, err := NewTransport(cfg.ProxyURL, cfg.Timeout)
	if err != nil {
		return nil, err
	}

	c := &Client{
		model:     cfg.Model,
		apiKey:    cfg.APIKey,
		endpoint:  strings.TrimRight(cfg.BaseURL, "/") + completionsPath,
		transport: transport,
		exec:      DirectExecutor{},
		logger:    slog.Default().With("component", "client", "model", cfg.Model),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Model returns the configured model identifier.
func (c *Client) Model() string { return c.model }

// String returns the model identifier, matching how the client is
// displayed in menus and logs.
func (c *Client) String() string { return c.model }

// InputTokens returns the cumulative prompt tokens accumulated over
// the client's lifetime.
func (c *Client) InputTokens() int64 { return c.inputTokens.Load() }

// OutputTokens returns the cumulative completion tokens accumulated
// over the client's lifetime.
func (c *Client) OutputTokens() int64 { return c.outputTokens.Load() }

// Close releases the underlying transport.
func (c *Client) Close() error {
	return c.transport.Close()
}

// Query sends the conversation and delivers results to handler through
// the configured executor. With stream=false the handler receives one
// response event (or one error event); with stream=true it receives
// zero or more delta events followed by exactly one terminal stop or
// error event, in frame arrival order.
//
// options are merged into the request payload; the explicit "model",
// "messages", and "stream" fields always take precedence. Every failure
// mode (transport, HTTP status, decode, or anything unexpected) is
// converted into a single error event; nothing escapes as a fault.
func (c *Client) Query(ctx context.Context, conv Conversation, handler Handler, stream bool, options map[string]any) {
	d := dispatcher{exec: c.exec, handler: handler}
	requestID := uuid.NewString()
	start := time.Now()

	if c.observer != nil {
		c.observer.RecordRequest(c.model, stream)
	}

	body, err := c.buildPayload(conv, stream, options)
	if err != nil {
		c.fail(d, requestID, "encode", fmt.Sprintf("failed to encode request: %s", err))
		return
	}

	c.logger.Info("requesting model", "request_id", requestID, "stream", stream)

	resp, err := c.transport.Post(ctx, c.endpoint, c.headers(stream), body)
	if err != nil {
		c.fail(d, requestID, errorKind(err), err.Error())
		return
	}
	defer resp.Body.Close()

	addUsage := func(u Usage) { c.addUsage(requestID, u) }

	if !stream {
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			c.fail(d, requestID, "transport", fmt.Sprintf("failed to read response: %s", err))
			return
		}

		ev, usage, err := decodeResponse(raw)
		if err != nil {
			c.fail(d, requestID, "decode", err.Error())
			return
		}

		if ev.Kind == EventError {
			c.logger.Error("backend reported error", "request_id", requestID, "error", ev.Err)
			if c.observer != nil {
				c.observer.RecordError(c.model, "backend")
			}
			d.deliver(ev)
			return
		}

		if usage != nil {
			addUsage(*usage)
		}
		d.deliver(ev)
	} else {
		emit := func(ev Event) {
			if ev.Kind == EventError {
				c.logger.Error("backend reported error", "request_id", requestID, "error", ev.Err)
				if c.observer != nil {
					c.observer.RecordError(c.model, "backend")
				}
			}
			d.deliver(ev)
		}
		if err := scanStream(ctx, resp.Body, emit, addUsage); err != nil {
			c.fail(d, requestID, "stream", fmt.Sprintf("stream read error: %s", err))
			return
		}
	}

	if c.observer != nil {
		c.observer.RecordLatency(c.model, time.Since(start).Seconds())
	}
	c.logger.Debug("query finished", "request_id", requestID,
		"elapsed", time.Since(start))
}

// QueryAsync launches Query on a detached goroutine and returns
// immediately. There is no join, cancellation, or backpressure: the
// query runs to natural completion and the caller observes it only via
// the handler. Acceptable because call volume is human-paced.
func (c *Client) QueryAsync(ctx context.Context, conv Conversation, handler Handler, stream bool, options map[string]any) {
	go c.Query(ctx, conv, handler, stream, options)
}

// buildPayload merges caller options into the request body. Explicit
// fields are set last so overrides cannot corrupt model, messages, or
// stream.
func (c *Client) buildPayload(conv Conversation, stream bool, options map[string]any) ([]byte, error) {
	payload := make(map[string]any, len(options)+3)
	for k, v := range options {
		payload[k] = v
	}
	payload["model"] = c.model
	payload["messages"] = conv
	payload["stream"] = stream

	return json.Marshal(payload)
}

// headers builds the per-request header set.
func (c *Client) headers(stream bool) map[string]string {
	h := map[string]string{
		"Content-Type": "application/json",
	}
	if c.apiKey != "" {
		h["Authorization"] = "Bearer " + c.apiKey
	}
	if stream {
		h["Accept"] = "text/event-stream"
	}
	return h
}

// addUsage accumulates usage counters and forwards them to the
// observer and recorder. Counters are commutative, so no cross-request
// ordering is needed beyond atomic increments.
func (c *Client) addUsage(requestID string, u Usage) {
	c.inputTokens.Add(int64(u.PromptTokens))
	c.outputTokens.Add(int64(u.CompletionTokens))

	if c.observer != nil {
		c.observer.RecordUsage(c.model, u)
	}
	if c.recorder != nil {
		c.recorder.Record(requestID, c.model, u)
	}
}

// fail logs the failure and delivers exactly one error event.
func (c *Client) fail(d dispatcher, requestID, kind, message string) {
	c.logger.Error("query failed",
		"request_id", requestID,
		"kind", kind,
		"error", message,
	)
	if c.observer != nil {
		c.observer.RecordError(c.model, kind)
	}
	d.deliver(Event{Kind: EventError, Err: message})
}

// errorKind classifies a transport-layer error for telemetry labels.
func errorKind(err error) string {
	switch err.(type) {
	case *StatusError:
		return "status"
	case *TransportError:
		return "transport"
	case *DecodeError:
		return "decode"
	default:
		return "unexpected"
	}
}
