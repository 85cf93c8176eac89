package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// newTestClient builds a client against the given server URL with
// inline callback delivery.
func newTestClient(t *testing.T, baseURL string, opts ...Option) *Client {
	t.Helper()

	c, err := New(Config{
		Model:   "test-model",
		APIKey:  "test-api-key",
		BaseURL: baseURL,
		Timeout: 5 * time.Second,
	}, opts...)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	t.Cleanup(func() { c.Close() })

	return c
}

func TestQuery_NonStreamRoundTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("expected /chat/completions path, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-api-key" {
			t.Errorf("missing bearer token, got %q", r.Header.Get("Authorization"))
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("expected JSON content type, got %q", r.Header.Get("Content-Type"))
		}

		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("failed to decode request payload: %v", err)
		}
		if payload["model"] != "test-model" {
			t.Errorf("expected model test-model, got %v", payload["model"])
		}
		if payload["stream"] != false {
			t.Errorf("expected stream=false, got %v", payload["stream"])
		}

		fmt.Fprint(w, `{
			"choices":[{"message":{"role":"assistant","content":"Hello!"}}],
			"usage":{"prompt_tokens":10,"completion_tokens":5}
		}`)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)

	var events []Event
	c.Query(context.Background(), Text("Say hello"),
		OnEvent(func(ev Event) { events = append(events, ev) }), false, nil)

	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.Kind != EventResponse {
		t.Fatalf("expected response event, got %+v", ev)
	}
	if ev.Message.Role != "assistant" || ev.Message.Content == nil || *ev.Message.Content != "Hello!" {
		t.Errorf("response fields did not round-trip: %+v", ev.Message)
	}

	if c.InputTokens() != 10 || c.OutputTokens() != 5 {
		t.Errorf("expected counters (10,5), got (%d,%d)", c.InputTokens(), c.OutputTokens())
	}
}

func TestQuery_UsageIsAdditiveAndMonotonic(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"choices":[{"message":{"role":"assistant","content":"ok"}}],
			"usage":{"prompt_tokens":3,"completion_tokens":2}
		}`)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	handler := OnEvent(func(Event) {})

	for i := 0; i < 4; i++ {
		c.Query(context.Background(), Text("hi"), handler, false, nil)
	}

	if c.InputTokens() != 12 || c.OutputTokens() != 8 {
		t.Errorf("expected counters (12,8), got (%d,%d)", c.InputTokens(), c.OutputTokens())
	}
}

func TestQuery_Streaming(t *testing.T) {
	chunks := []string{
		`data: {"choices":[{"delta":{"role":"assistant","content":""},"finish_reason":null}]}`,
		`data: {"choices":[{"delta":{"content":"Hello"},"finish_reason":null}]}`,
		`data: {"choices":[{"delta":{"content":" World"},"finish_reason":"stop"}],"usage":{"prompt_tokens":8,"completion_tokens":2}}`,
		`data: [DONE]`,
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "text/event-stream" {
			t.Errorf("expected Accept: text/event-stream, got %q", r.Header.Get("Accept"))
		}

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, chunk := range chunks {
			fmt.Fprintf(w, "%s\n\n", chunk)
			flusher.Flush()
		}
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)

	var events []Event
	var content strings.Builder
	c.Query(context.Background(), Text("Say hello"),
		OnEventStatus(func(ev Event, status string) {
			events = append(events, ev)
			content.WriteString(ev.Delta.Content)
		}), true, nil)

	if len(events) != 4 {
		t.Fatalf("expected 4 events (3 deltas + stop), got %d", len(events))
	}
	if content.String() != "Hello World" {
		t.Errorf("expected content %q, got %q", "Hello World", content.String())
	}
	last := events[len(events)-1]
	if last.Kind != EventStop || last.Status() != TagStop {
		t.Errorf("expected terminal stop event, got %+v", last)
	}

	if c.InputTokens() != 8 || c.OutputTokens() != 2 {
		t.Errorf("expected counters (8,2), got (%d,%d)", c.InputTokens(), c.OutputTokens())
	}
}

func TestQuery_HTTP401YieldsSingleErrorEvent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"bad key"}}`)
	}))
	defer server.Close()

	for _, stream := range []bool{false, true} {
		name := "non-stream"
		if stream {
			name = "stream"
		}
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, server.URL)

			var events []Event
			c.Query(context.Background(), Text("hi"),
				OnEvent(func(ev Event) { events = append(events, ev) }), stream, nil)

			if len(events) != 1 {
				t.Fatalf("expected exactly 1 event, got %d", len(events))
			}
			if events[0].Kind != EventError {
				t.Fatalf("expected error event, got %+v", events[0])
			}
			if !strings.Contains(events[0].Err, "bad key") {
				t.Errorf("expected message to contain %q, got %q", "bad key", events[0].Err)
			}
			if c.InputTokens() != 0 || c.OutputTokens() != 0 {
				t.Errorf("failed request must not mutate counters, got (%d,%d)",
					c.InputTokens(), c.OutputTokens())
			}
		})
	}
}

func TestQuery_TransportErrorYieldsSingleErrorEvent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing listening

	c := newTestClient(t, server.URL)

	var events []Event
	c.Query(context.Background(), Text("hi"),
		OnEvent(func(ev Event) { events = append(events, ev) }), false, nil)

	if len(events) != 1 || events[0].Kind != EventError {
		t.Fatalf("expected exactly 1 error event, got %+v", events)
	}
}

func TestQuery_BackendErrorBodyIsDataNotFault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 200 OK carrying a structured error envelope.
		fmt.Fprint(w, `{"error":{"message":"model overloaded"}}`)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)

	var events []Event
	c.Query(context.Background(), Text("hi"),
		OnEvent(func(ev Event) { events = append(events, ev) }), false, nil)

	if len(events) != 1 || events[0].Kind != EventError {
		t.Fatalf("expected exactly 1 error event, got %+v", events)
	}
	if events[0].Err != "model overloaded" {
		t.Errorf("expected nested message, got %q", events[0].Err)
	}
}

// recordingObserver captures observer calls for assertions.
type recordingObserver struct {
	mu     sync.Mutex
	errors []string
}

func (o *recordingObserver) RecordRequest(model string, stream bool)     {}
func (o *recordingObserver) RecordUsage(model string, usage Usage)       {}
func (o *recordingObserver) RecordLatency(model string, seconds float64) {}

func (o *recordingObserver) RecordError(model, kind string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.errors = append(o.errors, kind)
}

func TestQuery_StreamBackendErrorReachesObserver(t *testing.T) {
	chunks := []string{
		`data: {"choices":[{"delta":{"content":"partial"},"finish_reason":null}]}`,
		`data: {"error":{"message":"model overloaded"}}`,
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, chunk := range chunks {
			fmt.Fprintf(w, "%s\n\n", chunk)
			flusher.Flush()
		}
	}))
	defer server.Close()

	obs := &recordingObserver{}
	c := newTestClient(t, server.URL, WithObserver(obs))

	var events []Event
	c.Query(context.Background(), Text("hi"),
		OnEvent(func(ev Event) { events = append(events, ev) }), true, nil)

	if len(events) != 2 || events[1].Kind != EventError {
		t.Fatalf("expected delta then error event, got %+v", events)
	}

	obs.mu.Lock()
	defer obs.mu.Unlock()
	if len(obs.errors) != 1 || obs.errors[0] != "backend" {
		t.Errorf("expected one backend error recorded, got %v", obs.errors)
	}
}

func TestQuery_OptionsMergeCannotCorruptExplicitFields(t *testing.T) {
	var payload map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("failed to decode payload: %v", err)
		}
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	c.Query(context.Background(), Text("hi"), OnEvent(func(Event) {}), false, map[string]any{
		"temperature": 0.2,
		"max_tokens":  float64(64),
		"model":       "attacker-model",
		"stream":      true,
		"messages":    "garbage",
	})

	if payload["model"] != "test-model" {
		t.Errorf("options must not override model, got %v", payload["model"])
	}
	if payload["stream"] != false {
		t.Errorf("options must not override stream, got %v", payload["stream"])
	}
	if _, ok := payload["messages"].([]any); !ok {
		t.Errorf("options must not override messages, got %T", payload["messages"])
	}
	if payload["temperature"] != 0.2 {
		t.Errorf("expected temperature passthrough, got %v", payload["temperature"])
	}
	if payload["max_tokens"] != float64(64) {
		t.Errorf("expected max_tokens passthrough, got %v", payload["max_tokens"])
	}
}

func TestQueryAsync_ConcurrentUsageAccumulation(t *testing.T) {
	var calls int
	var mu sync.Mutex

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()

		if n == 1 {
			fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"a"}}],"usage":{"prompt_tokens":10,"completion_tokens":5}}`)
		} else {
			fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"b"}}],"usage":{"prompt_tokens":20,"completion_tokens":15}}`)
		}
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)

	var wg sync.WaitGroup
	wg.Add(2)
	handler := OnEvent(func(Event) { wg.Done() })

	c.QueryAsync(context.Background(), Text("one"), handler, false, nil)
	c.QueryAsync(context.Background(), Text("two"), handler, false, nil)
	wg.Wait()

	if c.InputTokens() != 30 || c.OutputTokens() != 20 {
		t.Errorf("expected counters (30,20) regardless of completion order, got (%d,%d)",
			c.InputTokens(), c.OutputTokens())
	}
}

func TestQuery_DeliversOnConfiguredExecutor(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`)
	}))
	defer server.Close()

	exec := NewSerialExecutor()

	var events []Event
	c := newTestClient(t, server.URL, WithExecutor(exec))
	c.Query(context.Background(), Text("hi"),
		OnEvent(func(ev Event) { events = append(events, ev) }), false, nil)

	// Close drains the queue, so the delivery is visible afterwards.
	exec.Close()

	if len(events) != 1 || events[0].Kind != EventResponse {
		t.Fatalf("expected 1 response event via executor, got %+v", events)
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{BaseURL: "http://x"}); err == nil {
		t.Error("expected error for missing model")
	}
	if _, err := New(Config{Model: "m"}); err == nil {
		t.Error("expected error for missing base URL")
	}
	if _, err := New(Config{Model: "m", BaseURL: "http://x", ProxyURL: "://bad"}); err == nil {
		t.Error("expected error for invalid proxy URL")
	}
}

func TestClient_EndpointDerivation(t *testing.T) {
	c, err := New(Config{Model: "m", BaseURL: "https://api.example.com/v1/"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer c.Close()

	if c.endpoint != "https://api.example.com/v1/chat/completions" {
		t.Errorf("trailing slash not normalized: %s", c.endpoint)
	}
}
