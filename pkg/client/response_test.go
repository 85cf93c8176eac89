package client

import (
	"errors"
	"testing"
)

func TestDecodeResponse_RoundTrip(t *testing.T) {
	body := []byte(`{
		"choices":[{"message":{"role":"assistant","content":"Hi there","tool_calls":[{"id":"call_1"}]}}],
		"usage":{"prompt_tokens":12,"completion_tokens":7}
	}`)

	ev, usage, err := decodeResponse(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Kind != EventResponse {
		t.Fatalf("expected response event, got %+v", ev)
	}

	msg := ev.Message
	if msg.Role != "assistant" {
		t.Errorf("expected role %q, got %q", "assistant", msg.Role)
	}
	if msg.Content == nil || *msg.Content != "Hi there" {
		t.Errorf("expected content %q, got %v", "Hi there", msg.Content)
	}
	if len(msg.ToolCalls) == 0 {
		t.Error("expected tool_calls to pass through")
	}
	if usage == nil || usage.PromptTokens != 12 || usage.CompletionTokens != 7 {
		t.Errorf("expected usage (12,7), got %+v", usage)
	}
}

func TestDecodeResponse_MissingFieldsAreNil(t *testing.T) {
	ev, usage, err := decodeResponse([]byte(`{"choices":[{"message":{}}]}`))
	if err != nil {
		t.Fatalf("missing fields must not be a decode failure: %v", err)
	}
	if ev.Message.Role != "" || ev.Message.Content != nil || len(ev.Message.ToolCalls) != 0 {
		t.Errorf("expected zero-valued message, got %+v", ev.Message)
	}
	if usage != nil {
		t.Errorf("expected no usage, got %+v", usage)
	}
}

func TestDecodeResponse_ErrorEnvelope(t *testing.T) {
	t.Run("object with message", func(t *testing.T) {
		ev, _, err := decodeResponse([]byte(`{"error":{"message":"bad key","code":401}}`))
		if err != nil {
			t.Fatalf("error envelope must decode cleanly: %v", err)
		}
		if ev.Kind != EventError || ev.Err != "bad key" {
			t.Errorf("expected error event %q, got %+v", "bad key", ev)
		}
	})

	t.Run("object without message stringifies", func(t *testing.T) {
		ev, _, err := decodeResponse([]byte(`{"error":{"code":500}}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ev.Kind != EventError || ev.Err != `{"code":500}` {
			t.Errorf("expected stringified error object, got %+v", ev)
		}
	})

	t.Run("bare string", func(t *testing.T) {
		ev, _, err := decodeResponse([]byte(`{"error":"boom"}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ev.Err != "boom" {
			t.Errorf("expected %q, got %q", "boom", ev.Err)
		}
	})
}

func TestDecodeResponse_MalformedJSONIsFatal(t *testing.T) {
	_, _, err := decodeResponse([]byte(`{not json`))
	if err == nil {
		t.Fatal("expected a decode error")
	}

	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Errorf("expected *DecodeError, got %T", err)
	}
}

func TestDecodeResponse_EmptyChoices(t *testing.T) {
	ev, _, err := decodeResponse([]byte(`{"choices":[]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Kind != EventResponse || ev.Message == nil {
		t.Errorf("expected response event with empty message, got %+v", ev)
	}
}
