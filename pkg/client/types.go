package client

import "encoding/json"

// Message represents a single entry in a conversation sent to the
// chat completions endpoint.
type Message struct {
	// Role identifies the message sender (system, user, assistant, tool)
	Role string `json:"role"`

	// Content is the message text content
	Content string `json:"content"`
}

// Conversation is an ordered, caller-owned sequence of messages. The
// client never mutates it.
type Conversation []Message

// Text promotes a plain prompt string into a one-element user conversation.
func Text(prompt string) Conversation {
	return Conversation{{Role: RoleUser, Content: prompt}}
}

// Message role constants
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Finish reason constants
const (
	FinishReasonStop          = "stop"
	FinishReasonLength        = "length"
	FinishReasonToolCalls     = "tool_calls"
	FinishReasonContentFilter = "content_filter"
)

// ResponseMessage is the normalized result of a non-streaming request.
// It is an immutable value produced once per request; optional fields
// that the backend omitted are left nil.
type ResponseMessage struct {
	// Role is the message role, usually "assistant"
	Role string

	// Content is the generated text, nil when the backend omitted it
	// (e.g. a pure tool-call response)
	Content *string

	// ToolCalls is the raw tool call list, passed through opaquely
	ToolCalls json.RawMessage
}

// Usage is a pair of token counters reported by the backend. It may
// appear zero, one, or many times per request and is accumulated
// additively into the client's lifetime counters.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// Delta is the incremental content fragment carried by one streaming frame.
type Delta struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}

// EventKind discriminates the variants of Event.
type EventKind int

const (
	// EventResponse carries a complete ResponseMessage (non-streaming result).
	EventResponse EventKind = iota

	// EventDelta carries an incremental content fragment and an optional
	// finish reason. Zero or more precede a terminal event.
	EventDelta

	// EventStop marks normal stream termination (the [DONE] sentinel).
	EventStop

	// EventError carries a terminal error message. Exactly one terminal
	// event (stop or error) ends a given stream.
	EventError
)

// Event is the unit delivered to the caller's handler. Exactly one of
// the payload fields is meaningful for a given Kind.
type Event struct {
	Kind EventKind

	// Message is set for EventResponse.
	Message *ResponseMessage

	// Delta is set for EventDelta.
	Delta Delta

	// FinishReason is the server-supplied tag on a delta frame, empty
	// when the frame carried none.
	FinishReason string

	// Err is the error message for EventError.
	Err string
}

// Status returns the status tag delivered alongside the event to
// two-argument handlers: the finish reason for deltas (possibly empty),
// "stop" for stream termination, and "error" for error events.
func (e Event) Status() string {
	switch e.Kind {
	case EventStop:
		return TagStop
	case EventError:
		return TagError
	default:
		return e.FinishReason
	}
}

// Status tag constants for two-argument handlers.
const (
	TagStop  = "stop"
	TagError = "error"
)

// Wire types for the chat completions response formats.

// chatResponse is the non-streaming response body from /chat/completions.
type chatResponse struct {
	Error   json.RawMessage `json:"error"`
	Choices []chatChoice    `json:"choices"`
	Usage   *Usage          `json:"usage"`
}

// chatChoice is one completion choice in a non-streaming response.
type chatChoice struct {
	Message chatMessage `json:"message"`
}

// chatMessage mirrors choices[0].message; optional fields stay nil.
type chatMessage struct {
	Role      string          `json:"role"`
	Content   *string         `json:"content"`
	ToolCalls json.RawMessage `json:"tool_calls"`
}

// streamChunk is one decoded "data:" frame of a streaming response.
type streamChunk struct {
	Error   json.RawMessage `json:"error"`
	Choices []chunkChoice   `json:"choices"`
	Usage   *Usage          `json:"usage"`
}

// chunkChoice is a streaming choice delta.
type chunkChoice struct {
	Delta        Delta   `json:"delta"`
	FinishReason *string `json:"finish_reason"`
}
