package client

import "encoding/json"

// decodeResponse parses a complete non-streaming response body.
//
// A top-level "error" key is a normal, if terminal, outcome: it is
// returned as an error Event to be delivered to the caller, not as a
// Go error. Malformed top-level JSON is the one fatal decode case and
// surfaces as a *DecodeError.
//
// Missing role/content/tool_calls fields map to zero values, never to
// a decode failure. A top-level usage object, when present, is returned
// for the client to accumulate.
func decodeResponse(body []byte) (Event, *Usage, error) {
	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Event{}, nil, &DecodeError{Cause: err}
	}

	if len(resp.Error) > 0 && string(resp.Error) != "null" {
		return Event{
			Kind: EventError,
			Err:  errorMessage(resp.Error),
		}, resp.Usage, nil
	}

	msg := &ResponseMessage{}
	if len(resp.Choices) > 0 {
		choice := resp.Choices[0].Message
		msg.Role = choice.Role
		msg.Content = choice.Content
		msg.ToolCalls = choice.ToolCalls
	}

	return Event{
		Kind:    EventResponse,
		Message: msg,
	}, resp.Usage, nil
}
