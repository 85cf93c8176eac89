package client

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
)

// dataPrefix is the frame marker of the event stream transport.
const dataPrefix = "data: "

// doneSentinel is the literal terminal marker signaling normal stream end.
const doneSentinel = "[DONE]"

// scanStream consumes a line-oriented event stream until EOF or a
// terminal frame, emitting one Event per decoded frame in arrival
// order. It is a pure line-by-line transducer: no state is buffered
// across frames beyond the current line.
//
// Per line:
//   - lines without the "data: " prefix (keep-alives, comments) are discarded
//   - a "[DONE]" payload emits a stop event and ends the stream; reaching
//     EOF without it is a silent end, no stop event
//   - payloads that fail to parse as JSON are skipped, never fatal;
//     partial-frame noise is expected
//   - a parsed frame carrying an "error" key emits an error event and
//     terminates the stream immediately
//   - any other parsed frame emits a delta event, even when its content
//     is empty, so finish-reason transitions are never missed
//
// Usage found in a frame is handed to addUsage before the frame's event
// is emitted, so a stream that fails later still accounts the frames it
// processed. The returned error is non-nil only for an underlying read
// failure; protocol-level errors are delivered as events.
func scanStream(ctx context.Context, body io.Reader, emit func(Event), addUsage func(Usage)) error {
	scanner := bufio.NewScanner(body)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimRight(scanner.Text(), " \t\r")

		if !strings.HasPrefix(line, dataPrefix) {
			continue
		}

		payload := strings.TrimPrefix(line, dataPrefix)

		if payload == doneSentinel {
			emit(Event{Kind: EventStop})
			return nil
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			slog.Debug("skipping unparseable stream frame",
				"error", err.Error(),
				"data", truncate(payload, 200),
			)
			continue
		}

		if len(chunk.Error) > 0 && string(chunk.Error) != "null" {
			emit(Event{
				Kind: EventError,
				Err:  errorMessage(chunk.Error),
			})
			return nil
		}

		if chunk.Usage != nil {
			addUsage(*chunk.Usage)
		}

		ev := Event{Kind: EventDelta}
		if len(chunk.Choices) > 0 {
			choice := chunk.Choices[0]
			ev.Delta = choice.Delta
			if choice.FinishReason != nil {
				ev.FinishReason = *choice.FinishReason
			}
		}
		emit(ev)
	}

	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	return nil
}

// truncate limits a string to maxLen characters for log output.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
