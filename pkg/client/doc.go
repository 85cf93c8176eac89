// Package client implements an adapter for OpenAI-compatible chat
// completions endpoints.
//
// The central type is Client, which composes three collaborators:
// a Transport that performs one HTTP POST per request, decoders that
// turn response bytes into structured events (a whole-body decoder for
// non-streaming requests, a line-by-line transducer for event streams),
// and a dispatcher that marshals every event onto a caller-designated
// Executor so decoding never runs inside the consumer's context.
//
// Streams follow the server-sent-event convention: one "data: <json>"
// frame per line, terminated by the "data: [DONE]" sentinel. Per-line
// parse failures are treated as transient noise and skipped; a
// structured error frame terminates the stream with an error event.
// This asymmetry with the non-streaming path, where a malformed body is
// fatal, is deliberate.
//
// Token usage reported by the backend accumulates into the client's
// lifetime counters and, when configured, flows to an Observer and a
// UsageRecorder.
package client
