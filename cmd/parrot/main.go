// Parrot is a command-line client for OpenAI-compatible chat
// completion backends.
//
// It sends chat requests to any backend speaking the OpenAI chat
// completions protocol, streaming individual content deltas to the
// terminal or waiting for the complete answer, while tracking token
// usage in memory and in a persistent SQLite ledger.
//
// Usage:
//
//	# Ask a question with the configured default model
//	parrot chat "explain TCP slow start"
//
//	# Stream the answer token by token from a specific model
//	parrot chat --model gpt-4o-mini --stream "write a haiku"
//
//	# Hold a multi-turn conversation
//	parrot chat --interactive
//
//	# List available models
//	parrot models
//
//	# Report recorded token usage
//	parrot usage --format csv
//
//	# Show version information
//	parrot version
package main

func main() {
	Execute()
}
