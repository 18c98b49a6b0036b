// Package provider defines the chat-completion providers deepstream can
// stream from and the shared decoding contract between them.
package provider

import "github.com/papercomputeco/deepstream/pkg/llm"

// Provider knows how to build a streaming request for one upstream API and
// how to decode that API's stream chunks into deltas.
type Provider interface {
	// Name returns the canonical provider name (e.g., "deepseek", "openai")
	Name() string

	// Model returns the model identifier sent with every request.
	Model() string

	// ChatPath is the request path appended to the configured base URL.
	ChatPath() string

	// NewRequest builds the outbound streaming request body.
	NewRequest(messages []llm.Message, temperature float64) *llm.ChatRequest

	// ParseStreamChunk decodes one SSE data payload.
	// Only the first entry of "choices" is consulted.
	// Returns (nil, nil) when the chunk carries no fragment (e.g., a usage-only
	// chunk or empty delta fields). Returns an error wrapping llm.ErrMalformedChunk
	// for invalid JSON or schema mismatch; callers skip the chunk and continue.
	ParseStreamChunk(payload []byte) (*llm.Delta, error)
}
