package llm

// ChatRequest is the outbound chat-completion body. It marshals to exactly
// {"model", "messages", "temperature", "stream"}.
type ChatRequest struct {
	// Model identifier (e.g., "deepseek-reasoner")
	Model string `json:"model"`

	// Conversation messages, in order
	Messages []Message `json:"messages"`

	// Sampling temperature, passed through as given
	Temperature float64 `json:"temperature"`

	// Whether to stream the response. Always true for deepstream.
	Stream bool `json:"stream"`
}
