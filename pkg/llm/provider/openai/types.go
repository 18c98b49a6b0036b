package openai

// openaiStreamChunk represents one streamed "chat.completion.chunk".
// Choices is a pointer so a missing key is reported as a schema mismatch.
type openaiStreamChunk struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	Model   string `json:"model"`
	Choices *[]struct {
		Index        int          `json:"index"`
		Delta        *openaiDelta `json:"delta"`
		FinishReason *string      `json:"finish_reason"`
	} `json:"choices"`
	Usage *openaiUsage `json:"usage,omitempty"`
}

// openaiDelta is the incremental message in a chunk. ReasoningContent is not
// sent by OpenAI itself but by compatible servers (vLLM, DeepSeek-compatible
// gateways) that expose reasoning models.
type openaiDelta struct {
	Role             string  `json:"role,omitempty"`
	Content          *string `json:"content"`
	ReasoningContent *string `json:"reasoning_content"`
}

type openaiUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
