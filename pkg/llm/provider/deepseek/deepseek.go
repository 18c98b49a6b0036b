// Package deepseek implements the DeepSeek chat-completions provider.
package deepseek

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/papercomputeco/deepstream/pkg/llm"
)

const (
	// Model is the fixed model identifier sent with every request.
	Model = "deepseek-reasoner"

	// DefaultBaseURL is the public DeepSeek API endpoint.
	DefaultBaseURL = "https://api.deepseek.com"

	chatPath = "/v1/chat/completions"
)

var errNoChoices = errors.New(`missing "choices" array`)

// provider implements the Provider interface for DeepSeek's streaming API.
type provider struct{}

func New() *provider { return &provider{} }

func (d *provider) Name() string {
	return "deepseek"
}

func (d *provider) Model() string {
	return Model
}

func (d *provider) ChatPath() string {
	return chatPath
}

func (d *provider) NewRequest(messages []llm.Message, temperature float64) *llm.ChatRequest {
	return &llm.ChatRequest{
		Model:       Model,
		Messages:    messages,
		Temperature: temperature,
		Stream:      true,
	}
}

func (d *provider) ParseStreamChunk(payload []byte) (*llm.Delta, error) {
	var chunk deepseekStreamChunk
	if err := json.Unmarshal(payload, &chunk); err != nil {
		return nil, fmt.Errorf("%w: %w", llm.ErrMalformedChunk, err)
	}

	if chunk.Choices == nil {
		return nil, fmt.Errorf("%w: %w", llm.ErrMalformedChunk, errNoChoices)
	}

	// Usage-only and keep-alive chunks carry no choices.
	if len(*chunk.Choices) == 0 {
		return nil, nil
	}

	// Only the first choice is consulted; n > 1 is never requested.
	delta := (*chunk.Choices)[0].Delta
	if delta == nil {
		return nil, nil
	}

	out := &llm.Delta{}
	if delta.Content != nil {
		out.Content = *delta.Content
	}
	if delta.ReasoningContent != nil {
		out.Reasoning = *delta.ReasoningContent
	}

	if out.IsEmpty() {
		return nil, nil
	}

	return out, nil
}
