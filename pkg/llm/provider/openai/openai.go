// Package openai implements the OpenAI Chat Completions streaming provider.
// It also serves any OpenAI-compatible server.
package openai

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/papercomputeco/deepstream/pkg/llm"
)

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = "gpt-4o-mini"

	// DefaultBaseURL is the public OpenAI API endpoint.
	DefaultBaseURL = "https://api.openai.com"

	chatPath = "/v1/chat/completions"
)

// provider implements the Provider interface for OpenAI's Chat Completions API.
type provider struct {
	model string
}

func New(model string) *provider {
	if model == "" {
		model = DefaultModel
	}
	return &provider{model: model}
}

func (o *provider) Name() string {
	return "openai"
}

func (o *provider) Model() string {
	return o.model
}

func (o *provider) ChatPath() string {
	return chatPath
}

func (o *provider) NewRequest(messages []llm.Message, temperature float64) *llm.ChatRequest {
	return &llm.ChatRequest{
		Model:       o.model,
		Messages:    messages,
		Temperature: temperature,
		Stream:      true,
	}
}

func (o *provider) ParseStreamChunk(payload []byte) (*llm.Delta, error) {
	var chunk openaiStreamChunk
	if err := json.Unmarshal(payload, &chunk); err != nil {
		return nil, fmt.Errorf("%w: %w", llm.ErrMalformedChunk, err)
	}

	if chunk.Choices == nil {
		return nil, fmt.Errorf("%w: %w", llm.ErrMalformedChunk, errors.New(`missing "choices" array`))
	}

	// stream_options.include_usage sends a final chunk with no choices
	if len(*chunk.Choices) == 0 {
		return nil, nil
	}

	delta := (*chunk.Choices)[0].Delta
	if delta == nil {
		return nil, nil
	}

	var out llm.Delta
	if delta.Content != nil {
		out.Content = *delta.Content
	}
	if delta.ReasoningContent != nil {
		out.Reasoning = *delta.ReasoningContent
	}

	if out.IsEmpty() {
		return nil, nil
	}

	return &out, nil
}
