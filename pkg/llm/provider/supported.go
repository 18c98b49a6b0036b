package provider

import (
	"fmt"

	"github.com/papercomputeco/deepstream/pkg/llm/provider/deepseek"
	"github.com/papercomputeco/deepstream/pkg/llm/provider/openai"
)

// Supported provider type constants
const (
	DeepSeek = "deepseek"
	OpenAI   = "openai"
)

// SupportedProviders returns the list of all supported provider type names.
func SupportedProviders() []string {
	return []string{DeepSeek, OpenAI}
}

// New creates a new Provider instance for the given provider type.
// The model is ignored by providers with a fixed model identifier; an empty
// model selects the provider default.
// Returns an error if the provider type is not recognized.
func New(providerType, model string) (Provider, error) {
	switch providerType {
	case DeepSeek:
		return deepseek.New(), nil
	case OpenAI:
		return openai.New(model), nil
	default:
		return nil, fmt.Errorf("unknown provider type: %q (supported: %v)", providerType, SupportedProviders())
	}
}
