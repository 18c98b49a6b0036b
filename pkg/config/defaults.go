package config

import (
	"github.com/papercomputeco/deepstream/pkg/llm/provider"
	"github.com/papercomputeco/deepstream/pkg/llm/provider/deepseek"
)

// Event stream providers.
const (
	EventStreamNop   = "nop"
	EventStreamKafka = "kafka"
)

const (
	defaultProvider = provider.DeepSeek
	defaultBaseURL  = deepseek.DefaultBaseURL
	defaultUseCase  = "general"
	defaultListen   = ":8081"

	defaultEventStreamProvider = EventStreamNop
	defaultEventStreamTopic    = "deepstream.chat.completed"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Provider: ProviderConfig{
			Name:    defaultProvider,
			BaseURL: defaultBaseURL,
		},
		Chat: ChatConfig{
			UseCase: defaultUseCase,
		},
		Server: ServerConfig{
			Listen: defaultListen,
		},
		EventStream: EventStreamConfig{
			Provider: defaultEventStreamProvider,
			Topic:    defaultEventStreamTopic,
		},
	}
}
