package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent deepstream configuration stored as config.toml
// in the .deepstream/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version       int                 `toml:"version"`
	Provider      ProviderConfig      `toml:"provider"`
	Chat          ChatConfig          `toml:"chat"`
	Server        ServerConfig        `toml:"server"`
	Storage       StorageConfig       `toml:"storage"`
	EventStream   EventStreamConfig   `toml:"event_stream"`
	SystemMessage SystemMessageConfig `toml:"system_message"`
}

// ProviderConfig selects the upstream chat-completions API.
type ProviderConfig struct {
	Name    string `toml:"name,omitempty"`
	BaseURL string `toml:"base_url,omitempty"`

	// Model is ignored by providers with a fixed model (deepseek).
	Model string `toml:"model,omitempty"`
}

// ChatConfig holds sampling defaults for chat requests.
type ChatConfig struct {
	UseCase string `toml:"use_case,omitempty"`

	// Temperature, when set, overrides the use-case preset.
	Temperature *float64 `toml:"temperature,omitempty"`
}

// ServerConfig holds API server settings.
type ServerConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// StorageConfig holds turn storage settings. PostgresDSN wins over SQLitePath;
// with neither set turns are kept in memory.
type StorageConfig struct {
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

// EventStreamConfig holds completion event publishing settings.
type EventStreamConfig struct {
	// Provider is "nop" or "kafka".
	Provider string `toml:"provider,omitempty"`

	// Brokers is a comma-separated list of host:port pairs.
	Brokers string `toml:"brokers,omitempty"`
	Topic   string `toml:"topic,omitempty"`
}

// SystemMessageConfig holds the optional prompt file watched by the server.
type SystemMessageConfig struct {
	File string `toml:"file,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"provider.name": {
		get: func(c *Config) string { return c.Provider.Name },
		set: func(c *Config, v string) error { c.Provider.switchTo(v); return nil },
	},
	"provider.base_url": {
		get: func(c *Config) string { return c.Provider.BaseURL },
		set: func(c *Config, v string) error { c.Provider.BaseURL = v; return nil },
	},
	"provider.model": {
		get: func(c *Config) string { return c.Provider.Model },
		set: func(c *Config, v string) error { c.Provider.Model = v; return nil },
	},
	"chat.use_case": {
		get: func(c *Config) string { return c.Chat.UseCase },
		set: func(c *Config, v string) error { c.Chat.UseCase = v; return nil },
	},
	"chat.temperature": {
		get: func(c *Config) string {
			if c.Chat.Temperature == nil {
				return ""
			}
			return strconv.FormatFloat(*c.Chat.Temperature, 'f', -1, 64)
		},
		set: func(c *Config, v string) error {
			if v == "" {
				c.Chat.Temperature = nil
				return nil
			}
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid value for chat.temperature: %w", err)
			}
			if f < 0 || f > 2 {
				return fmt.Errorf("invalid value for chat.temperature: %v is outside [0, 2]", f)
			}
			c.Chat.Temperature = &f
			return nil
		},
	},
	"server.listen": {
		get: func(c *Config) string { return c.Server.Listen },
		set: func(c *Config, v string) error { c.Server.Listen = v; return nil },
	},
	"storage.sqlite_path": {
		get: func(c *Config) string { return c.Storage.SQLitePath },
		set: func(c *Config, v string) error { c.Storage.SQLitePath = v; return nil },
	},
	"storage.postgres_dsn": {
		get: func(c *Config) string { return c.Storage.PostgresDSN },
		set: func(c *Config, v string) error { c.Storage.PostgresDSN = v; return nil },
	},
	"event_stream.provider": {
		get: func(c *Config) string { return c.EventStream.Provider },
		set: func(c *Config, v string) error {
			switch v {
			case EventStreamNop, EventStreamKafka:
				c.EventStream.Provider = v
				return nil
			default:
				return fmt.Errorf("invalid value for event_stream.provider: %q (supported: %s, %s)", v, EventStreamNop, EventStreamKafka)
			}
		},
	},
	"event_stream.brokers": {
		get: func(c *Config) string { return c.EventStream.Brokers },
		set: func(c *Config, v string) error { c.EventStream.Brokers = v; return nil },
	},
	"event_stream.topic": {
		get: func(c *Config) string { return c.EventStream.Topic },
		set: func(c *Config, v string) error { c.EventStream.Topic = v; return nil },
	},
	"system_message.file": {
		get: func(c *Config) string { return c.SystemMessage.File },
		set: func(c *Config, v string) error { c.SystemMessage.File = v; return nil },
	},
}

// orderedKeys lists configKeys in TOML section order.
var orderedKeys = []string{
	"provider.name",
	"provider.base_url",
	"provider.model",
	"chat.use_case",
	"chat.temperature",
	"server.listen",
	"storage.sqlite_path",
	"storage.postgres_dsn",
	"event_stream.provider",
	"event_stream.brokers",
	"event_stream.topic",
	"system_message.file",
}
