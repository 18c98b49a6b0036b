// Package api provides the HTTP API server for streaming chats and inspecting
// stored turns.
package api

import "time"

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8081")
	ListenAddr string

	// DefaultTurnLimit is the page size of GET /v1/turns without ?limit (defaults to 20).
	DefaultTurnLimit int

	// MaxTurnLimit caps ?limit on GET /v1/turns (defaults to 200).
	MaxTurnLimit int

	// HeartbeatInterval is how often an idle chat stream sends an SSE comment
	// (defaults to 15s). A failed heartbeat write is how a departed client is
	// noticed while the upstream is silent.
	HeartbeatInterval time.Duration
}
