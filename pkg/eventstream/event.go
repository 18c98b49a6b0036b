package eventstream

import (
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/deepstream/pkg/storage"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeChatCompleted is emitted after a completed chat turn is persisted.
	EventTypeChatCompleted = "deepstream.chat.completed"
)

// CompletionEvent is a transport-neutral event payload for a completed turn.
// It carries sizes and timing only; the turn text stays in storage.
type CompletionEvent struct {
	SchemaVersion   int       `json:"schema_version"`
	EventType       string    `json:"event_type"`
	EventID         string    `json:"event_id"`
	EmittedAt       time.Time `json:"emitted_at"`
	Provider        string    `json:"provider"`
	Model           string    `json:"model"`
	TurnID          string    `json:"turn_id"`
	ContentLength   int       `json:"content_length"`
	ReasoningLength int       `json:"reasoning_length"`
	DurationMs      int64     `json:"duration_ms"`
}

// NewCompletionEvent describes turn. Lengths are in bytes.
func NewCompletionEvent(turn *storage.Turn) *CompletionEvent {
	return &CompletionEvent{
		SchemaVersion:   SchemaVersionV1,
		EventType:       EventTypeChatCompleted,
		EventID:         "evt_" + uuid.NewString(),
		EmittedAt:       time.Now().UTC(),
		Provider:        turn.Provider,
		Model:           turn.Model,
		TurnID:          turn.ID,
		ContentLength:   len(turn.Content),
		ReasoningLength: len(turn.Reasoning),
		DurationMs:      turn.Duration.Milliseconds(),
	}
}
