package storage

import (
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/deepstream/pkg/llm"
)

// Turn is one completed request/response exchange.
type Turn struct {
	ID          string        `json:"id"`
	Provider    string        `json:"provider"`
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	Messages    []llm.Message `json:"messages"`

	// Content and Reasoning are the aggregated stream output.
	Content   string `json:"content"`
	Reasoning string `json:"reasoning"`

	CreatedAt time.Time     `json:"created_at"`
	Duration  time.Duration `json:"duration"`
}

// NewTurn builds a Turn with a fresh ID, stamped at the current time.
func NewTurn(provider string, req *llm.ChatRequest, agg llm.Aggregate, took time.Duration) *Turn {
	return &Turn{
		ID:          uuid.NewString(),
		Provider:    provider,
		Model:       req.Model,
		Temperature: req.Temperature,
		Messages:    req.Messages,
		Content:     agg.Content,
		Reasoning:   agg.Reasoning,
		CreatedAt:   time.Now().UTC(),
		Duration:    took,
	}
}
