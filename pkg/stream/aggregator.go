package stream

import (
	"strings"

	"github.com/papercomputeco/deepstream/pkg/llm"
)

// Aggregator accumulates content and reasoning fragments, in arrival order,
// into two append-only buffers. It is owned by a single Stream and is not safe
// for concurrent use.
type Aggregator struct {
	content   strings.Builder
	reasoning strings.Builder
}

// NewAggregator returns an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// AppendContent appends a content fragment. Empty fragments are no-ops.
func (a *Aggregator) AppendContent(fragment string) {
	a.content.WriteString(fragment)
}

// AppendReasoning appends a reasoning fragment. Empty fragments are no-ops.
func (a *Aggregator) AppendReasoning(fragment string) {
	a.reasoning.WriteString(fragment)
}

// Snapshot returns the running totals by value.
func (a *Aggregator) Snapshot() llm.Aggregate {
	return llm.Aggregate{
		Content:   a.content.String(),
		Reasoning: a.reasoning.String(),
	}
}
