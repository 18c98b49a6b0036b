package stream

import (
	"context"
	"sync"

	"github.com/papercomputeco/deepstream/pkg/llm"
)

// EventType identifies what a stream Event carries.
type EventType string

const (
	// EventContentDelta carries one non-empty content fragment.
	EventContentDelta EventType = "content-delta"

	// EventReasoningDelta carries one non-empty reasoning fragment.
	EventReasoningDelta EventType = "reasoning-delta"

	// EventComplete carries the final aggregate. It is emitted exactly once,
	// and only when the transport reached end-of-stream cleanly.
	EventComplete EventType = "complete"
)

// Event is a single notification delivered to a Sink.
type Event struct {
	Type EventType

	// Fragment is set for EventContentDelta and EventReasoningDelta.
	Fragment string

	// Aggregate is set for EventComplete.
	Aggregate llm.Aggregate
}

// ContentDelta builds an EventContentDelta.
func ContentDelta(fragment string) Event {
	return Event{Type: EventContentDelta, Fragment: fragment}
}

// ReasoningDelta builds an EventReasoningDelta.
func ReasoningDelta(fragment string) Event {
	return Event{Type: EventReasoningDelta, Fragment: fragment}
}

// Complete builds an EventComplete.
func Complete(agg llm.Aggregate) Event {
	return Event{Type: EventComplete, Aggregate: agg}
}

// Sink is the downstream consumer of stream events. Emit is called
// synchronously from the stream goroutine, in order. A returned error aborts
// the stream. Implementations should not block indefinitely: a stuck sink
// stalls its own stream.
type Sink interface {
	Emit(ctx context.Context, ev Event) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, ev Event) error

// Emit calls f(ctx, ev).
func (f SinkFunc) Emit(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}

// ChannelSink delivers events on a channel. Emit blocks until the receiver
// takes the event or ctx is done, in which case ctx.Err() is returned.
// The channel is NOT closed by the sink; the caller owns it.
type ChannelSink struct {
	ch chan<- Event
}

// NewChannelSink returns a sink writing to ch.
func NewChannelSink(ch chan<- Event) *ChannelSink {
	return &ChannelSink{ch: ch}
}

func (c *ChannelSink) Emit(ctx context.Context, ev Event) error {
	select {
	case c.ch <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Recorder is a Sink that keeps every event in memory. It is safe for
// concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Emit(_ context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// MultiSink fans every event out to all sinks in order, stopping at the
// first error.
func MultiSink(sinks ...Sink) Sink {
	return SinkFunc(func(ctx context.Context, ev Event) error {
		for _, s := range sinks {
			if err := s.Emit(ctx, ev); err != nil {
				return err
			}
		}
		return nil
	})
}
