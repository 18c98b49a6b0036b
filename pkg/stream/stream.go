// Package stream decodes a chat-completion SSE byte stream into content and
// reasoning deltas, forwarding each to a Sink as it arrives, and emits one
// final aggregate when the upstream stream ends.
//
// ┌───────────┐   ┌─────────────┐   ┌──────────────┐   ┌──────────────┐
// │ io.Reader │──▶│ sse.Splitter│──▶│ sse.Classify │──▶│ provider     │
// └───────────┘   └─────────────┘   └──────────────┘   │ ParseStream… │
//                                                      └──────────────┘
//                                                             │
//                                          ┌──────────────────┴──┐
//                                          ▼                     ▼
//                                    ┌──────────┐         ┌────────────┐
//                                    │ Sink     │         │ Aggregator │
//                                    └──────────┘         └────────────┘
//
// A Stream is single-use and processes its input strictly in order on the
// calling goroutine.
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/papercomputeco/deepstream/pkg/llm"
	"github.com/papercomputeco/deepstream/pkg/llm/provider"
	"github.com/papercomputeco/deepstream/pkg/logger"
	"github.com/papercomputeco/deepstream/pkg/metrics"
	"github.com/papercomputeco/deepstream/pkg/sse"
	"github.com/papercomputeco/deepstream/pkg/utils"
)

const defaultReadSize = 4096

// State is the lifecycle position of a Stream.
type State int

const (
	// StateStreaming decodes every data line into deltas.
	StateStreaming State = iota

	// StateDraining is entered on the "[DONE]" sentinel. Remaining input is
	// read until end-of-stream but never decoded.
	StateDraining

	// StateDone is terminal: the complete event was emitted or the stream
	// was aborted.
	StateDone
)

func (s State) String() string {
	switch s {
	case StateStreaming:
		return "streaming"
	case StateDraining:
		return "draining"
	default:
		return "done"
	}
}

// Stats counts what a Stream has seen so far.
type Stats struct {
	Lines           int
	DataEvents      int
	DecodeErrors    int
	ContentDeltas   int
	ReasoningDeltas int
	SawDone         bool
}

// Config configures a Stream.
type Config struct {
	// Provider decodes data payloads into deltas. Required.
	Provider provider.Provider

	// Sink receives delta and complete events. Required.
	Sink Sink

	// Logger receives decode diagnostics. Defaults to a no-op logger.
	Logger *slog.Logger

	// ReadSize is the size of each transport read (defaults to 4096).
	ReadSize int
}

// Stream drives one upstream response from first byte to final aggregate.
type Stream struct {
	provider provider.Provider
	sink     Sink
	logger   *slog.Logger
	readSize int

	splitter *sse.Splitter
	agg      *Aggregator
	state    State
	stats    Stats
	ran      bool
}

// New creates a Stream in StateStreaming with an empty carry buffer and an
// empty Aggregator.
func New(c Config) (*Stream, error) {
	if c.Provider == nil {
		return nil, errors.New("stream provider is required")
	}
	if c.Sink == nil {
		return nil, errors.New("stream sink is required")
	}

	if c.Logger == nil {
		c.Logger = logger.Nop()
	}
	if c.ReadSize <= 0 {
		c.ReadSize = defaultReadSize
	}

	return &Stream{
		provider: c.Provider,
		sink:     c.Sink,
		logger:   c.Logger.With("provider", c.Provider.Name()),
		readSize: c.ReadSize,
		splitter: sse.NewSplitter(),
		agg:      NewAggregator(),
		state:    StateStreaming,
	}, nil
}

// State returns the current lifecycle state.
func (s *Stream) State() State {
	return s.state
}

// Stats returns counters for the lines processed so far.
func (s *Stream) Stats() Stats {
	return s.stats
}

// Run reads r until end-of-stream, forwarding each decoded fragment to the
// sink as it is decoded. On a clean end-of-stream (with or without a "[DONE]"
// sentinel) it emits exactly one EventComplete and returns the aggregate.
//
// Run aborts without emitting EventComplete when:
//   - reading r fails (error wraps ErrTransport)
//   - the sink returns an error (error wraps ErrSinkDelivery)
//   - ctx is done (error wraps ErrCanceled and ctx.Err())
//
// Malformed data payloads are logged and skipped; they never abort the stream.
// Closing r is the caller's responsibility.
func (s *Stream) Run(ctx context.Context, r io.Reader) (llm.Aggregate, error) {
	if s.ran {
		return llm.Aggregate{}, ErrStreamUsed
	}
	s.ran = true

	start := time.Now()
	metrics.StreamsActive.Inc()
	defer metrics.StreamsActive.Dec()

	agg, err := s.run(ctx, r)

	metrics.StreamDuration.WithLabelValues(s.provider.Name()).Observe(time.Since(start).Seconds())
	metrics.StreamsTotal.WithLabelValues(s.provider.Name(), outcome(err)).Inc()

	return agg, err
}

func (s *Stream) run(ctx context.Context, r io.Reader) (llm.Aggregate, error) {
	// Buffers are released on every exit path; the Stream is discarded after.
	defer s.release()

	buf := make([]byte, s.readSize)
	for {
		if err := ctx.Err(); err != nil {
			return s.abort(fmt.Errorf("%w: %w", ErrCanceled, err))
		}

		n, readErr := r.Read(buf)
		if n > 0 {
			for _, line := range s.splitter.Split(buf[:n]) {
				if err := s.handleLine(ctx, line); err != nil {
					return s.abort(err)
				}
			}
		}

		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			// An HTTP body read fails once the request context is canceled.
			if ctxErr := ctx.Err(); ctxErr != nil {
				return s.abort(fmt.Errorf("%w: %w", ErrCanceled, ctxErr))
			}
			return s.abort(fmt.Errorf("%w: %w", ErrTransport, readErr))
		}
	}

	if tail, ok := s.splitter.Flush(); ok {
		if err := s.handleLine(ctx, tail); err != nil {
			return s.abort(err)
		}
	}

	s.state = StateDone
	agg := s.agg.Snapshot()
	if err := s.emit(ctx, Complete(agg)); err != nil {
		return llm.Aggregate{}, err
	}

	return agg, nil
}

// handleLine classifies one logical line and, while streaming, decodes and
// forwards its fragments.
func (s *Stream) handleLine(ctx context.Context, line string) error {
	s.stats.Lines++
	if s.state != StateStreaming {
		return nil
	}

	ev := sse.Classify(line)
	switch ev.Kind {
	case sse.KindIgnored:
		return nil

	case sse.KindDone:
		s.stats.SawDone = true
		s.state = StateDraining
		return nil

	case sse.KindData:
		s.stats.DataEvents++
	}

	delta, err := s.provider.ParseStreamChunk([]byte(ev.Payload))
	if err != nil {
		s.stats.DecodeErrors++
		metrics.DecodeErrorsTotal.WithLabelValues(s.provider.Name()).Inc()
		s.logger.Debug("skipping malformed stream payload",
			"error", err,
			"payload", utils.Truncate(ev.Payload, 200),
		)
		return nil
	}

	if delta.IsEmpty() {
		return nil
	}

	if delta.Reasoning != "" {
		s.agg.AppendReasoning(delta.Reasoning)
		s.stats.ReasoningDeltas++
		metrics.DeltasTotal.WithLabelValues(s.provider.Name(), metrics.KindReasoning).Inc()
		if err := s.emit(ctx, ReasoningDelta(delta.Reasoning)); err != nil {
			return err
		}
	}

	if delta.Content != "" {
		s.agg.AppendContent(delta.Content)
		s.stats.ContentDeltas++
		metrics.DeltasTotal.WithLabelValues(s.provider.Name(), metrics.KindContent).Inc()
		if err := s.emit(ctx, ContentDelta(delta.Content)); err != nil {
			return err
		}
	}

	return nil
}

func (s *Stream) emit(ctx context.Context, ev Event) error {
	if err := s.sink.Emit(ctx, ev); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %w", ErrCanceled, ctxErr)
		}
		return fmt.Errorf("%w: %w", ErrSinkDelivery, err)
	}
	return nil
}

func (s *Stream) abort(err error) (llm.Aggregate, error) {
	s.state = StateDone
	return llm.Aggregate{}, err
}

func (s *Stream) release() {
	s.splitter.Reset()
	s.agg = NewAggregator()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeCompleted
	case errors.Is(err, ErrCanceled):
		return metrics.OutcomeCanceled
	case errors.Is(err, ErrSinkDelivery):
		return metrics.OutcomeSink
	default:
		return metrics.OutcomeTransport
	}
}
