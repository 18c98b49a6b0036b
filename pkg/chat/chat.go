// Package chat sends one conversation to the upstream provider and streams the
// reply through a stream.Sink.
//
// A Service ties the pieces together:
//
//	Request -> system message + temperature -> transport.Open -> stream.Run -> worker.Enqueue
package chat

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
	"github.com/papercomputeco/deepstream/pkg/storage"
	"github.com/papercomputeco/deepstream/pkg/stream"
	"github.com/papercomputeco/deepstream/pkg/sysmsg"
	"github.com/papercomputeco/deepstream/pkg/worker"
)

// DefaultUseCase is used when neither the request nor the configuration names one.
const DefaultUseCase = "general"

// ErrNoMessages is returned for a request without messages.
var ErrNoMessages = errors.New("chat request has no messages")

// Opener opens the upstream byte stream for a request.
type Opener interface {
	Open(ctx context.Context, req *llm.ChatRequest) (io.ReadCloser, error)
}

// Enqueuer accepts completed turns for asynchronous persistence.
type Enqueuer interface {
	Enqueue(job worker.Job) bool
}

// Request is one chat turn as submitted by a user.
type Request struct {
	Messages []llm.Message `json:"messages"`

	// Temperature overrides the use-case preset when set.
	Temperature *float64 `json:"temperature,omitempty"`

	// UseCase names a preset from llm.UseCases.
	UseCase string `json:"use_case,omitempty"`
}

// Config is the configuration for a Service.
type Config struct {
	Provider provider.Provider
	Opener   Opener

	// SystemMessage is the shared system prompt. Defaults to an empty Memory store.
	SystemMessage sysmsg.Store

	// Pool persists completed turns. Nil disables persistence.
	Pool Enqueuer

	// UseCase is the default preset when a request names none.
	UseCase string

	// Temperature, when set, replaces the default use-case preset.
	Temperature *float64

	Logger *slog.Logger
}

// Service runs chat turns against one provider.
type Service struct {
	provider provider.Provider
	opener   Opener
	sysmsg   sysmsg.Store
	pool     Enqueuer
	useCase  string
	temp     *float64
	logger   *slog.Logger
}

// NewService validates c and returns a Service.
func NewService(c Config) (*Service, error) {
	if c.Provider == nil {
		return nil, errors.New("chat provider is required")
	}
	if c.Opener == nil {
		return nil, errors.New("chat opener is required")
	}

	if c.SystemMessage == nil {
		c.SystemMessage = sysmsg.NewMemory("")
	}
	if c.UseCase == "" {
		c.UseCase = DefaultUseCase
	}
	if _, ok := llm.LookupUseCase(c.UseCase); !ok {
		return nil, fmt.Errorf("unknown use case %q (supported: %v)", c.UseCase, llm.UseCaseValues())
	}
	if c.Logger == nil {
		c.Logger = logger.Nop()
	}

	return &Service{
		provider: c.Provider,
		opener:   c.Opener,
		sysmsg:   c.SystemMessage,
		pool:     c.Pool,
		useCase:  c.UseCase,
		temp:     c.Temperature,
		logger:   c.Logger,
	}, nil
}

// SystemMessage returns the store the service reads its system prompt from.
func (s *Service) SystemMessage() sysmsg.Store {
	return s.sysmsg
}

// Provider returns the upstream provider.
func (s *Service) Provider() provider.Provider {
	return s.provider
}

// Send streams one reply to sink and returns the aggregate on success. Errors
// from opening the upstream wrap stream.ErrTransport (or stream.ErrCanceled);
// errors while streaming are those of stream.Stream.Run. Only successful turns
// are persisted.
func (s *Service) Send(ctx context.Context, req Request, sink stream.Sink) (llm.Aggregate, error) {
	if len(req.Messages) == 0 {
		return llm.Aggregate{}, ErrNoMessages
	}

	temperature, err := s.temperature(req)
	if err != nil {
		return llm.Aggregate{}, err
	}

	chatReq := s.provider.NewRequest(s.messages(req.Messages), temperature)

	st, err := stream.New(stream.Config{
		Provider: s.provider,
		Sink:     sink,
		Logger:   s.logger,
	})
	if err != nil {
		return llm.Aggregate{}, err
	}

	start := time.Now()
	body, err := s.opener.Open(ctx, chatReq)
	if err != nil {
		err = openError(ctx, err)
		metrics.StreamsTotal.WithLabelValues(s.provider.Name(), openOutcome(err)).Inc()
		return llm.Aggregate{}, err
	}
	defer body.Close()

	agg, err := st.Run(ctx, body)
	s.logStream(st, err, time.Since(start))
	if err != nil {
		return llm.Aggregate{}, err
	}

	if s.pool != nil {
		s.pool.Enqueue(worker.Job{
			Turn: storage.NewTurn(s.provider.Name(), chatReq, agg, time.Since(start)),
		})
	}

	return agg, nil
}

func (s *Service) logStream(st *stream.Stream, err error, elapsed time.Duration) {
	stats := st.Stats()
	s.logger.Debug("stream finished",
		"provider", s.provider.Name(),
		"state", st.State().String(),
		"lines", stats.Lines,
		"data_events", stats.DataEvents,
		"decode_errors", stats.DecodeErrors,
		"content_deltas", stats.ContentDeltas,
		"reasoning_deltas", stats.ReasoningDeltas,
		"saw_done", stats.SawDone,
		"elapsed", elapsed,
		"error", err,
	)
}

// temperature resolves explicit value > request use case > configured value >
// configured use case.
func (s *Service) temperature(req Request) (float64, error) {
	if req.Temperature != nil {
		return *req.Temperature, nil
	}

	if req.UseCase != "" {
		uc, ok := llm.LookupUseCase(req.UseCase)
		if !ok {
			return 0, fmt.Errorf("unknown use case %q (supported: %v)", req.UseCase, llm.UseCaseValues())
		}
		return uc.Temperature, nil
	}

	if s.temp != nil {
		return *s.temp, nil
	}

	uc, _ := llm.LookupUseCase(s.useCase)
	return uc.Temperature, nil
}

// messages prepends the current system message unless the conversation
// already starts with one.
func (s *Service) messages(in []llm.Message) []llm.Message {
	sys := s.sysmsg.Get()
	if sys == "" || in[0].Role == llm.RoleSystem {
		return in
	}

	out := make([]llm.Message, 0, len(in)+1)
	out = append(out, llm.NewSystemMessage(sys))
	return append(out, in...)
}

func openError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %w", stream.ErrCanceled, ctxErr)
	}
	return fmt.Errorf("%w: %w", stream.ErrTransport, err)
}

func openOutcome(err error) string {
	if errors.Is(err, stream.ErrCanceled) {
		return metrics.OutcomeCanceled
	}
	return metrics.OutcomeTransport
}
