package api

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/deepstream/pkg/chat"
	"github.com/papercomputeco/deepstream/pkg/llm"
	"github.com/papercomputeco/deepstream/pkg/storage"
	"github.com/papercomputeco/deepstream/pkg/stream"
	"github.com/papercomputeco/deepstream/pkg/transport"
)

// SystemMessageBody is the request and response body of /v1/system-message.
type SystemMessageBody struct {
	SystemMessage string `json:"system_message"`
}

// TurnsResponse is the body of GET /v1/turns.
type TurnsResponse struct {
	Count int             `json:"count"`
	Turns []*storage.Turn `json:"turns"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleChat streams one chat turn back to the client as SSE.
func (s *Server) handleChat(c *fiber.Ctx) error {
	var req chat.Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid request body"})
	}
	if len(req.Messages) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "messages are required"})
	}
	if req.UseCase != "" {
		if _, ok := llm.LookupUseCase(req.UseCase); !ok {
			return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "unknown use case: " + req.UseCase})
		}
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	// fasthttp recycles its RequestCtx once the handler returns, while the
	// stream keeps running; the stream gets its own context, canceled when
	// fasthttp closes the body or the server shuts down.
	// Each pw.Write blocks until fasthttp has flushed the previous chunk.
	ctx, cancel := context.WithCancel(s.ctx)
	pr, pw := io.Pipe()
	go s.streamChat(ctx, cancel, req, pw)

	c.Context().Response.SetBodyStream(&streamBody{PipeReader: pr, cancel: cancel}, -1)
	return nil
}

func (s *Server) streamChat(ctx context.Context, cancel context.CancelFunc, req chat.Request, pw *io.PipeWriter) {
	defer pw.Close()
	defer cancel()

	act := newActivity()
	go heartbeat(ctx, pw, act, s.config.HeartbeatInterval)

	start := time.Now()
	agg, err := s.service.Send(ctx, req, stream.MultiSink(&sseSink{w: pw}, act))
	if err != nil {
		s.logger.Warn("chat stream failed",
			"error", err,
			"elapsed", time.Since(start),
		)
		// Nothing more can be delivered to a client that went away.
		if !errors.Is(err, stream.ErrSinkDelivery) {
			_ = writeErrorEvent(pw, clientError(err))
		}
		return
	}

	s.logger.Info("chat stream completed",
		"content_length", len(agg.Content),
		"reasoning_length", len(agg.Reasoning),
		"elapsed", time.Since(start),
	)
}

// heartbeat writes an SSE comment whenever no event was sent for interval,
// until ctx is done or a write fails.
func heartbeat(ctx context.Context, w io.Writer, act *activity, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if act.since() < interval {
				continue
			}
			if err := writeComment(w, "keep-alive"); err != nil {
				return
			}
			act.touch()
		}
	}
}

// activity is a stream.Sink that records when the last event was relayed.
type activity struct {
	last atomic.Int64
}

func newActivity() *activity {
	a := &activity{}
	a.touch()
	return a
}

func (a *activity) Emit(context.Context, stream.Event) error {
	a.touch()
	return nil
}

func (a *activity) touch() {
	a.last.Store(time.Now().UnixNano())
}

func (a *activity) since() time.Duration {
	return time.Duration(time.Now().UnixNano() - a.last.Load())
}

// streamBody is the response body stream. fasthttp closes it when the
// response ends or the client write fails, which cancels the chat stream.
type streamBody struct {
	*io.PipeReader
	cancel context.CancelFunc
}

func (b *streamBody) Close() error {
	b.cancel()
	return b.PipeReader.Close()
}

func (b *streamBody) CloseWithError(err error) error {
	b.cancel()
	return b.PipeReader.CloseWithError(err)
}

// clientError is the message reported to API clients for a failed stream.
func clientError(err error) string {
	var statusErr *transport.StatusError
	switch {
	case errors.As(err, &statusErr):
		return statusErr.Error()
	case errors.Is(err, stream.ErrCanceled):
		return "stream canceled"
	case errors.Is(err, stream.ErrTransport):
		return "upstream request failed"
	default:
		return "internal error"
	}
}

func (s *Server) handleGetSystemMessage(c *fiber.Ctx) error {
	return c.JSON(SystemMessageBody{SystemMessage: s.service.SystemMessage().Get()})
}

func (s *Server) handlePutSystemMessage(c *fiber.Ctx) error {
	var body SystemMessageBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid request body"})
	}

	msg := strings.TrimSpace(body.SystemMessage)
	s.service.SystemMessage().Set(msg)
	s.logger.Info("system message updated", "length", len(msg))

	return c.JSON(SystemMessageBody{SystemMessage: msg})
}

// handleListTurns returns the most recent turns, newest first.
func (s *Server) handleListTurns(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", s.config.DefaultTurnLimit)
	if limit <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "limit must be a positive integer"})
	}
	limit = min(limit, s.config.MaxTurnLimit)

	turns, err := s.storer.ListTurns(c.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list turns", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to list turns"})
	}
	if turns == nil {
		turns = []*storage.Turn{}
	}

	return c.JSON(TurnsResponse{Count: len(turns), Turns: turns})
}

// handleGetTurn returns a single turn by its ID.
func (s *Server) handleGetTurn(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "id parameter required"})
	}

	turn, err := s.storer.GetTurn(c.Context(), id)
	if err != nil {
		var notFound storage.NotFoundError
		if errors.As(err, &notFound) {
			return c.Status(fiber.StatusNotFound).JSON(llm.ErrorResponse{Error: "turn not found"})
		}
		s.logger.Error("failed to get turn", "id", id, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to get turn"})
	}

	return c.JSON(turn)
}
