package api

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/papercomputeco/deepstream/pkg/chat"
	"github.com/papercomputeco/deepstream/pkg/logger"
	"github.com/papercomputeco/deepstream/pkg/storage"
)

// Server is the API server for streaming chats and querying stored turns
type Server struct {
	config  Config
	service *chat.Service
	storer  storage.Driver
	logger  *slog.Logger
	app     *fiber.App

	// ctx parents every chat stream and is canceled by Shutdown.
	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer creates a new API server.
// The storer is injected to allow sharing with the worker pool that writes to it.
func NewServer(config Config, service *chat.Service, storer storage.Driver, log *slog.Logger) (*Server, error) {
	if service == nil {
		return nil, errors.New("chat service is required")
	}
	if storer == nil {
		return nil, errors.New("storage driver is required")
	}
	if log == nil {
		log = logger.Nop()
	}
	if config.DefaultTurnLimit <= 0 {
		config.DefaultTurnLimit = 20
	}
	if config.MaxTurnLimit <= 0 {
		config.MaxTurnLimit = 200
	}
	if config.HeartbeatInterval <= 0 {
		config.HeartbeatInterval = 15 * time.Second
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:  config,
		service: service,
		storer:  storer,
		logger:  log,
		app:     app,
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	app.Get("/ping", s.handlePing)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	v1 := app.Group("/v1")
	v1.Post("/chat", s.handleChat)
	v1.Get("/system-message", s.handleGetSystemMessage)
	v1.Put("/system-message", s.handlePutSystemMessage)
	v1.Get("/turns", s.handleListTurns)
	v1.Get("/turns/:id", s.handleGetTurn)

	return s, nil
}

// App exposes the underlying fiber app, e.g. for app.Test.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
		"provider", s.service.Provider().Name(),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown cancels in-flight chat streams and gracefully shuts down the API
// server.
func (s *Server) Shutdown() error {
	s.cancel()
	return s.app.Shutdown()
}
