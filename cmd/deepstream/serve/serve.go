// Package servecmder provides the serve command which runs the streaming
// chat API.
package servecmder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/deepstream/api"
	"github.com/papercomputeco/deepstream/pkg/chat"
	"github.com/papercomputeco/deepstream/pkg/config"
	"github.com/papercomputeco/deepstream/pkg/credentials"
	"github.com/papercomputeco/deepstream/pkg/eventstream"
	"github.com/papercomputeco/deepstream/pkg/eventstream/kafka"
	"github.com/papercomputeco/deepstream/pkg/eventstream/nop"
	"github.com/papercomputeco/deepstream/pkg/llm/provider"
	"github.com/papercomputeco/deepstream/pkg/logger"
	"github.com/papercomputeco/deepstream/pkg/storage"
	"github.com/papercomputeco/deepstream/pkg/storage/inmemory"
	"github.com/papercomputeco/deepstream/pkg/storage/postgres"
	"github.com/papercomputeco/deepstream/pkg/storage/sqlite"
	"github.com/papercomputeco/deepstream/pkg/sysmsg"
	"github.com/papercomputeco/deepstream/pkg/transport"
	"github.com/papercomputeco/deepstream/pkg/worker"
)

const serveLongDesc string = `Run the deepstream API server.

The server relays chat completions from the configured provider as
server-sent events (content, reasoning, complete, error), keeps a shared
system message, records completed turns and optionally publishes a
completion event per turn to Kafka.

Storage is PostgreSQL when --postgres is set, SQLite when --sqlite is set,
and in-memory otherwise.

Examples:
  deepstream serve
  deepstream serve --sqlite ./deepstream.db --system-file ./prompt.md
  deepstream serve --postgres postgres://localhost/deepstream \
    --event-stream kafka --kafka-brokers localhost:9092`

const serveShortDesc string = "Run the deepstream API server"

var registryKeys = []string{
	config.FlagProvider,
	config.FlagBaseURL,
	config.FlagModel,
	config.FlagUseCase,
	config.FlagTemperature,
	config.FlagListen,
	config.FlagSQLite,
	config.FlagPostgres,
	config.FlagEventStream,
	config.FlagKafkaBrokers,
	config.FlagKafkaTopic,
	config.FlagSystemFile,
}

type serveCommander struct {
	flags struct {
		provider     string
		baseURL      string
		model        string
		useCase      string
		temperature  float64
		listen       string
		sqlitePath   string
		postgresDSN  string
		eventStream  string
		kafkaBrokers string
		kafkaTopic   string
		systemFile   string
	}

	cfg       *config.Config
	configDir string
	debug     bool
	logFile   string

	logger *slog.Logger
}

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, registryKeys)

			cmder.cfg = config.FromViper(v)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run()
		},
	}

	f := &cmder.flags
	config.AddStringFlag(cmd, config.Flags, config.FlagProvider, &f.provider)
	config.AddStringFlag(cmd, config.Flags, config.FlagBaseURL, &f.baseURL)
	config.AddStringFlag(cmd, config.Flags, config.FlagModel, &f.model)
	config.AddStringFlag(cmd, config.Flags, config.FlagUseCase, &f.useCase)
	config.AddFloat64Flag(cmd, config.Flags, config.FlagTemperature, &f.temperature)
	config.AddStringFlag(cmd, config.Flags, config.FlagListen, &f.listen)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &f.sqlitePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagPostgres, &f.postgresDSN)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventStream, &f.eventStream)
	config.AddStringFlag(cmd, config.Flags, config.FlagKafkaBrokers, &f.kafkaBrokers)
	config.AddStringFlag(cmd, config.Flags, config.FlagKafkaTopic, &f.kafkaTopic)
	config.AddStringFlag(cmd, config.Flags, config.FlagSystemFile, &f.systemFile)
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also write JSON logs to this file")

	return cmd
}

func (c *serveCommander) run() error {
	stdoutLogger := logger.New(logger.WithDebug(c.debug), logger.WithPretty(true))
	c.logger = stdoutLogger

	if c.logFile != "" {
		f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()

		c.logger = logger.Multi(
			stdoutLogger,
			logger.New(logger.WithDebug(c.debug), logger.WithJSON(true), logger.WithWriter(f)),
		)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svc, err := c.build(ctx)
	if err != nil {
		return err
	}
	defer svc.close(c.logger)

	if file := c.cfg.SystemMessage.File; file != "" {
		go func() {
			if err := sysmsg.WatchFile(ctx, file, svc.sysmsg, c.logger); err != nil {
				c.logger.Error("system message watcher stopped", "path", file, "error", err)
			}
		}()
	}

	errChan := make(chan error, 1)
	go func() {
		if err := svc.server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		c.logger.Info("received signal, shutting down")
		return nil
	}
}

// services is everything serve starts, in dependency order.
type services struct {
	driver    storage.Driver
	publisher eventstream.Publisher
	pool      *worker.Pool
	sysmsg    *sysmsg.Persistent
	service   *chat.Service
	server    *api.Server
}

func (c *serveCommander) build(ctx context.Context) (svc *services, err error) {
	svc = &services{}
	defer func() {
		if err != nil {
			svc.close(c.logger)
			svc = nil
		}
	}()

	svc.driver, err = c.newStorageDriver(ctx)
	if err != nil {
		return svc, err
	}

	svc.publisher, err = c.newPublisher()
	if err != nil {
		return svc, err
	}

	svc.pool, err = worker.NewPool(&worker.Config{
		Driver:    svc.driver,
		Publisher: svc.publisher,
		Logger:    c.logger,
	})
	if err != nil {
		return svc, fmt.Errorf("creating worker pool: %w", err)
	}

	svc.sysmsg, err = sysmsg.NewPersistent(ctx, svc.driver, c.logger)
	if err != nil {
		return svc, fmt.Errorf("loading system message: %w", err)
	}

	if file := c.cfg.SystemMessage.File; file != "" {
		if err := sysmsg.LoadFile(file, svc.sysmsg); err != nil {
			return svc, err
		}
		c.logger.Info("loaded system message", "path", file)
	}

	prov, err := provider.New(c.cfg.Provider.Name, c.cfg.Provider.Model)
	if err != nil {
		return svc, err
	}

	apiKey, err := c.resolveKey(prov.Name())
	if err != nil {
		return svc, err
	}

	client, err := transport.New(transport.Config{
		BaseURL:  c.cfg.Provider.BaseURL,
		APIKey:   apiKey,
		Provider: prov,
		Logger:   c.logger,
	})
	if err != nil {
		return svc, fmt.Errorf("creating transport: %w", err)
	}

	svc.service, err = chat.NewService(chat.Config{
		Provider:      prov,
		Opener:        client,
		SystemMessage: svc.sysmsg,
		Pool:          svc.pool,
		UseCase:       c.cfg.Chat.UseCase,
		Temperature:   c.cfg.Chat.Temperature,
		Logger:        c.logger,
	})
	if err != nil {
		return svc, err
	}

	svc.server, err = api.NewServer(api.Config{
		ListenAddr: c.cfg.Server.Listen,
	}, svc.service, svc.driver, c.logger)
	if err != nil {
		return svc, fmt.Errorf("creating API server: %w", err)
	}

	return svc, nil
}

// close tears down in reverse order. The pool drains before its publisher
// and driver are closed.
func (s *services) close(log *slog.Logger) {
	if s.server != nil {
		if err := s.server.Shutdown(); err != nil {
			log.Error("shutting down API server", "error", err)
		}
	}
	if s.pool != nil {
		s.pool.Close()
	}
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			log.Error("closing event publisher", "error", err)
		}
	}
	if s.driver != nil {
		if err := s.driver.Close(); err != nil {
			log.Error("closing storage", "error", err)
		}
	}
}

func (c *serveCommander) newStorageDriver(ctx context.Context) (storage.Driver, error) {
	switch {
	case c.cfg.Storage.PostgresDSN != "":
		driver, err := postgres.NewDriver(ctx, c.cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to create PostgreSQL driver: %w", err)
		}
		c.logger.Info("using PostgreSQL storage")
		return driver, nil

	case c.cfg.Storage.SQLitePath != "":
		driver, err := sqlite.NewDriver(ctx, c.cfg.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite driver: %w", err)
		}
		c.logger.Info("using SQLite storage", "path", c.cfg.Storage.SQLitePath)
		return driver, nil

	default:
		c.logger.Info("using in-memory storage")
		return inmemory.NewDriver(), nil
	}
}

func (c *serveCommander) newPublisher() (eventstream.Publisher, error) {
	switch c.cfg.EventStream.Provider {
	case config.EventStreamKafka:
		pub, err := kafka.NewPublisher(kafka.Config{
			Brokers: c.cfg.EventStream.BrokerList(),
			Topic:   c.cfg.EventStream.Topic,
		})
		if err != nil {
			return nil, err
		}
		c.logger.Info("publishing completion events to kafka",
			"brokers", c.cfg.EventStream.Brokers,
			"topic", c.cfg.EventStream.Topic,
		)
		return pub, nil

	case config.EventStreamNop, "":
		return nop.NewPublisher(), nil

	default:
		return nil, fmt.Errorf("unknown event stream provider: %q", c.cfg.EventStream.Provider)
	}
}

func (c *serveCommander) resolveKey(providerName string) (string, error) {
	mgr, err := credentials.NewManager(c.configDir)
	if err != nil {
		return "", fmt.Errorf("loading credentials: %w", err)
	}

	key, err := mgr.ResolveKey(providerName)
	if err != nil {
		return "", err
	}
	switch key.Source {
	case credentials.SourceNone:
		c.logger.Warn("no API key found, upstream requests are unauthenticated",
			"provider", key.Provider,
			"env", key.EnvVar,
		)
	default:
		c.logger.Info("using API key", "provider", key.Provider, "source", string(key.Source))
	}

	return key.Value, nil
}
