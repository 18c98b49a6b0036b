// Package worker provides an asynchronous worker pool for persisting completed
// chat turns using the provided storage.Driver and announcing them on the
// provided eventstream.Publisher.
//
// The pool decouples storage operations from the streaming hot path so a slow
// database never delays the next delta reaching the user.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/papercomputeco/deepstream/pkg/eventstream"
	"github.com/papercomputeco/deepstream/pkg/eventstream/nop"
	"github.com/papercomputeco/deepstream/pkg/logger"
	"github.com/papercomputeco/deepstream/pkg/metrics"
	"github.com/papercomputeco/deepstream/pkg/storage"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 256
	defaultJobTimeout        = 30 * time.Second
)

// Job is a unit of work for the worker pool to execute against.
type Job struct {
	Turn *storage.Turn
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Driver is the storage backend for persisting turns.
	Driver storage.Driver

	// Publisher announces persisted turns. Defaults to a no-op publisher.
	Publisher eventstream.Publisher

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	// JobTimeout bounds storing and publishing a single job (defaults to 30s).
	JobTimeout time.Duration

	Logger *slog.Logger
}

// Pool processes storage jobs asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	logger *slog.Logger

	closeOnce sync.Once
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.Driver == nil {
		return nil, fmt.Errorf("worker pool requires a storage driver")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.JobTimeout == 0 {
		c.JobTimeout = defaultJobTimeout
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	if c.Publisher == nil {
		c.Publisher = nop.NewPublisher()
	}

	if c.Logger == nil {
		c.Logger = logger.Nop()
	}

	wp := &Pool{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		logger: c.Logger,
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits a job for processing by the worker pool.
// Returns true if enqueued, false if the queue is full, resulting in the job being dropped
func (p *Pool) Enqueue(job Job) bool {
	select {
	case p.queue <- job:
		p.logger.Debug("job queued",
			"turn_id", job.Turn.ID,
			"provider", job.Turn.Provider,
		)
		return true
	default:
		metrics.TurnsDroppedTotal.Inc()
		p.logger.Error("job not queued, queue full, job dropped",
			"turn_id", job.Turn.ID,
			"provider", job.Turn.Provider,
		)
		return false
	}
}

// Close signals workers to stop and waits for in-flight jobs to drain.
// Call this during graceful shutdown after the HTTP server has stopped.
// Enqueue must not be called after Close.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		close(p.queue)
		p.wg.Wait()
	})
}

// worker is the inner worker thread that continuously pulls jobs off the jobs queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", "worker_id", id)

	for job := range p.queue {
		p.processJob(job)
	}

	p.logger.Debug("storage worker stopped", "worker_id", id)
}

// processJob stores the turn and then publishes its completion event.
// A publish failure is logged; the turn stays stored.
func (p *Pool) processJob(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), p.config.JobTimeout)
	defer cancel()

	if err := p.config.Driver.PutTurn(ctx, job.Turn); err != nil {
		p.logger.Error("async turn storage failed",
			"turn_id", job.Turn.ID,
			"provider", job.Turn.Provider,
			"error", err,
		)
		return
	}

	p.logger.Info("turn stored",
		"turn_id", job.Turn.ID,
		"provider", job.Turn.Provider,
		"content_length", len(job.Turn.Content),
		"reasoning_length", len(job.Turn.Reasoning),
	)

	event := eventstream.NewCompletionEvent(job.Turn)
	if err := p.config.Publisher.PublishCompletion(ctx, event); err != nil {
		p.logger.Warn("failed to publish completion event",
			"turn_id", job.Turn.ID,
			"event_id", event.EventID,
			"error", err,
		)
		return
	}

	p.logger.Debug("completion event published",
		"turn_id", job.Turn.ID,
		"event_id", event.EventID,
	)
}
