// Package sysmsg holds the shared "current system message" that every chat
// request may read or overwrite.
package sysmsg

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/papercomputeco/deepstream/pkg/logger"
)

// Store is a race-free holder of the current system message.
type Store interface {
	Get() string
	Set(msg string)
}

// Memory is an in-process Store guarded by a read/write mutex. The lock is
// only ever held for the copy, never across I/O.
type Memory struct {
	mu  sync.RWMutex
	msg string
}

// NewMemory returns a Memory store holding msg.
func NewMemory(msg string) *Memory {
	return &Memory{msg: msg}
}

func (m *Memory) Get() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.msg
}

func (m *Memory) Set(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.msg = msg
}

// Backend persists the system message. Storage drivers implement it.
type Backend interface {
	LoadSystemMessage(ctx context.Context) (string, error)
	SaveSystemMessage(ctx context.Context, msg string) error
}

// Persistent serves reads from an in-memory cache and writes through to a
// Backend. Write-through failures are logged; the in-memory value stays
// authoritative for the running process.
type Persistent struct {
	cache   *Memory
	backend Backend
	logger  *slog.Logger
	timeout time.Duration

	// writeMu orders write-throughs so the backend ends on the last Set.
	writeMu sync.Mutex
}

// NewPersistent loads the current value from backend and returns a Store
// backed by it.
func NewPersistent(ctx context.Context, backend Backend, log *slog.Logger) (*Persistent, error) {
	if log == nil {
		log = logger.Nop()
	}

	msg, err := backend.LoadSystemMessage(ctx)
	if err != nil {
		return nil, err
	}

	return &Persistent{
		cache:   NewMemory(msg),
		backend: backend,
		logger:  log,
		timeout: 5 * time.Second,
	}, nil
}

func (p *Persistent) Get() string {
	return p.cache.Get()
}

func (p *Persistent) Set(msg string) {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	p.cache.Set(msg)

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if err := p.backend.SaveSystemMessage(ctx, msg); err != nil {
		p.logger.Error("failed to persist system message", "error", err)
	}
}
