// Package inmemory provides a map-backed storage driver for tests and
// ephemeral servers.
package inmemory

import (
	"context"
	"slices"
	"sync"

	"github.com/papercomputeco/deepstream/pkg/storage"
)

// Driver implements storage.Driver using an in-memory map.
type Driver struct {
	// mu is a read write sync mutex for locking the turns and system message
	mu sync.RWMutex

	// turns is the in memory map of turns keyed by turn ID
	turns map[string]*storage.Turn

	// order holds turn IDs in insertion order
	order []string

	systemMessage string
}

// NewDriver creates a new in-memory driver.
func NewDriver() *Driver {
	return &Driver{
		turns: make(map[string]*storage.Turn),
	}
}

// PutTurn stores a copy of turn. Storing an existing ID is a no-op.
func (s *Driver) PutTurn(_ context.Context, turn *storage.Turn) error {
	if turn == nil {
		return storage.ErrNilTurn
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.turns[turn.ID]; ok {
		return nil
	}

	s.turns[turn.ID] = cloneTurn(turn)
	s.order = append(s.order, turn.ID)
	return nil
}

// GetTurn retrieves a turn by its ID.
func (s *Driver) GetTurn(_ context.Context, id string) (*storage.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turn, ok := s.turns[id]
	if !ok {
		return nil, storage.NotFoundError{ID: id}
	}

	return cloneTurn(turn), nil
}

// ListTurns returns up to limit turns, newest first.
func (s *Driver) ListTurns(_ context.Context, limit int) ([]*storage.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := make([]*storage.Turn, 0, len(s.order))
	for _, id := range slices.Backward(s.order) {
		if limit > 0 && len(turns) == limit {
			break
		}
		turns = append(turns, cloneTurn(s.turns[id]))
	}

	return turns, nil
}

func (s *Driver) LoadSystemMessage(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.systemMessage, nil
}

func (s *Driver) SaveSystemMessage(_ context.Context, msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.systemMessage = msg
	return nil
}

// Close is a no-op for the in-memory driver.
func (s *Driver) Close() error {
	return nil
}

func cloneTurn(t *storage.Turn) *storage.Turn {
	c := *t
	c.Messages = slices.Clone(t.Messages)
	return &c
}
