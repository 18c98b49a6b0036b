// Package storage persists completed chat turns and the current system message.
package storage

import (
	"context"
)

// Driver defines the interface for persisting and retrieving turns in a storage backend.
type Driver interface {
	// PutTurn stores a turn. Storing a turn whose ID already exists is a no-op.
	PutTurn(ctx context.Context, turn *Turn) error

	// GetTurn retrieves a turn by its ID. Returns NotFoundError if it does not exist.
	GetTurn(ctx context.Context, id string) (*Turn, error)

	// ListTurns returns up to limit turns, newest first. A limit <= 0 returns all turns.
	ListTurns(ctx context.Context, limit int) ([]*Turn, error)

	// LoadSystemMessage returns the persisted system message, or "" if none was saved.
	LoadSystemMessage(ctx context.Context) (string, error)

	// SaveSystemMessage replaces the persisted system message.
	SaveSystemMessage(ctx context.Context, msg string) error

	// Close closes the store and releases any resources.
	Close() error
}
