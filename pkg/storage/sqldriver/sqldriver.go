// Package sqldriver implements storage.Driver over database/sql. The sqlite
// and postgres packages embed it and supply their dialect.
package sqldriver

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/papercomputeco/deepstream/pkg/llm"
	"github.com/papercomputeco/deepstream/pkg/storage"
)

// Dialect captures the differences between SQL backends.
type Dialect struct {
	// Name is used in error messages.
	Name string

	// Numbered rewrites "?" placeholders to "$1", "$2", ...
	Numbered bool

	// Schema holds the statements run by Migrate, in order.
	Schema []string
}

// Driver implements storage.Driver on a *sql.DB.
type Driver struct {
	DB      *sql.DB
	dialect Dialect
}

// New wraps db. Call Migrate before first use.
func New(db *sql.DB, dialect Dialect) *Driver {
	return &Driver{DB: db, dialect: dialect}
}

// Migrate creates the tables if they do not exist.
func (d *Driver) Migrate(ctx context.Context) error {
	for _, stmt := range d.dialect.Schema {
		if _, err := d.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating %s schema: %w", d.dialect.Name, err)
		}
	}
	return nil
}

func (d *Driver) PutTurn(ctx context.Context, turn *storage.Turn) error {
	if turn == nil {
		return storage.ErrNilTurn
	}

	messages, err := json.Marshal(turn.Messages)
	if err != nil {
		return fmt.Errorf("marshaling messages: %w", err)
	}

	_, err = d.DB.ExecContext(ctx, d.bind(`
		INSERT INTO turns (id, provider, model, temperature, messages, content, reasoning, created_at, duration_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`),
		turn.ID,
		turn.Provider,
		turn.Model,
		turn.Temperature,
		string(messages),
		turn.Content,
		turn.Reasoning,
		turn.CreatedAt.UnixNano(),
		int64(turn.Duration),
	)
	if err != nil {
		return fmt.Errorf("inserting turn %s: %w", turn.ID, err)
	}
	return nil
}

func (d *Driver) GetTurn(ctx context.Context, id string) (*storage.Turn, error) {
	row := d.DB.QueryRowContext(ctx, d.bind(selectTurns+` WHERE id = ?`), id)

	turn, err := scanTurn(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.NotFoundError{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("getting turn %s: %w", id, err)
	}
	return turn, nil
}

func (d *Driver) ListTurns(ctx context.Context, limit int) ([]*storage.Turn, error) {
	query := selectTurns + ` ORDER BY created_at DESC, id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := d.DB.QueryContext(ctx, d.bind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("listing turns: %w", err)
	}
	defer rows.Close()

	var turns []*storage.Turn
	for rows.Next() {
		turn, err := scanTurn(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing turns: %w", err)
	}

	return turns, nil
}

func (d *Driver) LoadSystemMessage(ctx context.Context) (string, error) {
	var msg string
	err := d.DB.QueryRowContext(ctx, `SELECT content FROM system_message WHERE id = 1`).Scan(&msg)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("loading system message: %w", err)
	}
	return msg, nil
}

func (d *Driver) SaveSystemMessage(ctx context.Context, msg string) error {
	_, err := d.DB.ExecContext(ctx, d.bind(`
		INSERT INTO system_message (id, content) VALUES (1, ?)
		ON CONFLICT (id) DO UPDATE SET content = excluded.content`), msg)
	if err != nil {
		return fmt.Errorf("saving system message: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (d *Driver) Close() error {
	return d.DB.Close()
}

const selectTurns = `SELECT id, provider, model, temperature, messages, content, reasoning, created_at, duration_ns FROM turns`

type scanner interface {
	Scan(dest ...any) error
}

func scanTurn(s scanner) (*storage.Turn, error) {
	var (
		turn      storage.Turn
		messages  string
		createdAt int64
		duration  int64
	)

	err := s.Scan(
		&turn.ID,
		&turn.Provider,
		&turn.Model,
		&turn.Temperature,
		&messages,
		&turn.Content,
		&turn.Reasoning,
		&createdAt,
		&duration,
	)
	if err != nil {
		return nil, err
	}

	turn.Messages = []llm.Message{}
	if err := json.Unmarshal([]byte(messages), &turn.Messages); err != nil {
		return nil, fmt.Errorf("decoding messages of turn %s: %w", turn.ID, err)
	}
	turn.CreatedAt = time.Unix(0, createdAt).UTC()
	turn.Duration = time.Duration(duration)

	return &turn, nil
}

// bind rewrites "?" placeholders for dialects that number them.
func (d *Driver) bind(query string) string {
	if !d.dialect.Numbered {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
