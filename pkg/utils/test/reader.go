// Package test provides shared fixtures for deepstream tests.
package test

import (
	"context"
	"io"
	"sync"

	"github.com/papercomputeco/deepstream/pkg/stream"
)

// ChunkReader returns each chunk from a separate Read call, simulating a
// transport that delivers bytes at arbitrary boundaries. After the last chunk
// it returns Err, or io.EOF when Err is nil.
type ChunkReader struct {
	Chunks [][]byte
	Err    error

	// Reads counts Read calls, including the terminal one.
	Reads int
}

// NewChunkReader builds a ChunkReader from string chunks.
func NewChunkReader(chunks ...string) *ChunkReader {
	r := &ChunkReader{}
	for _, c := range chunks {
		r.Chunks = append(r.Chunks, []byte(c))
	}
	return r
}

func (r *ChunkReader) Read(p []byte) (int, error) {
	r.Reads++
	if len(r.Chunks) == 0 {
		if r.Err != nil {
			return 0, r.Err
		}
		return 0, io.EOF
	}

	n := copy(p, r.Chunks[0])
	if n < len(r.Chunks[0]) {
		r.Chunks[0] = r.Chunks[0][n:]
	} else {
		r.Chunks = r.Chunks[1:]
	}
	return n, nil
}

// SplitEvery cuts s into chunks of at most size bytes.
func SplitEvery(s string, size int) []string {
	var out []string
	for len(s) > size {
		out = append(out, s[:size])
		s = s[size:]
	}
	if s != "" {
		out = append(out, s)
	}
	return out
}

// FailingSink returns err from every Emit after the first n successful ones.
type FailingSink struct {
	mu    sync.Mutex
	After int
	Err   error
	seen  int
}

func (f *FailingSink) Emit(_ context.Context, _ stream.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seen >= f.After {
		return f.Err
	}
	f.seen++
	return nil
}
