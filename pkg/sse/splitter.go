package sse

import (
	"bytes"
	"strings"
	"unicode/utf8"
)

// Splitter turns a sequence of raw reads into logical lines.
//
// ┌──────────────┐   ┌──────────────────┐   ┌───────────────┐
// │ chunk []byte │──▶│ carry + chunk    │──▶│ []string lines│
// └──────────────┘   └──────────────────┘   └───────────────┘
//                             │
//                             ▼
//                    ┌──────────────────┐
//                    │ new carry (tail) │
//                    └──────────────────┘
//
// The carry holds raw bytes, so a line (or a multi-byte rune) split across two
// reads is reassembled before it is decoded. Decoding is lossy: invalid UTF-8
// is replaced with U+FFFD and never fails.
//
// A Splitter is not safe for concurrent use; it belongs to a single stream.
type Splitter struct {
	carry []byte
}

// NewSplitter returns a Splitter with an empty carry buffer.
func NewSplitter() *Splitter {
	return &Splitter{}
}

// Split appends chunk to the carried partial line and returns every complete
// line, in order, without its terminator. Any trailing bytes that are not yet
// terminated by '\n' are kept for the next call.
func (s *Splitter) Split(chunk []byte) []string {
	if len(chunk) == 0 {
		return nil
	}

	buf := chunk
	if len(s.carry) > 0 {
		buf = append(s.carry, chunk...)
	}

	var lines []string
	for {
		i := bytes.IndexByte(buf, '\n')
		if i < 0 {
			break
		}
		lines = append(lines, decodeLine(buf[:i]))
		buf = buf[i+1:]
	}

	// Copy the tail: buf may alias the caller's chunk, which is reused by
	// the next Read.
	s.carry = append(s.carry[:0:0], buf...)

	return lines
}

// Flush returns the unterminated final fragment at end-of-stream, if any, and
// clears the carry.
func (s *Splitter) Flush() (string, bool) {
	if len(s.carry) == 0 {
		return "", false
	}

	line := decodeLine(s.carry)
	s.carry = nil
	return line, true
}

// Reset drops any carried bytes.
func (s *Splitter) Reset() {
	s.carry = nil
}

// decodeLine strips a CR left over from CRLF framing and decodes the bytes
// leniently.
func decodeLine(b []byte) string {
	b = bytes.TrimSuffix(b, []byte{'\r'})
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), string(utf8.RuneError))
}
