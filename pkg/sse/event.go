// Package sse provides a minimal, purpose-built SSE (Server-Sent Events)
// line decoder for chat-completion streams. It splits an arbitrarily chunked
// upstream byte stream into logical lines and classifies each line as a data
// event, the end-of-stream sentinel, or something to ignore.
//
// Only the subset of SSE used by chat-completion APIs is understood: "data: "
// lines and the "[DONE]" sentinel. Event IDs, retry directives and comments
// are ignored.
//
// See the SSE specification:
// https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

import "strings"

const (
	// DataPrefix is the literal prefix of a data-bearing line.
	DataPrefix = "data: "

	// DoneSentinel is the data payload that terminates a stream.
	DoneSentinel = "[DONE]"
)

// Kind classifies a logical line.
type Kind int

const (
	// KindIgnored is any line that carries no data: blank lines, comments,
	// "event:", "id:" and "retry:" fields.
	KindIgnored Kind = iota

	// KindData is a "data: " line with a payload other than the sentinel.
	KindData

	// KindDone is a "data: [DONE]" line.
	KindDone
)

func (k Kind) String() string {
	switch k {
	case KindData:
		return "data"
	case KindDone:
		return "done"
	default:
		return "ignored"
	}
}

// Event is a single classified line.
type Event struct {
	Kind Kind

	// Payload is the line with DataPrefix removed. Only set for KindData.
	Payload string
}

// Classify turns a logical line into an Event. It is pure and stateless.
func Classify(line string) Event {
	payload, ok := strings.CutPrefix(line, DataPrefix)
	if !ok {
		return Event{Kind: KindIgnored}
	}

	if payload == DoneSentinel {
		return Event{Kind: KindDone}
	}

	return Event{Kind: KindData, Payload: payload}
}
