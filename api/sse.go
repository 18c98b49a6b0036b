package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/papercomputeco/deepstream/pkg/llm"
	"github.com/papercomputeco/deepstream/pkg/stream"
)

// eventError is the SSE event name for a failed stream.
const eventError = "error"

// deltaData is the data payload of content-delta and reasoning-delta events.
type deltaData struct {
	Fragment string `json:"fragment"`
}

// sseSink writes stream events to w in SSE framing:
//
//	event: content-delta
//	data: {"fragment":"Hello"}
//
// Each event is one Write, so a closed client fails the Emit that lost it.
type sseSink struct {
	w io.Writer
}

func (s *sseSink) Emit(_ context.Context, ev stream.Event) error {
	var data any
	switch ev.Type {
	case stream.EventComplete:
		data = ev.Aggregate
	default:
		data = deltaData{Fragment: ev.Fragment}
	}
	return writeEvent(s.w, string(ev.Type), data)
}

func writeEvent(w io.Writer, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling %s event: %w", event, err)
	}

	frame := make([]byte, 0, len(event)+len(payload)+16)
	frame = append(frame, "event: "...)
	frame = append(frame, event...)
	frame = append(frame, "\ndata: "...)
	frame = append(frame, payload...)
	frame = append(frame, "\n\n"...)

	_, err = w.Write(frame)
	return err
}

func writeErrorEvent(w io.Writer, msg string) error {
	return writeEvent(w, eventError, llm.ErrorResponse{Error: msg})
}

// writeComment writes an SSE comment line, which clients ignore.
func writeComment(w io.Writer, text string) error {
	_, err := io.WriteString(w, ": "+text+"\n\n")
	return err
}
