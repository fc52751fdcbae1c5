package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// EventWriter wraps an http.ResponseWriter for Server-Sent Events streaming.
type EventWriter struct {
	w       io.Writer
	flusher http.Flusher
}

// NewEventWriter sets the SSE headers and returns a writer. It fails when
// the underlying ResponseWriter cannot flush, which streaming requires.
func NewEventWriter(w http.ResponseWriter) (*EventWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support flusher interface")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // disable nginx buffering

	return &EventWriter{w: w, flusher: flusher}, nil
}

// WriteEvent sends one named event with a JSON-encoded payload and flushes
// it immediately. JSON encoding never emits raw newlines, so the payload
// always fits a single data line.
func (w *EventWriter) WriteEvent(ctx context.Context, event string, payload any) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("context canceled: %w", ctx.Err())
	default:
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode event payload: %w", err)
	}

	if _, err := fmt.Fprintf(w.w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return fmt.Errorf("write event: %w", err)
	}

	w.flusher.Flush()
	return nil
}
