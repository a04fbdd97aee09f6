package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// sseWriter frames server-sent events. Write failures are swallowed: once
// the client is gone the gateway's event stream still has to be drained so
// the underlying process gets cleaned up.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newSSEWriter(w http.ResponseWriter) *sseWriter {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}
	return &sseWriter{w: w, flusher: flusher}
}

// send marshals v into one "data: <json>" frame. A marshal failure is a
// stream encoding failure and is reported to the caller.
func (s *sseWriter) send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode stream chunk: %w", err)
	}
	s.raw(string(data))
	return nil
}

// raw writes an already-encoded frame payload.
func (s *sseWriter) raw(payload string) {
	fmt.Fprintf(s.w, "data: %s\n\n", payload)
	if s.flusher != nil {
		s.flusher.Flush()
	}
}
