package stream

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/google/uuid"
)

// FrameWriter writes encoded events to a client connection.
type FrameWriter interface {
	WriteFrame(ev Event) error
	Close() error
}

// SSEWriter frames events as Server-Sent Events and flushes after each one.
type SSEWriter struct {
	mu      sync.Mutex
	w       io.Writer
	flusher http.Flusher
	buf     bytes.Buffer
	closed  bool
}

// NewSSEWriter returns a writer over w. w must implement http.Flusher.
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingNotSupported
	}
	return &SSEWriter{w: w, flusher: flusher}, nil
}

// WriteFrame encodes ev as JSON inside a single SSE message.
func (s *SSEWriter) WriteFrame(ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("stream: encode %s event: %w", ev.Kind, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrWriterClosed
	}

	s.buf.Reset()
	s.buf.WriteString("id: ")
	s.buf.WriteString(uuid.NewString())
	s.buf.WriteString("\ndata: ")
	s.buf.Write(data)
	s.buf.WriteString("\n\n")

	if _, err := s.w.Write(s.buf.Bytes()); err != nil {
		return fmt.Errorf("stream: write %s frame: %w", ev.Kind, err)
	}
	s.flusher.Flush()
	return nil
}

// Close releases the underlying writer. Further writes return ErrWriterClosed.
func (s *SSEWriter) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.w = nil
	s.flusher = nil
	return nil
}
