package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	chatservice "github.com/KRISH826/gemini-backend/internal/services/chat"
)

var errStreamClosed = errors.New("event stream closed")

// sseOpener starts an event stream on w when the chat service asks for it.
type sseOpener struct {
	w    http.ResponseWriter
	ctx  context.Context
	sink *sseSink
}

func newSSEOpener(w http.ResponseWriter, r *http.Request) *sseOpener {
	return &sseOpener{w: w, ctx: r.Context()}
}

func (o *sseOpener) Open() (chatservice.EventSink, error) {
	if o.sink != nil {
		return nil, errors.New("event stream already open")
	}
	flusher, ok := o.w.(http.Flusher)
	if !ok {
		return nil, errors.New("streaming unsupported")
	}

	h := o.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	o.w.WriteHeader(http.StatusOK)
	flusher.Flush()

	o.sink = &sseSink{w: o.w, flusher: flusher, ctx: o.ctx}
	return o.sink, nil
}

func (o *sseOpener) opened() bool {
	return o.sink != nil
}

// sseSink writes one `data: <json>` frame per event.
type sseSink struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
	ctx     context.Context
	closed  bool
}

func (s *sseSink) Send(event chatservice.StreamEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errStreamClosed
	}
	if err := s.ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", payload); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

func (s *sseSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errStreamClosed
	}
	s.closed = true
	return nil
}
