package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
)

// Hub is a fan-out of committed states to SSE clients. It implements
// ports.Renderer: wire it into the app with tendril.WithRenderer and
// every committed state is broadcast as one "state" event.
type Hub[S any] struct {
	mu      sync.Mutex
	clients map[chan []byte]struct{}
	last    []byte
}

// NewHub creates an empty hub.
func NewHub[S any]() *Hub[S] {
	return &Hub[S]{clients: make(map[chan []byte]struct{})}
}

// Render broadcasts the state to connected clients. Slow clients drop
// frames rather than block the dispatch cycle.
func (h *Hub[S]) Render(ctx context.Context, state S) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = data
	for ch := range h.clients {
		select {
		case ch <- data:
		default: // Client buffer full; it will catch up on the next commit.
		}
	}
	return nil
}

func (h *Hub[S]) subscribe() (chan []byte, []byte) {
	ch := make(chan []byte, 8)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[ch] = struct{}{}
	return ch, h.last
}

func (h *Hub[S]) unsubscribe(ch chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, ch)
}

// ServeHTTP streams state commits as server-sent events.
func (h *Hub[S]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, last := h.subscribe()
	defer h.unsubscribe(ch)

	write := func(data []byte) bool {
		if _, err := fmt.Fprintf(w, "event: state\ndata: %s\n\n", data); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	// New clients get the latest committed state immediately.
	if last != nil && !write(last) {
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case data := <-ch:
			if !write(data) {
				return
			}
		}
	}
}
