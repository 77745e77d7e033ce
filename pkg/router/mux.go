package router

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
)

// Mux is an in-process Navigator built on chi's routing trie, which
// does the pattern matching and path-parameter extraction. Locations
// are plain paths ("/notes/42"); no HTTP server is involved.
type Mux struct {
	mu         sync.Mutex
	trie       *chi.Mux
	handlers   map[string]func(string, map[string]string)
	registered map[string]bool
	listening  bool
}

// NewMux creates an empty navigator.
func NewMux() *Mux {
	return &Mux{
		trie:       chi.NewRouter(),
		handlers:   make(map[string]func(string, map[string]string)),
		registered: make(map[string]bool),
	}
}

// Handle registers a handler for a chi route pattern. Registering the
// same pattern again replaces the handler (chi's trie keeps the route).
func (m *Mux) Handle(pattern string, handler func(location string, params map[string]string)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.registered[pattern] {
		m.trie.Get(pattern, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		m.registered[pattern] = true
	}
	m.handlers[pattern] = handler
}

// Listen enables matching. Idempotent.
func (m *Mux) Listen() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listening = true
	return nil
}

// Stop disables matching; handlers no longer fire. Idempotent.
func (m *Mux) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listening = false
	return nil
}

// Go matches the location against the registered routes and fires the
// matching handler with the extracted path parameters. Navigations
// while stopped are dropped. An unroutable location is an error.
func (m *Mux) Go(location string) error {
	m.mu.Lock()
	if !m.listening {
		m.mu.Unlock()
		return nil
	}

	rctx := chi.NewRouteContext()
	if !m.trie.Match(rctx, http.MethodGet, location) {
		m.mu.Unlock()
		return fmt.Errorf("no route matches %s", location)
	}

	handler := m.handlers[rctx.RoutePattern()]
	params := make(map[string]string, len(rctx.URLParams.Keys))
	for i, key := range rctx.URLParams.Keys {
		if key == "*" {
			continue
		}
		params[key] = rctx.URLParams.Values[i]
	}
	m.mu.Unlock()

	if handler != nil {
		handler(location, params)
	}
	return nil
}
