// Package http exposes a Tendril app over HTTP: current state,
// dispatch-by-name, and a server-sent-events stream of committed
// states.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	_ "embed"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/registry"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed openapi.yaml
var openAPISpec []byte

// App defines the surface of the Tendril runtime the server drives.
type App[S any] interface {
	State() S
	Dispatcher() domain.Dispatch[S]
}

// Server hosts one app.
type Server[S any] struct {
	App      App[S]
	Registry *registry.Registry[S]
	Hub      *Hub[S]
}

// DispatchRequest is the POST /dispatch body.
type DispatchRequest struct {
	Action  string `json:"action"`
	Payload any    `json:"payload,omitempty"`
}

// StateResponse wraps the current state.
type StateResponse struct {
	State any `json:"state"`
}

// NewHandler creates the HTTP handler for an app. The hub may be nil,
// in which case the /events stream is not mounted; pass the same hub
// the app renders into to stream state changes.
func NewHandler[S any](app App[S], reg *registry.Registry[S], hub *Hub[S]) http.Handler {
	server := &Server[S]{App: app, Registry: reg, Hub: hub}
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(openAPISpec)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/state", server.GetState)
	r.Get("/actions", server.ListActions)
	r.Post("/dispatch", server.Dispatch)
	if hub != nil {
		r.Get("/events", hub.ServeHTTP)
	}

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetState handles GET /state.
func (s *Server[S]) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StateResponse{State: s.App.State()})
}

// ListActions handles GET /actions.
func (s *Server[S]) ListActions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"actions": s.Registry.Names()})
}

// Dispatch handles POST /dispatch: look the action up by name and feed
// it through the app's dispatch handle.
func (s *Server[S]) Dispatch(w http.ResponseWriter, r *http.Request) {
	var body DispatchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		slog.Warn("Dispatch: invalid request body", "error", err)
		return
	}
	if body.Action == "" {
		http.Error(w, "Missing action name", http.StatusBadRequest)
		return
	}

	err := s.Registry.Dispatch(s.App.Dispatcher(), body.Action, body.Payload)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, StateResponse{State: s.App.State()})
	case strings.Contains(err.Error(), "action not found"):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrClosed):
		http.Error(w, "App is shut down", http.StatusServiceUnavailable)
	default:
		http.Error(w, fmt.Sprintf("Dispatch error: %v", err), http.StatusBadRequest)
		slog.Warn("Dispatch failed", "action", body.Action, "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}
