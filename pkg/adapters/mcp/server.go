// Package mcp exposes a running app to MCP clients as a set of tools.
//
// Agents can read the committed state, list the actions registered by
// the host and dispatch them by name. State is serialized as JSON, so
// the app state type must be JSON-marshalable.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/tendril"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/registry"
)

// App is the slice of the runtime the MCP server needs.
type App[S any] interface {
	State() S
	Dispatcher() domain.Dispatch[S]
}

// Server wraps an app and exposes it as an MCP server.
type Server[S any] struct {
	app       App[S]
	actions   *registry.Registry[S]
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates an MCP server over the given app and action registry.
func NewServer[S any](app App[S], actions *registry.Registry[S], logger *slog.Logger) *Server[S] {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server[S]{
		app:       app,
		actions:   actions,
		logger:    logger,
		mcpServer: server.NewMCPServer("tendril-mcp", strings.TrimSpace(tendril.Version)),
	}
	s.registerTools()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server[S]) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server[S]) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server[S]) registerTools() {
	// TOOL: get_state
	s.mcpServer.AddTool(mcp.NewTool("get_state",
		mcp.WithDescription("Get the current application state as JSON."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := json.Marshal(s.app.State())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("marshal state: %v", err)), nil
		}
		return mcp.NewToolResultText(string(raw)), nil
	})

	// TOOL: list_actions
	s.mcpServer.AddTool(mcp.NewTool("list_actions",
		mcp.WithDescription("List the action names that can be dispatched."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, _ := json.Marshal(s.actions.Names())
		return mcp.NewToolResultText(string(raw)), nil
	})

	// TOOL: dispatch
	dispatchTool := mcp.NewTool("dispatch",
		mcp.WithDescription("Dispatch a registered action against the current state. Returns the state after the dispatch settles."),
		mcp.WithString("action", mcp.Required(), mcp.Description("Registered action name")),
		mcp.WithString("payload", mcp.Description("JSON object passed to the action as its payload (optional)")),
	)
	s.mcpServer.AddTool(dispatchTool, s.handleDispatch)
}

func (s *Server[S]) handleDispatch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	name, _ := args["action"].(string)
	if name == "" {
		return mcp.NewToolResultError("action is required"), nil
	}

	var payload any
	if payloadStr, ok := args["payload"].(string); ok && payloadStr != "" {
		if err := json.Unmarshal([]byte(payloadStr), &payload); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("payload is not valid JSON: %v", err)), nil
		}
	}

	if err := s.actions.Dispatch(s.app.Dispatcher(), name, payload); err != nil {
		s.logger.Warn("dispatch failed", "action", name, "err", err)
		return mcp.NewToolResultError(fmt.Sprintf("dispatch %s: %v", name, err)), nil
	}

	raw, err := json.Marshal(s.app.State())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal state: %v", err)), nil
	}
	return mcp.NewToolResultText(string(raw)), nil
}
