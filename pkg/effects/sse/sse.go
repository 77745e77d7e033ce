// Package sse provides a server-push subscription over Server-Sent
// Events. Each declared descriptor owns exactly one open stream; the
// stream is closed when the subscription is stopped, and events emitted
// after that never reach the dispatcher.
package sse

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aretw0/tendril/pkg/domain"
)

// Event is one server-pushed event.
type Event struct {
	Name string `json:"event,omitempty"` // "event:" field, empty for the default stream.
	Data string `json:"data"`
	ID   string `json:"id,omitempty"`
}

// Source is an open server-push stream. The Events channel closes when
// the stream ends.
type Source interface {
	Events() <-chan Event
	Close() error
}

// Connect opens a Source for a URL. The default connector speaks SSE
// over HTTP; tests inject one returning a scripted source.
type Connect func(ctx context.Context, url string) (Source, error)

// Config describes one server-push subscription.
type Config[S any] struct {
	URL string

	// Event filters by event name; empty accepts everything.
	Event string

	// Action is dispatched with each accepted Event.
	Action domain.Action[S]

	// OnError, if set, is dispatched with an Event carrying the error
	// text when the stream cannot be opened or dies. Without it the
	// failure is only logged.
	OnError domain.Action[S]

	// Connect overrides the HTTP connector.
	Connect Connect
}

// Subscribe declares the subscription for a Config.
func Subscribe[S any](cfg Config[S]) domain.Subscription[S] {
	return domain.Subscription[S]{Runner: run[S], Data: cfg}
}

// Listen declares a subscription for the common case: every event on
// the URL's default stream feeds one action.
func Listen[S any](url string, action domain.Action[S]) domain.Subscription[S] {
	return Subscribe(Config[S]{URL: url, Action: action})
}

func run[S any](ctx context.Context, dispatch domain.Dispatch[S], data any) (domain.StopFunc, error) {
	cfg := data.(Config[S])
	if cfg.URL == "" {
		return nil, errors.New("sse: empty url")
	}
	if cfg.Action == nil {
		return nil, errors.New("sse: nil action")
	}
	connect := cfg.Connect
	if connect == nil {
		connect = connectHTTP
	}

	// Connect off the reconciliation path; the subscription context
	// tears the stream down.
	go func() {
		src, err := connect(ctx, cfg.URL)
		if err != nil {
			fail(ctx, dispatch, cfg, err)
			return
		}
		defer src.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-src.Events():
				if !ok {
					fail(ctx, dispatch, cfg, errors.New("stream closed by server"))
					return
				}
				if ctx.Err() != nil {
					// Stopped while this event was in flight.
					return
				}
				if cfg.Event != "" && ev.Name != cfg.Event {
					continue
				}
				if err := dispatch(cfg.Action, ev); err != nil && !errors.Is(err, domain.ErrClosed) {
					slog.Warn("sse dispatch failed", "url", cfg.URL, "error", err)
				}
			}
		}
	}()

	return nil, nil
}

func fail[S any](ctx context.Context, dispatch domain.Dispatch[S], cfg Config[S], err error) {
	if ctx.Err() != nil {
		// Stopped; the failure is just the teardown.
		return
	}
	if cfg.OnError != nil {
		_ = dispatch(cfg.OnError, Event{Name: "error", Data: err.Error()})
		return
	}
	slog.Warn("sse stream failed", "url", cfg.URL, "error", err)
}
