// Package router wraps a navigation capability as a Tendril
// subscription. Route patterns use chi syntax ("/notes/{id}"); each
// matched navigation dispatches the route's action with a payload
// merging the location and any extracted path parameters.
package router

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aretw0/tendril/pkg/domain"
)

// Navigator is the external navigation capability the adapter wraps.
// Mux is the in-process implementation; browsers, deep-link handlers or
// message buses can supply their own.
type Navigator interface {
	// Handle registers a handler for a route pattern. Re-registering a
	// pattern replaces the handler.
	Handle(pattern string, handler func(location string, params map[string]string))

	// Listen starts global matching; handlers fire only between Listen
	// and Stop.
	Listen() error

	// Stop halts matching. Handlers must not fire after Stop returns.
	Stop() error

	// Go asks the navigator to change the current location.
	Go(location string) error
}

type routesData[S any] struct {
	Nav    Navigator
	Routes map[string]domain.Action[S]
}

// Routes declares a subscription that registers one handler per route
// with the navigator and starts it; stopping the subscription stops the
// navigator. The subscription's identity is the navigator instance plus
// the route table, so an unchanged declaration carries over without
// re-registering anything.
func Routes[S any](nav Navigator, routes map[string]domain.Action[S]) domain.Subscription[S] {
	return domain.Subscription[S]{
		Runner: routesRunner[S],
		Data:   routesData[S]{Nav: nav, Routes: routes},
	}
}

func routesRunner[S any](ctx context.Context, dispatch domain.Dispatch[S], data any) (domain.StopFunc, error) {
	cfg := data.(routesData[S])

	for pattern, action := range cfg.Routes {
		action := action
		cfg.Nav.Handle(pattern, func(location string, params map[string]string) {
			// Handlers stay registered in the navigator after this
			// subscription stops (a replacement subscription may Listen
			// again on the same navigator), so each handler is inert
			// once its own context is cancelled.
			if ctx.Err() != nil {
				return
			}
			// Never dispatch inside the navigator's own callback stack:
			// the navigator may be mid-update, and the navigation may
			// have been triggered by a Navigate effect inside a running
			// dispatch. Defer to a fresh goroutine instead.
			go func() {
				if ctx.Err() != nil {
					return
				}
				payload := map[string]any{"location": location}
				for k, v := range params {
					payload[k] = v
				}
				if err := dispatch(action, payload); err != nil && !errors.Is(err, domain.ErrClosed) {
					slog.Warn("route dispatch failed", "location", location, "error", err)
				}
			}()
		})
	}

	if err := cfg.Nav.Listen(); err != nil {
		return nil, err
	}
	return func() {
		if err := cfg.Nav.Stop(); err != nil {
			slog.Warn("navigator stop failed", "error", err)
		}
	}, nil
}

type navigateData struct {
	Nav      Navigator
	Location string
}

// Navigate declares a one-shot effect that imperatively changes the
// navigator's location. Pure glue: it carries no state of its own.
func Navigate[S any](nav Navigator, location string) domain.Effect[S] {
	return domain.Effect[S]{
		Runner: navigateRunner[S],
		Data:   navigateData{Nav: nav, Location: location},
	}
}

func navigateRunner[S any](_ domain.Dispatch[S], data any) error {
	cfg := data.(navigateData)
	return cfg.Nav.Go(cfg.Location)
}
