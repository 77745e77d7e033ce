package tendril

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/tendril/internal/logging"
	"github.com/aretw0/tendril/internal/runtime"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/ports"
)

// App is the high-level entry point for the Tendril library.
// It wraps the internal dispatcher and provides a simplified API for
// consumers. Each App owns exactly one state cell; independent Apps
// (e.g. one per test) never interfere.
type App[S any] struct {
	dispatcher *runtime.Dispatcher[S]
	logger     *slog.Logger
	Name       string
}

type config[S any] struct {
	name     string
	logger   *slog.Logger
	hooks    domain.LifecycleHooks[S]
	renderer ports.Renderer[S]
	declare  domain.Declare[S]
	store    ports.SnapshotStore
	storeKey string
	restore  bool
	initial  []domain.Effect[S]
}

// Option defines a functional option for configuring the App.
type Option[S any] func(*config[S])

// WithName sets a descriptive label for the app, used to enrich logs.
func WithName[S any](name string) Option[S] {
	return func(c *config[S]) {
		c.name = name
	}
}

// WithLogger sets a custom structured logger.
func WithLogger[S any](logger *slog.Logger) Option[S] {
	return func(c *config[S]) {
		c.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks[S any](hooks domain.LifecycleHooks[S]) Option[S] {
	return func(c *config[S]) {
		c.hooks = hooks
	}
}

// WithRenderer sets the view renderer. The runtime calls it once per
// committed state; render errors are logged but never fail a dispatch.
func WithRenderer[S any](r ports.Renderer[S]) Option[S] {
	return func(c *config[S]) {
		c.renderer = r
	}
}

// WithSubscriptions sets the subscription declaration function. It is
// re-evaluated after every committed dispatch; the runtime starts newly
// declared subscriptions, stops missing ones and carries over matches.
func WithSubscriptions[S any](declare domain.Declare[S]) Option[S] {
	return func(c *config[S]) {
		c.declare = declare
	}
}

// WithSnapshotStore persists a JSON snapshot of the state under the
// given key after every commit. Persistence is ambient: save errors are
// logged, never fatal.
func WithSnapshotStore[S any](store ports.SnapshotStore, key string) Option[S] {
	return func(c *config[S]) {
		c.store = store
		c.storeKey = key
	}
}

// WithRestore loads the last snapshot from the configured store before
// starting, replacing the initial state. A missing snapshot is not an
// error; the initial state is used as-is.
func WithRestore[S any]() Option[S] {
	return func(c *config[S]) {
		c.restore = true
	}
}

// WithInitialEffects declares effects to run once at startup, before
// any dispatch (e.g. an initial fetch).
func WithInitialEffects[S any](effects ...domain.Effect[S]) Option[S] {
	return func(c *config[S]) {
		c.initial = append(c.initial, effects...)
	}
}

// New initializes a new Tendril App around the given initial state,
// runs any initial effects and starts the subscriptions declared for
// the initial state.
func New[S any](initial S, opts ...Option[S]) (*App[S], error) {
	cfg := &config[S]{}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.restore {
		if cfg.store == nil {
			return nil, fmt.Errorf("WithRestore requires WithSnapshotStore")
		}
		snapshot, err := cfg.store.Load(context.Background(), cfg.storeKey)
		switch {
		case errors.Is(err, domain.ErrSnapshotNotFound):
			// First run, nothing persisted yet.
		case err != nil:
			return nil, fmt.Errorf("failed to restore snapshot: %w", err)
		default:
			if err := json.Unmarshal(snapshot, &initial); err != nil {
				return nil, fmt.Errorf("failed to decode snapshot: %w", err)
			}
		}
	}

	// Ensure logger is initialized (so we don't pass nil downstream,
	// which would overwrite the dispatcher's default).
	if cfg.logger == nil {
		cfg.logger = logging.NewNop()
	}
	if cfg.name != "" {
		cfg.logger = cfg.logger.With("app", cfg.name)
	}

	app := &App[S]{
		logger: cfg.logger,
		Name:   cfg.name,
	}
	app.dispatcher = runtime.New(initial,
		runtime.WithLogger[S](cfg.logger),
		runtime.WithLifecycleHooks(cfg.hooks),
		runtime.WithRenderer(cfg.renderer),
		runtime.WithSubscriptions(cfg.declare),
		runtime.WithSnapshotStore[S](cfg.store, cfg.storeKey),
	)

	if err := app.dispatcher.Start(cfg.initial...); err != nil {
		_ = app.dispatcher.Close()
		return nil, fmt.Errorf("failed to start app: %w", err)
	}
	return app, nil
}

// Dispatch feeds an action and payload into the runtime. See
// domain.Dispatch for queueing and error semantics.
func (a *App[S]) Dispatch(action domain.Action[S], payload any) error {
	return a.dispatcher.Dispatch(action, payload)
}

// Dispatcher returns the dispatch handle, for wiring into adapters and
// effect runners that outlive a single call.
func (a *App[S]) Dispatcher() domain.Dispatch[S] {
	return a.dispatcher.Dispatch
}

// State returns the current committed state.
func (a *App[S]) State() S {
	return a.dispatcher.State()
}

// Close stops all active subscriptions exactly once and rejects further
// dispatches. Idempotent.
func (a *App[S]) Close() error {
	return a.dispatcher.Close()
}

// Run blocks until the context is cancelled, then closes the app.
func (a *App[S]) Run(ctx context.Context) error {
	<-ctx.Done()
	a.logger.Info("shutting down")
	return a.Close()
}
