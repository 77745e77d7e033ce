package runtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/ports"
)

// Dispatcher is the core dispatch loop. It owns the single mutable state
// cell and the set of active subscriptions; everything else reaches them
// through Dispatch.
//
// Dispatches are processed through a FIFO queue with a single drive
// loop: the first caller drives the queue until it is empty, and calls
// arriving while a drive is in progress (including those made by effect
// and subscription runners) are enqueued and picked up by the running
// drive. For one dispatch, state commit happens before rendering, which
// happens before effect execution, which happens before subscription
// reconciliation.
type Dispatcher[S any] struct {
	ctx    context.Context
	cancel context.CancelFunc

	logger   *slog.Logger
	hooks    domain.LifecycleHooks[S]
	renderer ports.Renderer[S]
	declare  domain.Declare[S]
	store    ports.SnapshotStore
	storeKey string

	mu      sync.Mutex
	queue   []pending[S]
	driving bool
	closed  bool
	applyG  uint64 // id of the goroutine applying an action, 0 when none

	state  S
	active []*subEntry[S]
}

type pending[S any] struct {
	action  domain.Action[S]
	payload any
}

// Option defines a functional option for configuring the Dispatcher.
type Option[S any] func(*Dispatcher[S])

// WithLogger sets a custom structured logger.
func WithLogger[S any](logger *slog.Logger) Option[S] {
	return func(d *Dispatcher[S]) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks[S any](hooks domain.LifecycleHooks[S]) Option[S] {
	return func(d *Dispatcher[S]) {
		d.hooks = hooks
	}
}

// WithRenderer sets the view renderer notified after every commit.
func WithRenderer[S any](r ports.Renderer[S]) Option[S] {
	return func(d *Dispatcher[S]) {
		d.renderer = r
	}
}

// WithSubscriptions sets the subscription declaration function,
// re-evaluated after every committed dispatch.
func WithSubscriptions[S any](declare domain.Declare[S]) Option[S] {
	return func(d *Dispatcher[S]) {
		d.declare = declare
	}
}

// WithSnapshotStore persists a JSON snapshot of the state under the
// given key after every commit. Persistence is ambient: save errors are
// logged but never fail the dispatch.
func WithSnapshotStore[S any](store ports.SnapshotStore, key string) Option[S] {
	return func(d *Dispatcher[S]) {
		d.store = store
		d.storeKey = key
	}
}

// New creates a Dispatcher holding the given initial state. Start must
// be called once to run initial effects and bring up the subscriptions
// declared for the initial state.
func New[S any](initial S, opts ...Option[S]) *Dispatcher[S] {
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher[S]{
		ctx:    ctx,
		cancel: cancel,
		logger: slog.New(slog.DiscardHandler),
		state:  initial,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start renders the initial state, runs the given initial effects and
// reconciles subscriptions for the initial state, then drains any
// dispatches those runners enqueued.
func (d *Dispatcher[S]) Start(effects ...domain.Effect[S]) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return domain.ErrClosed
	}
	d.driving = true
	state := d.state
	d.mu.Unlock()

	if err := d.cycle(state, effects); err != nil {
		d.mu.Lock()
		d.driving = false
		d.mu.Unlock()
		return err
	}
	return d.drive()
}

// Dispatch feeds an action and payload into the loop. If no drive is in
// progress the calling goroutine drives the queue to empty; otherwise
// the pair is enqueued and processed by the running drive, and Dispatch
// returns nil immediately.
//
// Returns domain.ErrNilAction for a nil action, domain.ErrClosed after
// Close, and domain.ErrReentrantDispatch when called synchronously from
// inside an executing action.
func (d *Dispatcher[S]) Dispatch(action domain.Action[S], payload any) error {
	if action == nil {
		return domain.ErrNilAction
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return domain.ErrClosed
	}
	// Slow path only: the goroutine id is parsed only while an action
	// is being applied somewhere.
	if d.applyG != 0 && d.applyG == curGoroutineID() {
		d.mu.Unlock()
		return domain.ErrReentrantDispatch
	}
	d.queue = append(d.queue, pending[S]{action: action, payload: payload})
	if d.driving {
		d.mu.Unlock()
		return nil
	}
	d.driving = true
	d.mu.Unlock()

	return d.drive()
}

// State returns the current committed state.
func (d *Dispatcher[S]) State() S {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Close stops every active subscription exactly once, cancels their
// contexts and rejects further dispatches with domain.ErrClosed.
// It is idempotent.
func (d *Dispatcher[S]) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	active := d.active
	d.active = nil
	d.queue = nil
	d.mu.Unlock()

	d.cancel()
	for _, e := range active {
		d.stopEntry(e)
	}
	d.logger.Debug("dispatcher closed", "subscriptions_stopped", len(active))
	return nil
}

// drive pops and processes queued dispatches until the queue is empty.
// A processing error stops the drive and propagates to the caller;
// remaining queued dispatches survive for the next drive.
func (d *Dispatcher[S]) drive() error {
	for {
		d.mu.Lock()
		if d.closed || len(d.queue) == 0 {
			d.driving = false
			d.mu.Unlock()
			return nil
		}
		p := d.queue[0]
		d.queue = d.queue[1:]
		d.mu.Unlock()

		if err := d.process(p); err != nil {
			d.mu.Lock()
			d.driving = false
			d.mu.Unlock()
			return err
		}
	}
}

// process applies one action and runs the full commit cycle for it.
func (d *Dispatcher[S]) process(p pending[S]) error {
	d.mu.Lock()
	d.applyG = curGoroutineID()
	state := d.state
	d.mu.Unlock()

	next, effects := p.action(state, p.payload)

	d.mu.Lock()
	d.applyG = 0
	d.state = next
	d.mu.Unlock()

	name := funcName(p.action)
	d.logger.Debug("dispatch", "action", name, "effects", len(effects))
	if d.hooks.OnDispatch != nil {
		d.hooks.OnDispatch(d.ctx, &domain.DispatchEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventDispatch},
			Action:    name,
			Payload:   p.payload,
			Effects:   len(effects),
		})
	}
	if d.hooks.OnCommit != nil {
		d.hooks.OnCommit(d.ctx, next)
	}

	return d.cycle(next, effects)
}

// cycle performs the post-commit sequence for a state: render, persist,
// run effects, reconcile subscriptions.
func (d *Dispatcher[S]) cycle(state S, effects []domain.Effect[S]) error {
	if d.renderer != nil {
		if err := d.renderer.Render(d.ctx, state); err != nil {
			d.logger.Error("render failed", "error", err)
		}
	}

	d.persist(state)

	if err := d.runEffects(effects); err != nil {
		return err
	}

	var declared []domain.Subscription[S]
	if d.declare != nil {
		declared = d.declare(state)
	}
	return d.reconcile(declared)
}

// persist saves a JSON snapshot of the committed state, if a store is
// configured. Never fatal.
func (d *Dispatcher[S]) persist(state S) {
	if d.store == nil {
		return
	}
	snapshot, err := json.Marshal(state)
	if err != nil {
		d.logger.Error("snapshot marshal failed", "key", d.storeKey, "error", err)
		return
	}
	if err := d.store.Save(d.ctx, d.storeKey, snapshot); err != nil {
		d.logger.Error("snapshot save failed", "key", d.storeKey, "error", err)
	}
}
