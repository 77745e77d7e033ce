package runtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aretw0/tendril/pkg/domain"
)

// subEntry is one active subscription: its descriptor (for identity
// matching), the stop function its runner returned and the cancel for
// its private context. halt is guarded by a Once so stop runs at most
// once regardless of which path (reconcile or Close) retires the entry.
type subEntry[S any] struct {
	sub    domain.Subscription[S]
	cancel context.CancelFunc
	stop   domain.StopFunc
	once   sync.Once
}

// reconcile diffs the active subscription set against the declared one.
// Entries whose descriptor (runner identity + data equality) appears in
// both sets are carried over untouched; retired entries are stopped
// before new ones are started, so a replacement descriptor can reuse
// the underlying resource without overlap.
func (d *Dispatcher[S]) reconcile(declared []domain.Subscription[S]) error {
	// Conditionally-disabled subscriptions (zero value descriptors) are
	// filtered before any identity comparison.
	next := make([]domain.Subscription[S], 0, len(declared))
	for _, sub := range declared {
		if sub.Runner != nil {
			next = append(next, sub)
		}
	}

	d.mu.Lock()
	prev := d.active
	d.mu.Unlock()

	// Match declared descriptors against active entries. Duplicate
	// descriptors pair up positionally: each active entry is claimed at
	// most once.
	claimed := make([]bool, len(prev))
	carried := make([]*subEntry[S], len(next))
	for i, sub := range next {
		for j, e := range prev {
			if !claimed[j] && sameDescriptor(e.sub, sub) {
				claimed[j] = true
				carried[i] = e
				break
			}
		}
	}

	// Stops first.
	for j, e := range prev {
		if !claimed[j] {
			d.stopEntry(e)
		}
	}

	// Then starts, in declaration order.
	newActive := make([]*subEntry[S], 0, len(next))
	var startErr error
	for i, sub := range next {
		if carried[i] != nil {
			newActive = append(newActive, carried[i])
			continue
		}
		entry, err := d.startEntry(sub)
		if err != nil {
			startErr = err
			break
		}
		newActive = append(newActive, entry)
	}

	d.mu.Lock()
	if d.closed {
		// Close ran while we were off the lock; it already stopped the
		// entries it knew about, so retire the rest here.
		d.mu.Unlock()
		for _, e := range newActive {
			d.stopEntry(e)
		}
		return startErr
	}
	d.active = newActive
	d.mu.Unlock()
	return startErr
}

func (d *Dispatcher[S]) startEntry(sub domain.Subscription[S]) (*subEntry[S], error) {
	name := funcName(sub.Runner)
	ctx, cancel := context.WithCancel(d.ctx)
	stop, err := sub.Runner(ctx, d.Dispatch, sub.Data)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("subscription %s failed to start: %w", name, err)
	}

	d.logger.Debug("subscribe", "runner", name)
	if d.hooks.OnSubscribe != nil {
		d.hooks.OnSubscribe(d.ctx, &domain.SubscriptionEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventSubscribe},
			Runner:    name,
			Data:      sub.Data,
		})
	}
	return &subEntry[S]{sub: sub, cancel: cancel, stop: stop}, nil
}

func (d *Dispatcher[S]) stopEntry(e *subEntry[S]) {
	e.once.Do(func() {
		e.cancel()
		if e.stop != nil {
			e.stop()
		}

		name := funcName(e.sub.Runner)
		d.logger.Debug("unsubscribe", "runner", name)
		if d.hooks.OnUnsubscribe != nil {
			d.hooks.OnUnsubscribe(d.ctx, &domain.SubscriptionEvent{
				EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventUnsubscribe},
				Runner:    name,
				Data:      e.sub.Data,
			})
		}
	})
}

// sameDescriptor is the subscription identity: same runner code pointer
// and equal configuration data.
func sameDescriptor[S any](a, b domain.Subscription[S]) bool {
	if funcPointer(a.Runner) != funcPointer(b.Runner) {
		return false
	}
	return dataEqual(a.Data, b.Data)
}
