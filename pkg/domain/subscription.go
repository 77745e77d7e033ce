package domain

import "context"

// StopFunc stops a running subscription. The runtime calls it at most
// once. A nil StopFunc returned by a runner is accepted and treated as
// a no-op stop.
type StopFunc func()

// SubscriptionRunner starts a long-lived side-effecting process. The
// context is cancelled when the subscription is stopped, so runners
// built on blocking I/O should select on ctx.Done(). The returned
// StopFunc is retained by the runtime and invoked exactly once when the
// subscription disappears from the declared set or the app closes.
type SubscriptionRunner[S any] func(ctx context.Context, dispatch Dispatch[S], data any) (StopFunc, error)

// Subscription pairs a runner with its configuration. Identity for
// reconciliation is the runner's code pointer plus equality of Data:
// a subscription that reappears with the same identity after a state
// change is left running untouched.
//
// The zero value (nil Runner) marks a conditionally-disabled
// subscription; it is filtered out before reconciliation and never
// started.
type Subscription[S any] struct {
	Runner SubscriptionRunner[S]
	Data   any
}

// Disabled is the canonical conditionally-off subscription.
func Disabled[S any]() Subscription[S] { return Subscription[S]{} }

// Declare computes the desired subscription set for a state. It is
// re-evaluated after every committed dispatch.
type Declare[S any] func(state S) []Subscription[S]
