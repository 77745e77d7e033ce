/*
Package tendril is an embeddable state runtime: one immutable state
value per app, pure action functions, declarative one-shot effects and
reconciled long-lived subscriptions.

An application is a state type, a set of actions over it, and
(optionally) a subscription declaration evaluated against every
committed state. The runtime owns the only mutable cell; external code
mutates state exclusively by dispatching actions:

	type Model struct {
		Count int
	}

	func Increment(m Model, _ any) (Model, []domain.Effect[Model]) {
		m.Count++
		return m, nil
	}

	app, err := tendril.New(Model{},
		tendril.WithLogger[Model](logger),
	)
	if err != nil { ... }
	defer app.Close()

	_ = app.Dispatch(Increment, nil)

Side effects are declared as data: actions return Effect descriptors
that the runtime interprets once, and the subscription declaration
returns Subscription descriptors whose lifecycle (start, carry over,
stop) tracks state transitions. See pkg/effects for shipped runners
(HTTP fetch, server-sent events, timers, filesystem watches, MQTT) and
pkg/router for navigation wiring.
*/
package tendril
