package domain

// Action is a pure state transition. It receives the current state and a
// payload and returns the next state plus any effects to interpret. An
// action with no side effects returns a nil effect slice.
//
// Actions must not perform I/O or dispatch; they may be invoked many
// times with different states (tests call them directly).
type Action[S any] func(state S, payload any) (S, []Effect[S])

// Pure lifts a payload-free transition into an Action.
func Pure[S any](fn func(state S) S) Action[S] {
	return func(state S, _ any) (S, []Effect[S]) {
		return fn(state), nil
	}
}

// Dispatch feeds an action and payload into the runtime. It is the only
// way external code (effect runners, subscription callbacks, hosts)
// mutates application state.
//
// Calling it from inside an executing action returns
// ErrReentrantDispatch; calling it after the dispatcher is closed
// returns ErrClosed. Calls made while another dispatch is in progress
// are enqueued and processed in FIFO order.
type Dispatch[S any] func(action Action[S], payload any) error
