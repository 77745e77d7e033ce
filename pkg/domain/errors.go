package domain

import "errors"

// ErrReentrantDispatch is returned when dispatch is called synchronously
// from inside an executing action. Actions are pure; side effects that
// need further dispatches belong in effects, which are always enqueued.
var ErrReentrantDispatch = errors.New("re-entrant dispatch from inside an action")

// ErrNilAction is returned when dispatch is called with a nil action.
var ErrNilAction = errors.New("nil action")

// ErrClosed is returned by dispatch after the dispatcher has been closed.
var ErrClosed = errors.New("dispatcher is closed")

// ErrSnapshotNotFound is returned when a snapshot key cannot be found in
// the store.
var ErrSnapshotNotFound = errors.New("snapshot not found")
