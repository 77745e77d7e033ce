package ports

import "context"

// Renderer consumes committed states. The dispatcher calls Render once
// per accepted dispatch, after the state is committed and before effects
// run. Rendering is a pure projection of state: a Render error is
// logged by the runtime but never fails the dispatch, since the state
// is already committed.
//
// Implementations that need debouncing or async painting do it
// internally; the runtime assumes Render returns promptly.
type Renderer[S any] interface {
	Render(ctx context.Context, state S) error
}

// RenderFunc adapts a function to the Renderer interface.
type RenderFunc[S any] func(ctx context.Context, state S) error

func (f RenderFunc[S]) Render(ctx context.Context, state S) error {
	return f(ctx, state)
}
