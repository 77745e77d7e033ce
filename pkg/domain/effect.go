package domain

// EffectRunner performs a one-shot side effect. It is invoked exactly
// once per declared effect with the dispatch handle and the effect's
// configuration data. The runner may call dispatch any number of times,
// synchronously or from a goroutine it spawns.
//
// An error returned synchronously is treated as a programming error and
// propagates to the Dispatch caller. Failures that happen later
// (network errors, bad payloads) are the runner's own responsibility to
// turn into a dispatched action carrying an error payload; there is no
// implicit error channel.
type EffectRunner[S any] func(dispatch Dispatch[S], data any) error

// Effect pairs a runner with its configuration. Effects are one-shot:
// after the runner is invoked the descriptor is discarded, so declaring
// an identical effect on two state transitions runs it twice.
type Effect[S any] struct {
	Runner EffectRunner[S]
	Data   any
}
