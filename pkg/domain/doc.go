/*
Package domain contains the core domain models for the Tendril runtime.

It defines the fundamental entities of the dispatch cycle: Actions (pure
state transitions), Effects (one-shot side-effect descriptors),
Subscriptions (long-lived side-effect descriptors with an explicit stop),
and the Dispatch handle through which all external code feeds transitions
back into the runtime. This package is kept pure and free of external
dependencies like I/O or persistence, following Hexagonal Architecture
principles.

# Key Entities

  - Action: pure function from (state, payload) to the next state plus
    declared effects.
  - Effect: a structural description of a one-shot side effect for the
    interpreter to run.
  - Subscription: a structural description of a long-lived process whose
    lifecycle tracks state transitions.
  - Dispatch: the sole channel by which runners and hosts mutate state.
*/
package domain
