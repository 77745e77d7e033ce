package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventDispatch    EventType = "dispatch"
	EventEffect      EventType = "effect"
	EventSubscribe   EventType = "subscribe"
	EventUnsubscribe EventType = "unsubscribe"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// DispatchEvent represents one accepted dispatch cycle.
type DispatchEvent struct {
	EventBase
	Action  string `json:"action"` // Resolved function name, best effort.
	Payload any    `json:"payload,omitempty"`
	Effects int    `json:"effects"` // Number of effects the action declared.
}

// EffectEvent represents one effect runner invocation.
type EffectEvent struct {
	EventBase
	Runner   string        `json:"runner"`
	Data     any           `json:"data,omitempty"`
	Duration time.Duration `json:"duration"`
	IsError  bool          `json:"is_error,omitempty"`
}

// SubscriptionEvent represents a subscription start or stop.
type SubscriptionEvent struct {
	EventBase
	Runner string `json:"runner"`
	Data   any    `json:"data,omitempty"`
}

// LifecycleHooks defines callbacks for runtime observability. All
// fields are optional; nil hooks are skipped. Hooks run synchronously
// inside the dispatch cycle and must not call dispatch themselves.
type LifecycleHooks[S any] struct {
	OnDispatch    func(context.Context, *DispatchEvent)
	OnCommit      func(context.Context, S)
	OnEffect      func(context.Context, *EffectEvent)
	OnSubscribe   func(context.Context, *SubscriptionEvent)
	OnUnsubscribe func(context.Context, *SubscriptionEvent)
}
