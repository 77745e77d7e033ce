package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// Registry manages named actions, for hosts that dispatch by name
// (the HTTP and MCP adapters, scripted interpreters).
type Registry[S any] struct {
	mu      sync.RWMutex
	entries map[string]entry[S]
}

type entry[S any] struct {
	action domain.Action[S]
	// decode coerces a wire payload (typically map[string]any from
	// JSON) before dispatch. Nil means passthrough.
	decode func(any) (any, error)
}

// New creates a new empty registry.
func New[S any]() *Registry[S] {
	return &Registry[S]{
		entries: make(map[string]entry[S]),
	}
}

// Register adds an action to the registry.
// If an action with the same name exists, it is overwritten.
func (r *Registry[S]) Register(name string, action domain.Action[S]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = entry[S]{action: action}
}

// RegisterTyped adds an action whose payload is decoded into P before
// dispatch. Wire payloads that are not already a P are decoded with
// mapstructure using json field tags; a decode failure is returned to
// the dispatching host, not to the action.
func RegisterTyped[S, P any](r *Registry[S], name string, action func(S, P) (S, []domain.Effect[S])) {
	wrapped := func(state S, payload any) (S, []domain.Effect[S]) {
		p, _ := payload.(P)
		return action(state, p)
	}
	decode := func(payload any) (any, error) {
		if p, ok := payload.(P); ok {
			return p, nil
		}
		var p P
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			TagName:          "json",
			WeaklyTypedInput: true,
			Result:           &p,
		})
		if err != nil {
			return nil, err
		}
		if err := dec.Decode(payload); err != nil {
			return nil, fmt.Errorf("invalid payload for %s: %w", name, err)
		}
		return p, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = entry[S]{action: wrapped, decode: decode}
}

// Dispatch looks up an action by name, decodes the payload if the
// entry is typed, and feeds it through the given dispatch handle.
// Returns an error if the action is not registered or the payload does
// not decode.
func (r *Registry[S]) Dispatch(dispatch domain.Dispatch[S], name string, payload any) error {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()

	if !ok {
		return fmt.Errorf("action not found: %s", name)
	}
	if e.decode != nil {
		decoded, err := e.decode(payload)
		if err != nil {
			return err
		}
		payload = decoded
	}
	return dispatch(e.action, payload)
}

// Names returns the registered action names, sorted.
func (r *Registry[S]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
