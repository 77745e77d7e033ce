// Package ids provides the id-generation effect.
package ids

import (
	"errors"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/google/uuid"
)

// Config describes one id-generation effect.
type Config[S any] struct {
	// Action is dispatched with the generated id (a string payload).
	Action domain.Action[S]
}

// New declares an effect that generates a fresh UUID and dispatches the
// action with it. Declared twice, it generates two ids.
func New[S any](action domain.Action[S]) domain.Effect[S] {
	return domain.Effect[S]{Runner: run[S], Data: Config[S]{Action: action}}
}

func run[S any](dispatch domain.Dispatch[S], data any) error {
	cfg := data.(Config[S])
	if cfg.Action == nil {
		return errors.New("ids: nil action")
	}
	return dispatch(cfg.Action, uuid.NewString())
}
