package runtime

import (
	"fmt"
	"time"

	"github.com/aretw0/tendril/pkg/domain"
)

// runEffects interprets the effects declared by one action, invoking
// each runner exactly once with the dispatch handle. Runners that
// dispatch synchronously only enqueue; the enclosing drive picks those
// dispatches up after the current cycle completes.
//
// A synchronous runner error is a programming error: it aborts the
// drive and propagates to the Dispatch caller. Later failures inside a
// runner's goroutines never surface here; runners turn them into
// dispatched actions.
func (d *Dispatcher[S]) runEffects(effects []domain.Effect[S]) error {
	for _, eff := range effects {
		if eff.Runner == nil {
			return fmt.Errorf("effect with nil runner (data: %v)", eff.Data)
		}

		name := funcName(eff.Runner)
		started := time.Now()
		err := eff.Runner(d.Dispatch, eff.Data)
		elapsed := time.Since(started)

		d.logger.Debug("effect", "runner", name, "duration", elapsed)
		if d.hooks.OnEffect != nil {
			d.hooks.OnEffect(d.ctx, &domain.EffectEvent{
				EventBase: domain.EventBase{Timestamp: started, Type: domain.EventEffect},
				Runner:    name,
				Data:      eff.Data,
				Duration:  elapsed,
				IsError:   err != nil,
			})
		}
		if err != nil {
			return fmt.Errorf("effect %s failed: %w", name, err)
		}
	}
	return nil
}
