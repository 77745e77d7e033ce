// Package timer provides time-driven effects and subscriptions: a
// one-shot delay, a fixed-interval tick and a cron-scheduled tick.
package timer

import (
	"context"
	"errors"
	"time"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/gorhill/cronexpr"
)

// EveryConfig describes a fixed-interval subscription.
type EveryConfig[S any] struct {
	Interval time.Duration
	Action   domain.Action[S] // Dispatched with the tick time.
}

// Every declares a subscription dispatching the action once per
// interval. The tick time is the payload.
func Every[S any](interval time.Duration, action domain.Action[S]) domain.Subscription[S] {
	return domain.Subscription[S]{
		Runner: everyRunner[S],
		Data:   EveryConfig[S]{Interval: interval, Action: action},
	}
}

func everyRunner[S any](ctx context.Context, dispatch domain.Dispatch[S], data any) (domain.StopFunc, error) {
	cfg := data.(EveryConfig[S])
	if cfg.Interval <= 0 {
		return nil, errors.New("timer: non-positive interval")
	}
	if cfg.Action == nil {
		return nil, errors.New("timer: nil action")
	}

	ticker := time.NewTicker(cfg.Interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case tick := <-ticker.C:
				if ctx.Err() != nil {
					return
				}
				_ = dispatch(cfg.Action, tick)
			}
		}
	}()
	return nil, nil
}

// AfterConfig describes a one-shot delay effect.
type AfterConfig[S any] struct {
	Delay  time.Duration
	Action domain.Action[S]
}

// After declares an effect dispatching the action once after the delay.
// Effects are not cancellable: the dispatch fires unless the app has
// closed by then, in which case it is dropped.
func After[S any](delay time.Duration, action domain.Action[S]) domain.Effect[S] {
	return domain.Effect[S]{
		Runner: afterRunner[S],
		Data:   AfterConfig[S]{Delay: delay, Action: action},
	}
}

func afterRunner[S any](dispatch domain.Dispatch[S], data any) error {
	cfg := data.(AfterConfig[S])
	if cfg.Action == nil {
		return errors.New("timer: nil action")
	}
	time.AfterFunc(cfg.Delay, func() {
		_ = dispatch(cfg.Action, time.Now())
	})
	return nil
}

// CronConfig describes a cron-scheduled subscription.
type CronConfig[S any] struct {
	Expression string // Standard cron syntax ("*/5 * * * *").
	Action     domain.Action[S]
}

// Cron declares a subscription dispatching the action on a cron
// schedule. A malformed expression fails the subscription start.
func Cron[S any](expression string, action domain.Action[S]) domain.Subscription[S] {
	return domain.Subscription[S]{
		Runner: cronRunner[S],
		Data:   CronConfig[S]{Expression: expression, Action: action},
	}
}

func cronRunner[S any](ctx context.Context, dispatch domain.Dispatch[S], data any) (domain.StopFunc, error) {
	cfg := data.(CronConfig[S])
	if cfg.Action == nil {
		return nil, errors.New("timer: nil action")
	}
	expr, err := cronexpr.Parse(cfg.Expression)
	if err != nil {
		return nil, err
	}

	go func() {
		for {
			next := expr.Next(time.Now())
			if next.IsZero() {
				return
			}
			t := time.NewTimer(time.Until(next))
			select {
			case <-ctx.Done():
				t.Stop()
				return
			case fire := <-t.C:
				if ctx.Err() != nil {
					return
				}
				_ = dispatch(cfg.Action, fire)
			}
		}
	}()
	return nil, nil
}
