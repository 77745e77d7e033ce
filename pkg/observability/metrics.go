// Package observability turns runtime lifecycle events into Prometheus
// metrics. The Metrics type owns the collectors; its Hooks method
// produces a LifecycleHooks value to pass to the app.
package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/tendril/pkg/domain"
)

// Metrics holds the Prometheus collectors for one app.
type Metrics struct {
	dispatches     *prometheus.CounterVec
	commits        prometheus.Counter
	effectDuration *prometheus.HistogramVec
	effectErrors   *prometheus.CounterVec
	subscriptions  *prometheus.GaugeVec
}

// NewMetrics creates and registers the collectors. Pass
// prometheus.DefaultRegisterer unless the host owns its own registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		dispatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tendril_dispatches_total",
				Help: "Total number of accepted dispatches",
			},
			[]string{"action"},
		),
		commits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tendril_commits_total",
				Help: "Total number of committed states",
			},
		),
		effectDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "tendril_effect_duration_seconds",
				Help: "Duration of effect runner invocations",
			},
			[]string{"runner"},
		),
		effectErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tendril_effect_errors_total",
				Help: "Total number of failed effect runner invocations",
			},
			[]string{"runner"},
		),
		subscriptions: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tendril_active_subscriptions",
				Help: "Number of currently active subscriptions",
			},
			[]string{"runner"},
		),
	}
	reg.MustRegister(m.dispatches, m.commits, m.effectDuration, m.effectErrors, m.subscriptions)
	return m
}

// Commits exposes the commit counter, mainly for tests and dashboards.
func (m *Metrics) Commits() prometheus.Counter { return m.commits }

// Subscriptions exposes the active-subscription gauge.
func (m *Metrics) Subscriptions() *prometheus.GaugeVec { return m.subscriptions }

// Hooks produces lifecycle hooks that feed the collectors. Compose with
// other hooks via Chain if the host also wants logging or tracing.
func Hooks[S any](m *Metrics) domain.LifecycleHooks[S] {
	return domain.LifecycleHooks[S]{
		OnDispatch: func(_ context.Context, e *domain.DispatchEvent) {
			m.dispatches.WithLabelValues(e.Action).Inc()
		},
		OnCommit: func(_ context.Context, _ S) {
			m.commits.Inc()
		},
		OnEffect: func(_ context.Context, e *domain.EffectEvent) {
			m.effectDuration.WithLabelValues(e.Runner).Observe(e.Duration.Seconds())
			if e.IsError {
				m.effectErrors.WithLabelValues(e.Runner).Inc()
			}
		},
		OnSubscribe: func(_ context.Context, e *domain.SubscriptionEvent) {
			m.subscriptions.WithLabelValues(e.Runner).Inc()
		},
		OnUnsubscribe: func(_ context.Context, e *domain.SubscriptionEvent) {
			m.subscriptions.WithLabelValues(e.Runner).Dec()
		},
	}
}

// Chain merges hook sets; every non-nil callback runs in order.
func Chain[S any](hooks ...domain.LifecycleHooks[S]) domain.LifecycleHooks[S] {
	var out domain.LifecycleHooks[S]
	out.OnDispatch = func(ctx context.Context, e *domain.DispatchEvent) {
		for _, h := range hooks {
			if h.OnDispatch != nil {
				h.OnDispatch(ctx, e)
			}
		}
	}
	out.OnCommit = func(ctx context.Context, s S) {
		for _, h := range hooks {
			if h.OnCommit != nil {
				h.OnCommit(ctx, s)
			}
		}
	}
	out.OnEffect = func(ctx context.Context, e *domain.EffectEvent) {
		for _, h := range hooks {
			if h.OnEffect != nil {
				h.OnEffect(ctx, e)
			}
		}
	}
	out.OnSubscribe = func(ctx context.Context, e *domain.SubscriptionEvent) {
		for _, h := range hooks {
			if h.OnSubscribe != nil {
				h.OnSubscribe(ctx, e)
			}
		}
	}
	out.OnUnsubscribe = func(ctx context.Context, e *domain.SubscriptionEvent) {
		for _, h := range hooks {
			if h.OnUnsubscribe != nil {
				h.OnUnsubscribe(ctx, e)
			}
		}
	}
	return out
}
