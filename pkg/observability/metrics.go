package observability

import (
	"context"
	"net/http"

	"github.com/averycross/waygate/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the engine's Prometheus instruments on a private registry,
// so embedding hosts with their own default registry never collide.
type Metrics struct {
	registry *prometheus.Registry

	transitions *prometheus.CounterVec
	phaseDur    *prometheus.HistogramVec
	attempts    prometheus.Counter
	overrides   prometheus.Counter
	distErr     prometheus.Histogram
}

// NewMetrics creates and registers the instrument set.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "waygate",
			Name:      "transitions_total",
			Help:      "Completed transition pipelines by outcome.",
		}, []string{"outcome", "used_shim"}),
		phaseDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "waygate",
			Name:      "phase_duration_seconds",
			Help:      "Duration of each pipeline phase.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 15, 60, 120},
		}, []string{"phase"}),
		attempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "waygate",
			Name:      "placement_attempts_total",
			Help:      "Placement enforcement cycles run.",
		}),
		overrides: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "waygate",
			Name:      "placement_overrides_total",
			Help:      "Placements overridden by an external system during the monitor window.",
		}),
		distErr: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "waygate",
			Name:      "placement_distance_error",
			Help:      "Distance between intended and settled position per attempt, in world units.",
			Buckets:   []float64{.05, .1, .25, .6, 1, 2.5, 5, 10},
		}),
	}
	m.registry.MustRegister(m.transitions, m.phaseDur, m.attempts, m.overrides, m.distErr)
	return m
}

// Hooks returns lifecycle hooks that feed these instruments. Merge with
// other hooks manually if the host needs both.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnPhaseEnd: func(_ context.Context, ev *domain.PhaseEvent) {
			m.phaseDur.WithLabelValues(string(ev.Phase)).Observe(ev.Duration.Seconds())
		},
		OnAttempt: func(_ context.Context, ev *domain.AttemptEvent) {
			m.attempts.Inc()
			m.distErr.Observe(ev.Attempt.DistanceError)
			if ev.Attempt.Overridden {
				m.overrides.Inc()
			}
		},
		OnFinished: func(_ context.Context, res *domain.TransitionResult) {
			outcome := "failure"
			if res.Success {
				outcome = "success"
			}
			shim := "false"
			if res.UsedShim {
				shim = "true"
			}
			m.transitions.WithLabelValues(outcome, shim).Inc()
		},
	}
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for hosts that want to add
// their own collectors next to the engine's.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
