package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/canopy/pkg/domain"
)

// Metrics holds the Prometheus collectors for canopy.
type Metrics struct {
	Actions            *prometheus.CounterVec
	ActionDuration     *prometheus.HistogramVec
	Generations        *prometheus.CounterVec
	GenerationDuration prometheus.Histogram
	RenderElements     prometheus.Histogram
	Placeholders       prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "canopy_actions_total",
				Help: "Action executions by type and outcome (direct, queued, fallback, failed).",
			},
			[]string{"type", "outcome"},
		),
		ActionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "canopy_action_duration_seconds",
				Help:    "Duration of action executions.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		Generations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "canopy_generations_total",
				Help: "Generation requests by outcome (ok, error).",
			},
			[]string{"outcome"},
		),
		GenerationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "canopy_generation_duration_seconds",
			Help:    "Duration of generation requests.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
		}),
		RenderElements: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "canopy_render_elements",
			Help:    "Elements produced per render.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		Placeholders: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "canopy_render_placeholders_total",
			Help: "Placeholders rendered for unknown or broken nodes.",
		}),
	}
	reg.MustRegister(m.Actions, m.ActionDuration, m.Generations, m.GenerationDuration, m.RenderElements, m.Placeholders)
	return m
}

// Hooks records lifecycle events into the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRender: func(_ context.Context, e *domain.RenderEvent) {
			m.RenderElements.Observe(float64(e.Elements))
			m.Placeholders.Add(float64(e.Placeholders))
		},
		OnAction: func(_ context.Context, e *domain.ActionEvent) {
			m.Actions.WithLabelValues(e.ActionType, e.Outcome).Inc()
			m.ActionDuration.WithLabelValues(e.Outcome).Observe(e.Duration.Seconds())
		},
		OnGenerate: func(_ context.Context, e *domain.GenerateEvent) {
			outcome := "ok"
			if e.Error != "" {
				outcome = "error"
			}
			m.Generations.WithLabelValues(outcome).Inc()
			m.GenerationDuration.Observe(e.Duration.Seconds())
		},
	}
}
