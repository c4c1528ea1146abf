package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/apc/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "apc"

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	Transitions *prometheus.CounterVec
	Detections  *prometheus.CounterVec
	Actions     *prometheus.CounterVec
	ModeEntries *prometheus.CounterVec
	Turns       *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on a private registry
// together with the Go and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "transitions_total",
				Help:      "Dispatched events by source mode, target mode and event type.",
			},
			[]string{"from", "to", "event"},
		),
		Detections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "detections_total",
				Help:      "Passive triggers found in free text, by kind.",
			},
			[]string{"kind"},
		),
		Actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "actions_total",
				Help:      "Applied action records by kind.",
			},
			[]string{"kind"},
		),
		ModeEntries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "mode_entries_total",
				Help:      "Times a conversation entered a mode from a different one.",
			},
			[]string{"mode"},
		),
		Turns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "turns_total",
				Help:      "Conversation turns served, by transport and outcome.",
			},
			[]string{"transport", "outcome"},
		),
	}
	m.registry.MustRegister(
		m.Transitions, m.Detections, m.Actions, m.ModeEntries, m.Turns,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the registry the collectors live in.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveTurn counts a served turn. Outcome is "ok" or "error".
func (m *Metrics) ObserveTurn(transport string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.Turns.WithLabelValues(transport, outcome).Inc()
}

// Hooks returns lifecycle hooks that feed the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(_ context.Context, e *domain.TransitionEvent) {
			m.Transitions.WithLabelValues(string(e.From), string(e.To), string(e.Event)).Inc()
			if e.From != e.To {
				m.ModeEntries.WithLabelValues(string(e.To)).Inc()
			}
		},
		OnDetect: func(_ context.Context, e *domain.DetectionEvent) {
			if e.Rethink {
				m.Detections.WithLabelValues("rethink").Inc()
			}
			if e.Iteration {
				m.Detections.WithLabelValues("iteration").Inc()
			}
		},
		OnAction: func(_ context.Context, e *domain.ActionEvent) {
			m.Actions.WithLabelValues(string(e.Action.Kind)).Inc()
		},
	}
}
