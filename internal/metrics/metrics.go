// Package metrics exposes Prometheus instrumentation for turn
// execution, bridged into the engine through lifecycle hooks.
package metrics

import (
	"context"

	"github.com/lablia/docflow/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors for agent execution.
type Metrics struct {
	AgentRuns     *prometheus.CounterVec
	RoutingTotal  *prometheus.CounterVec
	ModelLatency  *prometheus.HistogramVec
	ModelFailures *prometheus.CounterVec
}

// New creates the collectors and registers them on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AgentRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docflow_agent_runs_total",
				Help: "Total number of agent executions, by agent and kind",
			},
			[]string{"agent", "kind"},
		),
		RoutingTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docflow_routing_total",
				Help: "Routing decisions, by coordinator and selected child",
			},
			[]string{"coordinator", "child"},
		),
		ModelLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "docflow_model_call_duration_seconds",
				Help:    "Duration of model calls",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"model"},
		),
		ModelFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docflow_model_failures_total",
				Help: "Failed model calls, by model",
			},
			[]string{"model"},
		),
	}
	reg.MustRegister(m.AgentRuns, m.RoutingTotal, m.ModelLatency, m.ModelFailures)
	return m
}

// Hooks bridges the collectors into engine lifecycle hooks.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnAgentEnter: func(ctx context.Context, e *domain.AgentEvent) {
			m.AgentRuns.WithLabelValues(e.Name, string(e.Kind)).Inc()
		},
		OnRoute: func(ctx context.Context, e *domain.RouteEvent) {
			m.RoutingTotal.WithLabelValues(e.Coordinator, e.Child).Inc()
		},
		OnModelCall: func(ctx context.Context, e *domain.ModelEvent) {
			m.ModelLatency.WithLabelValues(e.Model).Observe(e.Duration.Seconds())
			if e.IsError {
				m.ModelFailures.WithLabelValues(e.Model).Inc()
			}
		},
	}
}
