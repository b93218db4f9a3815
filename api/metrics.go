package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/warp/research-incentives/incentive"
)

// Metrics holds the allocation counters and the registry they live in.
// Each Handler owns its registry so tests can build as many as they like.
type Metrics struct {
	registry    *prometheus.Registry
	allocations *prometheus.CounterVec
	unresolved  *prometheus.CounterVec
}

// NewMetrics registers the counters on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		allocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "incentive_allocations_total",
				Help: "Allocation sets computed, by publication type and split mode",
			},
			[]string{"publication_type", "mode"},
		),
		unresolved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "incentive_unresolved_pools_total",
				Help: "Allocation sets carrying a configuration or metric condition",
			},
			[]string{"condition"},
		),
	}
	m.registry.MustRegister(m.allocations, m.unresolved)
	return m
}

// Observe counts one computed set.
func (m *Metrics) Observe(set incentive.AllocationSet) {
	mode := string(set.Split)
	if mode == "" {
		mode = "none"
	}
	m.allocations.WithLabelValues(string(set.PublicationType), mode).Inc()
	if set.Condition != incentive.ConditionNone {
		m.unresolved.WithLabelValues(string(set.Condition)).Inc()
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
