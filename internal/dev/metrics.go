package dev

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the orchestrator's Prometheus collectors.
type Metrics struct {
	compiles  *prometheus.CounterVec
	duration  prometheus.Histogram
	routes    prometheus.Gauge
	coalesced prometheus.Counter
}

// NewMetrics registers the orchestrator metrics with reg. A nil reg uses
// the default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		compiles: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "routec",
			Name:      "compile_total",
			Help:      "Total number of compile passes by result",
		}, []string{"result"}),

		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "routec",
			Name:      "compile_duration_seconds",
			Help:      "Duration of compile passes in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}),

		routes: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "routec",
			Name:      "routes",
			Help:      "Number of routes in the last good table",
		}),

		coalesced: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "routec",
			Name:      "coalesced_triggers_total",
			Help:      "Triggers folded into an already scheduled pass",
		}),
	}
}

func (m *Metrics) pass(ok bool, seconds float64, routes int) {
	if m == nil {
		return
	}
	result := "error"
	if ok {
		result = "ok"
		m.routes.Set(float64(routes))
	}
	m.compiles.WithLabelValues(result).Inc()
	m.duration.Observe(seconds)
}

func (m *Metrics) coalesce() {
	if m != nil {
		m.coalesced.Inc()
	}
}
