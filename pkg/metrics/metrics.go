// Package metrics exposes Prometheus instrumentation for the environment
// identification engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metrics for the engine.
type Registry struct {
	SitesProcessedTotal *prometheus.CounterVec
	SiteDuration        prometheus.Histogram

	CSMEvaluationsTotal *prometheus.CounterVec
	CSMValues           prometheus.Histogram

	NeighborSetsPerSite prometheus.Histogram
	HintExpansionsTotal prometheus.Counter

	registry *prometheus.Registry
}

// NewRegistry creates a registry with all engine metrics registered under
// a private Prometheus registry.
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}

	r.SitesProcessedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "chemenv_sites_processed_total",
			Help: "Sites processed by the environment engine",
		},
		[]string{"status"},
	)
	r.SiteDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chemenv_site_duration_seconds",
			Help:    "Wall time spent on one site",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		},
	)
	r.CSMEvaluationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "chemenv_csm_evaluations_total",
			Help: "Symmetry measure evaluations by search mode",
		},
		[]string{"mode"},
	)
	r.CSMValues = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chemenv_csm_value",
			Help:    "Distribution of computed continuous symmetry measures",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 20, 50, 100},
		},
	)
	r.NeighborSetsPerSite = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chemenv_neighbor_sets_per_site",
			Help:    "Distinct neighbor sets enumerated per site",
			Buckets: []float64{1, 2, 4, 8, 16, 32, 64},
		},
	)
	r.HintExpansionsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "chemenv_hint_expansions_total",
			Help: "Neighbor set widenings triggered by poor matches",
		},
	)
	return r
}

// RecordSite records the completion of one site.
func (r *Registry) RecordSite(ok bool, duration time.Duration) {
	status := "ok"
	if !ok {
		status = "failed"
	}
	r.SitesProcessedTotal.WithLabelValues(status).Inc()
	r.SiteDuration.Observe(duration.Seconds())
}

// RecordCSM records one symmetry measure evaluation.
func (r *Registry) RecordCSM(approximate bool, value float64) {
	mode := "exact"
	if approximate {
		mode = "heuristic"
	}
	r.CSMEvaluationsTotal.WithLabelValues(mode).Inc()
	r.CSMValues.Observe(value)
}

// RecordNeighborSets records how many distinct sets one site produced.
func (r *Registry) RecordNeighborSets(n int) {
	r.NeighborSetsPerSite.Observe(float64(n))
}

// RecordHintExpansion records one hint widening step.
func (r *Registry) RecordHintExpansion() {
	r.HintExpansionsTotal.Inc()
}

// Gatherer exposes the underlying registry for scraping and tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}
