package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initRecalcMetrics() {
	r.RecalcsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "conduitcalc_recalcs_total",
			Help: "Total number of recalculations by trigger reason and outcome",
		},
		[]string{"reason", "status"},
	)

	r.RecalcDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "conduitcalc_recalc_duration_seconds",
			Help:    "Recalculation duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		},
		[]string{"reason"},
	)

	r.RecalcInFlight = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "conduitcalc_recalc_in_flight",
			Help: "Whether a recalculation is currently running (0 or 1)",
		},
	)

	r.CacheHitsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "conduitcalc_result_cache_hits_total",
			Help: "Total number of result reads served from a fresh cache",
		},
	)

	r.CacheStaleTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "conduitcalc_result_cache_stale_total",
			Help: "Total number of result reads rejected because the cache was stale",
		},
	)
}
