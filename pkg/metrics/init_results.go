package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initResultMetrics() {
	r.ViolationsByType = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "conduitcalc_violations",
			Help: "Violations in the latest result set by type",
		},
		[]string{"type"},
	)

	r.SegmentsByStatus = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "conduitcalc_segments_by_status",
			Help: "Segments in the latest result set by status",
		},
		[]string{"status"},
	)

	r.RoutingFailures = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "conduitcalc_routing_failures_total",
			Help: "Total number of circuits that could not be routed",
		},
	)

	r.SizingFailures = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "conduitcalc_sizing_failures_total",
			Help: "Total number of auto-sizing searches that found no feasible entry",
		},
	)
}
