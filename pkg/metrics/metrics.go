package metrics

import (
	"time"
)

// RecordRecalc records a finished recalculation with its trigger reason
// and outcome
func (r *Registry) RecordRecalc(reason, status string, duration time.Duration) {
	r.RecalcsTotal.WithLabelValues(reason, status).Inc()
	r.RecalcDuration.WithLabelValues(reason).Observe(duration.Seconds())
}

// RecordCacheHit records a result read served from a fresh cache
func (r *Registry) RecordCacheHit() {
	r.CacheHitsTotal.Inc()
}

// RecordCacheStale records a result read rejected as stale
func (r *Registry) RecordCacheStale() {
	r.CacheStaleTotal.Inc()
}

// UpdateNetworkCounts updates the network size gauges
func (r *Registry) UpdateNetworkCounts(nodes, segments, circuits, trunks int) {
	r.NetworkNodesTotal.Set(float64(nodes))
	r.NetworkSegmentsTotal.Set(float64(segments))
	r.NetworkCircuitsTotal.Set(float64(circuits))
	r.NetworkTrunksTotal.Set(float64(trunks))
}

// UpdateResultSummary updates the latest-result gauges from per-type
// violation counts and per-status segment counts
func (r *Registry) UpdateResultSummary(violations map[string]int, segments map[string]int) {
	// Reset known labels so vanished types drop to zero
	for _, vt := range []string{"SeparationViolation", "FillViolation", "LayerViolation"} {
		r.ViolationsByType.WithLabelValues(vt).Set(0)
	}
	for _, st := range []string{"ok", "warn", "error"} {
		r.SegmentsByStatus.WithLabelValues(st).Set(0)
	}
	for vt, n := range violations {
		r.ViolationsByType.WithLabelValues(vt).Set(float64(n))
	}
	for st, n := range segments {
		r.SegmentsByStatus.WithLabelValues(st).Set(float64(n))
	}
}
