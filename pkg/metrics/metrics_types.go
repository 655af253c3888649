package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the application
type Registry struct {
	// Recalculation Metrics
	RecalcsTotal   *prometheus.CounterVec
	RecalcDuration *prometheus.HistogramVec
	RecalcInFlight prometheus.Gauge

	// Result Cache Metrics
	CacheHitsTotal  prometheus.Counter
	CacheStaleTotal prometheus.Counter

	// Result Metrics
	ViolationsByType *prometheus.GaugeVec
	SegmentsByStatus *prometheus.GaugeVec
	RoutingFailures  prometheus.Counter
	SizingFailures   prometheus.Counter

	// Network Metrics
	NetworkNodesTotal    prometheus.Gauge
	NetworkSegmentsTotal prometheus.Gauge
	NetworkCircuitsTotal prometheus.Gauge
	NetworkTrunksTotal   prometheus.Gauge

	registry *prometheus.Registry
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
	}

	r.initRecalcMetrics()
	r.initResultMetrics()
	r.initNetworkMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
