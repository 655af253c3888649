package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initNetworkMetrics() {
	r.NetworkNodesTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "conduitcalc_network_nodes_total",
			Help: "Total number of nodes in the network",
		},
	)

	r.NetworkSegmentsTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "conduitcalc_network_segments_total",
			Help: "Total number of segments in the network",
		},
	)

	r.NetworkCircuitsTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "conduitcalc_network_circuits_total",
			Help: "Total number of circuits in the network",
		},
	)

	r.NetworkTrunksTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "conduitcalc_network_trunks_total",
			Help: "Total number of trunks in the network",
		},
	)
}
