// Package routing computes circuit routes over the conduit network.
package routing

import (
	"errors"
	"fmt"

	"github.com/lowvolt/conduitcalc/pkg/network"
)

// ErrRouteNotFound is returned when a circuit's endpoints are in
// disconnected components.
var ErrRouteNotFound = errors.New("no route between circuit endpoints")

// RouteError carries the circuit and endpoints that failed to route.
type RouteError struct {
	Circuit network.CircuitID
	From    network.NodeID
	To      network.NodeID
	Cause   error
}

// Error implements the error interface.
func (e *RouteError) Error() string {
	return fmt.Sprintf("route circuit %s (%s -> %s): %v", e.Circuit, e.From, e.To, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *RouteError) Unwrap() error {
	return e.Cause
}

// Route computes the shortest path between a circuit's declared source
// and destination using Dijkstra. Edge weight is the segment's declared
// length when present, else the scaled Euclidean distance between its
// endpoints. Ties are broken by lowest segment ID so repeated calls on
// an unchanged network return the identical sequence.
//
// Route has no side effects; persisting the result into the circuit is
// the caller's responsibility.
func Route(net *network.Network, circ *network.Circuit) ([]network.SegmentID, error) {
	if circ.From == circ.To {
		return []network.SegmentID{}, nil
	}
	if _, err := net.Node(circ.From); err != nil {
		return nil, &RouteError{Circuit: circ.ID, From: circ.From, To: circ.To, Cause: err}
	}
	if _, err := net.Node(circ.To); err != nil {
		return nil, &RouteError{Circuit: circ.ID, From: circ.From, To: circ.To, Cause: err}
	}

	type arrival struct {
		prevNode network.NodeID
		viaSeg   network.SegmentID
	}

	dist := map[network.NodeID]float64{circ.From: 0}
	prev := make(map[network.NodeID]arrival)
	visited := make(map[network.NodeID]bool)

	// Simple slice-backed priority queue; networks are small (tens to
	// low hundreds of nodes), so a heap buys nothing.
	type pqItem struct {
		node     network.NodeID
		distance float64
	}
	pq := []pqItem{{circ.From, 0}}

	for len(pq) > 0 {
		minIdx := 0
		for i := 1; i < len(pq); i++ {
			if pq[i].distance < pq[minIdx].distance ||
				(pq[i].distance == pq[minIdx].distance && pq[i].node < pq[minIdx].node) {
				minIdx = i
			}
		}
		current := pq[minIdx]
		pq = append(pq[:minIdx], pq[minIdx+1:]...)

		if visited[current.node] {
			continue
		}
		visited[current.node] = true

		if current.node == circ.To {
			break
		}

		incident, err := net.IncidentSegments(current.node)
		if err != nil {
			continue
		}
		// IncidentSegments returns sorted IDs, so equal-cost
		// relaxations always settle on the lowest segment ID.
		for _, segID := range incident {
			seg, err := net.Segment(segID)
			if err != nil {
				continue
			}
			neighbor, ok := seg.Other(current.node)
			if !ok || visited[neighbor] {
				continue
			}
			weight, err := net.SegmentWeight(segID)
			if err != nil {
				continue
			}
			candidate := current.distance + weight
			old, seen := dist[neighbor]
			switch {
			case !seen || candidate < old:
				dist[neighbor] = candidate
				prev[neighbor] = arrival{prevNode: current.node, viaSeg: segID}
				pq = append(pq, pqItem{neighbor, candidate})
			case candidate == old && segID < prev[neighbor].viaSeg:
				prev[neighbor] = arrival{prevNode: current.node, viaSeg: segID}
			}
		}
	}

	if _, reached := prev[circ.To]; !reached {
		return nil, &RouteError{Circuit: circ.ID, From: circ.From, To: circ.To, Cause: ErrRouteNotFound}
	}

	// Reconstruct segment sequence from destination back to source.
	path := make([]network.SegmentID, 0)
	node := circ.To
	for node != circ.From {
		step := prev[node]
		path = append(path, step.viaSeg)
		node = step.prevNode
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}

// RouteAll recomputes routes for every circuit, returning per-circuit
// errors without aborting the remaining circuits. Successful routes are
// persisted back into the network.
func RouteAll(net *network.Network) map[network.CircuitID]error {
	failures := make(map[network.CircuitID]error)
	for _, circ := range net.Circuits() {
		path, err := Route(net, circ)
		if err != nil {
			failures[circ.ID] = err
			continue
		}
		if err := net.SetCircuitRoute(circ.ID, path); err != nil {
			failures[circ.ID] = err
		}
	}
	return failures
}
