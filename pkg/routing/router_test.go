package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowvolt/conduitcalc/pkg/network"
)

// buildLadder wires N1 -- N2 -- N3 with declared lengths plus a direct
// long segment N1 -- N3.
func buildLadder(t *testing.T) *network.Network {
	t.Helper()
	net := network.New()
	require.NoError(t, net.AddNode(network.Node{ID: "N1", Kind: network.KindEquipment}))
	require.NoError(t, net.AddNode(network.Node{ID: "N2", Kind: network.KindJunction}))
	require.NoError(t, net.AddNode(network.Node{ID: "N3", Kind: network.KindEquipment}))
	require.NoError(t, net.AddSegment(network.Segment{ID: "E1", From: "N1", To: "N2", Kind: network.KindDuct, LengthM: 5}))
	require.NoError(t, net.AddSegment(network.Segment{ID: "E2", From: "N2", To: "N3", Kind: network.KindDuct, LengthM: 5}))
	require.NoError(t, net.AddSegment(network.Segment{ID: "E3", From: "N1", To: "N3", Kind: network.KindDuct, LengthM: 50}))
	return net
}

func TestRouteShortestByLength(t *testing.T) {
	net := buildLadder(t)
	circ := &network.Circuit{ID: "C1", From: "N1", To: "N3"}

	path, err := Route(net, circ)
	require.NoError(t, err)
	assert.Equal(t, []network.SegmentID{"E1", "E2"}, path)
}

func TestRouteDeterministicOnEqualWeights(t *testing.T) {
	net := network.New()
	require.NoError(t, net.AddNode(network.Node{ID: "N1", Kind: network.KindEquipment}))
	require.NoError(t, net.AddNode(network.Node{ID: "N2", Kind: network.KindEquipment}))
	// Two parallel segments with identical weight; lowest ID must win.
	require.NoError(t, net.AddSegment(network.Segment{ID: "E5", From: "N1", To: "N2", Kind: network.KindDuct, LengthM: 10}))
	require.NoError(t, net.AddSegment(network.Segment{ID: "E2", From: "N1", To: "N2", Kind: network.KindDuct, LengthM: 10}))

	circ := &network.Circuit{ID: "C1", From: "N1", To: "N2"}
	first, err := Route(net, circ)
	require.NoError(t, err)
	assert.Equal(t, []network.SegmentID{"E2"}, first)

	for i := 0; i < 10; i++ {
		again, err := Route(net, circ)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestRouteDisconnected(t *testing.T) {
	net := network.New()
	require.NoError(t, net.AddNode(network.Node{ID: "N1", Kind: network.KindEquipment}))
	require.NoError(t, net.AddNode(network.Node{ID: "N2", Kind: network.KindEquipment}))

	_, err := Route(net, &network.Circuit{ID: "C1", From: "N1", To: "N2"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRouteNotFound)

	var routeErr *RouteError
	require.ErrorAs(t, err, &routeErr)
	assert.Equal(t, network.CircuitID("C1"), routeErr.Circuit)
}

func TestRouteSameSourceAndDestination(t *testing.T) {
	net := buildLadder(t)
	path, err := Route(net, &network.Circuit{ID: "C1", From: "N1", To: "N1"})
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestRouteEuclideanFallback(t *testing.T) {
	net := network.New()
	require.NoError(t, net.AddNode(network.Node{ID: "N1", Kind: network.KindEquipment, Pos: network.Position{X: 0, Y: 0}}))
	require.NoError(t, net.AddNode(network.Node{ID: "N2", Kind: network.KindJunction, Pos: network.Position{X: 100, Y: 0}}))
	require.NoError(t, net.AddNode(network.Node{ID: "N3", Kind: network.KindEquipment, Pos: network.Position{X: 100, Y: 100}}))
	// No declared lengths: weights come from scaled positions.
	require.NoError(t, net.AddSegment(network.Segment{ID: "E1", From: "N1", To: "N2", Kind: network.KindDuct}))
	require.NoError(t, net.AddSegment(network.Segment{ID: "E2", From: "N2", To: "N3", Kind: network.KindDuct}))
	// Direct diagonal is shorter than the two legs.
	require.NoError(t, net.AddSegment(network.Segment{ID: "E3", From: "N1", To: "N3", Kind: network.KindDuct}))

	path, err := Route(net, &network.Circuit{ID: "C1", From: "N1", To: "N3"})
	require.NoError(t, err)
	assert.Equal(t, []network.SegmentID{"E3"}, path)
}

func TestRouteAllReportsPerCircuitFailures(t *testing.T) {
	net := buildLadder(t)
	require.NoError(t, net.AddNode(network.Node{ID: "N9", Kind: network.KindEquipment}))
	require.NoError(t, net.AddCircuit(network.Circuit{ID: "C1", Service: "power", From: "N1", To: "N3"}))
	require.NoError(t, net.AddCircuit(network.Circuit{ID: "C2", Service: "power", From: "N1", To: "N9"}))

	failures := RouteAll(net)
	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures["C2"], ErrRouteNotFound)

	circ, err := net.Circuit("C1")
	require.NoError(t, err)
	assert.Equal(t, []network.SegmentID{"E1", "E2"}, circ.Route)
	assert.False(t, circ.RouteStale)
}
