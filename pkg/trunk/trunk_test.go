package trunk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowvolt/conduitcalc/pkg/network"
)

// buildChain wires Equipment E1 -- Junction J -- Chamber C -- Equipment
// E2 with segments S1, S2, S3. The junction passes trunks through; the
// chamber is a cut.
func buildChain(t *testing.T) *network.Network {
	t.Helper()
	net := network.New()
	require.NoError(t, net.AddNode(network.Node{ID: "E1", Kind: network.KindEquipment}))
	require.NoError(t, net.AddNode(network.Node{ID: "J", Kind: network.KindJunction}))
	require.NoError(t, net.AddNode(network.Node{ID: "C", Kind: network.KindChamber}))
	require.NoError(t, net.AddNode(network.Node{ID: "E2", Kind: network.KindEquipment}))
	require.NoError(t, net.AddSegment(network.Segment{ID: "S1", From: "E1", To: "J", Kind: network.KindDuct}))
	require.NoError(t, net.AddSegment(network.Segment{ID: "S2", From: "J", To: "C", Kind: network.KindDuct}))
	require.NoError(t, net.AddSegment(network.Segment{ID: "S3", From: "C", To: "E2", Kind: network.KindDuct}))
	return net
}

func TestConnectedSegmentsStopsAtCuts(t *testing.T) {
	net := buildChain(t)
	mgr := NewManager(net)

	// From S1: through junction J to S2; chamber C stops propagation,
	// so S3 is never reached even though S2 touches C.
	connected, err := mgr.ConnectedSegments("S1")
	require.NoError(t, err)
	assert.Equal(t, []network.SegmentID{"S1", "S2"}, connected)

	connected, err = mgr.ConnectedSegments("S3")
	require.NoError(t, err)
	assert.Equal(t, []network.SegmentID{"S3"}, connected)
}

func TestDeriveAllPartition(t *testing.T) {
	net := buildChain(t)
	mgr := NewManager(net)

	trunks, err := mgr.DeriveAll()
	require.NoError(t, err)
	require.Len(t, trunks, 2)

	// Deterministic labeling, lowest member segment first.
	assert.Equal(t, network.TrunkID("TR-001"), trunks[0].ID)
	assert.Equal(t, []network.SegmentID{"S1", "S2"}, trunks[0].Members)
	assert.Equal(t, []network.SegmentID{"S3"}, trunks[1].Members)

	// Partition is disjoint: no segment in two trunks.
	seen := make(map[network.SegmentID]bool)
	for _, tr := range trunks {
		for _, segID := range tr.Members {
			assert.False(t, seen[segID], "segment %s in two trunks", segID)
			seen[segID] = true
		}
	}
}

func TestDeriveAllStableAcrossRecalculation(t *testing.T) {
	net := buildChain(t)
	mgr := NewManager(net)

	first, err := mgr.DeriveAll()
	require.NoError(t, err)
	second, err := mgr.DeriveAll()
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.Equal(t, first[i].Members, second[i].Members)
	}
}

func TestCreateTrunkWithMixedSelection(t *testing.T) {
	net := buildChain(t)
	mgr := NewManager(net)

	// A mixture of nodes and segments must not error: nodes act as
	// traversal seeds only.
	trunkID, assigned, conflicts, err := mgr.CreateTrunk(Selection{
		Nodes:    []network.NodeID{"J"},
		Segments: []network.SegmentID{"S1"},
	})
	require.NoError(t, err)
	assert.Empty(t, conflicts)
	assert.Equal(t, []network.SegmentID{"S1", "S2"}, assigned)

	seg, err := net.Segment("S2")
	require.NoError(t, err)
	assert.Equal(t, trunkID, seg.Trunk)
}

func TestCreateTrunkReportsConflicts(t *testing.T) {
	net := buildChain(t)
	mgr := NewManager(net)

	_, _, _, err := mgr.CreateTrunk(Selection{Segments: []network.SegmentID{"S1"}})
	require.NoError(t, err)

	// S1/S2 already belong to the first trunk; creating from S2 again
	// reports them as conflicts and assigns nothing.
	_, _, conflicts, err := mgr.CreateTrunk(Selection{Segments: []network.SegmentID{"S2"}})
	require.Error(t, err)
	assert.Equal(t, []network.SegmentID{"S1", "S2"}, conflicts)
}

func TestExtendTrunkAcrossCut(t *testing.T) {
	net := buildChain(t)
	mgr := NewManager(net)

	trunkID, _, _, err := mgr.CreateTrunk(Selection{Segments: []network.SegmentID{"S1"}})
	require.NoError(t, err)

	// S3 is on the far side of the chamber; a manual extend still
	// works and marks the trunk manual.
	require.NoError(t, mgr.ExtendTrunk(trunkID, "S3"))

	trunks := mgr.Trunks()
	require.Len(t, trunks, 1)
	assert.True(t, trunks[0].Manual)
	assert.Equal(t, []network.SegmentID{"S1", "S2", "S3"}, trunks[0].Members)
}

func TestManualMembershipSurvivesDerive(t *testing.T) {
	net := buildChain(t)
	mgr := NewManager(net)

	trunkID, _, _, err := mgr.CreateTrunk(Selection{Segments: []network.SegmentID{"S1"}})
	require.NoError(t, err)
	require.NoError(t, mgr.ExtendTrunk(trunkID, "S3"))

	// Re-deriving must not strip the manual membership.
	_, err = mgr.DeriveAll()
	require.NoError(t, err)

	seg, err := net.Segment("S3")
	require.NoError(t, err)
	assert.Equal(t, trunkID, seg.Trunk)
}

func TestRemoveLastMemberDeletesTrunk(t *testing.T) {
	net := buildChain(t)
	mgr := NewManager(net)

	trunkID, _, _, err := mgr.CreateTrunk(Selection{Segments: []network.SegmentID{"S3"}})
	require.NoError(t, err)

	require.NoError(t, mgr.RemoveFromTrunk(trunkID, "S3"))
	for _, tr := range mgr.Trunks() {
		assert.NotEqual(t, trunkID, tr.ID)
	}

	// Untagged segments are valid.
	seg, err := net.Segment("S3")
	require.NoError(t, err)
	assert.Empty(t, seg.Trunk)
}

func TestExtendUnknownTrunk(t *testing.T) {
	net := buildChain(t)
	mgr := NewManager(net)

	err := mgr.ExtendTrunk("TR-999", "S1")
	assert.ErrorIs(t, err, ErrUnknownTrunk)
}

func TestTrunkIDAllocationSkipsUsed(t *testing.T) {
	net := buildChain(t)
	mgr := NewManager(net)

	id1, _, _, err := mgr.CreateTrunk(Selection{Segments: []network.SegmentID{"S1"}})
	require.NoError(t, err)
	id2, _, _, err := mgr.CreateTrunk(Selection{Segments: []network.SegmentID{"S3"}})
	require.NoError(t, err)
	assert.Equal(t, network.TrunkID("TR-001"), id1)
	assert.Equal(t, network.TrunkID("TR-002"), id2)
}
