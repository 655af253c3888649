package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowvolt/conduitcalc/pkg/catalog"
	"github.com/lowvolt/conduitcalc/pkg/fill"
	"github.com/lowvolt/conduitcalc/pkg/network"
	"github.com/lowvolt/conduitcalc/pkg/rules"
	"github.com/lowvolt/conduitcalc/pkg/status"
	"github.com/lowvolt/conduitcalc/pkg/trunk"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New("cat-test", "test", []catalog.Entry{
		{ID: "D100", Kind: network.KindDuct, UsableAreaMM2: 100},
		{ID: "D200", Kind: network.KindDuct, UsableAreaMM2: 200},
	}, []catalog.CableSpec{
		{ID: "c10", AreaMM2: 10},
		{ID: "c30", AreaMM2: 30},
	})
	require.NoError(t, err)
	return cat
}

func testRegistry(t *testing.T) *rules.Registry {
	t.Helper()
	reg := rules.NewRegistry()
	require.NoError(t, reg.Add(rules.DefaultPreset()))
	require.NoError(t, reg.SetActive("ss_conventional"))
	return reg
}

// testEngine builds E1 --S1-- J --S2-- E2 with one auto-sized duct
// pair and a single power circuit between the equipment nodes.
func testEngine(t *testing.T) (*Engine, *network.Network) {
	t.Helper()
	net := network.New()
	require.NoError(t, net.AddNode(network.Node{ID: "E1", Kind: network.KindEquipment, Pos: network.Position{X: 0}}))
	require.NoError(t, net.AddNode(network.Node{ID: "J", Kind: network.KindJunction, Pos: network.Position{X: 100}}))
	require.NoError(t, net.AddNode(network.Node{ID: "E2", Kind: network.KindEquipment, Pos: network.Position{X: 200}}))
	require.NoError(t, net.AddSegment(network.Segment{
		ID: "S1", From: "E1", To: "J", Kind: network.KindDuct, Mode: network.ModeAuto, Quantity: 1,
	}))
	require.NoError(t, net.AddSegment(network.Segment{
		ID: "S2", From: "J", To: "E2", Kind: network.KindDuct, Mode: network.ModeAuto, Quantity: 1,
	}))
	require.NoError(t, net.AddCircuit(network.Circuit{
		ID: "C1", Service: "power", CableRef: "c10", Qty: 2, From: "E1", To: "E2",
	}))

	eng := New(net, trunk.NewManager(net), testRegistry(t), testCatalog(t), Config{Workers: 2})
	return eng, net
}

func TestRecalculateFullPipeline(t *testing.T) {
	eng, net := testEngine(t)

	rs, err := eng.Recalculate(context.Background(), ReasonProjectLoaded)
	require.NoError(t, err)

	assert.NotEmpty(t, rs.ID)
	assert.NotEmpty(t, rs.Hash)
	assert.Empty(t, rs.RouteFailures)
	assert.Equal(t, status.Ok, rs.Status)
	require.Len(t, rs.Segments, 2)

	// The circuit was routed across both segments and assigned.
	circ, err := net.Circuit("C1")
	require.NoError(t, err)
	assert.Equal(t, []network.SegmentID{"S1", "S2"}, circ.Route)

	for _, segID := range []network.SegmentID{"S1", "S2"} {
		seg, err := net.Segment(segID)
		require.NoError(t, err)
		assert.Equal(t, "D100", seg.SizeRef, "auto sizing picks the smallest entry")
		require.Len(t, seg.Conduits, 1)
		assert.Contains(t, seg.Conduits[0].Circuits, network.CircuitID("C1"))

		result := rs.Segment(segID)
		require.NotNil(t, result)
		assert.InDelta(t, 20.0, result.Conduits[0].Utilization, 1e-9)
	}

	// Junction pass-through: both segments share one trunk.
	s1, _ := net.Segment("S1")
	s2, _ := net.Segment("S2")
	assert.NotEmpty(t, s1.Trunk)
	assert.Equal(t, s1.Trunk, s2.Trunk)
}

func TestResultsCacheLifecycle(t *testing.T) {
	eng, net := testEngine(t)

	_, err := eng.Results()
	assert.ErrorIs(t, err, ErrNoResults)

	rs, err := eng.Recalculate(context.Background(), ReasonManual)
	require.NoError(t, err)

	cached, err := eng.Results()
	require.NoError(t, err)
	assert.Equal(t, rs.ID, cached.ID)

	// A structural edit invalidates the cache.
	require.NoError(t, net.AddNode(network.Node{ID: "E3", Kind: network.KindEquipment, Pos: network.Position{X: 300}}))
	_, err = eng.Results()
	assert.ErrorIs(t, err, ErrStaleResults)

	// Recalculating refreshes it.
	again, err := eng.Recalculate(context.Background(), ReasonTopologyChanged)
	require.NoError(t, err)
	cached, err = eng.Results()
	require.NoError(t, err)
	assert.Equal(t, again.ID, cached.ID)
	assert.NotEqual(t, rs.ID, again.ID)
}

func TestRecalculateRejectsConcurrentRun(t *testing.T) {
	eng, _ := testEngine(t)

	// Hold the in-flight flag as a running recalculation would.
	require.NoError(t, eng.begin())

	_, err := eng.Recalculate(context.Background(), ReasonManual)
	assert.ErrorIs(t, err, ErrRecalcInProgress)

	// Once the first run finishes, the next one proceeds.
	eng.end()
	rs, err := eng.Recalculate(context.Background(), ReasonManual)
	require.NoError(t, err)
	assert.Equal(t, status.Ok, rs.Status)
}

func TestRecalculateReportsRouteFailures(t *testing.T) {
	eng, net := testEngine(t)
	// An island node with a circuit to it cannot be routed.
	require.NoError(t, net.AddNode(network.Node{ID: "X", Kind: network.KindEquipment, Pos: network.Position{X: 999}}))
	require.NoError(t, net.AddCircuit(network.Circuit{
		ID: "C9", Service: "power", CableRef: "c10", Qty: 1, From: "E1", To: "X",
	}))

	rs, err := eng.Recalculate(context.Background(), ReasonCircuitChanged)
	require.NoError(t, err)

	require.Len(t, rs.RouteFailures, 1)
	assert.Equal(t, network.CircuitID("C9"), rs.RouteFailures[0].Circuit)
	assert.Equal(t, status.Error, rs.Status)
}

func TestRecalculateSizingFailureIsResultLevel(t *testing.T) {
	eng, net := testEngine(t)
	// Nine large incompatible circuits cannot fit any entry within the
	// parallel-run cap.
	for i := 0; i < 9; i++ {
		id := network.CircuitID(string(rune('a' + i)))
		service := "power"
		if i%2 == 0 {
			service = "data"
		}
		require.NoError(t, net.AddCircuit(network.Circuit{
			ID: id, Service: service, CableRef: "c30", Qty: 3, From: "E1", To: "E2",
		}))
	}

	rs, err := eng.Recalculate(context.Background(), ReasonManual)
	require.NoError(t, err)

	result := rs.Segment("S1")
	require.NotNil(t, result)
	assert.Contains(t, result.Err, "no feasible sizing")
	assert.Equal(t, status.Error, rs.Status)

	// The previous (empty) sizing is untouched.
	seg, err := net.Segment("S1")
	require.NoError(t, err)
	assert.Empty(t, seg.SizeRef)
}

func TestRecalculatePreservesManualAssignments(t *testing.T) {
	eng, net := testEngine(t)
	require.NoError(t, net.AddCircuit(network.Circuit{
		ID: "C2", Service: "power", CableRef: "c10", Qty: 1, From: "E1", To: "E2",
	}))

	_, err := eng.Recalculate(context.Background(), ReasonManual)
	require.NoError(t, err)

	// Pin S1 to two manual conduits and move C1 into the second one.
	require.NoError(t, net.SetSegmentMode("S1", network.ModeManual))
	require.NoError(t, net.SetSegmentSizing("S1", "D200", 2))
	require.NoError(t, net.AssignCircuit("C1", "S1", 1))

	_, err = eng.Recalculate(context.Background(), ReasonTopologyChanged)
	require.NoError(t, err)

	seg, err := net.Segment("S1")
	require.NoError(t, err)
	assert.True(t, seg.Conduits[1].Contains("C1"), "existing assignment survives recalculation")
}

func TestRecalculateRequiresActivePreset(t *testing.T) {
	net := network.New()
	eng := New(net, trunk.NewManager(net), rules.NewRegistry(), testCatalog(t), Config{})

	_, err := eng.Recalculate(context.Background(), ReasonManual)
	assert.ErrorIs(t, err, rules.ErrNoActivePreset)
}

func TestRecalculateCancelledContext(t *testing.T) {
	eng, _ := testEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := eng.Recalculate(ctx, ReasonManual)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStructuralHashStability(t *testing.T) {
	_, net := testEngine(t)

	h1, err := StructuralHash(net, "p", "c")
	require.NoError(t, err)
	h2, err := StructuralHash(net, "p", "c")
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	// Derived route state is excluded from the hash.
	require.NoError(t, net.SetCircuitRoute("C1", []network.SegmentID{"S1", "S2"}))
	h3, err := StructuralHash(net, "p", "c")
	require.NoError(t, err)
	assert.Equal(t, h1, h3)

	// Preset and catalog identity are part of it.
	h4, err := StructuralHash(net, "other", "c")
	require.NoError(t, err)
	assert.NotEqual(t, h1, h4)

	// Structural edits change it.
	require.NoError(t, net.SetSegmentSizing("S1", "D200", 2))
	h5, err := StructuralHash(net, "p", "c")
	require.NoError(t, err)
	assert.NotEqual(t, h1, h5)
}

func TestResultSetViolationsFlattened(t *testing.T) {
	eng, net := testEngine(t)
	// Mixed services forced into one manual conduit.
	require.NoError(t, net.AddCircuit(network.Circuit{
		ID: "C2", Service: "data", CableRef: "c10", Qty: 1, From: "E1", To: "E2",
	}))
	for _, id := range []network.SegmentID{"S1", "S2"} {
		require.NoError(t, net.SetSegmentMode(id, network.ModeManual))
		require.NoError(t, net.SetSegmentSizing(id, "D200", 1))
	}

	rs, err := eng.Recalculate(context.Background(), ReasonManual)
	require.NoError(t, err)

	violations := rs.Violations()
	require.NotEmpty(t, violations)
	for _, v := range violations {
		assert.Equal(t, fill.SeparationViolation, v.Type)
	}
	assert.Equal(t, status.Error, rs.Status)
}
