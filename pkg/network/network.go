package network

import (
	"sort"
	"sync"
)

// DefaultScale converts drawing units to meters when a segment has no
// declared length. Matches the legacy canvas scale.
const DefaultScale = 0.05

// Network is the in-memory model of a conduit/cable-tray network. All
// reads return clones so callers can never mutate stored state behind
// the lock's back.
type Network struct {
	mu sync.RWMutex

	nodes    map[NodeID]*Node
	segments map[SegmentID]*Segment
	circuits map[CircuitID]*Circuit

	// incident indexes node ID -> IDs of segments touching it
	incident map[NodeID][]SegmentID

	// Scale converts drawing-unit distance to meters for segments
	// without a declared length.
	scale float64

	// revision increments on every structural mutation. The result
	// cache uses it as a cheap staleness signal.
	revision uint64
}

// New creates an empty network with the default drawing scale.
func New() *Network {
	return NewWithScale(DefaultScale)
}

// NewWithScale creates an empty network with a custom drawing scale
// (meters per drawing unit).
func NewWithScale(scale float64) *Network {
	if scale <= 0 {
		scale = DefaultScale
	}
	return &Network{
		nodes:    make(map[NodeID]*Node),
		segments: make(map[SegmentID]*Segment),
		circuits: make(map[CircuitID]*Circuit),
		incident: make(map[NodeID][]SegmentID),
		scale:    scale,
	}
}

// Scale returns the drawing scale in meters per drawing unit.
func (n *Network) Scale() float64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.scale
}

// Revision returns the structural revision counter.
func (n *Network) Revision() uint64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.revision
}

// AddNode adds a node. Fails with ErrDuplicateID if the ID is taken.
func (n *Network) AddNode(node Node) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, exists := n.nodes[node.ID]; exists {
		return nodeError("AddNode", node.ID, ErrDuplicateID)
	}
	n.nodes[node.ID] = node.Clone()
	n.incident[node.ID] = make([]SegmentID, 0)
	n.revision++
	return nil
}

// Node retrieves a node by ID.
func (n *Network) Node(id NodeID) (*Node, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	node, exists := n.nodes[id]
	if !exists {
		return nil, nodeError("Node", id, ErrNodeNotFound)
	}
	return node.Clone(), nil
}

// Nodes returns all nodes sorted by ID for deterministic iteration.
func (n *Network) Nodes() []*Node {
	n.mu.RLock()
	defer n.mu.RUnlock()

	out := make([]*Node, 0, len(n.nodes))
	for _, node := range n.nodes {
		out = append(out, node.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// MoveNode updates a node's committed position. Positions feed routing
// weights, so a move is a structural mutation.
func (n *Network) MoveNode(id NodeID, pos Position) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	node, exists := n.nodes[id]
	if !exists {
		return nodeError("MoveNode", id, ErrNodeNotFound)
	}
	node.Pos = pos
	n.revision++
	return nil
}

// RemoveNode removes a node and cascades to its incident segments.
func (n *Network) RemoveNode(id NodeID) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, exists := n.nodes[id]; !exists {
		return nodeError("RemoveNode", id, ErrNodeNotFound)
	}
	for _, segID := range append([]SegmentID(nil), n.incident[id]...) {
		n.removeSegmentLocked(segID)
	}
	delete(n.nodes, id)
	delete(n.incident, id)
	n.revision++
	return nil
}

// AddSegment adds a segment between two distinct existing nodes. Fails
// with ErrSelfLoop when the endpoints are identical, leaving the
// segment collection unchanged.
func (n *Network) AddSegment(seg Segment) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if seg.From == seg.To {
		return segmentError("AddSegment", seg.ID, ErrSelfLoop)
	}
	if _, exists := n.segments[seg.ID]; exists {
		return segmentError("AddSegment", seg.ID, ErrDuplicateID)
	}
	if _, exists := n.nodes[seg.From]; !exists {
		return nodeError("AddSegment", seg.From, ErrNodeNotFound)
	}
	if _, exists := n.nodes[seg.To]; !exists {
		return nodeError("AddSegment", seg.To, ErrNodeNotFound)
	}
	if seg.Quantity < 1 {
		seg.Quantity = 1
	}
	stored := seg.Clone()
	normalizeConduits(stored)

	n.segments[seg.ID] = stored
	n.incident[seg.From] = append(n.incident[seg.From], seg.ID)
	n.incident[seg.To] = append(n.incident[seg.To], seg.ID)
	n.revision++
	return nil
}

// Segment retrieves a segment by ID.
func (n *Network) Segment(id SegmentID) (*Segment, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	seg, exists := n.segments[id]
	if !exists {
		return nil, segmentError("Segment", id, ErrSegmentNotFound)
	}
	return seg.Clone(), nil
}

// Segments returns all segments sorted by ID.
func (n *Network) Segments() []*Segment {
	n.mu.RLock()
	defer n.mu.RUnlock()

	out := make([]*Segment, 0, len(n.segments))
	for _, seg := range n.segments {
		out = append(out, seg.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// IncidentSegments returns the IDs of segments touching a node, sorted
// for deterministic traversal.
func (n *Network) IncidentSegments(id NodeID) ([]SegmentID, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if _, exists := n.nodes[id]; !exists {
		return nil, nodeError("IncidentSegments", id, ErrNodeNotFound)
	}
	out := append([]SegmentID(nil), n.incident[id]...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// RemoveSegment removes a segment, detaching it from any trunk and
// marking dependent circuit routes stale.
func (n *Network) RemoveSegment(id SegmentID) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, exists := n.segments[id]; !exists {
		return segmentError("RemoveSegment", id, ErrSegmentNotFound)
	}
	n.removeSegmentLocked(id)
	n.revision++
	return nil
}

func (n *Network) removeSegmentLocked(id SegmentID) {
	seg := n.segments[id]
	n.incident[seg.From] = dropSegmentID(n.incident[seg.From], id)
	n.incident[seg.To] = dropSegmentID(n.incident[seg.To], id)
	delete(n.segments, id)

	for _, circ := range n.circuits {
		for _, routed := range circ.Route {
			if routed == id {
				circ.RouteStale = true
				break
			}
		}
	}
}

// SetSegmentSizing updates a segment's size reference and conduit
// quantity. Existing circuit-to-conduit assignments are preserved up to
// the new quantity; assignments on removed conduits are dropped.
func (n *Network) SetSegmentSizing(id SegmentID, sizeRef string, quantity int) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	seg, exists := n.segments[id]
	if !exists {
		return segmentError("SetSegmentSizing", id, ErrSegmentNotFound)
	}
	if quantity < 1 {
		quantity = 1
	}
	seg.SizeRef = sizeRef
	seg.Quantity = quantity
	normalizeConduits(seg)
	n.revision++
	return nil
}

// SetSegmentMode switches a segment between auto and manual sizing.
// The current size reference and quantity are kept either way.
func (n *Network) SetSegmentMode(id SegmentID, mode SizingMode) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	seg, exists := n.segments[id]
	if !exists {
		return segmentError("SetSegmentMode", id, ErrSegmentNotFound)
	}
	if seg.Mode == mode {
		return nil
	}
	seg.Mode = mode
	n.revision++
	return nil
}

// SetSegmentTrunk tags or untags a segment's trunk membership. An empty
// trunk ID clears the tag. Trunk bookkeeping lives in the trunk
// package; the tag itself is part of the structural model.
func (n *Network) SetSegmentTrunk(id SegmentID, trunk TrunkID) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	seg, exists := n.segments[id]
	if !exists {
		return segmentError("SetSegmentTrunk", id, ErrSegmentNotFound)
	}
	if seg.Trunk == trunk {
		return nil
	}
	seg.Trunk = trunk
	n.revision++
	return nil
}

// AddCircuit adds a circuit. Its endpoints must exist.
func (n *Network) AddCircuit(circ Circuit) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, exists := n.circuits[circ.ID]; exists {
		return circuitError("AddCircuit", circ.ID, ErrDuplicateID)
	}
	if _, exists := n.nodes[circ.From]; !exists {
		return nodeError("AddCircuit", circ.From, ErrNodeNotFound)
	}
	if _, exists := n.nodes[circ.To]; !exists {
		return nodeError("AddCircuit", circ.To, ErrNodeNotFound)
	}
	if circ.Qty < 1 {
		circ.Qty = 1
	}
	n.circuits[circ.ID] = circ.Clone()
	n.revision++
	return nil
}

// Circuit retrieves a circuit by ID.
func (n *Network) Circuit(id CircuitID) (*Circuit, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	circ, exists := n.circuits[id]
	if !exists {
		return nil, circuitError("Circuit", id, ErrCircuitNotFound)
	}
	return circ.Clone(), nil
}

// Circuits returns all circuits sorted by ID.
func (n *Network) Circuits() []*Circuit {
	n.mu.RLock()
	defer n.mu.RUnlock()

	out := make([]*Circuit, 0, len(n.circuits))
	for _, circ := range n.circuits {
		out = append(out, circ.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// RemoveCircuit removes a circuit and its conduit assignments.
func (n *Network) RemoveCircuit(id CircuitID) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, exists := n.circuits[id]; !exists {
		return circuitError("RemoveCircuit", id, ErrCircuitNotFound)
	}
	delete(n.circuits, id)
	for _, seg := range n.segments {
		for i := range seg.Conduits {
			seg.Conduits[i].Circuits = dropCircuitID(seg.Conduits[i].Circuits, id)
		}
	}
	n.revision++
	return nil
}

// SetCircuitRoute stores a computed route on the circuit and clears its
// stale flag. Persisting the route is the caller's responsibility per
// the router contract.
func (n *Network) SetCircuitRoute(id CircuitID, route []SegmentID) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	circ, exists := n.circuits[id]
	if !exists {
		return circuitError("SetCircuitRoute", id, ErrCircuitNotFound)
	}
	circ.Route = append([]SegmentID(nil), route...)
	circ.RouteStale = false
	n.revision++
	return nil
}

// AssignCircuit places a circuit into one conduit of a segment. The
// conduit index is zero-based and must be within the segment's
// quantity. Assigning an already-assigned circuit is a no-op.
func (n *Network) AssignCircuit(circuitID CircuitID, segmentID SegmentID, conduitIndex int) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, exists := n.circuits[circuitID]; !exists {
		return circuitError("AssignCircuit", circuitID, ErrCircuitNotFound)
	}
	seg, exists := n.segments[segmentID]
	if !exists {
		return segmentError("AssignCircuit", segmentID, ErrSegmentNotFound)
	}
	if conduitIndex < 0 || conduitIndex >= len(seg.Conduits) {
		return segmentError("AssignCircuit", segmentID, ErrConduitIndex)
	}
	// Drop any previous assignment within this segment first.
	for i := range seg.Conduits {
		seg.Conduits[i].Circuits = dropCircuitID(seg.Conduits[i].Circuits, circuitID)
	}
	seg.Conduits[conduitIndex].Circuits = append(seg.Conduits[conduitIndex].Circuits, circuitID)
	n.revision++
	return nil
}

// UnassignCircuit removes a circuit from every conduit of a segment.
func (n *Network) UnassignCircuit(circuitID CircuitID, segmentID SegmentID) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	seg, exists := n.segments[segmentID]
	if !exists {
		return segmentError("UnassignCircuit", segmentID, ErrSegmentNotFound)
	}
	changed := false
	for i := range seg.Conduits {
		before := len(seg.Conduits[i].Circuits)
		seg.Conduits[i].Circuits = dropCircuitID(seg.Conduits[i].Circuits, circuitID)
		if len(seg.Conduits[i].Circuits) != before {
			changed = true
		}
	}
	if changed {
		n.revision++
	}
	return nil
}

// SegmentWeight returns the routing weight of a segment: its declared
// length in meters when present, else the scaled Euclidean distance
// between its endpoints.
func (n *Network) SegmentWeight(id SegmentID) (float64, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	seg, exists := n.segments[id]
	if !exists {
		return 0, segmentError("SegmentWeight", id, ErrSegmentNotFound)
	}
	if seg.LengthM > 0 {
		return seg.LengthM, nil
	}
	from, okFrom := n.nodes[seg.From]
	to, okTo := n.nodes[seg.To]
	if !okFrom || !okTo {
		return 1.0, nil
	}
	return from.Pos.DistanceTo(to.Pos) * n.scale, nil
}

// Counts returns the node, segment, and circuit counts.
func (n *Network) Counts() (nodes, segments, circuits int) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.nodes), len(n.segments), len(n.circuits)
}

// normalizeConduits resizes the conduit slice to match Quantity while
// preserving existing assignments.
func normalizeConduits(seg *Segment) {
	for len(seg.Conduits) < seg.Quantity {
		seg.Conduits = append(seg.Conduits, Conduit{Circuits: make([]CircuitID, 0)})
	}
	if len(seg.Conduits) > seg.Quantity {
		seg.Conduits = seg.Conduits[:seg.Quantity]
	}
	for i := range seg.Conduits {
		if seg.Conduits[i].Circuits == nil {
			seg.Conduits[i].Circuits = make([]CircuitID, 0)
		}
	}
}

func dropSegmentID(ids []SegmentID, id SegmentID) []SegmentID {
	out := ids[:0]
	for _, candidate := range ids {
		if candidate != id {
			out = append(out, candidate)
		}
	}
	return out
}

func dropCircuitID(ids []CircuitID, id CircuitID) []CircuitID {
	out := ids[:0]
	for _, candidate := range ids {
		if candidate != id {
			out = append(out, candidate)
		}
	}
	return out
}
