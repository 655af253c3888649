// Package trunk groups contiguous segments into logical trunks bounded
// by cut nodes (equipment, gaps, chambers). Junctions pass trunks
// through; every other node kind stops propagation.
package trunk

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/lowvolt/conduitcalc/pkg/network"
)

var (
	// ErrUnknownTrunk is returned when a trunk ID is not registered.
	ErrUnknownTrunk = errors.New("unknown trunk")
)

// Trunk is a logical grouping of segments treated as one run.
type Trunk struct {
	ID      network.TrunkID
	Members []network.SegmentID // sorted
	Manual  bool                // curated by hand, survives re-derivation
}

// Selection is the input to CreateTrunk: a mixture of nodes and
// segments picked on the editing surface. Nodes act only as traversal
// seeds, never as members.
type Selection struct {
	Nodes    []network.NodeID
	Segments []network.SegmentID
}

// Manager owns trunk identity and the manual/auto distinction. Segment
// membership itself is stored on the segments (the trunk tag is part of
// the structural model); the manager keeps the per-trunk flags and
// allocates stable IDs.
type Manager struct {
	mu     sync.Mutex
	net    *network.Network
	manual map[network.TrunkID]bool
}

// NewManager creates a trunk manager over the given network.
func NewManager(net *network.Network) *Manager {
	return &Manager{
		net:    net,
		manual: make(map[network.TrunkID]bool),
	}
}

// ConnectedSegments returns the segment IDs reachable from the start
// segment without crossing a cut node. The start segment is always
// included; segments touching a cut node are members when reached, the
// cut only stops propagation past the node.
func (m *Manager) ConnectedSegments(start network.SegmentID) ([]network.SegmentID, error) {
	base, err := m.net.Segment(start)
	if err != nil {
		return nil, err
	}

	visited := map[network.SegmentID]bool{start: true}
	visitedNodes := make(map[network.NodeID]bool)
	frontier := make([]network.NodeID, 0, 2)
	for _, endpoint := range []network.NodeID{base.From, base.To} {
		if m.passThrough(endpoint) {
			frontier = append(frontier, endpoint)
		}
	}

	for len(frontier) > 0 {
		nodeID := frontier[0]
		frontier = frontier[1:]
		if visitedNodes[nodeID] {
			continue
		}
		visitedNodes[nodeID] = true

		incident, err := m.net.IncidentSegments(nodeID)
		if err != nil {
			continue
		}
		for _, segID := range incident {
			if visited[segID] {
				continue
			}
			visited[segID] = true
			seg, err := m.net.Segment(segID)
			if err != nil {
				continue
			}
			other, ok := seg.Other(nodeID)
			if ok && m.passThrough(other) {
				frontier = append(frontier, other)
			}
		}
	}

	out := make([]network.SegmentID, 0, len(visited))
	for segID := range visited {
		out = append(out, segID)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// passThrough reports whether traversal may continue past the node.
func (m *Manager) passThrough(id network.NodeID) bool {
	node, err := m.net.Node(id)
	if err != nil {
		return false
	}
	return !node.Kind.IsCut()
}

// CreateTrunk groups the connected, untagged segments reachable from
// the selection into a new trunk. Nodes in the selection seed the
// traversal through their incident segments. Segments already owned by
// another trunk are reported as conflicts and left untouched.
func (m *Manager) CreateTrunk(sel Selection) (network.TrunkID, []network.SegmentID, []network.SegmentID, error) {
	seeds := append([]network.SegmentID(nil), sel.Segments...)
	for _, nodeID := range sel.Nodes {
		incident, err := m.net.IncidentSegments(nodeID)
		if err != nil {
			return "", nil, nil, err
		}
		seeds = append(seeds, incident...)
	}
	if len(seeds) == 0 {
		return "", nil, nil, fmt.Errorf("create trunk: empty selection")
	}

	reached := make(map[network.SegmentID]bool)
	for _, seed := range seeds {
		connected, err := m.ConnectedSegments(seed)
		if err != nil {
			return "", nil, nil, err
		}
		for _, segID := range connected {
			reached[segID] = true
		}
	}

	trunkID := m.nextTrunkID()
	assigned := make([]network.SegmentID, 0, len(reached))
	conflicts := make([]network.SegmentID, 0)
	for segID := range reached {
		seg, err := m.net.Segment(segID)
		if err != nil {
			continue
		}
		switch {
		case seg.Trunk == "" || seg.Trunk == trunkID:
			assigned = append(assigned, segID)
		default:
			conflicts = append(conflicts, segID)
		}
	}
	sort.Slice(assigned, func(i, j int) bool { return assigned[i] < assigned[j] })
	sort.Slice(conflicts, func(i, j int) bool { return conflicts[i] < conflicts[j] })

	if len(assigned) == 0 {
		return "", nil, conflicts, fmt.Errorf("create trunk: no assignable segments in selection")
	}
	for _, segID := range assigned {
		if err := m.net.SetSegmentTrunk(segID, trunkID); err != nil {
			return "", nil, nil, err
		}
	}
	return trunkID, assigned, conflicts, nil
}

// ExtendTrunk manually adds a single segment to a trunk, including
// segments on the far side of a cut. The trunk becomes manual and its
// other members are untouched.
func (m *Manager) ExtendTrunk(id network.TrunkID, segID network.SegmentID) error {
	if !m.trunkExists(id) {
		return fmt.Errorf("extend trunk %s: %w", id, ErrUnknownTrunk)
	}
	if err := m.net.SetSegmentTrunk(segID, id); err != nil {
		return err
	}
	m.mu.Lock()
	m.manual[id] = true
	m.mu.Unlock()
	return nil
}

// RemoveFromTrunk manually removes a segment from a trunk. Removing the
// last member deletes the trunk.
func (m *Manager) RemoveFromTrunk(id network.TrunkID, segID network.SegmentID) error {
	seg, err := m.net.Segment(segID)
	if err != nil {
		return err
	}
	if seg.Trunk != id {
		return fmt.Errorf("remove from trunk %s: segment %s not a member", id, segID)
	}
	if err := m.net.SetSegmentTrunk(segID, ""); err != nil {
		return err
	}
	m.mu.Lock()
	m.manual[id] = true
	m.mu.Unlock()
	m.sweep()
	return nil
}

// Trunks returns the current trunk partition derived from segment tags,
// sorted by trunk ID. Empty trunks are dropped.
func (m *Manager) Trunks() []*Trunk {
	members := m.membership()
	m.sweepAgainst(members)

	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Trunk, 0, len(members))
	for trunkID, segs := range members {
		sort.Slice(segs, func(i, j int) bool { return segs[i] < segs[j] })
		out = append(out, &Trunk{ID: trunkID, Members: segs, Manual: m.manual[trunkID]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// DeriveAll partitions every untagged, non-manual segment into
// automatic trunks by connectivity. Manual trunks and their members are
// left exactly as they are; existing automatic trunks keep their ID
// when their membership is unchanged.
func (m *Manager) DeriveAll() ([]*Trunk, error) {
	current := m.membership()

	// Fingerprint existing automatic trunks by membership so unchanged
	// components keep their identity.
	m.mu.Lock()
	byFingerprint := make(map[string]network.TrunkID)
	for trunkID, segs := range current {
		if m.manual[trunkID] {
			continue
		}
		byFingerprint[fingerprint(segs)] = trunkID
	}
	m.mu.Unlock()

	// Collect segments eligible for automatic grouping: everything not
	// owned by a manual trunk.
	manualOwned := make(map[network.SegmentID]bool)
	for trunkID, segs := range current {
		m.mu.Lock()
		isManual := m.manual[trunkID]
		m.mu.Unlock()
		if isManual {
			for _, segID := range segs {
				manualOwned[segID] = true
			}
		}
	}

	seen := make(map[network.SegmentID]bool)
	for _, seg := range m.net.Segments() {
		if manualOwned[seg.ID] || seen[seg.ID] {
			continue
		}
		component, err := m.ConnectedSegments(seg.ID)
		if err != nil {
			return nil, err
		}
		// Manual members reachable inside the component stay where
		// they are.
		auto := component[:0:0]
		for _, segID := range component {
			seen[segID] = true
			if !manualOwned[segID] {
				auto = append(auto, segID)
			}
		}
		if len(auto) == 0 {
			continue
		}
		trunkID, ok := byFingerprint[fingerprint(auto)]
		if !ok {
			trunkID = m.nextTrunkID()
		}
		for _, segID := range auto {
			if err := m.net.SetSegmentTrunk(segID, trunkID); err != nil {
				return nil, err
			}
		}
	}
	return m.Trunks(), nil
}

// membership maps trunk ID -> member segment IDs from the segment tags.
func (m *Manager) membership() map[network.TrunkID][]network.SegmentID {
	members := make(map[network.TrunkID][]network.SegmentID)
	for _, seg := range m.net.Segments() {
		if seg.Trunk == "" {
			continue
		}
		members[seg.Trunk] = append(members[seg.Trunk], seg.ID)
	}
	return members
}

func (m *Manager) trunkExists(id network.TrunkID) bool {
	for _, seg := range m.net.Segments() {
		if seg.Trunk == id {
			return true
		}
	}
	return false
}

// sweep drops manual flags for trunks that no longer have members.
func (m *Manager) sweep() {
	m.sweepAgainst(m.membership())
}

func (m *Manager) sweepAgainst(members map[network.TrunkID][]network.SegmentID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for trunkID := range m.manual {
		if _, alive := members[trunkID]; !alive {
			delete(m.manual, trunkID)
		}
	}
}

// nextTrunkID allocates the lowest unused "TR-%03d" label.
func (m *Manager) nextTrunkID() network.TrunkID {
	existing := make(map[network.TrunkID]bool)
	for _, seg := range m.net.Segments() {
		if seg.Trunk != "" {
			existing[seg.Trunk] = true
		}
	}
	for idx := 1; ; idx++ {
		candidate := network.TrunkID(fmt.Sprintf("TR-%03d", idx))
		if !existing[candidate] {
			return candidate
		}
	}
}

// fingerprint builds a stable identity key for a membership set.
func fingerprint(segs []network.SegmentID) string {
	sorted := append([]network.SegmentID(nil), segs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	key := ""
	for _, segID := range sorted {
		key += string(segID) + "|"
	}
	return key
}

// RestoreManual marks a trunk as manually curated, used when loading a
// persisted project whose trunks carry the manual flag.
func (m *Manager) RestoreManual(id network.TrunkID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.manual[id] = true
}
