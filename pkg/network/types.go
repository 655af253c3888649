package network

import (
	"fmt"
	"math"
)

// NodeID identifies a node in the network.
type NodeID string

// SegmentID identifies a segment (conduit run) in the network.
type SegmentID string

// CircuitID identifies a circuit routed across the network.
type CircuitID string

// TrunkID identifies a logical trunk grouping of segments.
type TrunkID string

// NodeKind classifies the physical element a node represents.
type NodeKind uint8

const (
	KindEquipment NodeKind = iota // panel, cabinet, tablero
	KindJunction                  // pass-through pull box
	KindGap                       // expansion gap
	KindChamber                   // registration chamber (cámara)
)

// IsCut reports whether the node kind acts as a trunk boundary.
// Junctions are the only pass-through kind; every other kind
// terminates trunk propagation.
func (k NodeKind) IsCut() bool {
	return k != KindJunction
}

func (k NodeKind) String() string {
	switch k {
	case KindEquipment:
		return "equipment"
	case KindJunction:
		return "junction"
	case KindGap:
		return "gap"
	case KindChamber:
		return "chamber"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k NodeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *NodeKind) UnmarshalText(text []byte) error {
	parsed, err := ParseNodeKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseNodeKind converts a schema string into a NodeKind.
func ParseNodeKind(s string) (NodeKind, error) {
	switch s {
	case "equipment":
		return KindEquipment, nil
	case "junction":
		return KindJunction, nil
	case "gap":
		return KindGap, nil
	case "chamber":
		return KindChamber, nil
	default:
		return 0, fmt.Errorf("unknown node kind %q", s)
	}
}

// SegmentKind classifies the containment type of a segment.
type SegmentKind uint8

const (
	KindDuct SegmentKind = iota // round duct
	KindEPC                     // rectangular cable tray (escalerilla portacables)
	KindBPC                     // enclosed wireway (bandeja portacables)
)

func (k SegmentKind) String() string {
	switch k {
	case KindDuct:
		return "duct"
	case KindEPC:
		return "epc"
	case KindBPC:
		return "bpc"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k SegmentKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *SegmentKind) UnmarshalText(text []byte) error {
	parsed, err := ParseSegmentKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseSegmentKind converts a schema string into a SegmentKind.
func ParseSegmentKind(s string) (SegmentKind, error) {
	switch s {
	case "duct":
		return KindDuct, nil
	case "epc":
		return KindEPC, nil
	case "bpc":
		return KindBPC, nil
	default:
		return 0, fmt.Errorf("unknown segment kind %q", s)
	}
}

// SizingMode selects whether a segment's size is chosen by the engine
// or fixed by the designer.
type SizingMode uint8

const (
	ModeAuto SizingMode = iota
	ModeManual
)

func (m SizingMode) String() string {
	switch m {
	case ModeAuto:
		return "auto"
	case ModeManual:
		return "manual"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m SizingMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *SizingMode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "auto":
		*m = ModeAuto
	case "manual":
		*m = ModeManual
	default:
		return fmt.Errorf("unknown sizing mode %q", text)
	}
	return nil
}

// Position is a node's 2D location in drawing units.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DistanceTo returns the Euclidean distance between two positions.
func (p Position) DistanceTo(other Position) float64 {
	return math.Hypot(p.X-other.X, p.Y-other.Y)
}

// Node is a vertex of the conduit network.
type Node struct {
	ID   NodeID
	Kind NodeKind
	Name string
	Pos  Position
}

// Clone returns a copy of the node.
func (n *Node) Clone() *Node {
	clone := *n
	return &clone
}

// Conduit is one physical duct or tray instance within a segment.
// Circuits holds the IDs of the circuits routed through it, in
// assignment order.
type Conduit struct {
	Circuits []CircuitID
}

// Clone returns a deep copy of the conduit.
func (c Conduit) Clone() Conduit {
	clone := Conduit{Circuits: make([]CircuitID, len(c.Circuits))}
	copy(clone.Circuits, c.Circuits)
	return clone
}

// Contains reports whether the circuit is assigned to this conduit.
func (c Conduit) Contains(id CircuitID) bool {
	for _, cid := range c.Circuits {
		if cid == id {
			return true
		}
	}
	return false
}

// Segment is a physical conduit or cable-tray run between two distinct
// nodes. Conduits always has exactly Quantity entries.
type Segment struct {
	ID       SegmentID
	From     NodeID
	To       NodeID
	Kind     SegmentKind
	Mode     SizingMode
	SizeRef  string // catalog entry ID, empty until sized
	Quantity int    // parallel conduit count, >= 1
	LengthM  float64 // declared length in meters, 0 when absent
	Conduits []Conduit
	Trunk    TrunkID // empty when untagged
}

// Clone returns a deep copy of the segment.
func (s *Segment) Clone() *Segment {
	clone := *s
	clone.Conduits = make([]Conduit, len(s.Conduits))
	for i, c := range s.Conduits {
		clone.Conduits[i] = c.Clone()
	}
	return &clone
}

// Other returns the endpoint opposite to the given node, and whether
// the node is an endpoint of this segment at all.
func (s *Segment) Other(id NodeID) (NodeID, bool) {
	switch id {
	case s.From:
		return s.To, true
	case s.To:
		return s.From, true
	default:
		return "", false
	}
}

// ConduitLabel returns the display label for the i-th conduit of a
// segment, e.g. "T1-A", "T1-B". Indexes past 'Z' wrap to numbers.
func ConduitLabel(segmentTag string, index int) string {
	if index < 26 {
		return fmt.Sprintf("%s-%c", segmentTag, 'A'+rune(index))
	}
	return fmt.Sprintf("%s-%d", segmentTag, index+1)
}

// Circuit is a logical cable run between two declared nodes. Route is
// engine-derived and may be stale after topology edits.
type Circuit struct {
	ID       CircuitID
	Name     string
	Service  string // service type for separation rules
	CableRef string // cable spec ID in the materials catalog
	Qty      int    // conductor count, >= 1
	From     NodeID
	To       NodeID
	Route    []SegmentID
	// RouteStale is set when a segment on the route was removed; the
	// route must be recomputed before it is trusted again.
	RouteStale bool
}

// Clone returns a deep copy of the circuit.
func (c *Circuit) Clone() *Circuit {
	clone := *c
	clone.Route = make([]SegmentID, len(c.Route))
	copy(clone.Route, c.Route)
	return &clone
}
