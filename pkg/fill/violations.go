package fill

import (
	"errors"
	"fmt"

	"github.com/lowvolt/conduitcalc/pkg/network"
)

// ErrNoFeasibleSizing is returned by the auto-sizing search when no
// catalog entry satisfies the constraints. It surfaces as a
// result-level error on the segment; it never aborts the rest of a
// recalculation.
var ErrNoFeasibleSizing = errors.New("no feasible sizing in catalog")

// ViolationType categorizes a per-conduit rule violation.
type ViolationType uint8

const (
	SeparationViolation ViolationType = iota
	FillViolation
	LayerViolation
)

func (vt ViolationType) String() string {
	switch vt {
	case SeparationViolation:
		return "SeparationViolation"
	case FillViolation:
		return "FillViolation"
	case LayerViolation:
		return "LayerViolation"
	default:
		return "Unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (vt ViolationType) MarshalText() ([]byte, error) {
	return []byte(vt.String()), nil
}

// Violation records one rule violation on one conduit. Violations are
// local and non-fatal: they are reported in results and never abort
// recalculation of other segments.
type Violation struct {
	Type         ViolationType
	Segment      network.SegmentID
	ConduitIndex int
	// Circuits names the offending circuit pair for separation
	// violations; empty otherwise.
	Circuits [2]network.CircuitID
	Message  string
}

func (v Violation) String() string {
	if v.Type == SeparationViolation {
		return fmt.Sprintf("%s on %s conduit %d (%s / %s): %s",
			v.Type, v.Segment, v.ConduitIndex, v.Circuits[0], v.Circuits[1], v.Message)
	}
	return fmt.Sprintf("%s on %s conduit %d: %s", v.Type, v.Segment, v.ConduitIndex, v.Message)
}
