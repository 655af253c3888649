package fill

import (
	"fmt"

	"github.com/lowvolt/conduitcalc/pkg/catalog"
	"github.com/lowvolt/conduitcalc/pkg/network"
	"github.com/lowvolt/conduitcalc/pkg/rules"
	"github.com/lowvolt/conduitcalc/pkg/status"
)

// ConduitResult is the evaluation of one conduit instance.
type ConduitResult struct {
	Index    int
	Label    string
	Circuits []network.CircuitID

	OccupiedMM2  float64
	AvailableMM2 float64
	// Utilization is the unrounded fill percentage used for all rule
	// comparisons; UtilizationDisplay is the two-decimal value shown
	// to users.
	Utilization        float64
	UtilizationDisplay float64
	FillLimitPct       float64

	Layers    int
	MaxLayers int

	Violations []Violation
	Status     status.Status
}

// SegmentResult is the evaluation of one segment and all its conduits.
type SegmentResult struct {
	Segment  network.SegmentID
	Trunk    network.TrunkID
	Kind     network.SegmentKind
	Mode     network.SizingMode
	SizeRef  string
	Quantity int

	Conduits []ConduitResult
	// Err carries a result-level failure such as an exhausted
	// auto-sizing search or a missing size reference. It marks the
	// segment Error without aborting other segments.
	Err   string
	Notes []string

	Status status.Status
}

// Violations flattens all conduit violations of the segment.
func (r *SegmentResult) Violations() []Violation {
	out := make([]Violation, 0)
	for _, conduit := range r.Conduits {
		out = append(out, conduit.Violations...)
	}
	return out
}

// Evaluator computes fill, separation, and layer results for segments
// against a resolved preset and an immutable catalog snapshot.
type Evaluator struct {
	Catalog *catalog.Catalog
	Preset  *rules.Preset
	Layers  LayerEstimator
}

// NewEvaluator creates an evaluator with the default layer estimator.
func NewEvaluator(cat *catalog.Catalog, preset *rules.Preset) *Evaluator {
	return &Evaluator{Catalog: cat, Preset: preset, Layers: EstimateLayers}
}

// resolveRuns maps the circuit IDs assigned to a conduit into cable
// runs, noting circuits whose cable spec is missing from the snapshot.
func (ev *Evaluator) resolveRuns(net *network.Network, ids []network.CircuitID) ([]CableRun, []string) {
	runs := make([]CableRun, 0, len(ids))
	notes := make([]string, 0)
	for _, id := range ids {
		circ, err := net.Circuit(id)
		if err != nil {
			notes = append(notes, fmt.Sprintf("circuit %s: %v", id, err))
			continue
		}
		spec, err := ev.Catalog.Cable(circ.CableRef)
		if err != nil {
			notes = append(notes, fmt.Sprintf("circuit %s: cable ref %q not in catalog", id, circ.CableRef))
			continue
		}
		runs = append(runs, CableRun{
			Circuit: string(circ.ID),
			Service: circ.Service,
			Spec:    spec,
			Qty:     circ.Qty,
		})
	}
	return runs, notes
}

// EvaluateSegment evaluates every conduit of a segment. A missing or
// unknown size reference yields a result-level error; per-conduit
// violations never abort the evaluation.
func (ev *Evaluator) EvaluateSegment(net *network.Network, seg *network.Segment) *SegmentResult {
	result := &SegmentResult{
		Segment:  seg.ID,
		Trunk:    seg.Trunk,
		Kind:     seg.Kind,
		Mode:     seg.Mode,
		SizeRef:  seg.SizeRef,
		Quantity: seg.Quantity,
	}

	if seg.SizeRef == "" {
		result.Err = "segment is unsized"
		result.Status = status.Error
		return result
	}
	entry, err := ev.Catalog.Entry(seg.SizeRef)
	if err != nil {
		result.Err = fmt.Sprintf("size ref %q not in catalog", seg.SizeRef)
		result.Status = status.Error
		return result
	}
	if entry.Kind != seg.Kind {
		result.Err = fmt.Sprintf("size ref %q is %s, segment is %s", seg.SizeRef, entry.Kind, seg.Kind)
		result.Status = status.Error
		return result
	}

	tag := string(seg.ID)
	for i, conduit := range seg.Conduits {
		runs, notes := ev.resolveRuns(net, conduit.Circuits)
		result.Notes = append(result.Notes, notes...)
		conduitResult := ev.evaluateConduit(seg, entry, i, conduit.Circuits, runs)
		conduitResult.Label = network.ConduitLabel(tag, i)
		result.Conduits = append(result.Conduits, conduitResult)
		result.Status = status.Worst(result.Status, conduitResult.Status)
	}
	return result
}

func (ev *Evaluator) evaluateConduit(
	seg *network.Segment,
	entry catalog.Entry,
	index int,
	ids []network.CircuitID,
	runs []CableRun,
) ConduitResult {
	occupied := 0.0
	conductorCount := 0
	for _, run := range runs {
		occupied += run.Area()
		qty := run.Qty
		if qty < 1 {
			qty = 1
		}
		conductorCount += qty
	}

	available := entry.UsableArea()
	utilization := 0.0
	if available > 0 {
		utilization = occupied / available * 100.0
	}
	limit := ev.Preset.FillLimit(seg.Kind, conductorCount)

	result := ConduitResult{
		Index:              index,
		Circuits:           append([]network.CircuitID(nil), ids...),
		OccupiedMM2:        occupied,
		AvailableMM2:       available,
		Utilization:        utilization,
		UtilizationDisplay: Round2(utilization),
		FillLimitPct:       limit,
		Violations:         make([]Violation, 0),
	}

	// Service separation: every pair of assigned circuits is checked
	// against the preset's matrix.
	for i := 0; i < len(runs); i++ {
		for j := i + 1; j < len(runs); j++ {
			if ev.Preset.MustSeparate(runs[i].Service, runs[j].Service) {
				result.Violations = append(result.Violations, Violation{
					Type:         SeparationViolation,
					Segment:      seg.ID,
					ConduitIndex: index,
					Circuits:     [2]network.CircuitID{network.CircuitID(runs[i].Circuit), network.CircuitID(runs[j].Circuit)},
					Message:      fmt.Sprintf("services %s and %s require separate containment", runs[i].Service, runs[j].Service),
				})
			}
		}
	}

	// Fill limit, compared unrounded.
	if limit > 0 && utilization > limit {
		result.Violations = append(result.Violations, Violation{
			Type:         FillViolation,
			Segment:      seg.ID,
			ConduitIndex: index,
			Message:      fmt.Sprintf("fill %s exceeds limit %s", FormatPercent(utilization), FormatPercent(limit)),
		})
	}

	// Layer estimate, when the preset enables it for this kind.
	estimator := ev.Layers
	if estimator == nil {
		estimator = EstimateLayers
	}
	layersEnabled, maxLayers := ev.Preset.LayersRule(seg.Kind)
	result.MaxLayers = maxLayers
	result.Layers = estimator(entry, runs)
	if layersEnabled && result.Layers > maxLayers {
		result.Violations = append(result.Violations, Violation{
			Type:         LayerViolation,
			Segment:      seg.ID,
			ConduitIndex: index,
			Message:      fmt.Sprintf("estimated %d layers exceeds maximum %d", result.Layers, maxLayers),
		})
	}

	result.Status = status.Classify(status.Input{
		Utilization: utilization,
		WarnAtPct:   ev.Preset.Warn(),
		Blocking:    len(result.Violations) > 0,
	})
	return result
}
