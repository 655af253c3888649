package fill

import (
	"math"

	"github.com/lowvolt/conduitcalc/pkg/catalog"
)

// CableRun is one circuit's cable as seen by the capacity engine: the
// resolved spec plus the conductor quantity.
type CableRun struct {
	Circuit string
	Service string
	Spec    catalog.CableSpec
	Qty     int
}

// Area returns the total cross-sectional area of the run in mm².
func (r CableRun) Area() float64 {
	qty := r.Qty
	if qty < 1 {
		qty = 1
	}
	return r.Spec.Area() * float64(qty)
}

// Width returns the horizontal width the run occupies when laid flat.
// Small quantities lay side by side; bundles past ten conductors are
// collapsed to a single equivalent-diameter cable, the same
// simplification the packing layout uses.
func (r CableRun) Width() float64 {
	qty := r.Qty
	if qty < 1 {
		qty = 1
	}
	d := r.Spec.Diameter()
	if d <= 0 {
		return 0
	}
	if qty <= 10 {
		return d * float64(qty)
	}
	totalArea := math.Pi * (d / 2.0) * (d / 2.0) * float64(qty)
	return 2.0 * math.Sqrt(totalArea/math.Pi)
}

// LayerEstimator estimates how many physical layers a set of cable
// runs stacks into inside a conduit entry. The heuristic is pluggable;
// the default divides the total laid-flat width by the entry's clear
// width.
type LayerEstimator func(entry catalog.Entry, runs []CableRun) int

// EstimateLayers is the default estimator:
// ceil(total cable width / clear width), never less than one layer.
func EstimateLayers(entry catalog.Entry, runs []CableRun) int {
	clear := entry.ClearWidth()
	if clear <= 0 {
		return 1
	}
	used := 0.0
	for _, run := range runs {
		used += run.Width()
	}
	if used <= 0 {
		return 1
	}
	return int(math.Ceil(used / clear))
}
