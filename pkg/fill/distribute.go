package fill

import (
	"sort"

	"github.com/lowvolt/conduitcalc/pkg/catalog"
	"github.com/lowvolt/conduitcalc/pkg/network"
)

// overLimitPenalty makes a conduit that would exceed its fill limit a
// last-resort placement without forbidding it outright.
const overLimitPenalty = 1000.0

type conduitState struct {
	circuits []network.CircuitID
	services []string
	occupied float64
}

func (cs *conduitState) compatible(ev *Evaluator, service string) bool {
	for _, existing := range cs.services {
		if ev.Preset.MustSeparate(existing, service) {
			return false
		}
	}
	return true
}

func (cs *conduitState) place(run CableRun) {
	cs.circuits = append(cs.circuits, network.CircuitID(run.Circuit))
	cs.occupied += run.Area()
	for _, existing := range cs.services {
		if existing == run.Service {
			return
		}
	}
	cs.services = append(cs.services, run.Service)
}

// DistributeCircuits assigns cable runs across the parallel conduits of
// a sized segment, starting from empty conduits.
func (ev *Evaluator) DistributeCircuits(entry catalog.Entry, quantity int, runs []CableRun) [][]network.CircuitID {
	return ev.PlaceCircuits(entry, quantity, nil, runs)
}

// PlaceCircuits extends an existing conduit layout with pending runs.
// Existing assignments are kept where they are; largest pending runs
// are placed first, each into the separation-compatible conduit whose
// resulting fill is lowest, with an over-limit placement heavily
// penalized. When no compatible conduit exists the run still lands
// somewhere and the evaluation reports the separation violation.
func (ev *Evaluator) PlaceCircuits(entry catalog.Entry, quantity int, existing [][]CableRun, pending []CableRun) [][]network.CircuitID {
	if quantity < 1 {
		quantity = 1
	}
	states := make([]*conduitState, quantity)
	for i := range states {
		states[i] = &conduitState{}
		if i < len(existing) {
			for _, run := range existing[i] {
				states[i].place(run)
			}
		}
	}

	available := entry.UsableArea()

	ordered := append([]CableRun(nil), pending...)
	sort.Slice(ordered, func(i, j int) bool {
		ai, aj := ordered[i].Area(), ordered[j].Area()
		if ai != aj {
			return ai > aj
		}
		return ordered[i].Circuit < ordered[j].Circuit
	})

	for _, run := range ordered {
		limit := ev.Preset.FillLimit(entry.Kind, conductorQty(run))
		best := -1
		bestCost := 0.0
		bestCompatible := false
		for i, state := range states {
			cost := 0.0
			if available > 0 {
				fill := (state.occupied + run.Area()) / available * 100.0
				cost = fill
				if limit > 0 && fill > limit {
					cost += overLimitPenalty
				}
			}
			compatible := state.compatible(ev, run.Service)
			if !compatible {
				cost += 2 * overLimitPenalty
			}
			if best == -1 || cost < bestCost || (cost == bestCost && compatible && !bestCompatible) {
				best = i
				bestCost = cost
				bestCompatible = compatible
			}
		}
		states[best].place(run)
	}

	out := make([][]network.CircuitID, quantity)
	for i, state := range states {
		out[i] = state.circuits
	}
	return out
}

func conductorQty(run CableRun) int {
	if run.Qty < 1 {
		return 1
	}
	return run.Qty
}
