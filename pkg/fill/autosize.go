package fill

import (
	"math"
	"sort"

	"github.com/lowvolt/conduitcalc/pkg/catalog"
	"github.com/lowvolt/conduitcalc/pkg/network"
	"github.com/lowvolt/conduitcalc/pkg/rules"
)

// MaxParallelRuns caps the parallel conduit count the auto-sizer may
// propose for one segment. Past this the designer splits the route.
const MaxParallelRuns = 6

// Sizing is the auto-sizer's proposal for one segment.
type Sizing struct {
	SizeRef  string
	Quantity int
}

// serviceGroup collects runs whose services may share containment.
type serviceGroup struct {
	runs     []CableRun
	services []string
}

func (g *serviceGroup) accepts(preset *rules.Preset, service string) bool {
	for _, existing := range g.services {
		if preset.MustSeparate(existing, service) {
			return false
		}
	}
	return true
}

func (g *serviceGroup) add(run CableRun) {
	g.runs = append(g.runs, run)
	for _, existing := range g.services {
		if existing == run.Service {
			return
		}
	}
	g.services = append(g.services, run.Service)
}

func (g *serviceGroup) area() float64 {
	total := 0.0
	for _, run := range g.runs {
		total += run.Area()
	}
	return total
}

func (g *serviceGroup) conductorCount() int {
	count := 0
	for _, run := range g.runs {
		qty := run.Qty
		if qty < 1 {
			qty = 1
		}
		count += qty
	}
	return count
}

// groupByService partitions runs into the fewest greedy groups whose
// services tolerate shared containment. Runs are visited in circuit-ID
// order so the partition is stable across recalculations.
func groupByService(preset *rules.Preset, runs []CableRun) []*serviceGroup {
	ordered := append([]CableRun(nil), runs...)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Circuit < ordered[j].Circuit
	})

	groups := make([]*serviceGroup, 0, 1)
	for _, run := range ordered {
		placed := false
		for _, group := range groups {
			if group.accepts(preset, run.Service) {
				group.add(run)
				placed = true
				break
			}
		}
		if !placed {
			group := &serviceGroup{}
			group.add(run)
			groups = append(groups, group)
		}
	}
	return groups
}

// conduitsNeeded returns how many conduits of the entry the group
// requires under the fill limit, or 0 when the entry cannot hold the
// group at all.
func conduitsNeeded(preset *rules.Preset, kind network.SegmentKind, entry catalog.Entry, group *serviceGroup) int {
	available := entry.UsableArea()
	if available <= 0 {
		return 0
	}
	limit := preset.FillLimit(kind, group.conductorCount())
	capacity := available * limit / 100.0
	if capacity <= 0 {
		return 0
	}
	need := int(math.Ceil(group.area() / capacity))
	if need < 1 {
		need = 1
	}
	return need
}

// layersFeasible checks that the group, split evenly across need
// conduits, respects the preset's layer cap for this kind. Single runs
// wider than one conduit's allowance rule the entry out.
func layersFeasible(preset *rules.Preset, kind network.SegmentKind, entry catalog.Entry, group *serviceGroup, need int) bool {
	enabled, maxLayers := preset.LayersRule(kind)
	if !enabled {
		return true
	}
	clear := entry.ClearWidth()
	if clear <= 0 {
		return false
	}
	allowance := clear * float64(maxLayers)
	totalWidth := 0.0
	for _, run := range group.runs {
		width := run.Width()
		if width > allowance {
			return false
		}
		totalWidth += width
	}
	return totalWidth <= allowance*float64(need)
}

// AutoSize searches the catalog for the smallest entry of the segment's
// kind that carries all runs within the fill limit, layer cap, and
// parallel-run cap. Separation-incompatible services are never counted
// into the same conduit. The search never mutates the segment; callers
// apply the proposal only on success, so a failed search leaves the
// previous sizing untouched.
func (ev *Evaluator) AutoSize(kind network.SegmentKind, runs []CableRun) (Sizing, error) {
	entries := ev.Catalog.EntriesForKind(kind)
	if len(entries) == 0 {
		return Sizing{}, ErrNoFeasibleSizing
	}
	if len(runs) == 0 {
		return Sizing{SizeRef: entries[0].ID, Quantity: 1}, nil
	}

	groups := groupByService(ev.Preset, runs)
	for _, entry := range entries {
		total := 0
		feasible := true
		for _, group := range groups {
			need := conduitsNeeded(ev.Preset, kind, entry, group)
			if need == 0 || !layersFeasible(ev.Preset, kind, entry, group, need) {
				feasible = false
				break
			}
			total += need
		}
		if feasible && total <= MaxParallelRuns {
			return Sizing{SizeRef: entry.ID, Quantity: total}, nil
		}
	}
	return Sizing{}, ErrNoFeasibleSizing
}
