// Package engine orchestrates recalculation: routing, trunk
// derivation, auto-sizing, circuit distribution, and segment
// evaluation, with a structurally-hashed result cache.
package engine

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lowvolt/conduitcalc/pkg/catalog"
	"github.com/lowvolt/conduitcalc/pkg/fill"
	"github.com/lowvolt/conduitcalc/pkg/logging"
	"github.com/lowvolt/conduitcalc/pkg/metrics"
	"github.com/lowvolt/conduitcalc/pkg/network"
	"github.com/lowvolt/conduitcalc/pkg/parallel"
	"github.com/lowvolt/conduitcalc/pkg/routing"
	"github.com/lowvolt/conduitcalc/pkg/rules"
	"github.com/lowvolt/conduitcalc/pkg/status"
	"github.com/lowvolt/conduitcalc/pkg/trunk"
)

var (
	// ErrRecalcInProgress is returned when a recalculation is requested
	// while another one is still running. At most one recalculation is
	// in flight per engine.
	ErrRecalcInProgress = errors.New("recalculation already in progress")
	// ErrNoResults is returned by Results before the first successful
	// recalculation.
	ErrNoResults = errors.New("no results computed yet")
	// ErrStaleResults is returned by Results when the network structure
	// changed since the cached result set was computed.
	ErrStaleResults = errors.New("cached results are stale")
)

// Reason names what triggered a recalculation. It appears in logs and
// metrics labels.
type Reason string

const (
	ReasonManual          Reason = "manual"
	ReasonTopologyChanged Reason = "topology_changed"
	ReasonCircuitChanged  Reason = "circuit_changed"
	ReasonPresetChanged   Reason = "preset_changed"
	ReasonCatalogChanged  Reason = "catalog_changed"
	ReasonProjectLoaded   Reason = "project_loaded"
)

// RouteFailure records a circuit that could not be routed. Routing
// failures are per-circuit and never abort the recalculation.
type RouteFailure struct {
	Circuit network.CircuitID
	Err     string
}

// ResultSet is one complete recalculation outcome. It is immutable once
// published.
type ResultSet struct {
	ID          string
	Hash        string
	Reason      Reason
	GeneratedAt time.Time
	Duration    time.Duration

	Segments      []*fill.SegmentResult
	RouteFailures []RouteFailure

	Status status.Status
}

// Segment returns the result for one segment, or nil.
func (rs *ResultSet) Segment(id network.SegmentID) *fill.SegmentResult {
	for _, seg := range rs.Segments {
		if seg.Segment == id {
			return seg
		}
	}
	return nil
}

// Violations flattens all violations across the result set.
func (rs *ResultSet) Violations() []fill.Violation {
	out := make([]fill.Violation, 0)
	for _, seg := range rs.Segments {
		out = append(out, seg.Violations()...)
	}
	return out
}

// Config carries the engine's optional collaborators.
type Config struct {
	// Workers bounds the concurrent segment evaluations; 0 means one
	// per CPU.
	Workers int
	Logger  logging.Logger
	Metrics *metrics.Registry
}

// Engine binds the network, trunk manager, preset registry, and catalog
// snapshot into the recalculation pipeline.
type Engine struct {
	net      *network.Network
	trunks   *trunk.Manager
	registry *rules.Registry
	workers  int
	log      logging.Logger
	metrics  *metrics.Registry

	mu      sync.Mutex
	catalog *catalog.Catalog
	running bool
	cached  *ResultSet
}

// New creates an engine over the given model components.
func New(net *network.Network, trunks *trunk.Manager, registry *rules.Registry, cat *catalog.Catalog, cfg Config) *Engine {
	log := cfg.Logger
	if log == nil {
		log = logging.NewNopLogger()
	}
	reg := cfg.Metrics
	if reg == nil {
		reg = metrics.NewRegistry()
	}
	return &Engine{
		net:      net,
		trunks:   trunks,
		registry: registry,
		catalog:  cat,
		workers:  cfg.Workers,
		log:      log.With(logging.Component("engine")),
		metrics:  reg,
	}
}

// Catalog returns the current catalog snapshot.
func (e *Engine) Catalog() *catalog.Catalog {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.catalog
}

// SetCatalog swaps the catalog snapshot. Cached results computed against
// the old snapshot become stale through the hash.
func (e *Engine) SetCatalog(cat *catalog.Catalog) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.catalog = cat
}

func (e *Engine) begin() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return ErrRecalcInProgress
	}
	e.running = true
	e.metrics.RecalcInFlight.Set(1)
	return nil
}

func (e *Engine) end() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.running = false
	e.metrics.RecalcInFlight.Set(0)
}

// Recalculate runs the full pipeline: route every circuit, re-derive
// trunks, auto-size auto segments, distribute circuits across parallel
// conduits, and evaluate every segment. Per-circuit and per-segment
// failures are recorded in the result set; only a concurrent
// recalculation, a cancelled context, or a missing active preset abort.
func (e *Engine) Recalculate(ctx context.Context, reason Reason) (*ResultSet, error) {
	if reason == "" {
		reason = ReasonManual
	}
	if err := e.begin(); err != nil {
		return nil, err
	}
	defer e.end()

	start := time.Now()
	preset, err := e.registry.Resolve()
	if err != nil {
		e.metrics.RecordRecalc(string(reason), "error", time.Since(start))
		return nil, err
	}
	cat := e.Catalog()
	evaluator := fill.NewEvaluator(cat, preset)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Phase 1: routing.
	failures := e.routeCircuits()
	// Phase 2: trunk derivation. Manual memberships survive.
	if _, err := e.trunks.DeriveAll(); err != nil {
		e.metrics.RecordRecalc(string(reason), "error", time.Since(start))
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Phase 3: sizing and distribution, segment by segment.
	routedBy := e.routedBySegment()
	sizingErrs := make(map[network.SegmentID]string)
	for _, seg := range e.net.Segments() {
		if msg := e.reconcileSegment(evaluator, seg, routedBy[seg.ID]); msg != "" {
			sizingErrs[seg.ID] = msg
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Phase 4: evaluation, parallel across segments.
	segments := e.net.Segments()
	results := make([]*fill.SegmentResult, len(segments))
	if err := parallel.ForEach(e.workers, len(segments), func(i int) {
		results[i] = evaluator.EvaluateSegment(e.net, segments[i])
	}); err != nil {
		e.metrics.RecordRecalc(string(reason), "error", time.Since(start))
		return nil, err
	}
	for _, result := range results {
		// A failed sizing search is the more specific failure and wins
		// over the evaluation's "unsized" report.
		if msg, found := sizingErrs[result.Segment]; found {
			result.Err = msg
			result.Status = status.Error
		}
	}

	overall := status.Ok
	for _, result := range results {
		overall = status.Worst(overall, result.Status)
	}
	if len(failures) > 0 {
		overall = status.Error
	}

	hash, err := StructuralHash(e.net, e.registry.ActiveID(), cat.ID)
	if err != nil {
		e.metrics.RecordRecalc(string(reason), "error", time.Since(start))
		return nil, err
	}

	rs := &ResultSet{
		ID:            uuid.NewString(),
		Hash:          hash,
		Reason:        reason,
		GeneratedAt:   start,
		Duration:      time.Since(start),
		Segments:      results,
		RouteFailures: failures,
		Status:        overall,
	}

	e.mu.Lock()
	e.cached = rs
	e.mu.Unlock()

	e.publishMetrics(rs, reason)
	e.log.Info("recalculation finished",
		logging.Reason(string(reason)),
		logging.Hash(hash),
		logging.String("status", overall.String()),
		logging.Count(len(results)),
		logging.Int("route_failures", len(failures)),
		logging.Latency(rs.Duration))
	return rs, nil
}

// Results returns the cached result set when it still matches the
// current structure, ErrStaleResults when it does not, and ErrNoResults
// before the first recalculation.
func (e *Engine) Results() (*ResultSet, error) {
	e.mu.Lock()
	cached := e.cached
	cat := e.catalog
	e.mu.Unlock()

	if cached == nil {
		return nil, ErrNoResults
	}
	hash, err := StructuralHash(e.net, e.registry.ActiveID(), cat.ID)
	if err != nil {
		return nil, err
	}
	if hash != cached.Hash {
		e.metrics.RecordCacheStale()
		return nil, ErrStaleResults
	}
	e.metrics.RecordCacheHit()
	return cached, nil
}

func (e *Engine) routeCircuits() []RouteFailure {
	timer := logging.StartTimer(e.log, "routing phase finished")
	errsByCircuit := routing.RouteAll(e.net)
	failures := make([]RouteFailure, 0, len(errsByCircuit))
	for id, routeErr := range errsByCircuit {
		failures = append(failures, RouteFailure{Circuit: id, Err: routeErr.Error()})
		e.metrics.RoutingFailures.Inc()
		e.log.Warn("circuit routing failed",
			logging.Circuit(string(id)),
			logging.Error(routeErr))
	}
	sort.Slice(failures, func(i, j int) bool {
		return failures[i].Circuit < failures[j].Circuit
	})
	timer.EndWithLevel(logging.DebugLevel, "routing phase finished")
	return failures
}

// routedBySegment inverts trusted circuit routes into a segment index.
func (e *Engine) routedBySegment() map[network.SegmentID][]*network.Circuit {
	out := make(map[network.SegmentID][]*network.Circuit)
	for _, circ := range e.net.Circuits() {
		if circ.RouteStale {
			continue
		}
		for _, segID := range circ.Route {
			out[segID] = append(out[segID], circ)
		}
	}
	return out
}

func (e *Engine) runFor(circ *network.Circuit) fill.CableRun {
	run := fill.CableRun{
		Circuit: string(circ.ID),
		Service: circ.Service,
		Qty:     circ.Qty,
	}
	// A missing cable spec contributes zero area; the evaluation notes
	// it on the segment result.
	if spec, err := e.Catalog().Cable(circ.CableRef); err == nil {
		run.Spec = spec
	}
	return run
}

// reconcileSegment sizes an auto segment for its routed circuits and
// updates conduit assignments: assignments of still-routed circuits are
// preserved, departed circuits are unassigned, and newly routed
// circuits are placed. Returns a result-level error message when the
// sizing search fails; the previous sizing stays untouched.
func (e *Engine) reconcileSegment(evaluator *fill.Evaluator, seg *network.Segment, routed []*network.Circuit) string {
	runs := make([]fill.CableRun, 0, len(routed))
	routedSet := make(map[network.CircuitID]fill.CableRun, len(routed))
	for _, circ := range routed {
		run := e.runFor(circ)
		runs = append(runs, run)
		routedSet[circ.ID] = run
	}

	sizingErr := ""
	if seg.Mode == network.ModeAuto {
		sizing, err := evaluator.AutoSize(seg.Kind, runs)
		switch {
		case err != nil:
			sizingErr = err.Error()
			e.metrics.SizingFailures.Inc()
			e.log.Warn("auto-sizing found no feasible entry",
				logging.Segment(string(seg.ID)),
				logging.Count(len(runs)))
		case sizing.SizeRef != seg.SizeRef || sizing.Quantity != seg.Quantity:
			if err := e.net.SetSegmentSizing(seg.ID, sizing.SizeRef, sizing.Quantity); err != nil {
				return err.Error()
			}
		}
	}

	// Refetch: sizing may have changed the conduit layout.
	fresh, err := e.net.Segment(seg.ID)
	if err != nil {
		return err.Error()
	}
	*seg = *fresh

	// Drop assignments of circuits no longer routed through here.
	assigned := make(map[network.CircuitID]bool)
	for _, conduit := range fresh.Conduits {
		for _, cid := range conduit.Circuits {
			if _, stillRouted := routedSet[cid]; !stillRouted {
				if err := e.net.UnassignCircuit(cid, seg.ID); err != nil {
					return err.Error()
				}
				continue
			}
			assigned[cid] = true
		}
	}

	pending := make([]fill.CableRun, 0)
	for id, run := range routedSet {
		if !assigned[id] {
			pending = append(pending, run)
		}
	}
	if len(pending) == 0 {
		return sizingErr
	}

	entry, err := e.Catalog().Entry(fresh.SizeRef)
	if err != nil {
		// Unsized or unknown ref: evaluation reports it, nothing to
		// place against.
		return sizingErr
	}

	existing := make([][]fill.CableRun, fresh.Quantity)
	for i, conduit := range fresh.Conduits {
		if i >= fresh.Quantity {
			break
		}
		for _, cid := range conduit.Circuits {
			if run, keep := routedSet[cid]; keep && assigned[cid] {
				existing[i] = append(existing[i], run)
			}
		}
	}

	layout := evaluator.PlaceCircuits(entry, fresh.Quantity, existing, pending)
	for i, conduit := range layout {
		for _, cid := range conduit {
			if assigned[cid] {
				continue
			}
			if err := e.net.AssignCircuit(cid, seg.ID, i); err != nil {
				return err.Error()
			}
		}
	}

	if fresh, err = e.net.Segment(seg.ID); err == nil {
		*seg = *fresh
	}
	return sizingErr
}

func (e *Engine) publishMetrics(rs *ResultSet, reason Reason) {
	e.metrics.RecordRecalc(string(reason), rs.Status.String(), rs.Duration)

	nodes, segments, circuits := e.net.Counts()
	e.metrics.UpdateNetworkCounts(nodes, segments, circuits, len(e.trunks.Trunks()))

	violations := make(map[string]int)
	for _, v := range rs.Violations() {
		violations[v.Type.String()]++
	}
	byStatus := make(map[string]int)
	for _, seg := range rs.Segments {
		byStatus[seg.Status.String()]++
	}
	e.metrics.UpdateResultSummary(violations, byStatus)
}
