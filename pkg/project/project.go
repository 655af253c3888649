package project

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/go-playground/validator/v10"
	"go.uber.org/multierr"

	"github.com/lowvolt/conduitcalc/pkg/catalog"
	"github.com/lowvolt/conduitcalc/pkg/network"
	"github.com/lowvolt/conduitcalc/pkg/rules"
	"github.com/lowvolt/conduitcalc/pkg/trunk"
)

var validate = validator.New()

// Project is a fully materialized design: the in-memory model built
// from a document, ready for the engine.
type Project struct {
	Name    string
	Network *network.Network
	Trunks  *trunk.Manager
	Rules   *rules.Registry
	Catalog *catalog.Catalog

	// Migrated is set when loading applied the one-time legacy
	// migration (default preset installed, catalog snapshot embedded).
	// Saving afterwards persists the migrated form.
	Migrated bool
}

// New creates an empty project with the default preset and the built-in
// catalog.
func New(name string) (*Project, error) {
	net := network.New()
	reg := rules.NewRegistry()
	preset := rules.DefaultPreset()
	if err := reg.Add(preset); err != nil {
		return nil, err
	}
	if err := reg.SetActive(preset.ID); err != nil {
		return nil, err
	}
	return &Project{
		Name:    name,
		Network: net,
		Trunks:  trunk.NewManager(net),
		Rules:   reg,
		Catalog: catalog.Default(),
	}, nil
}

// Parse decodes, validates, and materializes a project document.
// Structural problems are fatal: every one is collected and reported,
// and no partial project is returned.
func Parse(data []byte) (*Project, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode project: %w", err)
	}
	if err := validate.Struct(&doc); err != nil {
		return nil, fmt.Errorf("validate project: %w", err)
	}
	return doc.Build()
}

// Load reads and materializes a project file.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project %s: %w", path, err)
	}
	return Parse(data)
}

// Build materializes the document into a live project, applying the
// legacy migration when the document predates embedded presets or
// catalogs. The migration is idempotent: re-building a migrated
// document yields the same model.
func (d *Document) Build() (*Project, error) {
	net := network.New()
	if d.Scale > 0 {
		net = network.NewWithScale(d.Scale)
	}

	var problems error
	for _, rec := range d.Nodes {
		if err := net.AddNode(network.Node{
			ID:   network.NodeID(rec.ID),
			Kind: rec.Kind,
			Name: rec.Name,
			Pos:  network.Position{X: rec.X, Y: rec.Y},
		}); err != nil {
			problems = multierr.Append(problems, fmt.Errorf("node %s: %w", rec.ID, err))
		}
	}
	for _, rec := range d.Segments {
		if err := net.AddSegment(network.Segment{
			ID:       network.SegmentID(rec.ID),
			From:     network.NodeID(rec.From),
			To:       network.NodeID(rec.To),
			Kind:     rec.Kind,
			Mode:     rec.Mode,
			SizeRef:  rec.SizeRef,
			Quantity: rec.Quantity,
			LengthM:  rec.LengthM,
			Trunk:    network.TrunkID(rec.Trunk),
		}); err != nil {
			problems = multierr.Append(problems, fmt.Errorf("segment %s: %w", rec.ID, err))
		}
	}
	for _, rec := range d.Circuits {
		if err := net.AddCircuit(network.Circuit{
			ID:       network.CircuitID(rec.ID),
			Name:     rec.Name,
			Service:  rec.Service,
			CableRef: rec.CableRef,
			Qty:      rec.Qty,
			From:     network.NodeID(rec.From),
			To:       network.NodeID(rec.To),
		}); err != nil {
			problems = multierr.Append(problems, fmt.Errorf("circuit %s: %w", rec.ID, err))
		}
	}
	if problems != nil {
		return nil, fmt.Errorf("build project: %w", problems)
	}

	// Assignments reference circuits and conduit indexes; dangling
	// references are structural errors too.
	for _, rec := range d.Segments {
		for i, conduit := range rec.Conduits {
			for _, cid := range conduit {
				if err := net.AssignCircuit(network.CircuitID(cid), network.SegmentID(rec.ID), i); err != nil {
					problems = multierr.Append(problems,
						fmt.Errorf("segment %s conduit %d: %w", rec.ID, i, err))
				}
			}
		}
	}
	if problems != nil {
		return nil, fmt.Errorf("build project: %w", problems)
	}

	p := &Project{
		Name:    d.Name,
		Network: net,
		Trunks:  trunk.NewManager(net),
	}
	for _, rec := range d.Trunks {
		if rec.Manual {
			p.Trunks.RestoreManual(network.TrunkID(rec.ID))
		}
	}

	reg := rules.NewRegistry()
	for _, rec := range d.Presets {
		if err := reg.Add(presetFromRecord(rec)); err != nil {
			return nil, fmt.Errorf("build project: %w", err)
		}
	}
	if len(d.Presets) == 0 {
		// Legacy document without presets: install the conventional
		// default.
		if err := reg.Add(rules.DefaultPreset()); err != nil {
			return nil, err
		}
		p.Migrated = true
	}
	active := d.ActivePresetID
	if active == "" {
		presets := reg.Presets()
		active = presets[0].ID
		p.Migrated = true
	}
	if err := reg.SetActive(active); err != nil {
		return nil, fmt.Errorf("build project: active preset: %w", err)
	}
	p.Rules = reg

	if d.Catalog == nil {
		// Legacy document without an embedded snapshot.
		p.Catalog = catalog.Default()
		p.Migrated = true
	} else {
		cat, err := catalogFromRecord(d.Catalog)
		if err != nil {
			return nil, fmt.Errorf("build project: %w", err)
		}
		p.Catalog = cat
	}

	if d.Version < CurrentVersion {
		p.Migrated = true
	}
	return p, nil
}

// Snapshot renders the project back into its document form.
func (p *Project) Snapshot() *Document {
	doc := &Document{
		Version:        CurrentVersion,
		Name:           p.Name,
		Scale:          p.Network.Scale(),
		Nodes:          make([]NodeRecord, 0),
		Segments:       make([]SegmentRecord, 0),
		Circuits:       make([]CircuitRecord, 0),
		Trunks:         make([]TrunkRecord, 0),
		ActivePresetID: p.Rules.ActiveID(),
		Presets:        make([]PresetRecord, 0),
		Catalog:        catalogToRecord(p.Catalog),
	}

	for _, node := range p.Network.Nodes() {
		doc.Nodes = append(doc.Nodes, NodeRecord{
			ID:   string(node.ID),
			Kind: node.Kind,
			Name: node.Name,
			X:    node.Pos.X,
			Y:    node.Pos.Y,
		})
	}
	for _, seg := range p.Network.Segments() {
		conduits := make([][]string, len(seg.Conduits))
		empty := true
		for i, conduit := range seg.Conduits {
			ids := make([]string, len(conduit.Circuits))
			for j, cid := range conduit.Circuits {
				ids[j] = string(cid)
			}
			if len(ids) > 0 {
				empty = false
			}
			conduits[i] = ids
		}
		if empty {
			conduits = nil
		}
		doc.Segments = append(doc.Segments, SegmentRecord{
			ID:       string(seg.ID),
			From:     string(seg.From),
			To:       string(seg.To),
			Kind:     seg.Kind,
			Mode:     seg.Mode,
			SizeRef:  seg.SizeRef,
			Quantity: seg.Quantity,
			LengthM:  seg.LengthM,
			Trunk:    string(seg.Trunk),
			Conduits: conduits,
		})
	}
	for _, circ := range p.Network.Circuits() {
		doc.Circuits = append(doc.Circuits, CircuitRecord{
			ID:       string(circ.ID),
			Name:     circ.Name,
			Service:  circ.Service,
			CableRef: circ.CableRef,
			Qty:      circ.Qty,
			From:     string(circ.From),
			To:       string(circ.To),
		})
	}
	for _, tr := range p.Trunks.Trunks() {
		doc.Trunks = append(doc.Trunks, TrunkRecord{ID: string(tr.ID), Manual: tr.Manual})
	}
	sort.Slice(doc.Trunks, func(i, j int) bool { return doc.Trunks[i].ID < doc.Trunks[j].ID })

	for _, preset := range p.Rules.Presets() {
		doc.Presets = append(doc.Presets, presetToRecord(preset))
	}
	sort.Slice(doc.Presets, func(i, j int) bool { return doc.Presets[i].ID < doc.Presets[j].ID })

	return doc
}

// Save writes the project document to disk.
func (p *Project) Save(path string) error {
	data, err := json.MarshalIndent(p.Snapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode project: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write project %s: %w", path, err)
	}
	return nil
}
