// Package project persists a complete design to a single JSON document:
// topology, circuits, trunk tags, rule presets, and the embedded
// materials snapshot. Routes and fill results are derived and never
// stored.
package project

import (
	"github.com/lowvolt/conduitcalc/pkg/catalog"
	"github.com/lowvolt/conduitcalc/pkg/network"
	"github.com/lowvolt/conduitcalc/pkg/rules"
)

// CurrentVersion is the schema version written by Save. Documents
// below it pass through a one-time migration at load.
const CurrentVersion = 2

// Document is the on-disk schema.
type Document struct {
	Version int     `json:"version" validate:"gte=0"`
	Name    string  `json:"name"`
	Scale   float64 `json:"scale" validate:"gte=0"`

	Nodes    []NodeRecord    `json:"nodes" validate:"dive"`
	Segments []SegmentRecord `json:"segments" validate:"dive"`
	Circuits []CircuitRecord `json:"circuits" validate:"dive"`
	Trunks   []TrunkRecord   `json:"trunks" validate:"dive"`

	ActivePresetID string         `json:"active_preset_id"`
	Presets        []PresetRecord `json:"presets" validate:"dive"`
	Catalog        *CatalogRecord `json:"catalog"`
}

// NodeRecord is a persisted node.
type NodeRecord struct {
	ID   string           `json:"id" validate:"required"`
	Kind network.NodeKind `json:"kind"`
	Name string           `json:"name,omitempty"`
	X    float64          `json:"x"`
	Y    float64          `json:"y"`
}

// SegmentRecord is a persisted segment including its per-conduit
// circuit assignments.
type SegmentRecord struct {
	ID       string              `json:"id" validate:"required"`
	From     string              `json:"from" validate:"required"`
	To       string              `json:"to" validate:"required"`
	Kind     network.SegmentKind `json:"kind"`
	Mode     network.SizingMode  `json:"mode"`
	SizeRef  string              `json:"size_ref,omitempty"`
	Quantity int                 `json:"quantity" validate:"gte=0"`
	LengthM  float64             `json:"length_m,omitempty" validate:"gte=0"`
	Trunk    string              `json:"trunk,omitempty"`
	Conduits [][]string          `json:"conduits,omitempty"`
}

// CircuitRecord is a persisted circuit declaration. The route is
// derived at load time.
type CircuitRecord struct {
	ID       string `json:"id" validate:"required"`
	Name     string `json:"name,omitempty"`
	Service  string `json:"service"`
	CableRef string `json:"cable_ref"`
	Qty      int    `json:"qty" validate:"gte=0"`
	From     string `json:"from" validate:"required"`
	To       string `json:"to" validate:"required"`
}

// TrunkRecord preserves which trunks are manually curated; automatic
// trunks are re-derived from segment tags.
type TrunkRecord struct {
	ID     string `json:"id" validate:"required"`
	Manual bool   `json:"manual"`
}

// PresetRecord mirrors rules.Preset in the JSON schema.
type PresetRecord struct {
	ID         string             `json:"id" validate:"required"`
	Name       string             `json:"name,omitempty"`
	Duct       KindRulesRecord    `json:"duct"`
	EPC        KindRulesRecord    `json:"epc"`
	BPC        KindRulesRecord    `json:"bpc"`
	Separation []SeparationRecord `json:"separation,omitempty" validate:"dive"`
	WarnAtPct  float64            `json:"warn_at_pct" validate:"gte=0,lte=100"`
}

// KindRulesRecord mirrors rules.KindRules.
type KindRulesRecord struct {
	FillMaxPct       float64           `json:"fill_max_pct" validate:"gte=0,lte=100"`
	FillByConductors []FillRangeRecord `json:"fill_by_conductors,omitempty" validate:"dive"`
	LayersEnabled    bool              `json:"layers_enabled"`
	MaxLayers        int               `json:"max_layers" validate:"gte=0"`
}

// FillRangeRecord mirrors rules.FillRange.
type FillRangeRecord struct {
	Min        int     `json:"min" validate:"gte=0"`
	Max        int     `json:"max" validate:"gte=0"`
	FillMaxPct float64 `json:"fill_max_pct" validate:"gt=0,lte=100"`
}

// SeparationRecord mirrors rules.SeparationRule.
type SeparationRecord struct {
	Services []string `json:"if_services" validate:"min=2"`
	Requires string   `json:"requires" validate:"oneof=separate_containment same_allowed"`
}

// CatalogRecord mirrors the embedded catalog snapshot.
type CatalogRecord struct {
	ID      string              `json:"id" validate:"required"`
	Name    string              `json:"name,omitempty"`
	Entries []EntryRecord       `json:"entries" validate:"dive"`
	Cables  []CableSpecRecord   `json:"cables" validate:"dive"`
}

// EntryRecord mirrors catalog.Entry.
type EntryRecord struct {
	ID            string              `json:"id" validate:"required"`
	Name          string              `json:"name,omitempty"`
	Kind          network.SegmentKind `json:"kind"`
	InnerDiameter float64             `json:"inner_diameter_mm,omitempty" validate:"gte=0"`
	InnerWidth    float64             `json:"inner_width_mm,omitempty" validate:"gte=0"`
	InnerHeight   float64             `json:"inner_height_mm,omitempty" validate:"gte=0"`
	UsableAreaMM2 float64             `json:"usable_area_mm2,omitempty" validate:"gte=0"`
	HasSeparator  bool                `json:"has_separator,omitempty"`
}

// CableSpecRecord mirrors catalog.CableSpec.
type CableSpecRecord struct {
	ID            string  `json:"id" validate:"required"`
	Name          string  `json:"name,omitempty"`
	AreaMM2       float64 `json:"area_mm2,omitempty" validate:"gte=0"`
	OuterDiameter float64 `json:"outer_diameter_mm,omitempty" validate:"gte=0"`
}

func presetFromRecord(rec PresetRecord) *rules.Preset {
	return &rules.Preset{
		ID:         rec.ID,
		Name:       rec.Name,
		Duct:       kindRulesFromRecord(rec.Duct),
		EPC:        kindRulesFromRecord(rec.EPC),
		BPC:        kindRulesFromRecord(rec.BPC),
		Separation: separationFromRecords(rec.Separation),
		WarnAtPct:  rec.WarnAtPct,
	}
}

func kindRulesFromRecord(rec KindRulesRecord) rules.KindRules {
	ranges := make([]rules.FillRange, len(rec.FillByConductors))
	for i, r := range rec.FillByConductors {
		ranges[i] = rules.FillRange{Min: r.Min, Max: r.Max, FillMaxPct: r.FillMaxPct}
	}
	return rules.KindRules{
		FillMaxPct:       rec.FillMaxPct,
		FillByConductors: ranges,
		LayersEnabled:    rec.LayersEnabled,
		MaxLayers:        rec.MaxLayers,
	}
}

func separationFromRecords(recs []SeparationRecord) []rules.SeparationRule {
	out := make([]rules.SeparationRule, len(recs))
	for i, r := range recs {
		out[i] = rules.SeparationRule{
			Services: append([]string(nil), r.Services...),
			Requires: r.Requires,
		}
	}
	return out
}

func presetToRecord(p *rules.Preset) PresetRecord {
	return PresetRecord{
		ID:         p.ID,
		Name:       p.Name,
		Duct:       kindRulesToRecord(p.Duct),
		EPC:        kindRulesToRecord(p.EPC),
		BPC:        kindRulesToRecord(p.BPC),
		Separation: separationToRecords(p.Separation),
		WarnAtPct:  p.WarnAtPct,
	}
}

func kindRulesToRecord(k rules.KindRules) KindRulesRecord {
	ranges := make([]FillRangeRecord, len(k.FillByConductors))
	for i, r := range k.FillByConductors {
		ranges[i] = FillRangeRecord{Min: r.Min, Max: r.Max, FillMaxPct: r.FillMaxPct}
	}
	return KindRulesRecord{
		FillMaxPct:       k.FillMaxPct,
		FillByConductors: ranges,
		LayersEnabled:    k.LayersEnabled,
		MaxLayers:        k.MaxLayers,
	}
}

func separationToRecords(srs []rules.SeparationRule) []SeparationRecord {
	out := make([]SeparationRecord, len(srs))
	for i, sr := range srs {
		out[i] = SeparationRecord{
			Services: append([]string(nil), sr.Services...),
			Requires: sr.Requires,
		}
	}
	return out
}

func catalogFromRecord(rec *CatalogRecord) (*catalog.Catalog, error) {
	entries := make([]catalog.Entry, len(rec.Entries))
	for i, e := range rec.Entries {
		entries[i] = catalog.Entry{
			ID:            e.ID,
			Name:          e.Name,
			Kind:          e.Kind,
			InnerDiameter: e.InnerDiameter,
			InnerWidth:    e.InnerWidth,
			InnerHeight:   e.InnerHeight,
			UsableAreaMM2: e.UsableAreaMM2,
			HasSeparator:  e.HasSeparator,
		}
	}
	cables := make([]catalog.CableSpec, len(rec.Cables))
	for i, c := range rec.Cables {
		cables[i] = catalog.CableSpec{
			ID:            c.ID,
			Name:          c.Name,
			AreaMM2:       c.AreaMM2,
			OuterDiameter: c.OuterDiameter,
		}
	}
	return catalog.New(rec.ID, rec.Name, entries, cables)
}

func catalogToRecord(cat *catalog.Catalog) *CatalogRecord {
	rec := &CatalogRecord{
		ID:      cat.ID,
		Name:    cat.Name,
		Entries: make([]EntryRecord, len(cat.Entries)),
		Cables:  make([]CableSpecRecord, len(cat.Cables)),
	}
	for i, e := range cat.Entries {
		rec.Entries[i] = EntryRecord{
			ID:            e.ID,
			Name:          e.Name,
			Kind:          e.Kind,
			InnerDiameter: e.InnerDiameter,
			InnerWidth:    e.InnerWidth,
			InnerHeight:   e.InnerHeight,
			UsableAreaMM2: e.UsableAreaMM2,
			HasSeparator:  e.HasSeparator,
		}
	}
	for i, c := range cat.Cables {
		rec.Cables[i] = CableSpecRecord{
			ID:            c.ID,
			Name:          c.Name,
			AreaMM2:       c.AreaMM2,
			OuterDiameter: c.OuterDiameter,
		}
	}
	return rec
}
