// Package rules models fill/layer/separation rule presets. A preset is
// a typed rule table keyed by conduit kind; exactly one preset is
// active per project.
package rules

import (
	"github.com/lowvolt/conduitcalc/pkg/network"
)

// Default fill limits applied when a kind block leaves the limit unset.
const (
	DefaultDuctMaxFillPercent = 40.0
	DefaultTrayMaxFillPercent = 50.0
	DefaultWarnAtPct          = 80.0
)

// FillRange maps a conductor-count range to a fill limit, the NEC-style
// table for ducts (1 conductor 53%, 2 conductors 31%, 3+ 40%).
type FillRange struct {
	Min        int     `yaml:"min" validate:"gte=0"`
	Max        int     `yaml:"max" validate:"gte=0"`
	FillMaxPct float64 `yaml:"fill_max_pct" validate:"gt=0,lte=100"`
}

// KindRules is the rule block for one conduit kind.
type KindRules struct {
	FillMaxPct       float64     `yaml:"fill_max_pct" validate:"gte=0,lte=100"`
	FillByConductors []FillRange `yaml:"fill_by_conductors" validate:"dive"`
	LayersEnabled    bool        `yaml:"layers_enabled"`
	MaxLayers        int         `yaml:"max_layers" validate:"gte=0"`
}

// SeparationRule forbids the listed service types from sharing a
// conduit when Requires is "separate_containment".
type SeparationRule struct {
	Services []string `yaml:"if_services" validate:"min=2"`
	Requires string   `yaml:"requires" validate:"oneof=separate_containment same_allowed"`
}

// RequiresSeparation reports whether the rule demands separate
// containment.
func (r SeparationRule) RequiresSeparation() bool {
	return r.Requires == "separate_containment"
}

// Covers reports whether both services fall under this rule.
func (r SeparationRule) Covers(svcA, svcB string) bool {
	foundA, foundB := false, false
	for _, svc := range r.Services {
		if svc == svcA {
			foundA = true
		}
		if svc == svcB {
			foundB = true
		}
	}
	return foundA && foundB
}

// Preset is a named, switchable set of fill/layer/separation rules.
type Preset struct {
	ID         string           `yaml:"id" validate:"required"`
	Name       string           `yaml:"name"`
	Duct       KindRules        `yaml:"duct"`
	EPC        KindRules        `yaml:"epc"`
	BPC        KindRules        `yaml:"bpc"`
	Separation []SeparationRule `yaml:"separation" validate:"dive"`
	// WarnAtPct is the utilization percentage at which a conduit is
	// flagged Warn while still within limits (status thresholds live
	// in the preset, not in code).
	WarnAtPct float64 `yaml:"warn_at_pct" validate:"gte=0,lte=100"`
}

// KindRules returns the rule block for a segment kind.
func (p *Preset) KindRules(kind network.SegmentKind) KindRules {
	switch kind {
	case network.KindEPC:
		return p.EPC
	case network.KindBPC:
		return p.BPC
	default:
		return p.Duct
	}
}

// FillLimit resolves the max fill percent for a kind and conductor
// count. Duct limits may come from the conductor-count ranges; the last
// range is the fallback when the count exceeds every range, matching
// the legacy rule tables.
func (p *Preset) FillLimit(kind network.SegmentKind, conductorCount int) float64 {
	block := p.KindRules(kind)
	if kind == network.KindDuct && len(block.FillByConductors) > 0 {
		for _, r := range block.FillByConductors {
			if r.Min <= conductorCount && conductorCount <= r.Max && r.FillMaxPct > 0 {
				return r.FillMaxPct
			}
		}
		last := block.FillByConductors[len(block.FillByConductors)-1]
		if last.FillMaxPct > 0 {
			return last.FillMaxPct
		}
	}
	if block.FillMaxPct > 0 {
		return block.FillMaxPct
	}
	if kind == network.KindDuct {
		return DefaultDuctMaxFillPercent
	}
	return DefaultTrayMaxFillPercent
}

// LayersRule returns whether layer checking is enabled for the kind and
// the maximum layer count (always at least 1).
func (p *Preset) LayersRule(kind network.SegmentKind) (bool, int) {
	block := p.KindRules(kind)
	maxLayers := block.MaxLayers
	if maxLayers < 1 {
		maxLayers = 1
	}
	return block.LayersEnabled, maxLayers
}

// MustSeparate reports whether two service types may not share a
// conduit under this preset. A service never conflicts with itself.
func (p *Preset) MustSeparate(svcA, svcB string) bool {
	if svcA == svcB {
		return false
	}
	for _, rule := range p.Separation {
		if rule.Covers(svcA, svcB) {
			return rule.RequiresSeparation()
		}
	}
	return false
}

// Warn returns the warn threshold percentage, defaulting when unset.
func (p *Preset) Warn() float64 {
	if p.WarnAtPct > 0 {
		return p.WarnAtPct
	}
	return DefaultWarnAtPct
}

// DefaultPreset returns the built-in conventional preset assigned to
// migrated legacy projects.
func DefaultPreset() *Preset {
	return &Preset{
		ID:   "ss_conventional",
		Name: "Conventional low-voltage",
		Duct: KindRules{
			FillByConductors: []FillRange{
				{Min: 1, Max: 1, FillMaxPct: 53},
				{Min: 2, Max: 2, FillMaxPct: 31},
				{Min: 3, Max: 9999, FillMaxPct: 40},
			},
		},
		EPC: KindRules{
			FillMaxPct:    50,
			LayersEnabled: true,
			MaxLayers:     2,
		},
		BPC: KindRules{
			FillMaxPct: 40,
		},
		Separation: []SeparationRule{
			{Services: []string{"power", "data"}, Requires: "separate_containment"},
			{Services: []string{"power", "fire"}, Requires: "separate_containment"},
		},
		WarnAtPct: DefaultWarnAtPct,
	}
}

// Clone returns an independent copy of the preset.
func (p *Preset) Clone() *Preset {
	clone := *p
	clone.Duct.FillByConductors = append([]FillRange(nil), p.Duct.FillByConductors...)
	clone.EPC.FillByConductors = append([]FillRange(nil), p.EPC.FillByConductors...)
	clone.BPC.FillByConductors = append([]FillRange(nil), p.BPC.FillByConductors...)
	clone.Separation = make([]SeparationRule, len(p.Separation))
	for i, rule := range p.Separation {
		clone.Separation[i] = SeparationRule{
			Services: append([]string(nil), rule.Services...),
			Requires: rule.Requires,
		}
	}
	return &clone
}
