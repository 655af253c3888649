// Package catalog models the materials catalog snapshot a project
// carries: conduit/tray sizes and cable specifications. A snapshot is
// immutable once loaded; recalculations read it without locking.
package catalog

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/lowvolt/conduitcalc/pkg/network"
)

var (
	// ErrCableNotFound is returned when a circuit references a cable
	// spec missing from the snapshot.
	ErrCableNotFound = errors.New("cable spec not found in catalog")
	// ErrEntryNotFound is returned when a segment references a size
	// entry missing from the snapshot.
	ErrEntryNotFound = errors.New("size entry not found in catalog")
)

// DefaultTraySeparatorFactor is the usable-area factor applied when a
// tray carries a service separator.
const DefaultTraySeparatorFactor = 0.5

// Entry is one size in the catalog: a round duct (inner diameter) or a
// rectangular tray/wireway (inner width x height). An explicit usable
// area overrides the derived one.
type Entry struct {
	ID            string              `yaml:"id" validate:"required"`
	Name          string              `yaml:"name"`
	Kind          network.SegmentKind `yaml:"kind"`
	InnerDiameter float64             `yaml:"inner_diameter_mm" validate:"gte=0"`
	InnerWidth    float64             `yaml:"inner_width_mm" validate:"gte=0"`
	InnerHeight   float64             `yaml:"inner_height_mm" validate:"gte=0"`
	UsableAreaMM2 float64             `yaml:"usable_area_mm2" validate:"gte=0"`
	HasSeparator  bool                `yaml:"has_separator"`
}

// UsableArea returns the usable cross-sectional area in mm².
func (e Entry) UsableArea() float64 {
	if e.UsableAreaMM2 > 0 {
		return e.applySeparator(e.UsableAreaMM2)
	}
	if e.Kind == network.KindDuct {
		if e.InnerDiameter <= 0 {
			return 0
		}
		r := e.InnerDiameter / 2.0
		return math.Pi * r * r
	}
	return e.applySeparator(e.InnerWidth * e.InnerHeight)
}

func (e Entry) applySeparator(area float64) float64 {
	if e.HasSeparator && e.Kind != network.KindDuct {
		return area * DefaultTraySeparatorFactor
	}
	return area
}

// ClearWidth returns the usable horizontal width in mm, used by the
// layer estimator for rectangular sections. Ducts report their inner
// diameter.
func (e Entry) ClearWidth() float64 {
	if e.Kind == network.KindDuct {
		return e.InnerDiameter
	}
	return e.InnerWidth
}

// CableSpec describes one cable from the materials library. Area wins
// over the outer diameter when both are present.
type CableSpec struct {
	ID            string  `yaml:"id" validate:"required"`
	Name          string  `yaml:"name"`
	AreaMM2       float64 `yaml:"area_mm2" validate:"gte=0"`
	OuterDiameter float64 `yaml:"outer_diameter_mm" validate:"gte=0"`
}

// Area returns the cable's cross-sectional area in mm².
func (c CableSpec) Area() float64 {
	if c.AreaMM2 > 0 {
		return c.AreaMM2
	}
	if c.OuterDiameter <= 0 {
		return 0
	}
	r := c.OuterDiameter / 2.0
	return math.Pi * r * r
}

// Diameter returns the cable's outer diameter in mm, deriving it from
// the area when not declared.
func (c CableSpec) Diameter() float64 {
	if c.OuterDiameter > 0 {
		return c.OuterDiameter
	}
	if c.AreaMM2 <= 0 {
		return 0
	}
	return 2.0 * math.Sqrt(c.AreaMM2/math.Pi)
}

// Catalog is an immutable materials snapshot embedded in a project for
// reproducibility across library edits.
type Catalog struct {
	ID      string      `yaml:"id" validate:"required"`
	Name    string      `yaml:"name"`
	Entries []Entry     `yaml:"entries" validate:"dive"`
	Cables  []CableSpec `yaml:"cables" validate:"dive"`

	entryByID map[string]int
	cableByID map[string]int
}

// New builds a catalog and its lookup indexes.
func New(id, name string, entries []Entry, cables []CableSpec) (*Catalog, error) {
	c := &Catalog{ID: id, Name: name, Entries: entries, Cables: cables}
	if err := c.reindex(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) reindex() error {
	c.entryByID = make(map[string]int, len(c.Entries))
	for i, entry := range c.Entries {
		if _, dup := c.entryByID[entry.ID]; dup {
			return fmt.Errorf("catalog %s: duplicate entry ID %q", c.ID, entry.ID)
		}
		c.entryByID[entry.ID] = i
	}
	c.cableByID = make(map[string]int, len(c.Cables))
	for i, cable := range c.Cables {
		if _, dup := c.cableByID[cable.ID]; dup {
			return fmt.Errorf("catalog %s: duplicate cable ID %q", c.ID, cable.ID)
		}
		c.cableByID[cable.ID] = i
	}
	return nil
}

// Entry looks up a size entry by ID.
func (c *Catalog) Entry(id string) (Entry, error) {
	idx, ok := c.entryByID[id]
	if !ok {
		return Entry{}, fmt.Errorf("entry %q: %w", id, ErrEntryNotFound)
	}
	return c.Entries[idx], nil
}

// Cable looks up a cable spec by ID.
func (c *Catalog) Cable(id string) (CableSpec, error) {
	idx, ok := c.cableByID[id]
	if !ok {
		return CableSpec{}, fmt.Errorf("cable %q: %w", id, ErrCableNotFound)
	}
	return c.Cables[idx], nil
}

// EntriesForKind returns the entries of one segment kind sorted
// ascending by usable area, the search order for auto sizing.
func (c *Catalog) EntriesForKind(kind network.SegmentKind) []Entry {
	out := make([]Entry, 0)
	for _, entry := range c.Entries {
		if entry.Kind == kind {
			out = append(out, entry)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ai, aj := out[i].UsableArea(), out[j].UsableArea()
		if ai != aj {
			return ai < aj
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Clone returns an independent copy of the snapshot.
func (c *Catalog) Clone() *Catalog {
	clone := &Catalog{
		ID:      c.ID,
		Name:    c.Name,
		Entries: append([]Entry(nil), c.Entries...),
		Cables:  append([]CableSpec(nil), c.Cables...),
	}
	// Indexes are rebuilt, never shared.
	if err := clone.reindex(); err != nil {
		// The source catalog was already validated; a duplicate here
		// cannot happen.
		panic(err)
	}
	return clone
}
