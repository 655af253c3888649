package catalog

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowvolt/conduitcalc/pkg/network"
)

func TestDuctUsableAreaFromDiameter(t *testing.T) {
	entry := Entry{ID: "D50", Kind: network.KindDuct, InnerDiameter: 50}
	expected := math.Pi * 25 * 25
	assert.InDelta(t, expected, entry.UsableArea(), 1e-9)
}

func TestExplicitUsableAreaWins(t *testing.T) {
	entry := Entry{ID: "D50", Kind: network.KindDuct, InnerDiameter: 50, UsableAreaMM2: 1000}
	assert.Equal(t, 1000.0, entry.UsableArea())
}

func TestTrayUsableAreaWithSeparator(t *testing.T) {
	tray := Entry{ID: "T300", Kind: network.KindEPC, InnerWidth: 300, InnerHeight: 100}
	assert.InDelta(t, 30000.0, tray.UsableArea(), 1e-9)

	tray.HasSeparator = true
	assert.InDelta(t, 15000.0, tray.UsableArea(), 1e-9)
}

func TestCableAreaFromDiameter(t *testing.T) {
	cable := CableSpec{ID: "CU-10", OuterDiameter: 10}
	assert.InDelta(t, math.Pi*25, cable.Area(), 1e-9)

	explicit := CableSpec{ID: "CU-X", AreaMM2: 42, OuterDiameter: 10}
	assert.Equal(t, 42.0, explicit.Area())
}

func TestEntriesForKindSortedAscending(t *testing.T) {
	cat, err := New("mat-1", "test", []Entry{
		{ID: "D100", Kind: network.KindDuct, InnerDiameter: 100},
		{ID: "D25", Kind: network.KindDuct, InnerDiameter: 25},
		{ID: "D50", Kind: network.KindDuct, InnerDiameter: 50},
		{ID: "T300", Kind: network.KindEPC, InnerWidth: 300, InnerHeight: 100},
	}, nil)
	require.NoError(t, err)

	ducts := cat.EntriesForKind(network.KindDuct)
	require.Len(t, ducts, 3)
	assert.Equal(t, "D25", ducts[0].ID)
	assert.Equal(t, "D50", ducts[1].ID)
	assert.Equal(t, "D100", ducts[2].ID)

	trays := cat.EntriesForKind(network.KindEPC)
	require.Len(t, trays, 1)
	assert.Equal(t, "T300", trays[0].ID)
}

func TestDuplicateIDsRejected(t *testing.T) {
	_, err := New("mat-1", "test", []Entry{
		{ID: "D50", Kind: network.KindDuct, InnerDiameter: 50},
		{ID: "D50", Kind: network.KindDuct, InnerDiameter: 63},
	}, nil)
	assert.Error(t, err)
}

func TestParseCatalogDocument(t *testing.T) {
	doc := []byte(`
id: mat-2024
name: Conventional materials
entries:
  - id: D50
    name: Duct 50mm
    kind: duct
    inner_diameter_mm: 50
  - id: EPC300
    name: Tray 300x100
    kind: epc
    inner_width_mm: 300
    inner_height_mm: 100
cables:
  - id: CU-3x2.5
    name: Cu 3x2.5
    outer_diameter_mm: 11.5
`)
	cat, err := Parse(doc)
	require.NoError(t, err)
	assert.Equal(t, "mat-2024", cat.ID)

	entry, err := cat.Entry("D50")
	require.NoError(t, err)
	assert.Equal(t, network.KindDuct, entry.Kind)

	cable, err := cat.Cable("CU-3x2.5")
	require.NoError(t, err)
	assert.Greater(t, cable.Area(), 0.0)

	_, err = cat.Cable("missing")
	assert.ErrorIs(t, err, ErrCableNotFound)
}

func TestParseRejectsDeadGeometry(t *testing.T) {
	doc := []byte(`
id: mat-bad
entries:
  - id: D0
    kind: duct
cables:
  - id: C0
`)
	_, err := Parse(doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "D0")
	assert.Contains(t, err.Error(), "C0")
}

func TestCloneIsIndependent(t *testing.T) {
	cat, err := New("mat-1", "test", []Entry{
		{ID: "D50", Kind: network.KindDuct, InnerDiameter: 50},
	}, []CableSpec{{ID: "C1", AreaMM2: 10}})
	require.NoError(t, err)

	clone := cat.Clone()
	clone.Entries[0].InnerDiameter = 99

	orig, err := cat.Entry("D50")
	require.NoError(t, err)
	assert.Equal(t, 50.0, orig.InnerDiameter)
}
