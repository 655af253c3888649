package catalog

import "github.com/lowvolt/conduitcalc/pkg/network"

// Default returns the built-in materials snapshot used when a project
// carries no embedded catalog: metric PVC duct sizes plus common tray
// and wireway sections, and a small set of generic cable specs.
func Default() *Catalog {
	cat, err := New("builtin_metric", "Built-in metric sizes", []Entry{
		{ID: "duct_20", Name: "Duct 20 mm", Kind: network.KindDuct, InnerDiameter: 20},
		{ID: "duct_25", Name: "Duct 25 mm", Kind: network.KindDuct, InnerDiameter: 25},
		{ID: "duct_32", Name: "Duct 32 mm", Kind: network.KindDuct, InnerDiameter: 32},
		{ID: "duct_40", Name: "Duct 40 mm", Kind: network.KindDuct, InnerDiameter: 40},
		{ID: "duct_50", Name: "Duct 50 mm", Kind: network.KindDuct, InnerDiameter: 50},
		{ID: "duct_63", Name: "Duct 63 mm", Kind: network.KindDuct, InnerDiameter: 63},
		{ID: "duct_75", Name: "Duct 75 mm", Kind: network.KindDuct, InnerDiameter: 75},
		{ID: "duct_110", Name: "Duct 110 mm", Kind: network.KindDuct, InnerDiameter: 110},
		{ID: "epc_150x100", Name: "Tray 150x100", Kind: network.KindEPC, InnerWidth: 150, InnerHeight: 100},
		{ID: "epc_300x100", Name: "Tray 300x100", Kind: network.KindEPC, InnerWidth: 300, InnerHeight: 100},
		{ID: "epc_450x100", Name: "Tray 450x100", Kind: network.KindEPC, InnerWidth: 450, InnerHeight: 100},
		{ID: "bpc_100x50", Name: "Wireway 100x50", Kind: network.KindBPC, InnerWidth: 100, InnerHeight: 50},
		{ID: "bpc_200x50", Name: "Wireway 200x50", Kind: network.KindBPC, InnerWidth: 200, InnerHeight: 50},
	}, []CableSpec{
		{ID: "cu_3x2.5", Name: "Cu 3x2.5", OuterDiameter: 11},
		{ID: "cu_3x4", Name: "Cu 3x4", OuterDiameter: 12.5},
		{ID: "cu_3x6", Name: "Cu 3x6", OuterDiameter: 14},
		{ID: "utp_cat6", Name: "UTP Cat6", OuterDiameter: 6.2},
		{ID: "ftp_cat6a", Name: "FTP Cat6A", OuterDiameter: 7.6},
	})
	if err != nil {
		// IDs above are distinct by construction.
		panic(err)
	}
	return cat
}
