package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/lowvolt/conduitcalc/pkg/network"
)

// The structural hash covers everything a recalculation depends on:
// node kinds and positions, segment topology, sizing and trunk tags,
// per-conduit assignments, circuit declarations, the active preset ID,
// and the catalog snapshot ID. Display names, derived routes, and
// computed fill values are excluded, so cosmetic edits never invalidate
// cached results.

type nodeDigest struct {
	ID   string  `json:"id"`
	Kind string  `json:"kind"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type segmentDigest struct {
	ID       string     `json:"id"`
	From     string     `json:"from"`
	To       string     `json:"to"`
	Kind     string     `json:"kind"`
	Mode     string     `json:"mode"`
	SizeRef  string     `json:"size_ref"`
	Quantity int        `json:"quantity"`
	LengthM  float64    `json:"length_m"`
	Trunk    string     `json:"trunk"`
	Conduits [][]string `json:"conduits"`
}

type circuitDigest struct {
	ID       string `json:"id"`
	Service  string `json:"service"`
	CableRef string `json:"cable_ref"`
	Qty      int    `json:"qty"`
	From     string `json:"from"`
	To       string `json:"to"`
}

type structureDigest struct {
	Scale    float64         `json:"scale"`
	Nodes    []nodeDigest    `json:"nodes"`
	Segments []segmentDigest `json:"segments"`
	Circuits []circuitDigest `json:"circuits"`
	Preset   string          `json:"preset"`
	Catalog  string          `json:"catalog"`
}

// StructuralHash returns the SHA-256 hex digest of the network's
// calculation-relevant structure combined with the active preset and
// catalog identity. Two networks with the same hash produce the same
// results.
func StructuralHash(net *network.Network, presetID, catalogID string) (string, error) {
	digest := structureDigest{
		Scale:    net.Scale(),
		Nodes:    make([]nodeDigest, 0),
		Segments: make([]segmentDigest, 0),
		Circuits: make([]circuitDigest, 0),
		Preset:   presetID,
		Catalog:  catalogID,
	}

	for _, node := range net.Nodes() {
		digest.Nodes = append(digest.Nodes, nodeDigest{
			ID:   string(node.ID),
			Kind: node.Kind.String(),
			X:    node.Pos.X,
			Y:    node.Pos.Y,
		})
	}
	sort.Slice(digest.Nodes, func(i, j int) bool {
		return digest.Nodes[i].ID < digest.Nodes[j].ID
	})

	for _, seg := range net.Segments() {
		conduits := make([][]string, len(seg.Conduits))
		for i, conduit := range seg.Conduits {
			ids := make([]string, len(conduit.Circuits))
			for j, cid := range conduit.Circuits {
				ids[j] = string(cid)
			}
			sort.Strings(ids)
			conduits[i] = ids
		}
		digest.Segments = append(digest.Segments, segmentDigest{
			ID:       string(seg.ID),
			From:     string(seg.From),
			To:       string(seg.To),
			Kind:     seg.Kind.String(),
			Mode:     seg.Mode.String(),
			SizeRef:  seg.SizeRef,
			Quantity: seg.Quantity,
			LengthM:  seg.LengthM,
			Trunk:    string(seg.Trunk),
			Conduits: conduits,
		})
	}
	sort.Slice(digest.Segments, func(i, j int) bool {
		return digest.Segments[i].ID < digest.Segments[j].ID
	})

	for _, circ := range net.Circuits() {
		digest.Circuits = append(digest.Circuits, circuitDigest{
			ID:       string(circ.ID),
			Service:  circ.Service,
			CableRef: circ.CableRef,
			Qty:      circ.Qty,
			From:     string(circ.From),
			To:       string(circ.To),
		})
	}
	sort.Slice(digest.Circuits, func(i, j int) bool {
		return digest.Circuits[i].ID < digest.Circuits[j].ID
	})

	canonical, err := json.Marshal(digest)
	if err != nil {
		return "", fmt.Errorf("marshal structure digest: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
