// Package cluster computes equivalence classes over the relationship
// graph. Identity-preserving relations are treated as undirected edges and
// collapsed with a union-find, then every component elects one canonical
// RxCUI, so that brand and generic names resolve to the same identifier.
package cluster

import (
	"sort"

	"github.com/openmedrec/rxnorm-annotator/logging"
	"github.com/openmedrec/rxnorm-annotator/terminology/entities"
)

// unionFind is an arena of compact integer indices with path compression
// and union by size.
type unionFind struct {
	parent []int32
	size   []int32
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{
		parent: make([]int32, n),
		size:   make([]int32, n),
	}
	for i := range uf.parent {
		uf.parent[i] = int32(i)
		uf.size[i] = 1
	}
	return uf
}

func (uf *unionFind) find(x int32) int32 {
	root := x
	for uf.parent[root] != root {
		root = uf.parent[root]
	}
	// Path compression
	for uf.parent[x] != root {
		uf.parent[x], x = root, uf.parent[x]
	}
	return root
}

func (uf *unionFind) union(a, b int32) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	if uf.size[ra] < uf.size[rb] {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
	uf.size[ra] += uf.size[rb]
}

// ClusterSet maps every catalog RxCUI to the canonical RxCUI elected for
// its equivalence class. RxCUIs untouched by identity relations stay their
// own canonical id.
type ClusterSet struct {
	canonical map[int]int

	// Build statistics, informational only.
	Components       int
	MergedConcepts   int
	DroppedRelations int
}

// Build clusters the catalog with the identity-preserving subset of
// relations. Relations referencing RxCUIs absent from the catalog are
// dropped and counted. A relation set with no identity edges degrades to
// all-singleton clusters.
func Build(catalog *entities.Catalog, relations []entities.Relation) *ClusterSet {
	// Arena of compact indices, in sorted RxCUI order so the build is
	// reproducible regardless of map iteration.
	rxcuis := make([]int, 0, len(catalog.ByRxCUI))
	for rxcui := range catalog.ByRxCUI {
		rxcuis = append(rxcuis, rxcui)
	}
	sort.Ints(rxcuis)

	indexOf := make(map[int]int32, len(rxcuis))
	for i, rxcui := range rxcuis {
		indexOf[rxcui] = int32(i)
	}

	uf := newUnionFind(len(rxcuis))
	dropped := 0
	identityEdges := 0

	for _, rel := range relations {
		if !rel.IsIdentity() {
			continue
		}
		a, okA := indexOf[rel.RxCUIA]
		b, okB := indexOf[rel.RxCUIB]
		if !okA || !okB {
			dropped++
			continue
		}
		uf.union(a, b)
		identityEdges++
	}

	// Elect one canonical entry per component. Iterating RxCUIs in sorted
	// order keeps elections deterministic.
	winners := make(map[int32]entities.Entry)
	for _, rxcui := range rxcuis {
		root := uf.find(indexOf[rxcui])
		best, ok := catalog.BestEntry(rxcui)
		if !ok {
			continue
		}
		current, seen := winners[root]
		if !seen || best.Better(current) {
			winners[root] = best
		}
	}

	canonical := make(map[int]int, len(rxcuis))
	components := make(map[int32]bool)
	merged := 0
	for _, rxcui := range rxcuis {
		root := uf.find(indexOf[rxcui])
		components[root] = true
		winner := winners[root].RxCUI
		canonical[rxcui] = winner
		if winner != rxcui {
			merged++
		}
	}

	cs := &ClusterSet{
		canonical:        canonical,
		Components:       len(components),
		MergedConcepts:   merged,
		DroppedRelations: dropped,
	}

	logging.Info("Equivalence clustering completed",
		"concepts", len(rxcuis),
		"identity_edges", identityEdges,
		"components", cs.Components,
		"merged_concepts", cs.MergedConcepts,
		"dropped_relations", cs.DroppedRelations,
	)

	return cs
}

// Canonical returns the canonical RxCUI for an identifier. Identifiers
// unknown to the catalog map to themselves.
func (cs *ClusterSet) Canonical(rxcui int) int {
	if canonical, ok := cs.canonical[rxcui]; ok {
		return canonical
	}
	return rxcui
}

// Size returns the number of mapped identifiers.
func (cs *ClusterSet) Size() int {
	return len(cs.canonical)
}
