// Package index builds and serves the canonical name index: one lookup
// table from every normalized name variant to the canonical identifier of
// its equivalence cluster. The index is read-only after build, so
// concurrent readers need no locking.
package index

import (
	"fmt"
	"sort"

	"github.com/openmedrec/rxnorm-annotator/cluster"
	"github.com/openmedrec/rxnorm-annotator/logging"
	"github.com/openmedrec/rxnorm-annotator/normalizer"
	"github.com/openmedrec/rxnorm-annotator/terminology/entities"
)

// Entry is one mapping of the canonical index.
type Entry struct {
	CanonicalID int    `json:"canonicalId"`
	EntryID     int    `json:"entryId"`
	Name        string `json:"name"`
	TermType    string `json:"termType"`
	SourceCount int    `json:"sourceCount"`
	Priority    int    `json:"priority"`
}

// better applies the same tie-break ordering as canonical election when two
// catalog entries normalize to the identical key.
func (e Entry) better(other Entry) bool {
	if ra, rb := entities.TermTypeRank(e.TermType), entities.TermTypeRank(other.TermType); ra != rb {
		return ra < rb
	}
	if e.Priority != other.Priority {
		return e.Priority > other.Priority
	}
	return e.CanonicalID < other.CanonicalID
}

// Index is the immutable lookup structure consulted by the match engine.
type Index struct {
	Source  string           `json:"source"`
	Entries map[string]Entry `json:"entries"`

	// Conflicts counts key collisions across different clusters that were
	// resolved by the tie-break ordering at build time.
	Conflicts int `json:"conflicts"`
	Clusters  int `json:"clusters"`

	keys []string
}

// Build creates the canonical index from a catalog and its cluster set.
// Every normalized variant of every entry name points at the cluster's
// canonical id. Cross-cluster key collisions resolve deterministically by
// the election ordering; the discarded mapping is a counted warning, not
// an error.
func Build(catalog *entities.Catalog, clusters *cluster.ClusterSet) *Index {
	idx := &Index{
		Source:  catalog.Name,
		Entries: make(map[string]Entry, len(catalog.Entries)*2),
	}

	canonicals := make(map[int]bool)

	// Entries are sorted before insertion so collision winners do not
	// depend on catalog order.
	sorted := make([]entities.Entry, len(catalog.Entries))
	copy(sorted, catalog.Entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Better(sorted[j]) })

	for _, entry := range sorted {
		canonicalID := clusters.Canonical(entry.RxCUI)
		canonicals[canonicalID] = true

		candidate := Entry{
			CanonicalID: canonicalID,
			EntryID:     entry.RxCUI,
			Name:        entry.Name,
			TermType:    entry.TermType,
			SourceCount: len(entry.Sources),
			Priority:    entry.Priority,
		}

		for _, key := range normalizer.Normalize(entry.Name) {
			existing, exists := idx.Entries[key]
			if !exists {
				idx.Entries[key] = candidate
				continue
			}
			if existing.CanonicalID == candidate.CanonicalID {
				continue
			}
			idx.Conflicts++
			if candidate.better(existing) {
				logging.Debug("Index key conflict resolved",
					"key", key,
					"kept_canonical", candidate.CanonicalID,
					"discarded_canonical", existing.CanonicalID)
				idx.Entries[key] = candidate
			}
		}
	}

	idx.Clusters = len(canonicals)
	idx.buildKeys()

	logging.Info("Canonical index built",
		"source", idx.Source,
		"keys", len(idx.Entries),
		"clusters", idx.Clusters,
		"conflicts", idx.Conflicts,
	)

	return idx
}

// BuildFromEntries indexes a flat entry list without a relationship graph,
// used for secondary catalogs like the supplement registry. Every entry is
// its own singleton cluster.
func BuildFromEntries(source string, entriesSlice []entities.Entry) *Index {
	catalog := entities.NewCatalog(source, entriesSlice)
	return Build(catalog, cluster.Build(catalog, nil))
}

func (idx *Index) buildKeys() {
	idx.keys = make([]string, 0, len(idx.Entries))
	for key := range idx.Entries {
		idx.keys = append(idx.keys, key)
	}
	sort.Strings(idx.keys)
}

// Lookup probes the index for an exact normalized key.
func (idx *Index) Lookup(key string) (Entry, bool) {
	entry, ok := idx.Entries[key]
	return entry, ok
}

// Keys returns every indexed key in sorted order. The slice is shared and
// must not be modified.
func (idx *Index) Keys() []string {
	return idx.keys
}

// Len returns the number of indexed keys.
func (idx *Index) Len() int {
	return len(idx.Entries)
}

// Validate reports whether the index is usable for matching.
func (idx *Index) Validate() error {
	if idx.Source == "" {
		return fmt.Errorf("index has no source name")
	}
	if len(idx.Entries) == 0 {
		return fmt.Errorf("index %s has no entries", idx.Source)
	}
	return nil
}
