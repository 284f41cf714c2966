// Package matcher resolves free-text treatment names against canonical
// indexes. Matching is a fixed pipeline of stages (exact probe, fuzzy
// fallback) run against catalogs in priority order; the whole engine is a
// pure query over immutable indexes and safe for concurrent use.
package matcher

import (
	"strings"

	"github.com/agext/levenshtein"
	"github.com/openmedrec/rxnorm-annotator/index"
	"github.com/openmedrec/rxnorm-annotator/normalizer"
)

// Match types reported per input.
const (
	MatchExact = "exact"
	MatchFuzzy = "fuzzy"
	MatchNone  = "none"
)

// Result is the outcome of matching one input string.
type Result struct {
	InputText   string  `json:"inputText"`
	CanonicalID int     `json:"canonicalId,omitempty"`
	EntryID     int     `json:"entryId,omitempty"`
	MatchedName string  `json:"matchedName,omitempty"`
	MatchedKey  string  `json:"matchedKey,omitempty"`
	MatchType   string  `json:"matchType"`
	Confidence  float64 `json:"confidence"`
	Source      string  `json:"source,omitempty"`
}

// Stage is one matching strategy. Stages share a single result contract so
// new tiers can be added without touching existing ones.
type Stage interface {
	Name() string
	Match(candidates []string, idx *index.Index) (Result, bool)
}

// exactStage probes candidate keys in order; the first indexed key wins.
type exactStage struct{}

func (exactStage) Name() string { return "exact" }

func (exactStage) Match(candidates []string, idx *index.Index) (Result, bool) {
	for _, key := range candidates {
		if entry, ok := idx.Lookup(key); ok {
			return Result{
				CanonicalID: entry.CanonicalID,
				EntryID:     entry.EntryID,
				MatchedName: entry.Name,
				MatchedKey:  key,
				MatchType:   MatchExact,
				Confidence:  1.0,
			}, true
		}
	}
	return Result{}, false
}

// fuzzyStage scores every candidate against every indexed key and accepts
// the best score at or above its threshold.
type fuzzyStage struct {
	threshold float64
}

func (fuzzyStage) Name() string { return "fuzzy" }

func (s fuzzyStage) Match(candidates []string, idx *index.Index) (Result, bool) {
	var bestKey string
	bestScore := 0.0

	for _, candidate := range candidates {
		for _, key := range idx.Keys() {
			score := Similarity(candidate, key)
			if score > bestScore {
				bestScore = score
				bestKey = key
			}
		}
	}

	if bestKey == "" || bestScore < s.threshold {
		return Result{}, false
	}

	entry, _ := idx.Lookup(bestKey)
	return Result{
		CanonicalID: entry.CanonicalID,
		EntryID:     entry.EntryID,
		MatchedName: entry.Name,
		MatchedKey:  bestKey,
		MatchType:   MatchFuzzy,
		Confidence:  bestScore,
	}, true
}

// Similarity scores two normalized keys in [0,1]. The score is the best of
// edit-distance similarity, a containment floor for exact substrings, and
// shared-token overlap, so closer strings never score below more
// dissimilar ones.
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	score := levenshtein.Similarity(a, b, nil)

	if strings.Contains(a, b) || strings.Contains(b, a) {
		if score < 0.8 {
			score = 0.8
		}
	}

	if overlap := tokenOverlap(a, b) * 0.9; overlap > score {
		score = overlap
	}

	if score > 1 {
		score = 1
	}
	return score
}

// tokenOverlap is the Jaccard coefficient of the two keys' token sets.
func tokenOverlap(a, b string) float64 {
	tokensA := strings.Fields(a)
	tokensB := strings.Fields(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}

	setA := make(map[string]bool, len(tokensA))
	for _, token := range tokensA {
		setA[token] = true
	}

	intersection := 0
	setB := make(map[string]bool, len(tokensB))
	for _, token := range tokensB {
		if setB[token] {
			continue
		}
		setB[token] = true
		if setA[token] {
			intersection++
		}
	}

	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

// Catalog pairs an index with the minimum confidence a fuzzy hit must
// reach before this catalog accepts it. Exact hits always pass.
type Catalog struct {
	Index     *index.Index
	FuzzyGate float64
}

// Engine matches treatment names against catalogs in priority order.
type Engine struct {
	catalogs []Catalog
	stages   []Stage
}

// NewEngine creates a match engine. Catalogs are consulted in the given
// order; fuzzyThreshold is the floor below which no fuzzy hit is accepted
// anywhere.
func NewEngine(fuzzyThreshold float64, catalogs ...Catalog) *Engine {
	return &Engine{
		catalogs: catalogs,
		stages: []Stage{
			exactStage{},
			fuzzyStage{threshold: fuzzyThreshold},
		},
	}
}

// Match resolves one raw treatment name. It never fails: an input with no
// representation in any catalog yields a MatchNone result with zero
// confidence.
func (e *Engine) Match(raw string) Result {
	none := Result{
		InputText:  raw,
		MatchType:  MatchNone,
		Confidence: 0,
	}

	candidates := normalizer.Normalize(raw)
	if len(candidates) == 0 {
		return none
	}

	for _, catalog := range e.catalogs {
		if catalog.Index == nil || catalog.Index.Len() == 0 {
			continue
		}
		for _, stage := range e.stages {
			result, ok := stage.Match(candidates, catalog.Index)
			if !ok {
				continue
			}
			if result.MatchType == MatchFuzzy && result.Confidence < catalog.FuzzyGate {
				continue
			}
			result.InputText = raw
			result.Source = catalog.Index.Source
			return result
		}
	}

	return none
}

// Catalogs returns the engine's catalogs in priority order.
func (e *Engine) Catalogs() []Catalog {
	return e.catalogs
}
