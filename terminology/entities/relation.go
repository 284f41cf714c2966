package entities

// Relation is one edge of the relationship graph between two catalog
// concepts. Direction is kept as parsed but clustering treats every
// identity relation as undirected.
type Relation struct {
	RxCUIA int    `json:"rxcuiA"`
	RxCUIB int    `json:"rxcuiB"`
	Kind   string `json:"kind"`
}

// identityKinds is the allow-list of relation kinds asserting that both
// concepts denote the same clinical substance. Clinical-usage relations
// (may_treat, contraindicated_with, ...) must never reach the clusterer.
var identityKinds = map[string]bool{
	"tradename_of":           true,
	"has_tradename":          true,
	"ingredient_of":          true,
	"has_ingredient":         true,
	"precise_ingredient_of":  true,
	"has_precise_ingredient": true,
	"form_of":                true,
	"has_form":               true,
}

// IsIdentity reports whether the relation kind preserves substance
// identity and may participate in equivalence clustering.
func (r Relation) IsIdentity() bool {
	return identityKinds[r.Kind]
}
