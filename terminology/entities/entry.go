package entities

// Term types kept from the reference terminology, in election-preference
// order. Ingredients are preferred over precise ingredients, preferred
// terms and synonyms; brand names come last.
const (
	TermTypeIngredient        = "IN"
	TermTypePreciseIngredient = "PIN"
	TermTypePreferred         = "PT"
	TermTypeSynonym           = "SY"
	TermTypeBrand             = "BN"
)

// termTypeRanks maps a term type to its election rank. Lower is better.
var termTypeRanks = map[string]int{
	TermTypeIngredient:        0,
	TermTypePreciseIngredient: 1,
	TermTypePreferred:         2,
	TermTypeSynonym:           3,
	TermTypeBrand:             4,
}

// TermTypeRank returns the election rank of a term type. Unknown term
// types rank after every known one.
func TermTypeRank(termType string) int {
	if rank, ok := termTypeRanks[termType]; ok {
		return rank
	}
	return len(termTypeRanks)
}

// Entry is one immutable record of the term catalog: a single name for a
// drug concept, identified by its RxCUI.
type Entry struct {
	RxCUI    int      `json:"rxcui"`
	Name     string   `json:"name"`
	TermType string   `json:"termType"`
	Sources  []string `json:"sources"`
	Priority int      `json:"priority"`
}

// Better reports whether e should win an election against other. The
// ordering is total: term-type rank first, then higher priority, then
// lower RxCUI, then lexicographic name as the final separator for entries
// sharing an RxCUI.
func (e Entry) Better(other Entry) bool {
	if ra, rb := TermTypeRank(e.TermType), TermTypeRank(other.TermType); ra != rb {
		return ra < rb
	}
	if e.Priority != other.Priority {
		return e.Priority > other.Priority
	}
	if e.RxCUI != other.RxCUI {
		return e.RxCUI < other.RxCUI
	}
	return e.Name < other.Name
}
