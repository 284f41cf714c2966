package entities

// Catalog is the immutable term catalog: every kept entry plus an RxCUI
// lookup map. Built once by the terminology parser and never mutated.
type Catalog struct {
	Name    string
	Entries []Entry
	ByRxCUI map[int][]Entry
}

// NewCatalog builds a catalog and its RxCUI lookup map from parsed entries.
func NewCatalog(name string, entries []Entry) *Catalog {
	byID := make(map[int][]Entry, len(entries))
	for _, e := range entries {
		byID[e.RxCUI] = append(byID[e.RxCUI], e)
	}
	return &Catalog{
		Name:    name,
		Entries: entries,
		ByRxCUI: byID,
	}
}

// BestEntry returns the election-preferred entry for an RxCUI, used as
// the concept's display record.
func (c *Catalog) BestEntry(rxcui int) (Entry, bool) {
	candidates, ok := c.ByRxCUI[rxcui]
	if !ok || len(candidates) == 0 {
		return Entry{}, false
	}
	best := candidates[0]
	for _, e := range candidates[1:] {
		if e.Better(best) {
			best = e
		}
	}
	return best, true
}
