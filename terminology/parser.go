package terminology

import (
	"path/filepath"

	"github.com/openmedrec/rxnorm-annotator/interfaces"
	"github.com/openmedrec/rxnorm-annotator/terminology/entities"
)

// Release file names inside the reference data directory.
const (
	ConceptsFileName  = "RXNCONSO.RRF"
	RelationsFileName = "RXNREL.RRF"
)

// Compile-time check to ensure TerminologyParser implements Parser interface
var _ interfaces.Parser = (*TerminologyParser)(nil)

// TerminologyParser implements the Parser interface over a directory of
// reference terminology release files.
type TerminologyParser struct {
	dataDir string
}

// NewTerminologyParser creates a new TerminologyParser reading from dataDir.
func NewTerminologyParser(dataDir string) *TerminologyParser {
	return &TerminologyParser{dataDir: dataDir}
}

// ParseCatalog implements the Parser interface.
func (p *TerminologyParser) ParseCatalog() (*entities.Catalog, error) {
	entriesSlice, err := ParseConcepts(filepath.Join(p.dataDir, ConceptsFileName))
	if err != nil {
		return nil, err
	}
	return entities.NewCatalog("rxnorm", entriesSlice), nil
}

// ParseRelations implements the Parser interface.
func (p *TerminologyParser) ParseRelations() ([]entities.Relation, error) {
	return ParseRelations(filepath.Join(p.dataDir, RelationsFileName))
}
