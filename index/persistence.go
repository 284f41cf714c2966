package index

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/openmedrec/rxnorm-annotator/logging"
)

// Save writes the index as a JSON artifact so consumers can load it at
// query time instead of rebuilding from raw reference files.
func (idx *Index) Save(path string) error {
	payload, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal index %s: %w", idx.Source, err)
	}

	if err := os.WriteFile(path, payload, 0644); err != nil {
		return fmt.Errorf("failed to write index file %s: %w", path, err)
	}

	logging.Info("Canonical index saved", "path", path, "keys", len(idx.Entries))
	return nil
}

// Load reads a previously saved index artifact.
func Load(path string) (*Index, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read index file %s: %w", path, err)
	}

	idx := &Index{}
	if err := json.Unmarshal(payload, idx); err != nil {
		return nil, fmt.Errorf("failed to unmarshal index file %s: %w", path, err)
	}

	if err := idx.Validate(); err != nil {
		return nil, err
	}

	idx.buildKeys()
	logging.Info("Canonical index loaded", "path", path, "source", idx.Source, "keys", len(idx.Entries))
	return idx, nil
}
