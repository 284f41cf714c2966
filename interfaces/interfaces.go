// Package interfaces defines core abstractions for the annotation service
// to improve testability, maintainability, and separation of concerns.
package interfaces

import (
	"context"
	"time"

	"github.com/openmedrec/rxnorm-annotator/index"
	"github.com/openmedrec/rxnorm-annotator/matcher"
	"github.com/openmedrec/rxnorm-annotator/terminology/entities"
)

// DataQualityReport summarizes reference-data issues found at build time.
type DataQualityReport struct {
	Entries              int
	Concepts             int
	Clusters             int
	IndexKeys            int
	IndexConflicts       int
	DanglingRelations    int
	EntriesWithoutSource int
	DuplicateNames       int
}

// DataStore is the contract for access to the built matching state. It
// provides lock-free reads and atomic swaps for zero-downtime rebuilds.
type DataStore interface {
	// Read side
	GetEngine() *matcher.Engine
	GetPrimaryIndex() *index.Index
	GetSupplementIndex() *index.Index
	GetLastUpdated() time.Time
	IsUpdating() bool
	GetServerStartTime() time.Time

	// Update side
	UpdateData(engine *matcher.Engine, primary, supplements *index.Index)
	BeginUpdate() bool
	EndUpdate()
}

// Parser is the contract for loading the reference terminology into
// catalog entities.
type Parser interface {
	// ParseCatalog loads the term catalog from the reference release.
	ParseCatalog() (*entities.Catalog, error)

	// ParseRelations loads the relationship graph.
	ParseRelations() ([]entities.Relation, error)
}

// SupplementSource is the contract for the secondary registry collaborator.
// Implementations must deliver records already shaped as catalog entries.
type SupplementSource interface {
	FetchAll(ctx context.Context) ([]entities.Entry, error)
}

// Matcher is the contract the annotation surfaces depend on.
type Matcher interface {
	Match(raw string) matcher.Result
}

// Scheduler manages automated index rebuilds and health checks.
type Scheduler interface {
	Start() error
	Stop()
}

// HealthChecker reports system health for the HTTP health endpoint.
type HealthChecker interface {
	HealthCheck() (status string, details map[string]any, httpStatus int)
	CalculateNextUpdate() time.Time
}

// InputValidator validates user-supplied strings before matching.
type InputValidator interface {
	ValidateInput(input string) error
	ValidateRxCUI(input string) (int, error)
}
