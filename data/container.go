// Package data provides thread-safe storage for the built matching state.
// It includes the Container struct with atomic operations for zero-downtime
// index swaps and lock-free access for concurrent match calls.
package data

import (
	"sync/atomic"
	"time"

	"github.com/openmedrec/rxnorm-annotator/index"
	"github.com/openmedrec/rxnorm-annotator/interfaces"
	"github.com/openmedrec/rxnorm-annotator/logging"
	"github.com/openmedrec/rxnorm-annotator/matcher"
)

// Compile-time check to ensure Container implements DataStore
var _ interfaces.DataStore = (*Container)(nil)

// Container holds the match engine and its indexes behind atomic pointers
// for zero-downtime rebuilds.
type Container struct {
	engine          atomic.Value // *matcher.Engine
	primary         atomic.Value // *index.Index
	supplements     atomic.Value // *index.Index
	lastUpdated     atomic.Value // time.Time
	updating        atomic.Bool
	serverStartTime atomic.Value // time.Time
}

// NewContainer creates a Container with no data loaded.
func NewContainer() *Container {
	c := &Container{}
	c.lastUpdated.Store(time.Time{})
	c.serverStartTime.Store(time.Time{})
	return c
}

// GetEngine returns the current match engine, or nil before the first build.
func (c *Container) GetEngine() *matcher.Engine {
	if v := c.engine.Load(); v != nil {
		if engine, ok := v.(*matcher.Engine); ok {
			return engine
		}
	}

	logging.Warn("Match engine is not loaded")
	return nil
}

// GetPrimaryIndex returns the primary terminology index.
func (c *Container) GetPrimaryIndex() *index.Index {
	if v := c.primary.Load(); v != nil {
		if idx, ok := v.(*index.Index); ok {
			return idx
		}
	}

	logging.Warn("Primary index is not loaded")
	return nil
}

// GetSupplementIndex returns the supplement registry index, which may be
// nil when the registry was unavailable at build time.
func (c *Container) GetSupplementIndex() *index.Index {
	if v := c.supplements.Load(); v != nil {
		if idx, ok := v.(*index.Index); ok {
			return idx
		}
	}
	return nil
}

// GetLastUpdated returns the timestamp of the last completed build.
func (c *Container) GetLastUpdated() time.Time {
	if v := c.lastUpdated.Load(); v != nil {
		if lastUpdated, ok := v.(time.Time); ok {
			return lastUpdated
		}
	}

	logging.Warn("Could not get the last updated value")
	return time.Time{}
}

// IsUpdating returns true if a rebuild is currently in progress.
func (c *Container) IsUpdating() bool {
	return c.updating.Load()
}

// SetServerStartTime sets the server start time.
func (c *Container) SetServerStartTime(startTime time.Time) {
	c.serverStartTime.Store(startTime)
}

// GetServerStartTime returns the server start time.
func (c *Container) GetServerStartTime() time.Time {
	if v := c.serverStartTime.Load(); v != nil {
		if startTime, ok := v.(time.Time); ok {
			return startTime
		}
	}

	logging.Warn("Could not get the server start time value")
	return time.Time{}
}

// UpdateData atomically swaps in a freshly built engine and its indexes.
func (c *Container) UpdateData(engine *matcher.Engine, primary, supplements *index.Index) {
	c.engine.Store(engine)
	c.primary.Store(primary)
	if supplements != nil {
		c.supplements.Store(supplements)
	}
	c.lastUpdated.Store(time.Now())
}

// BeginUpdate marks the start of a rebuild. Returns true if the rebuild
// can proceed, false if another one is in progress.
func (c *Container) BeginUpdate() bool {
	return c.updating.CompareAndSwap(false, true)
}

// EndUpdate marks the end of a rebuild.
func (c *Container) EndUpdate() {
	c.updating.Store(false)
}
