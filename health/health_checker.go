// Package health provides health checking functionality for the
// annotation service.
package health

import (
	"net/http"
	"time"

	"github.com/openmedrec/rxnorm-annotator/interfaces"
)

// Compile-time check to ensure HealthCheckerImpl implements HealthChecker
var _ interfaces.HealthChecker = (*HealthCheckerImpl)(nil)

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	dataStore interfaces.DataStore
}

// NewHealthChecker creates a new health checker with injected dependencies
func NewHealthChecker(dataStore interfaces.DataStore) *HealthCheckerImpl {
	return &HealthCheckerImpl{
		dataStore: dataStore,
	}
}

// HealthCheck returns health data for the /health endpoint. The service is
// unhealthy with no loaded index and degraded when data goes stale.
func (h *HealthCheckerImpl) HealthCheck() (string, map[string]any, int) {
	primary := h.dataStore.GetPrimaryIndex()
	supplements := h.dataStore.GetSupplementIndex()
	lastUpdate := h.dataStore.GetLastUpdated()
	isUpdating := h.dataStore.IsUpdating()

	dataAge := time.Since(lastUpdate)

	var status string
	var httpStatus int
	switch {
	case primary == nil || primary.Len() == 0:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case dataAge > 48*time.Hour:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case dataAge > 24*time.Hour:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	default:
		status = "healthy"
		httpStatus = http.StatusOK
	}

	details := map[string]any{
		"status":       status,
		"last_update":  lastUpdate.Format(time.RFC3339),
		"updating":     isUpdating,
		"next_update":  h.CalculateNextUpdate().Format(time.RFC3339),
		"uptime_human": time.Since(h.dataStore.GetServerStartTime()).Round(time.Second).String(),
	}

	if primary != nil {
		details["index_keys"] = primary.Len()
		details["index_clusters"] = primary.Clusters
	}
	if supplements != nil {
		details["supplement_keys"] = supplements.Len()
	}

	return status, details, httpStatus
}

// CalculateNextUpdate returns the next scheduled rebuild time, matching
// the 06:00/18:00 rebuild schedule.
func (h *HealthCheckerImpl) CalculateNextUpdate() time.Time {
	now := time.Now()

	sixAM := time.Date(now.Year(), now.Month(), now.Day(), 6, 0, 0, 0, now.Location())
	sixPM := time.Date(now.Year(), now.Month(), now.Day(), 18, 0, 0, 0, now.Location())

	if now.Before(sixAM) {
		return sixAM
	}
	if now.Before(sixPM) {
		return sixPM
	}

	tomorrow := now.AddDate(0, 0, 1)
	return time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 6, 0, 0, 0, tomorrow.Location())
}
