package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveMatchCountsBySourceAndType(t *testing.T) {
	before := testutil.ToFloat64(AnnotationMatchesTotal.WithLabelValues("rxnorm", "exact"))

	ObserveMatch("rxnorm", "exact")

	after := testutil.ToFloat64(AnnotationMatchesTotal.WithLabelValues("rxnorm", "exact"))
	if after != before+1 {
		t.Errorf("Expected counter to advance by 1, went from %v to %v", before, after)
	}
}

func TestObserveMatchEmptySourceFallsBackToNone(t *testing.T) {
	before := testutil.ToFloat64(AnnotationMatchesTotal.WithLabelValues("none", "none"))

	ObserveMatch("", "none")

	after := testutil.ToFloat64(AnnotationMatchesTotal.WithLabelValues("none", "none"))
	if after != before+1 {
		t.Errorf("Expected 'none' counter to advance by 1, went from %v to %v", before, after)
	}
}

func TestRateLimiterBucketsHelpMatchesCleanupInterval(t *testing.T) {
	// The limiter prunes idle buckets on a 30 minute ticker; the help
	// text must describe the same window.
	desc := RateLimiterBucketsTotal.Desc().String()
	if !strings.Contains(desc, "pruned every 30 minutes") {
		t.Errorf("Help text does not describe the 30 minute pruning window: %s", desc)
	}
}

func TestMetricsMiddlewareUsesRoutePattern(t *testing.T) {
	router := chi.NewRouter()
	router.Use(Metrics)
	router.Get("/annotate/{name}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/annotate/aspirin", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	patternCount := testutil.ToFloat64(HTTPRequestTotals.WithLabelValues("GET", "/annotate/{name}", "200"))
	if patternCount == 0 {
		t.Error("Expected the route pattern label to be counted")
	}

	rawCount := testutil.ToFloat64(HTTPRequestTotals.WithLabelValues("GET", "/annotate/aspirin", "200"))
	if rawCount != 0 {
		t.Errorf("Raw treatment name leaked into the path label: %v", rawCount)
	}
}

func TestMetricsMiddlewareOutsideChiFallsBackToPath(t *testing.T) {
	handler := Metrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest("GET", "/plain-endpoint", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	count := testutil.ToFloat64(HTTPRequestTotals.WithLabelValues("GET", "/plain-endpoint", "204"))
	if count == 0 {
		t.Error("Expected the raw path label when no chi route context exists")
	}
}
