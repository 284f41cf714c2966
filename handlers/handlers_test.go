package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/openmedrec/rxnorm-annotator/cluster"
	"github.com/openmedrec/rxnorm-annotator/index"
	"github.com/openmedrec/rxnorm-annotator/matcher"
	"github.com/openmedrec/rxnorm-annotator/terminology/entities"
	"github.com/openmedrec/rxnorm-annotator/validation"
)

// fakeDataStore serves a fixed engine and index pair.
type fakeDataStore struct {
	engine      *matcher.Engine
	primary     *index.Index
	supplements *index.Index
}

func (f *fakeDataStore) GetEngine() *matcher.Engine       { return f.engine }
func (f *fakeDataStore) GetPrimaryIndex() *index.Index    { return f.primary }
func (f *fakeDataStore) GetSupplementIndex() *index.Index { return f.supplements }
func (f *fakeDataStore) GetLastUpdated() time.Time        { return time.Now() }
func (f *fakeDataStore) IsUpdating() bool                 { return false }
func (f *fakeDataStore) GetServerStartTime() time.Time    { return time.Now() }
func (f *fakeDataStore) UpdateData(*matcher.Engine, *index.Index, *index.Index) {}
func (f *fakeDataStore) BeginUpdate() bool                { return true }
func (f *fakeDataStore) EndUpdate()                       {}

func loadedStore() *fakeDataStore {
	catalog := entities.NewCatalog("rxnorm", []entities.Entry{
		{RxCUI: 161, Name: "acetaminophen", TermType: entities.TermTypeIngredient, Sources: []string{"RXNORM"}, Priority: 1},
		{RxCUI: 202433, Name: "Tylenol", TermType: entities.TermTypeBrand, Sources: []string{"RXNORM"}, Priority: 1},
	})
	clusters := cluster.Build(catalog, []entities.Relation{
		{RxCUIA: 202433, RxCUIB: 161, Kind: "tradename_of"},
	})
	primary := index.Build(catalog, clusters)
	engine := matcher.NewEngine(0.6, matcher.Catalog{Index: primary, FuzzyGate: 0.85})
	return &fakeDataStore{engine: engine, primary: primary}
}

func testRouter(store *fakeDataStore) chi.Router {
	validator := validation.NewInputValidator()
	router := chi.NewRouter()
	router.Get("/annotate/{name}", AnnotateOne(store, validator))
	router.Post("/annotate", AnnotateBatch(store, validator))
	router.Get("/concept/{rxcui}", FindConcept(store, validator))
	return router
}

func TestAnnotateOne(t *testing.T) {
	router := testRouter(loadedStore())

	req := httptest.NewRequest("GET", "/annotate/acetaminophen", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var result matcher.Result
	if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if result.MatchType != matcher.MatchExact {
		t.Errorf("Expected exact match, got %s", result.MatchType)
	}
	if result.CanonicalID != 161 {
		t.Errorf("Expected canonical 161, got %d", result.CanonicalID)
	}
}

func TestAnnotateOneInvalidInput(t *testing.T) {
	router := testRouter(loadedStore())

	req := httptest.NewRequest("GET", "/annotate/%3Cscript%3E", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for dangerous input, got %d", rr.Code)
	}
}

func TestAnnotateOneNoEngine(t *testing.T) {
	router := testRouter(&fakeDataStore{})

	req := httptest.NewRequest("GET", "/annotate/aspirin", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 before the first build, got %d", rr.Code)
	}
}

func TestAnnotateBatch(t *testing.T) {
	router := testRouter(loadedStore())

	body := `{"treatments": ["Tylenol", "acetaminophen", "no such drug xyz"]}`
	req := httptest.NewRequest("POST", "/annotate", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var response batchResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.Count != 3 || len(response.Results) != 3 {
		t.Fatalf("Expected 3 results, got %+v", response)
	}

	// Brand and generic resolve to the same canonical concept.
	if response.Results[0].CanonicalID != response.Results[1].CanonicalID {
		t.Errorf("Expected Tylenol and acetaminophen to share a canonical id, got %d and %d",
			response.Results[0].CanonicalID, response.Results[1].CanonicalID)
	}
	if response.Results[2].MatchType != matcher.MatchNone {
		t.Errorf("Expected a miss for the unknown name, got %s", response.Results[2].MatchType)
	}
}

func TestAnnotateBatchInvalidNamesBecomeMisses(t *testing.T) {
	router := testRouter(loadedStore())

	body := `{"treatments": ["acetaminophen", "<script>"]}`
	req := httptest.NewRequest("POST", "/annotate", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}

	var response batchResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.Results[1].MatchType != matcher.MatchNone {
		t.Errorf("Expected the rejected name to be reported as a miss, got %s", response.Results[1].MatchType)
	}
}

func TestAnnotateBatchBadRequests(t *testing.T) {
	router := testRouter(loadedStore())

	tests := []struct {
		name string
		body string
		code int
	}{
		{"malformed json", `{"treatments": [`, http.StatusBadRequest},
		{"empty list", `{"treatments": []}`, http.StatusBadRequest},
		{"missing field", `{}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/annotate", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != tt.code {
				t.Errorf("Expected %d, got %d", tt.code, rr.Code)
			}
		})
	}
}

func TestAnnotateBatchTooLarge(t *testing.T) {
	router := testRouter(loadedStore())

	names := make([]string, maxBatchSize+1)
	for i := range names {
		names[i] = "aspirin"
	}
	body, _ := json.Marshal(batchRequest{Treatments: names})

	req := httptest.NewRequest("POST", "/annotate", strings.NewReader(string(body)))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected 413 for an oversized batch, got %d", rr.Code)
	}
}

func TestFindConcept(t *testing.T) {
	router := testRouter(loadedStore())

	req := httptest.NewRequest("GET", "/concept/161", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var response conceptResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.CanonicalID != 161 {
		t.Errorf("Expected canonical 161, got %d", response.CanonicalID)
	}
	if len(response.Names) == 0 {
		t.Error("Expected at least one name variant")
	}
}

func TestFindConceptNotFound(t *testing.T) {
	router := testRouter(loadedStore())

	req := httptest.NewRequest("GET", "/concept/999999", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for an unknown concept, got %d", rr.Code)
	}
}

func TestFindConceptInvalidID(t *testing.T) {
	router := testRouter(loadedStore())

	req := httptest.NewRequest("GET", "/concept/abc", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for a non-numeric id, got %d", rr.Code)
	}
}

func TestRespondWithJSONHeaders(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondWithJSON(rr, http.StatusOK, map[string]string{"ok": "yes"})

	if got := rr.Header().Get("Content-Type"); !strings.HasPrefix(got, "application/json") {
		t.Errorf("Expected a JSON content type, got %q", got)
	}
	if rr.Header().Get("Last-Modified") == "" {
		t.Error("Expected a Last-Modified header")
	}
}
