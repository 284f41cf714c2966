// Package handlers provides HTTP request handlers for the annotation API
// endpoints: single and batch treatment-name annotation, concept lookup,
// and health checks, with input validation and error handling.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/openmedrec/rxnorm-annotator/interfaces"
	"github.com/openmedrec/rxnorm-annotator/logging"
	"github.com/openmedrec/rxnorm-annotator/matcher"
	"github.com/openmedrec/rxnorm-annotator/metrics"
)

// Batch requests above this size should go through the batch CLI instead.
const maxBatchSize = 500

// RespondWithJSON writes a JSON response
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
	w.WriteHeader(code)
	if _, err := w.Write(data); err != nil {
		logging.Warn("Failed to write response", "error", err)
	}
}

// RespondWithError writes a JSON error body
func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, map[string]string{"error": message})
}

// AnnotateOne matches a single treatment name from the URL path.
func AnnotateOne(dataStore interfaces.DataStore, validator interfaces.InputValidator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")

		if err := validator.ValidateInput(name); err != nil {
			logging.Warn("Unusual user input", "name", name, "error", err)
			RespondWithError(w, http.StatusBadRequest, "Invalid treatment name")
			return
		}

		engine := dataStore.GetEngine()
		if engine == nil {
			RespondWithError(w, http.StatusServiceUnavailable, "Index not loaded yet")
			return
		}

		result := engine.Match(name)
		metrics.ObserveMatch(result.Source, result.MatchType)
		RespondWithJSON(w, http.StatusOK, result)
	}
}

// batchRequest is the POST /annotate body.
type batchRequest struct {
	Treatments []string `json:"treatments"`
}

type batchResponse struct {
	Results []matcher.Result `json:"results"`
	Count   int              `json:"count"`
}

// AnnotateBatch matches a JSON list of treatment names.
func AnnotateBatch(dataStore interfaces.DataStore, validator interfaces.InputValidator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var request batchRequest
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			RespondWithError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}

		if len(request.Treatments) == 0 {
			RespondWithError(w, http.StatusBadRequest, "No treatment names provided")
			return
		}
		if len(request.Treatments) > maxBatchSize {
			RespondWithError(w, http.StatusRequestEntityTooLarge, "Too many treatment names in one request")
			return
		}

		engine := dataStore.GetEngine()
		if engine == nil {
			RespondWithError(w, http.StatusServiceUnavailable, "Index not loaded yet")
			return
		}

		results := make([]matcher.Result, 0, len(request.Treatments))
		for _, name := range request.Treatments {
			if err := validator.ValidateInput(name); err != nil {
				results = append(results, matcher.Result{
					InputText:  name,
					MatchType:  matcher.MatchNone,
					Confidence: 0,
				})
				continue
			}
			result := engine.Match(name)
			metrics.ObserveMatch(result.Source, result.MatchType)
			results = append(results, result)
		}

		RespondWithJSON(w, http.StatusOK, batchResponse{Results: results, Count: len(results)})
	}
}

// conceptResponse lists every indexed name of a canonical concept.
type conceptResponse struct {
	CanonicalID int      `json:"canonicalId"`
	Names       []string `json:"names"`
	Source      string   `json:"source"`
}

// FindConcept returns the indexed name variants of a canonical id.
func FindConcept(dataStore interfaces.DataStore, validator interfaces.InputValidator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rxcui, err := validator.ValidateRxCUI(chi.URLParam(r, "rxcui"))
		if err != nil {
			logging.Warn("Unusual user input", "rxcui", chi.URLParam(r, "rxcui"))
			RespondWithError(w, http.StatusBadRequest, "Invalid identifier")
			return
		}

		primary := dataStore.GetPrimaryIndex()
		if primary == nil {
			RespondWithError(w, http.StatusServiceUnavailable, "Index not loaded yet")
			return
		}

		response := conceptResponse{CanonicalID: rxcui, Source: primary.Source}
		seen := make(map[string]bool)
		for _, key := range primary.Keys() {
			entry, _ := primary.Lookup(key)
			if entry.CanonicalID != rxcui || seen[entry.Name] {
				continue
			}
			seen[entry.Name] = true
			response.Names = append(response.Names, entry.Name)
		}

		if len(response.Names) == 0 {
			RespondWithError(w, http.StatusNotFound, "Concept not found")
			return
		}

		RespondWithJSON(w, http.StatusOK, response)
	}
}

// HealthCheck reports service health.
func HealthCheck(checker interfaces.HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, details, httpStatus := checker.HealthCheck()
		RespondWithJSON(w, httpStatus, details)
	}
}
