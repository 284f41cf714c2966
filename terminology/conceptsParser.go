// Package terminology parses the reference terminology release files
// (pipe-delimited RRF) into immutable catalog entities.
package terminology

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/openmedrec/rxnorm-annotator/logging"
	"github.com/openmedrec/rxnorm-annotator/terminology/entities"
)

// RXNCONSO.RRF column offsets (18 columns per row).
const (
	conceptColRxCUI    = 0
	conceptColLanguage = 1
	conceptColSource   = 11
	conceptColTermType = 12
	conceptColName     = 14
	conceptColSuppress = 16
	conceptColumnCount = 18
)

// keptTermTypes are the term types loaded into the catalog. Everything
// else (dose forms, pack sizes, ...) is dropped at parse time.
var keptTermTypes = map[string]bool{
	entities.TermTypeIngredient:        true,
	entities.TermTypePreciseIngredient: true,
	entities.TermTypePreferred:         true,
	entities.TermTypeSynonym:           true,
	entities.TermTypeBrand:             true,
}

// Dose-specific names carry strengths, formulations or frequencies and
// would pollute the name index, so they are excluded like the upstream
// core database does.
var doseSpecificPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b\d+(\.\d+)?\s*(mg|mcg|g|ml|cc|units?|iu|meq)\b`),
	regexp.MustCompile(`\b(tablet|capsule|injection|cream|gel)s?\b`),
	regexp.MustCompile(`\b(once|twice|daily|bid|tid|qid)\b`),
}

func isDoseSpecific(name string) bool {
	lower := strings.ToLower(name)
	for _, pattern := range doseSpecificPatterns {
		if pattern.MatchString(lower) {
			return true
		}
	}
	return false
}

// conceptKey deduplicates concept rows that differ only in provenance.
type conceptKey struct {
	rxcui    int
	name     string
	termType string
}

// ParseConcepts reads an RXNCONSO-layout file and returns the kept
// catalog entries. Rows from multiple sources that agree on RxCUI, name
// and term type merge into a single entry whose priority is its source
// count. Malformed rows are skipped and counted, never fatal.
func ParseConcepts(path string) ([]entities.Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open concepts file %s: %w", path, err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("Failed to close concepts file", "error", err)
		}
	}()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0), 1*1024*1024)

	merged := make(map[conceptKey]map[string]bool)
	order := make([]conceptKey, 0)

	lineCount := 0
	skippedEmptyLines := 0
	skippedMissingColumns := 0
	skippedFormatErrors := 0
	skippedLanguage := 0
	skippedTermType := 0
	skippedSuppressed := 0
	skippedDoseSpecific := 0

	for scanner.Scan() {
		lineCount++
		line := scanner.Text()

		if len(line) == 0 {
			skippedEmptyLines++
			continue
		}

		fields := strings.Split(line, "|")
		if len(fields) < conceptColumnCount {
			skippedMissingColumns++
			continue
		}

		if fields[conceptColLanguage] != "ENG" {
			skippedLanguage++
			continue
		}

		termType := fields[conceptColTermType]
		if !keptTermTypes[termType] {
			skippedTermType++
			continue
		}

		if fields[conceptColSuppress] == "Y" {
			skippedSuppressed++
			continue
		}

		name := strings.TrimSpace(fields[conceptColName])
		if name == "" {
			skippedFormatErrors++
			continue
		}

		if isDoseSpecific(name) {
			skippedDoseSpecific++
			continue
		}

		rxcui, err := strconv.Atoi(fields[conceptColRxCUI])
		if err != nil {
			skippedFormatErrors++
			continue
		}

		key := conceptKey{rxcui: rxcui, name: name, termType: termType}
		sources, exists := merged[key]
		if !exists {
			sources = make(map[string]bool)
			merged[key] = sources
			order = append(order, key)
		}
		if source := fields[conceptColSource]; source != "" {
			sources[source] = true
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanner error in %s: %w", path, err)
	}

	entriesSlice := make([]entities.Entry, 0, len(order))
	for _, key := range order {
		sources := make([]string, 0, len(merged[key]))
		for source := range merged[key] {
			sources = append(sources, source)
		}
		sort.Strings(sources)

		entriesSlice = append(entriesSlice, entities.Entry{
			RxCUI:    key.rxcui,
			Name:     key.name,
			TermType: key.termType,
			Sources:  sources,
			Priority: len(sources),
		})
	}

	logging.Info("Concepts file parsed",
		"path", path,
		"lines", lineCount,
		"entries", len(entriesSlice),
		"skipped_empty", skippedEmptyLines,
		"skipped_missing_columns", skippedMissingColumns,
		"skipped_format_errors", skippedFormatErrors,
		"skipped_language", skippedLanguage,
		"skipped_term_type", skippedTermType,
		"skipped_suppressed", skippedSuppressed,
		"skipped_dose_specific", skippedDoseSpecific,
	)

	if len(entriesSlice) == 0 {
		return nil, fmt.Errorf("no usable concept rows in %s", path)
	}

	return entriesSlice, nil
}
