// Package annotator runs batch annotation: it reads treatment names from a
// tabular file, matches each against the canonical indexes, and writes one
// annotated row per unique input. Matching is pure, so rows are processed
// by a bounded pool of parallel workers.
package annotator

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/openmedrec/rxnorm-annotator/interfaces"
	"github.com/openmedrec/rxnorm-annotator/logging"
	"github.com/openmedrec/rxnorm-annotator/matcher"
	"github.com/openmedrec/rxnorm-annotator/metrics"
)

var outputHeader = []string{
	"treatment_name", "canonical_id", "matched_name", "match_type", "confidence", "source",
}

// Stats summarizes one batch run.
type Stats struct {
	Rows    int
	Unique  int
	Exact   int
	Fuzzy   int
	NoMatch int
}

// Annotator drives batch annotation with a fixed worker count.
type Annotator struct {
	matcher interfaces.Matcher
	workers int
}

// New creates an Annotator. Workers below 1 are clamped to 1.
func New(m interfaces.Matcher, workers int) *Annotator {
	if workers < 1 {
		workers = 1
	}
	return &Annotator{matcher: m, workers: workers}
}

// readNames reads the first column of a CSV (or headerless single-column)
// file. A first row that looks like a header is skipped.
func readNames(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var names []string
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read input row: %w", err)
		}
		if len(record) == 0 {
			continue
		}
		name := strings.TrimSpace(record[0])
		if first {
			first = false
			if isHeader(name) {
				continue
			}
		}
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

func isHeader(firstField string) bool {
	lower := strings.ToLower(firstField)
	return lower == "treatment name" || lower == "treatment_name" || lower == "treatment" || lower == "name"
}

// dedupe keeps the first occurrence of each case-insensitive name,
// preserving input order.
func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	unique := make([]string, 0, len(names))
	for _, name := range names {
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, name)
	}
	return unique
}

// Annotate matches every unique name and returns results in input order.
func (a *Annotator) Annotate(names []string) ([]matcher.Result, Stats) {
	unique := dedupe(names)
	results := make([]matcher.Result, len(unique))

	jobs := make(chan int)
	var wg sync.WaitGroup
	wg.Add(a.workers)
	for w := 0; w < a.workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = a.matcher.Match(unique[i])
			}
		}()
	}
	for i := range unique {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	stats := Stats{Rows: len(names), Unique: len(unique)}
	for _, result := range results {
		metrics.ObserveMatch(result.Source, result.MatchType)
		switch result.MatchType {
		case matcher.MatchExact:
			stats.Exact++
		case matcher.MatchFuzzy:
			stats.Fuzzy++
		default:
			stats.NoMatch++
		}
	}

	return results, stats
}

// writeResults writes the annotated rows with a header.
func writeResults(w io.Writer, results []matcher.Result) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(outputHeader); err != nil {
		return fmt.Errorf("failed to write output header: %w", err)
	}

	for _, result := range results {
		canonicalID := ""
		if result.CanonicalID != 0 {
			canonicalID = strconv.Itoa(result.CanonicalID)
		}
		row := []string{
			result.InputText,
			canonicalID,
			result.MatchedName,
			result.MatchType,
			strconv.FormatFloat(result.Confidence, 'f', 3, 64),
			result.Source,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write output row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// AnnotateFile reads treatment names from inputPath and writes the
// annotated CSV to outputPath.
func (a *Annotator) AnnotateFile(inputPath, outputPath string) (Stats, error) {
	input, err := os.Open(inputPath)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to open input file %s: %w", inputPath, err)
	}
	defer func() {
		if err := input.Close(); err != nil {
			logging.Warn("Failed to close input file", "error", err)
		}
	}()

	names, err := readNames(input)
	if err != nil {
		return Stats{}, err
	}
	if len(names) == 0 {
		return Stats{}, fmt.Errorf("no treatment names found in %s", inputPath)
	}

	start := time.Now()
	results, stats := a.Annotate(names)

	output, err := os.Create(outputPath)
	if err != nil {
		return stats, fmt.Errorf("failed to create output file %s: %w", outputPath, err)
	}
	defer func() {
		if err := output.Close(); err != nil {
			logging.Warn("Failed to close output file", "error", err)
		}
	}()

	if err := writeResults(output, results); err != nil {
		return stats, err
	}

	logging.Info("Batch annotation completed",
		"input", inputPath,
		"output", outputPath,
		"rows", stats.Rows,
		"unique", stats.Unique,
		"exact", stats.Exact,
		"fuzzy", stats.Fuzzy,
		"no_match", stats.NoMatch,
		"duration", time.Since(start).String(),
	)

	return stats, nil
}
