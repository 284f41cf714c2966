package terminology

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/openmedrec/rxnorm-annotator/logging"
	"github.com/openmedrec/rxnorm-annotator/terminology/entities"
)

// RXNREL.RRF column offsets (16 columns per row).
const (
	relationColRxCUIA   = 0
	relationColRxCUIB   = 4
	relationColKind     = 7
	relationColumnCount = 16
)

// ParseRelations reads an RXNREL-layout file and returns every relation
// with a named kind. Identity filtering happens at cluster-build time;
// the full graph is kept so non-identity kinds stay inspectable.
// Malformed rows are skipped and counted, never fatal.
func ParseRelations(path string) ([]entities.Relation, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open relations file %s: %w", path, err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("Failed to close relations file", "error", err)
		}
	}()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0), 1*1024*1024)

	var relations []entities.Relation

	lineCount := 0
	skippedEmptyLines := 0
	skippedMissingColumns := 0
	skippedFormatErrors := 0
	skippedUnnamedKind := 0

	for scanner.Scan() {
		lineCount++
		line := scanner.Text()

		if len(line) == 0 {
			skippedEmptyLines++
			continue
		}

		fields := strings.Split(line, "|")
		if len(fields) < relationColumnCount {
			skippedMissingColumns++
			continue
		}

		kind := strings.TrimSpace(fields[relationColKind])
		if kind == "" {
			skippedUnnamedKind++
			continue
		}

		rxcuiA, err := strconv.Atoi(fields[relationColRxCUIA])
		if err != nil {
			skippedFormatErrors++
			continue
		}

		rxcuiB, err := strconv.Atoi(fields[relationColRxCUIB])
		if err != nil {
			skippedFormatErrors++
			continue
		}

		relations = append(relations, entities.Relation{
			RxCUIA: rxcuiA,
			RxCUIB: rxcuiB,
			Kind:   kind,
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanner error in %s: %w", path, err)
	}

	logging.Info("Relations file parsed",
		"path", path,
		"lines", lineCount,
		"relations", len(relations),
		"skipped_empty", skippedEmptyLines,
		"skipped_missing_columns", skippedMissingColumns,
		"skipped_format_errors", skippedFormatErrors,
		"skipped_unnamed_kind", skippedUnnamedKind,
	)

	return relations, nil
}
