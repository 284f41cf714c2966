// Package validation provides input and reference-data validation for the
// annotation service.
package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/openmedrec/rxnorm-annotator/interfaces"
	"github.com/openmedrec/rxnorm-annotator/terminology/entities"
)

// Pre-compiled regex patterns for performance optimization
// Compiled once at package initialization and reused for all validations
var (
	// Input validation: alphanumeric + safe punctuation seen in real
	// treatment names (parentheses, hyphen, plus, slash, percent).
	inputRegex = regexp.MustCompile(`^[a-zA-Z0-9\s\-\.\+'/%,()]+$`)

	// Dangerous patterns as strings (faster than regex for simple substring matching)
	dangerousPatterns = []string{
		"<script", "</script>", "javascript:", "vbscript:", "onload=", "onerror=",
		"onclick=", "onmouseover=", "onfocus=", "onblur=", "onchange=", "onsubmit=",
		"eval(", "expression(", "url(", "import ", "@import", "binding(", "behavior(",
		// SQL injection patterns
		"' or ", "\" or ", "union select", "drop table", "delete from", "insert into",
		"update set", "--", "/*", "*/", "xp_", "sp_", "exec(", "execute(",
		// Command injection patterns
		"; ", "| ", "& ", "`", "$(", "${",
		// Path traversal patterns
		"../", "..\\", "%2e%2e", "file://",
	}
)

// InputValidatorImpl implements the interfaces.InputValidator interface
type InputValidatorImpl struct{}

// NewInputValidator creates a new input validator
func NewInputValidator() interfaces.InputValidator {
	return &InputValidatorImpl{}
}

// ValidateInput validates a user-supplied treatment name string
func (v *InputValidatorImpl) ValidateInput(input string) error {
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("input cannot be empty")
	}

	if len(input) > 300 {
		return fmt.Errorf("input too long: %d characters (max 300)", len(input))
	}

	lower := strings.ToLower(input)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lower, pattern) {
			return fmt.Errorf("input contains disallowed pattern")
		}
	}

	if !inputRegex.MatchString(input) {
		return fmt.Errorf("input contains invalid characters")
	}

	return nil
}

// ValidateRxCUI validates an identifier path parameter
func (v *InputValidatorImpl) ValidateRxCUI(input string) (int, error) {
	if input == "" {
		return 0, fmt.Errorf("identifier cannot be empty")
	}

	if len(input) > 10 {
		return 0, fmt.Errorf("identifier too long: %d characters", len(input))
	}

	rxcui, err := strconv.Atoi(input)
	if err != nil {
		return 0, fmt.Errorf("identifier must be numeric: %w", err)
	}

	if rxcui <= 0 {
		return 0, fmt.Errorf("identifier must be positive, got: %d", rxcui)
	}

	return rxcui, nil
}

// ValidateEntry checks if a catalog entry is usable
func ValidateEntry(e *entities.Entry) error {
	if e == nil {
		return fmt.Errorf("entry is nil")
	}

	if e.RxCUI <= 0 {
		return fmt.Errorf("invalid RxCUI: %d", e.RxCUI)
	}

	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("empty name for RxCUI %d", e.RxCUI)
	}

	if len(e.Name) > 300 {
		return fmt.Errorf("name too long for RxCUI %d: %d characters", e.RxCUI, len(e.Name))
	}

	return nil
}

// ReportDataQuality summarizes reference-data issues after a build.
func ReportDataQuality(catalog *entities.Catalog, relations []entities.Relation) *interfaces.DataQualityReport {
	report := &interfaces.DataQualityReport{
		Entries:  len(catalog.Entries),
		Concepts: len(catalog.ByRxCUI),
	}

	seenNames := make(map[string]int)
	for _, entry := range catalog.Entries {
		if len(entry.Sources) == 0 {
			report.EntriesWithoutSource++
		}
		seenNames[strings.ToLower(entry.Name)]++
	}
	for _, count := range seenNames {
		if count > 1 {
			report.DuplicateNames++
		}
	}

	for _, rel := range relations {
		if !rel.IsIdentity() {
			continue
		}
		if _, ok := catalog.ByRxCUI[rel.RxCUIA]; !ok {
			report.DanglingRelations++
			continue
		}
		if _, ok := catalog.ByRxCUI[rel.RxCUIB]; !ok {
			report.DanglingRelations++
		}
	}

	return report
}
