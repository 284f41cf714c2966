package validation

import (
	"strings"
	"testing"

	"github.com/openmedrec/rxnorm-annotator/terminology/entities"
)

func TestValidateInput(t *testing.T) {
	validator := NewInputValidator()

	valid := []string{
		"Aspirin",
		"aspirin 81 mg",
		"Pyridostigmine (Mestinon)",
		"St. John's Wort",
		"Omega-3 Fatty Acids",
		"B12, sublingual",
		"50/50 insulin mix",
	}
	for _, input := range valid {
		if err := validator.ValidateInput(input); err != nil {
			t.Errorf("Expected %q to be valid, got %v", input, err)
		}
	}

	invalid := []string{
		"",
		"   ",
		strings.Repeat("a", 301),
		"<script>alert(1)</script>",
		"aspirin'; drop table users",
		"../etc/passwd",
		"aspirin | rm",
		"médicament", // non-ASCII rejected at the HTTP boundary
	}
	for _, input := range invalid {
		if err := validator.ValidateInput(input); err == nil {
			t.Errorf("Expected %q to be rejected", input)
		}
	}
}

func TestValidateRxCUI(t *testing.T) {
	validator := NewInputValidator()

	rxcui, err := validator.ValidateRxCUI("1191")
	if err != nil {
		t.Fatalf("Expected '1191' to validate, got %v", err)
	}
	if rxcui != 1191 {
		t.Errorf("Expected 1191, got %d", rxcui)
	}

	invalid := []string{"", "abc", "-5", "0", "12345678901"}
	for _, input := range invalid {
		if _, err := validator.ValidateRxCUI(input); err == nil {
			t.Errorf("Expected %q to be rejected", input)
		}
	}
}

func TestValidateEntry(t *testing.T) {
	good := &entities.Entry{RxCUI: 1191, Name: "aspirin", TermType: entities.TermTypeIngredient}
	if err := ValidateEntry(good); err != nil {
		t.Errorf("Expected a valid entry, got %v", err)
	}

	bad := []*entities.Entry{
		nil,
		{RxCUI: 0, Name: "aspirin"},
		{RxCUI: 1191, Name: "   "},
		{RxCUI: 1191, Name: strings.Repeat("a", 301)},
	}
	for i, entry := range bad {
		if err := ValidateEntry(entry); err == nil {
			t.Errorf("Expected entry %d to be rejected", i)
		}
	}
}

func TestReportDataQuality(t *testing.T) {
	catalog := entities.NewCatalog("rxnorm", []entities.Entry{
		{RxCUI: 161, Name: "acetaminophen", TermType: entities.TermTypeIngredient, Sources: []string{"RXNORM"}},
		{RxCUI: 202433, Name: "Tylenol", TermType: entities.TermTypeBrand, Sources: []string{"RXNORM"}},
		{RxCUI: 999, Name: "tylenol", TermType: entities.TermTypeSynonym}, // no source, duplicate name
	})
	relations := []entities.Relation{
		{RxCUIA: 202433, RxCUIB: 161, Kind: "tradename_of"},
		{RxCUIA: 202433, RxCUIB: 777777, Kind: "tradename_of"}, // dangling
		{RxCUIA: 161, RxCUIB: 888888, Kind: "may_treat"},       // clinical, not counted
	}

	report := ReportDataQuality(catalog, relations)

	if report.Entries != 3 || report.Concepts != 3 {
		t.Errorf("Unexpected entry/concept counts: %+v", report)
	}
	if report.EntriesWithoutSource != 1 {
		t.Errorf("Expected 1 entry without source, got %d", report.EntriesWithoutSource)
	}
	if report.DuplicateNames != 1 {
		t.Errorf("Expected 1 duplicate name, got %d", report.DuplicateNames)
	}
	if report.DanglingRelations != 1 {
		t.Errorf("Expected 1 dangling identity relation, got %d", report.DanglingRelations)
	}
}
