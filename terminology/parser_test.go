package terminology

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/openmedrec/rxnorm-annotator/terminology/entities"
)

// consoRow builds one RXNCONSO-layout row with the named fields set.
func consoRow(rxcui, language, source, termType, name, suppress string) string {
	fields := make([]string, conceptColumnCount)
	fields[conceptColRxCUI] = rxcui
	fields[conceptColLanguage] = language
	fields[conceptColSource] = source
	fields[conceptColTermType] = termType
	fields[conceptColName] = name
	fields[conceptColSuppress] = suppress
	return strings.Join(fields, "|")
}

// relRow builds one RXNREL-layout row with the named fields set.
func relRow(rxcuiA, rxcuiB, kind string) string {
	fields := make([]string, relationColumnCount)
	fields[relationColRxCUIA] = rxcuiA
	fields[relationColRxCUIB] = rxcuiB
	fields[relationColKind] = kind
	return strings.Join(fields, "|")
}

func writeTestFile(t *testing.T, name string, lines []string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}
	return path
}

func TestParseConcepts(t *testing.T) {
	path := writeTestFile(t, "RXNCONSO.RRF", []string{
		consoRow("161", "ENG", "RXNORM", "IN", "acetaminophen", "N"),
		consoRow("202433", "ENG", "RXNORM", "BN", "Tylenol", "N"),
		consoRow("161", "FRE", "RXNORM", "IN", "paracetamol", "N"),       // wrong language
		consoRow("161", "ENG", "RXNORM", "DF", "Oral Tablet", "N"),       // dropped term type
		consoRow("161", "ENG", "RXNORM", "SY", "APAP suppressed", "Y"),   // suppressed
		consoRow("1", "ENG", "RXNORM", "SCD", "weird dose form", "N"),    // dropped term type
		consoRow("abc", "ENG", "RXNORM", "IN", "bad id", "N"),            // unparseable RxCUI
		consoRow("5", "ENG", "RXNORM", "IN", "", "N"),                    // empty name
		"short|row",                                                      // missing columns
		"",                                                               // empty line
	})

	entriesSlice, err := ParseConcepts(path)
	if err != nil {
		t.Fatalf("ParseConcepts failed: %v", err)
	}

	if len(entriesSlice) != 2 {
		t.Fatalf("Expected 2 entries, got %d: %v", len(entriesSlice), entriesSlice)
	}

	if entriesSlice[0].RxCUI != 161 || entriesSlice[0].Name != "acetaminophen" {
		t.Errorf("Unexpected first entry: %+v", entriesSlice[0])
	}
	if entriesSlice[1].RxCUI != 202433 || entriesSlice[1].TermType != entities.TermTypeBrand {
		t.Errorf("Unexpected second entry: %+v", entriesSlice[1])
	}
}

func TestParseConceptsMergesSources(t *testing.T) {
	path := writeTestFile(t, "RXNCONSO.RRF", []string{
		consoRow("1191", "ENG", "RXNORM", "IN", "aspirin", "N"),
		consoRow("1191", "ENG", "MTHSPL", "IN", "aspirin", "N"),
		consoRow("1191", "ENG", "RXNORM", "IN", "aspirin", "N"), // exact duplicate
	})

	entriesSlice, err := ParseConcepts(path)
	if err != nil {
		t.Fatalf("ParseConcepts failed: %v", err)
	}

	if len(entriesSlice) != 1 {
		t.Fatalf("Expected provenance rows to merge into 1 entry, got %d", len(entriesSlice))
	}

	entry := entriesSlice[0]
	if entry.Priority != 2 {
		t.Errorf("Expected priority 2 (two sources), got %d", entry.Priority)
	}
	if len(entry.Sources) != 2 || entry.Sources[0] != "MTHSPL" || entry.Sources[1] != "RXNORM" {
		t.Errorf("Expected sorted sources [MTHSPL RXNORM], got %v", entry.Sources)
	}
}

func TestParseConceptsExcludesDoseSpecificNames(t *testing.T) {
	path := writeTestFile(t, "RXNCONSO.RRF", []string{
		consoRow("1191", "ENG", "RXNORM", "IN", "aspirin", "N"),
		consoRow("1", "ENG", "RXNORM", "SY", "Aspirin 81 MG Oral Tablet", "N"),
		consoRow("2", "ENG", "RXNORM", "SY", "aspirin twice daily", "N"),
	})

	entriesSlice, err := ParseConcepts(path)
	if err != nil {
		t.Fatalf("ParseConcepts failed: %v", err)
	}

	if len(entriesSlice) != 1 || entriesSlice[0].Name != "aspirin" {
		t.Errorf("Expected only the plain ingredient name to survive, got %v", entriesSlice)
	}
}

func TestParseConceptsNoUsableRows(t *testing.T) {
	path := writeTestFile(t, "RXNCONSO.RRF", []string{
		consoRow("161", "FRE", "RXNORM", "IN", "paracetamol", "N"),
	})

	if _, err := ParseConcepts(path); err == nil {
		t.Error("Expected an error when no rows survive filtering")
	}
}

func TestParseConceptsMissingFile(t *testing.T) {
	if _, err := ParseConcepts(filepath.Join(t.TempDir(), "missing.RRF")); err == nil {
		t.Error("Expected an error for a missing file")
	}
}

func TestParseRelations(t *testing.T) {
	path := writeTestFile(t, "RXNREL.RRF", []string{
		relRow("202433", "161", "tradename_of"),
		relRow("161", "1191", "may_treat"),
		relRow("1", "2", ""),     // unnamed kind
		relRow("x", "2", "has_form"), // unparseable id
		"short|row",
	})

	relations, err := ParseRelations(path)
	if err != nil {
		t.Fatalf("ParseRelations failed: %v", err)
	}

	// Non-identity kinds are kept at parse time; filtering happens later.
	if len(relations) != 2 {
		t.Fatalf("Expected 2 relations, got %d: %v", len(relations), relations)
	}

	if relations[0].RxCUIA != 202433 || relations[0].RxCUIB != 161 || relations[0].Kind != "tradename_of" {
		t.Errorf("Unexpected first relation: %+v", relations[0])
	}
	if !relations[0].IsIdentity() {
		t.Error("Expected tradename_of to be an identity relation")
	}
	if relations[1].IsIdentity() {
		t.Error("Expected may_treat not to be an identity relation")
	}
}

func TestTerminologyParser(t *testing.T) {
	dir := t.TempDir()
	concepts := []string{
		consoRow("161", "ENG", "RXNORM", "IN", "acetaminophen", "N"),
		consoRow("202433", "ENG", "RXNORM", "BN", "Tylenol", "N"),
	}
	relations := []string{
		relRow("202433", "161", "tradename_of"),
	}
	if err := os.WriteFile(filepath.Join(dir, ConceptsFileName), []byte(strings.Join(concepts, "\n")), 0644); err != nil {
		t.Fatalf("Failed to write concepts file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, RelationsFileName), []byte(strings.Join(relations, "\n")), 0644); err != nil {
		t.Fatalf("Failed to write relations file: %v", err)
	}

	parser := NewTerminologyParser(dir)

	catalog, err := parser.ParseCatalog()
	if err != nil {
		t.Fatalf("ParseCatalog failed: %v", err)
	}
	if catalog.Name != "rxnorm" {
		t.Errorf("Expected catalog source 'rxnorm', got %q", catalog.Name)
	}
	if len(catalog.Entries) != 2 {
		t.Errorf("Expected 2 catalog entries, got %d", len(catalog.Entries))
	}

	rels, err := parser.ParseRelations()
	if err != nil {
		t.Fatalf("ParseRelations failed: %v", err)
	}
	if len(rels) != 1 {
		t.Errorf("Expected 1 relation, got %d", len(rels))
	}
}
