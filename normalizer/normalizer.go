// Package normalizer converts raw treatment-name strings into the
// normalized keys used by the canonical index. The same pipeline runs at
// index-build time and at query time; that symmetry is what makes exact
// matching work.
package normalizer

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Diacritics are folded so that "Paracétamol" and "paracetamol" share a key.
var diacriticFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

var (
	// Punctuation with no lexical meaning becomes a space. Parentheses are
	// handled by the candidate splitter before this runs; hyphens are kept
	// because they separate real name parts (omega-3).
	punctuationPattern = regexp.MustCompile(`[^\w\s\-]`)
	whitespacePattern  = regexp.MustCompile(`\s+`)

	// `<A> (<B>)` treatment phrasing, either "generic (brand)" or
	// "brand (generic)".
	parentheticalPattern = regexp.MustCompile(`^(.+?)\s*\(([^)]+)\)`)
)

// Strip rules run in order against a normalized key. Each removes tokens
// that describe strength, route, formulation or frequency rather than the
// drug itself.
var stripPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b\d+(\.\d+)?\s*(mg|mcg|g|ml|cc|units?|iu|meq)\b`),
	regexp.MustCompile(`\b(low\s+dose|high\s+dose|extended\s+release|immediate\s+release)\b`),
	regexp.MustCompile(`\b(oral|topical|iv|im|sc|intravenous|injectable|sublingual|nasal|rectal)\b`),
	regexp.MustCompile(`\b(tablet|capsule|injection|cream|gel|ointment|syrup|liquid|solution|suspension|spray)s?\b`),
	regexp.MustCompile(`\b(once\s+daily|twice\s+daily|od|bid|tid|qid|prn)\b`),
}

// NormalizeKey reduces raw text to its canonical lookup key: case-folded,
// diacritic-folded, punctuation-free, single-spaced. It is idempotent.
func NormalizeKey(raw string) string {
	folded, _, err := transform.String(diacriticFolder, raw)
	if err != nil {
		folded = raw
	}
	key := strings.ToLower(folded)
	key = punctuationPattern.ReplaceAllString(key, " ")
	key = whitespacePattern.ReplaceAllString(key, " ")
	return strings.TrimSpace(key)
}

// stripDoseTokens removes strength/route/formulation/frequency tokens from
// a normalized key. It never strips the last remaining word: if a rule
// would leave an empty string the rule is skipped.
func stripDoseTokens(key string) string {
	result := key
	for _, pattern := range stripPatterns {
		candidate := strings.TrimSpace(whitespacePattern.ReplaceAllString(pattern.ReplaceAllString(result, " "), " "))
		if candidate == "" {
			continue
		}
		result = candidate
	}
	return result
}

// Normalize expands raw text into an ordered, deduplicated list of
// candidate lookup keys, most literal first, most expanded last. The match
// engine probes them in order for exact hits and scores the full set for
// fuzzy fallback. Normalizing an already-normalized key yields that key as
// the first candidate.
func Normalize(raw string) []string {
	var candidates []string
	add := func(key string) {
		if key == "" {
			return
		}
		for _, existing := range candidates {
			if existing == key {
				return
			}
		}
		candidates = append(candidates, key)
	}

	base := NormalizeKey(raw)
	add(base)

	// Parenthetical split works on the raw text so the parenthesis
	// structure survives punctuation stripping.
	if m := parentheticalPattern.FindStringSubmatch(strings.TrimSpace(raw)); m != nil {
		outer := NormalizeKey(m[1])
		inner := NormalizeKey(m[2])
		add(outer)
		add(inner)
	}

	// Dose-stripped forms of every candidate gathered so far.
	for _, key := range append([]string(nil), candidates...) {
		add(stripDoseTokens(key))
	}

	// Abbreviation expansions come last: added, never replacing.
	for _, key := range append([]string(nil), candidates...) {
		if expansion, ok := abbreviations[key]; ok {
			add(expansion)
		}
	}

	return candidates
}
