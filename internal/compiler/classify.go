package compiler

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/roach88/poc/internal/ir"
)

// minSubjectRunes is the length a token must exceed to be a cost subject.
const minSubjectRunes = 3

// ResolvePrincipal returns the first whole token that names a principal.
//
// Tokens are whitespace-separated words with leading and trailing
// non-alphanumeric characters stripped, compared case-insensitively.
// Substrings never match: "SYSTEMWIDE" does not resolve to SYSTEM.
func ResolvePrincipal(clause string) (ir.Principal, bool) {
	for _, tok := range clauseTokens(clause) {
		if p, ok := ir.ParsePrincipal(strings.ToUpper(tok)); ok {
			return p, true
		}
	}
	return 0, false
}

// ResolveUnit returns the first measurement unit keyword found in the clause,
// in ir.MeasurementUnits priority order.
//
// A clause containing any currency glyph never resolves, even when a unit
// keyword is also present.
func (l Lexicon) ResolveUnit(clause string) (ir.MeasurementUnit, bool) {
	for _, glyph := range l.CurrencyGlyphs {
		if strings.Contains(clause, glyph) {
			return 0, false
		}
	}

	lowered := strings.ToLower(clause)
	for _, u := range ir.MeasurementUnits() {
		if strings.Contains(lowered, u.Keyword()) {
			return u, true
		}
	}
	return 0, false
}

// ExtractSubject returns the first token longer than three characters that is
// not a stop word. The token keeps its original casing.
func (l Lexicon) ExtractSubject(clause string) (string, bool) {
	for _, tok := range clauseTokens(clause) {
		if utf8.RuneCountInString(tok) <= minSubjectRunes {
			continue
		}
		if slices.Contains(l.SubjectStopWords, strings.ToLower(tok)) {
			continue
		}
		return tok, true
	}
	return "", false
}

// IsCostBearing reports whether the clause mentions any cost indicator.
func (l Lexicon) IsCostBearing(clause string) bool {
	_, ok := firstContained(strings.ToLower(clause), l.CostIndicators)
	return ok
}

// clauseTokens splits on whitespace and trims non-alphanumeric runes from
// both ends of each word. Words that were pure punctuation become "".
func clauseTokens(clause string) []string {
	fields := strings.Fields(clause)
	for i, f := range fields {
		fields[i] = strings.TrimFunc(f, notAlphanumeric)
	}
	return fields
}

func notAlphanumeric(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsNumber(r)
}

// firstContained returns the first term (in table order) that lowered contains.
func firstContained(lowered string, terms []string) (string, bool) {
	for _, term := range terms {
		if strings.Contains(lowered, term) {
			return term, true
		}
	}
	return "", false
}

// truncateClause keeps the first maxRunes characters and appends "...".
// It cuts on character boundaries only.
func truncateClause(clause string, maxRunes int) string {
	count := 0
	for i := range clause {
		if count == maxRunes {
			return clause[:i] + "..."
		}
		count++
	}
	return clause
}
