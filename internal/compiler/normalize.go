package compiler

import (
	"slices"
	"strings"

	"github.com/roach88/poc/internal/ir"
)

// NormalizeIntent validates the clause sequence and extracts the assumption
// and exclusion sub-lists.
//
// Three passes run in order, each over every clause before the next starts:
//  1. modal language (ModalLanguageDetected)
//  2. action verb presence (MissingActionVerb)
//  3. unordered multi-action (AmbiguousMultiAction)
//
// The first violation aborts with a single ir.CompilationError.
func NormalizeIntent(clauses []string, lex Lexicon) (ir.IntentNormalization, error) {
	lowered := make([]string, len(clauses))
	for i, c := range clauses {
		lowered[i] = strings.ToLower(c)
	}

	for i, lc := range lowered {
		if modal, found := firstContained(lc, lex.ModalTerms); found {
			return ir.IntentNormalization{}, ir.NewModalLanguageDetected(i, clauses[i], modal)
		}
	}

	for i, lc := range lowered {
		if _, found := firstContained(lc, lex.ActionVerbs); !found {
			return ir.IntentNormalization{}, ir.NewMissingActionVerb(i, clauses[i])
		}
	}

	for i, lc := range lowered {
		_, conjoined := firstContained(lc, lex.Conjunctions)
		_, ordered := firstContained(lc, lex.OrderingMarkers)
		if conjoined && !ordered {
			return ir.IntentNormalization{}, ir.NewAmbiguousMultiAction(i, clauses[i])
		}
	}

	norm := ir.IntentNormalization{
		Clauses:     slices.Clone(clauses),
		Assumptions: []string{},
		Exclusions:  []string{},
	}
	for i, lc := range lowered {
		if _, found := firstContained(lc, lex.AssumptionMarkers); found {
			norm.Assumptions = append(norm.Assumptions, clauses[i])
		}
		if _, found := firstContained(lc, lex.ExclusionMarkers); found {
			norm.Exclusions = append(norm.Exclusions, clauses[i])
		}
	}
	return norm, nil
}
