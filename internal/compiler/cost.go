package compiler

import (
	"fmt"

	"github.com/roach88/poc/internal/ir"
)

// compileCostConstraints emits a constraint for each cost-bearing clause.
//
// Clauses without a cost indicator are skipped silently. A cost-bearing
// clause needs both a subject and a unit; a miss on either records an error
// for that clause and moves on. Errors aggregate across the whole pass.
func compileCostConstraints(clauses []string, lex Lexicon) ([][]ir.ICAECostConstraint, []ir.CompilationError) {
	slots := make([][]ir.ICAECostConstraint, len(clauses))
	var errs []ir.CompilationError

	for i, clause := range clauses {
		if !lex.IsCostBearing(clause) {
			continue
		}

		subject, ok := lex.ExtractSubject(clause)
		if !ok {
			errs = append(errs, ir.NewMissingCostSubject(i, clause))
			continue
		}

		unit, ok := lex.ResolveUnit(clause)
		if !ok {
			errs = append(errs, ir.NewMissingMeasurementUnit(i, clause))
			continue
		}

		slots[i] = []ir.ICAECostConstraint{{
			ID:              fmt.Sprintf("icae_%d", i),
			Subject:         subject,
			MeasurementUnit: unit,
			ClauseIndex:     i,
			Externalities:   []string{"External cost from: " + truncateClause(clause, ruleExcerptRunes)},
		}}
	}

	return slots, errs
}
