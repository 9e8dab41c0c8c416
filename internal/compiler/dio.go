package compiler

import (
	"fmt"

	"github.com/roach88/poc/internal/ir"
)

// dioDescriptionRunes bounds the clause excerpt in an invariant description.
const dioDescriptionRunes = 50

// compileDIOInvariants emits exactly one invariant per clause.
// The returned slots are indexed by clause position.
func compileDIOInvariants(clauses []string) [][]ir.DIOInvariant {
	slots := make([][]ir.DIOInvariant, len(clauses))
	for i, clause := range clauses {
		slots[i] = []ir.DIOInvariant{{
			ID:            fmt.Sprintf("dio_%d", i),
			Description:   "Enforce policy clause: " + truncateClause(clause, dioDescriptionRunes),
			ClauseIndex:   i,
			FailureSignal: fmt.Sprintf("VIOLATION_DIO_%d", i),
		}}
	}
	return slots
}
