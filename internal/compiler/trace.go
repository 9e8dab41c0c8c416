package compiler

import (
	"fmt"

	"github.com/roach88/poc/internal/ir"
)

// buildTraceability joins each clause index to the artifact ids produced for it.
// Every id list is non-nil so an entry without artifacts renders [] in JSON.
func buildTraceability(
	clauses []string,
	dio [][]ir.DIOInvariant,
	auth [][]ir.ZTAuthority,
	cost [][]ir.ICAECostConstraint,
) []ir.TraceabilityEntry {
	entries := make([]ir.TraceabilityEntry, len(clauses))
	for i, clause := range clauses {
		entries[i] = ir.TraceabilityEntry{
			ClauseID:     fmt.Sprintf("clause_%d", i),
			ClauseIndex:  i,
			ClauseText:   clause,
			InvariantIDs: collectIDs(slotAt(dio, i), func(a ir.DIOInvariant) string { return a.ID }),
			AuthorityIDs: collectIDs(slotAt(auth, i), func(a ir.ZTAuthority) string { return a.ID }),
			CostIDs:      collectIDs(slotAt(cost, i), func(a ir.ICAECostConstraint) string { return a.ID }),
		}
	}
	return entries
}

// flatten concatenates per-clause slots in clause order. Never returns nil.
func flatten[T any](slots [][]T) []T {
	out := []T{}
	for _, slot := range slots {
		out = append(out, slot...)
	}
	return out
}

func slotAt[T any](slots [][]T, i int) []T {
	if i < len(slots) {
		return slots[i]
	}
	return nil
}

func collectIDs[T any](artifacts []T, id func(T) string) []string {
	ids := make([]string, len(artifacts))
	for i, a := range artifacts {
		ids[i] = id(a)
	}
	return ids
}
