package compiler

import (
	"fmt"

	"github.com/roach88/poc/internal/ir"
)

// ruleExcerptRunes bounds the clause excerpt embedded in synthesized rules.
const ruleExcerptRunes = 30

// compileAuthorities resolves a principal for every clause.
//
// Clauses without a principal record MissingPrincipal and scanning continues,
// so the caller sees every authority problem at once.
func compileAuthorities(clauses []string) ([][]ir.ZTAuthority, []ir.CompilationError) {
	slots := make([][]ir.ZTAuthority, len(clauses))
	var errs []ir.CompilationError

	for i, clause := range clauses {
		principal, ok := ResolvePrincipal(clause)
		if !ok {
			errs = append(errs, ir.NewMissingPrincipal(i, clause))
			continue
		}

		excerpt := truncateClause(clause, ruleExcerptRunes)
		slots[i] = []ir.ZTAuthority{{
			ID:          fmt.Sprintf("zt_auth_%d", i),
			Principal:   principal,
			Scope:       fmt.Sprintf("scope_%d", i),
			ClauseIndex: i,
			DelegationRules: []string{
				fmt.Sprintf("Delegation requires explicit %s approval for: %s", principal, excerpt),
			},
			RevocationTriggers: []string{
				"Revoke on policy change affecting: " + excerpt,
			},
		}}
	}

	return slots, errs
}
