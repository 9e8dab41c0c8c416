package compiler

import (
	"strings"

	"github.com/roach88/poc/internal/ir"
)

// ClauseTerminator ends a clause.
const ClauseTerminator = "."

// SegmentClauses splits policy text into trimmed, non-empty clauses.
//
// Clause i is always the i-th non-empty segment in source order. Returns
// ir.CompilationError of kind EmptyInput when the trimmed text is empty and
// NoClauses when only terminators and whitespace remain.
func SegmentClauses(text string) ([]string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, ir.NewEmptyInput()
	}

	var clauses []string
	for _, piece := range strings.Split(trimmed, ClauseTerminator) {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		clauses = append(clauses, piece)
	}

	if len(clauses) == 0 {
		return nil, ir.NewNoClauses()
	}
	return clauses, nil
}
