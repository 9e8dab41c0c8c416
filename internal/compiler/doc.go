// Package compiler turns natural-language policy text into governance artifacts.
//
// The pipeline is a pure, synchronous function of its input:
//
//	text → clauses → intent normalization → DIO invariants → ZT authorities
//	     → ICAE cost constraints → traceability → CompilationResult
//
// Segmentation and normalization fail fast with a single error. The ZT
// authority and ICAE cost stages aggregate every violation in the stage
// before failing, so a caller sees all authority or cost problems at once.
// A failed compilation never returns partial artifacts.
//
// All keyword rules live in a Lexicon (see DefaultLexicon). Per-clause
// bookkeeping uses slices indexed by clause position, so output ordering is
// deterministic.
//
// # Usage
//
//	c := compiler.New()
//	result := c.Compile("All actions must be logged by SYSTEM.")
//	if !result.IsSuccess() {
//	    for _, msg := range result.ErrorMessages() {
//	        log.Println(msg)
//	    }
//	}
package compiler
