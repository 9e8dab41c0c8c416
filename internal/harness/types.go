package harness

import "github.com/roach88/poc/internal/ir"

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass is true if every expectation matched.
	Pass bool `json:"pass"`

	// Failures contains one message per mismatched expectation.
	// Empty if Pass is true.
	Failures []string `json:"failures"`

	// Compilation is the compiler output the expectations were checked against.
	Compilation ir.CompilationResult `json:"compilation"`
}

// NewResult creates a new passing result.
func NewResult(compilation ir.CompilationResult) *Result {
	return &Result{
		Pass:        true,
		Failures:    []string{},
		Compilation: compilation,
	}
}

// AddFailure records a mismatch and marks the result as failed.
func (r *Result) AddFailure(err error) {
	r.Failures = append(r.Failures, err.Error())
	r.Pass = false
}
