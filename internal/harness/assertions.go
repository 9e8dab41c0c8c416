package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/poc/internal/ir"
)

// Expectation kinds reported in AssertionError.Type.
const (
	AssertVerdict     = "verdict"
	AssertErrors      = "errors"
	AssertInvariants  = "invariants"
	AssertAuthorities = "authorities"
	AssertCosts       = "costs"
	AssertAssumptions = "assumptions"
	AssertExclusions  = "exclusions"
)

// AssertionError is returned when an expectation does not hold.
type AssertionError struct {
	Type     string // Expectation kind for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// checkExpectations evaluates every non-nil expectation and returns all
// mismatches in a fixed order.
func checkExpectations(expect Expectation, result ir.CompilationResult) []error {
	var errs []error
	add := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	add(assertVerdict(expect.Verdict, result))
	if expect.Errors != nil {
		add(assertErrors(expect.Errors, result.Errors))
	}
	if expect.Invariants != nil {
		add(assertInvariantCount(*expect.Invariants, result.DIOInvariants))
	}
	if expect.Authorities != nil {
		add(assertAuthorities(expect.Authorities, result.ZTAuthorityGraph))
	}
	if expect.Costs != nil {
		add(assertCosts(expect.Costs, result.ICAEConstraints))
	}
	if expect.Assumptions != nil {
		add(assertClauseList(AssertAssumptions, expect.Assumptions, result.IntentNormalization.Assumptions))
	}
	if expect.Exclusions != nil {
		add(assertClauseList(AssertExclusions, expect.Exclusions, result.IntentNormalization.Exclusions))
	}
	return errs
}

func assertVerdict(expected string, result ir.CompilationResult) error {
	if strings.EqualFold(expected, result.Verdict.String()) {
		return nil
	}
	return &AssertionError{
		Type:     AssertVerdict,
		Expected: strings.ToUpper(expected),
		Actual:   fmt.Sprintf("%s %v", result.Verdict, result.ErrorMessages()),
	}
}

func assertErrors(expected []ExpectedError, actual []ir.CompilationError) error {
	if len(expected) != len(actual) {
		return &AssertionError{
			Type:     AssertErrors,
			Expected: fmt.Sprintf("%d error(s)", len(expected)),
			Actual:   fmt.Sprintf("%d error(s): %s", len(actual), describeErrors(actual)),
		}
	}

	for i, want := range expected {
		got := actual[i]
		if want.Kind != got.Kind.String() ||
			(want.ClauseIndex != nil && *want.ClauseIndex != got.ClauseIndex) ||
			(want.Token != "" && want.Token != got.Token) {
			return &AssertionError{
				Type:     AssertErrors,
				Expected: fmt.Sprintf("errors[%d] = %s", i, describeExpectedError(want)),
				Actual:   fmt.Sprintf("errors[%d] = %s", i, describeError(got)),
			}
		}
	}
	return nil
}

func assertInvariantCount(expected int, actual []ir.DIOInvariant) error {
	if expected == len(actual) {
		return nil
	}
	return &AssertionError{
		Type:     AssertInvariants,
		Expected: fmt.Sprintf("%d invariant(s)", expected),
		Actual:   fmt.Sprintf("%d invariant(s)", len(actual)),
	}
}

func assertAuthorities(expected []ExpectedAuthority, actual []ir.ZTAuthority) error {
	if len(expected) != len(actual) {
		return &AssertionError{
			Type:     AssertAuthorities,
			Expected: fmt.Sprintf("%d authorit(ies)", len(expected)),
			Actual:   fmt.Sprintf("%d authorit(ies)", len(actual)),
		}
	}

	for i, want := range expected {
		got := actual[i]
		if want.Principal != got.Principal.String() ||
			(want.ClauseIndex != nil && *want.ClauseIndex != got.ClauseIndex) {
			return &AssertionError{
				Type:     AssertAuthorities,
				Expected: fmt.Sprintf("authorities[%d] = %s", i, want.Principal),
				Actual:   fmt.Sprintf("authorities[%d] = %s at clause %d", i, got.Principal, got.ClauseIndex),
			}
		}
	}
	return nil
}

func assertCosts(expected []ExpectedCost, actual []ir.ICAECostConstraint) error {
	if len(expected) != len(actual) {
		return &AssertionError{
			Type:     AssertCosts,
			Expected: fmt.Sprintf("%d cost constraint(s)", len(expected)),
			Actual:   fmt.Sprintf("%d cost constraint(s)", len(actual)),
		}
	}

	for i, want := range expected {
		got := actual[i]
		unit, _ := ir.ParseMeasurementUnit(want.Unit)
		if unit != got.MeasurementUnit || (want.Subject != "" && want.Subject != got.Subject) {
			return &AssertionError{
				Type:     AssertCosts,
				Expected: fmt.Sprintf("costs[%d] = %s of %q", i, want.Unit, want.Subject),
				Actual:   fmt.Sprintf("costs[%d] = %s of %q", i, got.MeasurementUnit, got.Subject),
			}
		}
	}
	return nil
}

func assertClauseList(kind string, expected, actual []string) error {
	if slices.Equal(expected, actual) {
		return nil
	}
	return &AssertionError{
		Type:     kind,
		Expected: fmt.Sprintf("%q", expected),
		Actual:   fmt.Sprintf("%q", actual),
	}
}

func describeErrors(errs []ir.CompilationError) string {
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = describeError(e)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func describeError(e ir.CompilationError) string {
	s := fmt.Sprintf("%s@%d", e.Kind, e.ClauseIndex)
	if e.Token != "" {
		s += fmt.Sprintf(" token=%q", e.Token)
	}
	return s
}

func describeExpectedError(e ExpectedError) string {
	s := e.Kind
	if e.ClauseIndex != nil {
		s += fmt.Sprintf("@%d", *e.ClauseIndex)
	}
	if e.Token != "" {
		s += fmt.Sprintf(" token=%q", e.Token)
	}
	return s
}
