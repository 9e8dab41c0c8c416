package compiler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/poc/internal/ir"
)

func normalizeErr(t *testing.T, clauses ...string) ir.CompilationError {
	t.Helper()
	_, err := NormalizeIntent(clauses, DefaultLexicon())
	require.Error(t, err)

	var ce ir.CompilationError
	require.True(t, errors.As(err, &ce), "expected CompilationError, got %T", err)
	return ce
}

// =============================================================================
// Modal Language Pass
// =============================================================================

func TestNormalizeIntentModalTerms(t *testing.T) {
	for _, modal := range DefaultLexicon().ModalTerms {
		t.Run(modal, func(t *testing.T) {
			clause := "Actions " + modal + " be logged by SYSTEM"
			ce := normalizeErr(t, clause)

			assert.Equal(t, ir.KindModalLanguageDetected, ce.Kind)
			assert.Equal(t, 0, ce.ClauseIndex)
			assert.Equal(t, clause, ce.Clause)
			assert.Equal(t, modal, ce.Token)
		})
	}
}

func TestNormalizeIntentModalCaseInsensitive(t *testing.T) {
	ce := normalizeErr(t, "Actions SHOULD be logged by SYSTEM")
	assert.Equal(t, ir.KindModalLanguageDetected, ce.Kind)
	assert.Equal(t, "should", ce.Token)
}

func TestNormalizeIntentModalReportsFirstClause(t *testing.T) {
	ce := normalizeErr(t,
		"All actions must be logged by SYSTEM",
		"Access might be denied by USER",
		"Data could be audited by SERVICE",
	)
	assert.Equal(t, 1, ce.ClauseIndex)
	assert.Equal(t, "might", ce.Token)
}

// =============================================================================
// Pass Ordering
// =============================================================================

func TestNormalizeIntentModalPassRunsBeforeVerbPass(t *testing.T) {
	// Clause 0 lacks a verb, but the modal pass scans every clause first.
	ce := normalizeErr(t, "The system is secure by SYSTEM", "Actions should be logged by SYSTEM")
	assert.Equal(t, ir.KindModalLanguageDetected, ce.Kind)
	assert.Equal(t, 1, ce.ClauseIndex)
}

func TestNormalizeIntentVerbPassRunsBeforeMultiActionPass(t *testing.T) {
	ce := normalizeErr(t, "Log all actions and audit them by SYSTEM", "Nothing happens here by SYSTEM")
	assert.Equal(t, ir.KindMissingActionVerb, ce.Kind)
	assert.Equal(t, 1, ce.ClauseIndex)
}

// =============================================================================
// Action Verb Pass
// =============================================================================

func TestNormalizeIntentMissingActionVerb(t *testing.T) {
	ce := normalizeErr(t, "The system is secure by SYSTEM")
	assert.Equal(t, ir.KindMissingActionVerb, ce.Kind)
	assert.Equal(t, 0, ce.ClauseIndex)
	assert.Contains(t, ce.Error(), "missing action verb")
}

func TestNormalizeIntentActionVerbs(t *testing.T) {
	for _, verb := range DefaultLexicon().ActionVerbs {
		t.Run(verb, func(t *testing.T) {
			_, err := NormalizeIntent([]string{"Agents " + verb + " access by SYSTEM"}, DefaultLexicon())
			assert.NoError(t, err)
		})
	}
}

// =============================================================================
// Multi-Action Pass
// =============================================================================

func TestNormalizeIntentAmbiguousMultiAction(t *testing.T) {
	for _, clause := range []string{
		"Log all actions and audit them",
		"Deny access or audit it",
		"Log all actions AND audit them",
	} {
		ce := normalizeErr(t, clause)
		assert.Equal(t, ir.KindAmbiguousMultiAction, ce.Kind, clause)
	}
}

func TestNormalizeIntentOrderedMultiAction(t *testing.T) {
	for _, clause := range []string{
		"Log actions then audit them by SYSTEM",
		"Audit access before and after deployment by SYSTEM",
		"Log requests or deny after review by USER",
	} {
		_, err := NormalizeIntent([]string{clause}, DefaultLexicon())
		assert.NoError(t, err, clause)
	}
}

func TestNormalizeIntentConjunctionNeedsSurroundingSpaces(t *testing.T) {
	// "brand" and "order" contain "and"/"or" but not as standalone words.
	_, err := NormalizeIntent([]string{"Brand order must be logged by SYSTEM"}, DefaultLexicon())
	assert.NoError(t, err)
}

// =============================================================================
// Assumptions and Exclusions
// =============================================================================

func TestNormalizeIntentSubLists(t *testing.T) {
	clauses := []string{
		"Assumes network must be secure by SYSTEM",
		"All actions must be logged by SYSTEM",
		"Except for testing must be allowed by USER",
		"Assuming review, deny access unless approved by USER",
	}

	norm, err := NormalizeIntent(clauses, DefaultLexicon())
	require.NoError(t, err)

	assert.Equal(t, clauses, norm.Clauses, "sub-list membership never removes a clause")
	assert.Equal(t, []string{clauses[0], clauses[3]}, norm.Assumptions)
	assert.Equal(t, []string{clauses[2], clauses[3]}, norm.Exclusions)
}

func TestNormalizeIntentEmptySubListsAreNonNil(t *testing.T) {
	norm, err := NormalizeIntent([]string{"All actions must be logged by SYSTEM"}, DefaultLexicon())
	require.NoError(t, err)
	assert.NotNil(t, norm.Assumptions)
	assert.NotNil(t, norm.Exclusions)
	assert.Empty(t, norm.Assumptions)
	assert.Empty(t, norm.Exclusions)
}

func TestNormalizeIntentCopiesClauses(t *testing.T) {
	clauses := []string{"All actions must be logged by SYSTEM"}
	norm, err := NormalizeIntent(clauses, DefaultLexicon())
	require.NoError(t, err)

	clauses[0] = "mutated"
	assert.Equal(t, "All actions must be logged by SYSTEM", norm.Clauses[0])
}
