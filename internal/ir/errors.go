package ir

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a CompilationError.
type ErrorKind int

const (
	KindEmptyInput ErrorKind = iota
	KindNoClauses
	KindIntentNormalizationFailed
	KindModalLanguageDetected
	KindMissingActionVerb
	KindAmbiguousMultiAction
	KindMissingPrincipal
	KindMissingMeasurementUnit
	KindMissingCostSubject
	KindInternalError
)

// Stable error codes (E200-E209). They must not change between releases.
const (
	CodeEmptyInput                = "E200"
	CodeNoClauses                 = "E201"
	CodeIntentNormalizationFailed = "E202"
	CodeModalLanguageDetected     = "E203"
	CodeMissingActionVerb         = "E204"
	CodeAmbiguousMultiAction      = "E205"
	CodeMissingPrincipal          = "E206"
	CodeMissingMeasurementUnit    = "E207"
	CodeMissingCostSubject        = "E208"
	CodeInternalError             = "E209"
)

var kindNames = [...]string{
	KindEmptyInput:                "EmptyInput",
	KindNoClauses:                 "NoClauses",
	KindIntentNormalizationFailed: "IntentNormalizationFailed",
	KindModalLanguageDetected:     "ModalLanguageDetected",
	KindMissingActionVerb:         "MissingActionVerb",
	KindAmbiguousMultiAction:      "AmbiguousMultiAction",
	KindMissingPrincipal:          "MissingPrincipal",
	KindMissingMeasurementUnit:    "MissingMeasurementUnit",
	KindMissingCostSubject:        "MissingCostSubject",
	KindInternalError:             "InternalError",
}

var kindCodes = [...]string{
	KindEmptyInput:                CodeEmptyInput,
	KindNoClauses:                 CodeNoClauses,
	KindIntentNormalizationFailed: CodeIntentNormalizationFailed,
	KindModalLanguageDetected:     CodeModalLanguageDetected,
	KindMissingActionVerb:         CodeMissingActionVerb,
	KindAmbiguousMultiAction:      CodeAmbiguousMultiAction,
	KindMissingPrincipal:          CodeMissingPrincipal,
	KindMissingMeasurementUnit:    CodeMissingMeasurementUnit,
	KindMissingCostSubject:        CodeMissingCostSubject,
	KindInternalError:             CodeInternalError,
}

func (k ErrorKind) valid() bool {
	return k >= 0 && int(k) < len(kindNames)
}

// String returns the kind name, e.g. "MissingPrincipal".
func (k ErrorKind) String() string {
	if !k.valid() {
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
	return kindNames[k]
}

// Code returns the stable error code for the kind.
func (k ErrorKind) Code() string {
	if !k.valid() {
		return CodeInternalError
	}
	return kindCodes[k]
}

// PerClause reports whether errors of this kind name a specific clause.
func (k ErrorKind) PerClause() bool {
	switch k {
	case KindModalLanguageDetected, KindMissingActionVerb, KindAmbiguousMultiAction,
		KindMissingPrincipal, KindMissingMeasurementUnit, KindMissingCostSubject:
		return true
	}
	return false
}

// ParseErrorKind looks up a kind by name.
func ParseErrorKind(name string) (ErrorKind, bool) {
	for i, n := range kindNames {
		if n == name {
			return ErrorKind(i), true
		}
	}
	return 0, false
}

// MarshalText implements encoding.TextMarshaler.
func (k ErrorKind) MarshalText() ([]byte, error) {
	if !k.valid() {
		return nil, fmt.Errorf("unknown error kind %d", int(k))
	}
	return []byte(kindNames[k]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *ErrorKind) UnmarshalText(text []byte) error {
	parsed, ok := ParseErrorKind(string(text))
	if !ok {
		return fmt.Errorf("unknown error kind %q", string(text))
	}
	*k = parsed
	return nil
}

// CompilationError is a structured compilation failure.
//
// Structural kinds (EmptyInput, NoClauses) and the free-text kinds
// (IntentNormalizationFailed, InternalError) carry ClauseIndex -1.
type CompilationError struct {
	Kind        ErrorKind `json:"kind"`
	ClauseIndex int       `json:"clause_index"`
	Clause      string    `json:"clause,omitempty"`
	Token       string    `json:"token,omitempty"`  // offending modal word
	Reason      string    `json:"reason,omitempty"` // normalization reason or internal context
}

// Code returns the stable error code.
func (e CompilationError) Code() string {
	return e.Kind.Code()
}

// Error implements the error interface.
func (e CompilationError) Error() string {
	switch e.Kind {
	case KindEmptyInput:
		return "Empty policy input"
	case KindNoClauses:
		return "No valid clauses found"
	case KindIntentNormalizationFailed:
		return fmt.Sprintf("Intent normalization failed: %s", e.Reason)
	case KindModalLanguageDetected:
		return fmt.Sprintf("Clause %d contains modal language '%s': '%s'", e.ClauseIndex, e.Token, e.Clause)
	case KindMissingActionVerb:
		return fmt.Sprintf("Clause %d missing action verb: '%s'", e.ClauseIndex, e.Clause)
	case KindAmbiguousMultiAction:
		return fmt.Sprintf("Clause %d has ambiguous multi-action without ordering: '%s'", e.ClauseIndex, e.Clause)
	case KindMissingPrincipal:
		return fmt.Sprintf("Clause %d missing explicit principal: '%s'", e.ClauseIndex, e.Clause)
	case KindMissingMeasurementUnit:
		return fmt.Sprintf("Clause %d mentions cost but no explicit measurement unit: '%s'", e.ClauseIndex, e.Clause)
	case KindMissingCostSubject:
		return fmt.Sprintf("Clause %d mentions cost but no attribution subject: '%s'", e.ClauseIndex, e.Clause)
	case KindInternalError:
		return fmt.Sprintf("Internal error: %s", e.Reason)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
	}
}

// Is matches another CompilationError of the same kind, so callers can write
// errors.Is(err, ir.CompilationError{Kind: ir.KindMissingPrincipal}).
func (e CompilationError) Is(target error) bool {
	var other CompilationError
	if !errors.As(target, &other) {
		return false
	}
	return other.Kind == e.Kind
}

// NewEmptyInput reports input that is empty after trimming.
func NewEmptyInput() CompilationError {
	return CompilationError{Kind: KindEmptyInput, ClauseIndex: -1}
}

// NewNoClauses reports input that segments into zero clauses.
func NewNoClauses() CompilationError {
	return CompilationError{Kind: KindNoClauses, ClauseIndex: -1}
}

// NewIntentNormalizationFailed reports a normalization failure not tied to a clause.
func NewIntentNormalizationFailed(reason string) CompilationError {
	return CompilationError{Kind: KindIntentNormalizationFailed, ClauseIndex: -1, Reason: reason}
}

// NewModalLanguageDetected reports a discretionary term in a clause.
func NewModalLanguageDetected(index int, clause, modalWord string) CompilationError {
	return CompilationError{Kind: KindModalLanguageDetected, ClauseIndex: index, Clause: clause, Token: modalWord}
}

// NewMissingActionVerb reports a clause with no recognized action verb.
func NewMissingActionVerb(index int, clause string) CompilationError {
	return CompilationError{Kind: KindMissingActionVerb, ClauseIndex: index, Clause: clause}
}

// NewAmbiguousMultiAction reports conjoined actions with no ordering marker.
func NewAmbiguousMultiAction(index int, clause string) CompilationError {
	return CompilationError{Kind: KindAmbiguousMultiAction, ClauseIndex: index, Clause: clause}
}

// NewMissingPrincipal reports a clause that names no principal.
func NewMissingPrincipal(index int, clause string) CompilationError {
	return CompilationError{Kind: KindMissingPrincipal, ClauseIndex: index, Clause: clause}
}

// NewMissingMeasurementUnit reports a cost clause with no accepted unit.
func NewMissingMeasurementUnit(index int, clause string) CompilationError {
	return CompilationError{Kind: KindMissingMeasurementUnit, ClauseIndex: index, Clause: clause}
}

// NewMissingCostSubject reports a cost clause with no attribution subject.
func NewMissingCostSubject(index int, clause string) CompilationError {
	return CompilationError{Kind: KindMissingCostSubject, ClauseIndex: index, Clause: clause}
}

// NewInternalError reports a broken compiler invariant.
func NewInternalError(context string) CompilationError {
	return CompilationError{Kind: KindInternalError, ClauseIndex: -1, Reason: context}
}

// Err returns nil on Pass, otherwise all errors joined.
func (r CompilationResult) Err() error {
	if r.IsSuccess() {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}
