package ir

import (
	"fmt"
	"strings"
)

// Principal is one of the closed set of actors a clause can attribute
// responsibility to.
type Principal int

const (
	PrincipalSystem Principal = iota
	PrincipalUser
	PrincipalService
)

// principalNames is the canonical render table for Principal.
var principalNames = [...]string{
	PrincipalSystem:  "SYSTEM",
	PrincipalUser:    "USER",
	PrincipalService: "SERVICE",
}

// principalsByName is the parse table for Principal.
var principalsByName = map[string]Principal{
	"SYSTEM":  PrincipalSystem,
	"USER":    PrincipalUser,
	"SERVICE": PrincipalService,
}

// Principals returns every principal in declaration order.
func Principals() []Principal {
	return []Principal{PrincipalSystem, PrincipalUser, PrincipalService}
}

// String returns the canonical uppercase name.
func (p Principal) String() string {
	if p < 0 || int(p) >= len(principalNames) {
		return fmt.Sprintf("Principal(%d)", int(p))
	}
	return principalNames[p]
}

// ParsePrincipal looks up a principal by its canonical name.
// The match is exact: callers normalize case before lookup.
func ParsePrincipal(name string) (Principal, bool) {
	p, ok := principalsByName[name]
	return p, ok
}

// MarshalText implements encoding.TextMarshaler.
func (p Principal) MarshalText() ([]byte, error) {
	if p < 0 || int(p) >= len(principalNames) {
		return nil, fmt.Errorf("unknown principal %d", int(p))
	}
	return []byte(principalNames[p]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Principal) UnmarshalText(text []byte) error {
	parsed, ok := ParsePrincipal(strings.ToUpper(string(text)))
	if !ok {
		return fmt.Errorf("unknown principal %q", string(text))
	}
	*p = parsed
	return nil
}

// MeasurementUnit is one of the closed set of units a cost constraint can be
// expressed in.
type MeasurementUnit int

const (
	UnitUSD MeasurementUnit = iota
	UnitEUR
	UnitGBP
	UnitTokens
	UnitBytes
	UnitRequests
	UnitHours
)

// unitNames is the canonical render table for MeasurementUnit.
var unitNames = [...]string{
	UnitUSD:      "USD",
	UnitEUR:      "EUR",
	UnitGBP:      "GBP",
	UnitTokens:   "tokens",
	UnitBytes:    "bytes",
	UnitRequests: "requests",
	UnitHours:    "hours",
}

// unitsByName is the parse table for MeasurementUnit, keyed by lowercase name.
var unitsByName = map[string]MeasurementUnit{
	"usd":      UnitUSD,
	"eur":      UnitEUR,
	"gbp":      UnitGBP,
	"tokens":   UnitTokens,
	"bytes":    UnitBytes,
	"requests": UnitRequests,
	"hours":    UnitHours,
}

// MeasurementUnits returns every unit in resolution priority order.
func MeasurementUnits() []MeasurementUnit {
	return []MeasurementUnit{UnitUSD, UnitEUR, UnitGBP, UnitTokens, UnitBytes, UnitRequests, UnitHours}
}

// String returns the canonical name (currency codes upper, counters lower).
func (u MeasurementUnit) String() string {
	if u < 0 || int(u) >= len(unitNames) {
		return fmt.Sprintf("MeasurementUnit(%d)", int(u))
	}
	return unitNames[u]
}

// Keyword returns the lowercase keyword the resolver searches for.
func (u MeasurementUnit) Keyword() string {
	return strings.ToLower(u.String())
}

// ParseMeasurementUnit looks up a unit by name, case-insensitively.
func ParseMeasurementUnit(name string) (MeasurementUnit, bool) {
	u, ok := unitsByName[strings.ToLower(name)]
	return u, ok
}

// MarshalText implements encoding.TextMarshaler.
func (u MeasurementUnit) MarshalText() ([]byte, error) {
	if u < 0 || int(u) >= len(unitNames) {
		return nil, fmt.Errorf("unknown measurement unit %d", int(u))
	}
	return []byte(unitNames[u]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *MeasurementUnit) UnmarshalText(text []byte) error {
	parsed, ok := ParseMeasurementUnit(string(text))
	if !ok {
		return fmt.Errorf("unknown measurement unit %q", string(text))
	}
	*u = parsed
	return nil
}

// Verdict is the binary outcome of a compilation.
type Verdict int

const (
	VerdictFail Verdict = iota
	VerdictPass
)

// String returns "PASS" or "FAIL".
func (v Verdict) String() string {
	if v == VerdictPass {
		return "PASS"
	}
	return "FAIL"
}

// MarshalText implements encoding.TextMarshaler.
func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Verdict) UnmarshalText(text []byte) error {
	switch strings.ToUpper(string(text)) {
	case "PASS":
		*v = VerdictPass
	case "FAIL":
		*v = VerdictFail
	default:
		return fmt.Errorf("unknown verdict %q", string(text))
	}
	return nil
}

// IntentNormalization is the validated clause list with derived sub-lists.
// A clause may appear in both, one or neither sub-list.
type IntentNormalization struct {
	Clauses     []string `json:"clauses"`
	Assumptions []string `json:"assumptions"`
	Exclusions  []string `json:"exclusions"`
}

// DIOInvariant is a deterministic enforcement record for one clause.
type DIOInvariant struct {
	ID            string `json:"id"`
	Description   string `json:"description"`
	ClauseIndex   int    `json:"clause_index"`
	FailureSignal string `json:"failure_signal"`
}

// ZTAuthority binds a resolved principal to delegation and revocation rules.
type ZTAuthority struct {
	ID                 string    `json:"id"`
	Principal          Principal `json:"principal"`
	Scope              string    `json:"scope"`
	ClauseIndex        int       `json:"clause_index"`
	DelegationRules    []string  `json:"delegation_rules"`
	RevocationTriggers []string  `json:"revocation_triggers"`
}

// ICAECostConstraint captures cost attribution for a cost-bearing clause.
type ICAECostConstraint struct {
	ID              string          `json:"id"`
	Subject         string          `json:"subject"`
	MeasurementUnit MeasurementUnit `json:"measurement_unit"`
	ClauseIndex     int             `json:"clause_index"`
	Ceiling         *int64          `json:"ceiling,omitempty"` // never extracted; always nil
	Externalities   []string        `json:"externalities"`
}

// TraceabilityEntry joins one clause to the ids of every artifact derived from it.
type TraceabilityEntry struct {
	ClauseID     string   `json:"clause_id"`
	ClauseIndex  int      `json:"clause_index"`
	ClauseText   string   `json:"clause_text"`
	InvariantIDs []string `json:"invariant_ids"`
	AuthorityIDs []string `json:"authority_ids"`
	CostIDs      []string `json:"cost_ids"`
}

// CompilationResult is the aggregate output of one compilation.
// On VerdictFail every artifact slice and the normalization are empty.
type CompilationResult struct {
	IntentNormalization IntentNormalization  `json:"intent_normalization"`
	DIOInvariants       []DIOInvariant       `json:"dio_invariants"`
	ZTAuthorityGraph    []ZTAuthority        `json:"zt_authority_graph"`
	ICAEConstraints     []ICAECostConstraint `json:"icae_constraints"`
	TraceabilityMap     []TraceabilityEntry  `json:"traceability_map"`
	Verdict             Verdict              `json:"verdict"`
	Errors              []CompilationError   `json:"errors"`
}

// IsSuccess reports whether the verdict is Pass.
func (r CompilationResult) IsSuccess() bool {
	return r.Verdict == VerdictPass
}

// ErrorMessages renders every error to its human-readable message.
// Returns an empty (non-nil) slice on success.
func (r CompilationResult) ErrorMessages() []string {
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Error()
	}
	return msgs
}

// EmptyIntentNormalization returns a normalization with non-nil empty lists.
func EmptyIntentNormalization() IntentNormalization {
	return IntentNormalization{
		Clauses:     []string{},
		Assumptions: []string{},
		Exclusions:  []string{},
	}
}

// FailedResult builds the all-empty result carried by a Fail verdict.
func FailedResult(errs ...CompilationError) CompilationResult {
	if errs == nil {
		errs = []CompilationError{}
	}
	return CompilationResult{
		IntentNormalization: EmptyIntentNormalization(),
		DIOInvariants:       []DIOInvariant{},
		ZTAuthorityGraph:    []ZTAuthority{},
		ICAEConstraints:     []ICAECostConstraint{},
		TraceabilityMap:     []TraceabilityEntry{},
		Verdict:             VerdictFail,
		Errors:              errs,
	}
}
