package compiler

import "slices"

// Lexicon holds every fixed keyword table the compiler consults.
// All entries are lowercase except CurrencyGlyphs. Order matters where a
// classifier reports the first match (ModalTerms, UnitKeywords).
type Lexicon struct {
	// ModalTerms mark discretionary, non-deterministic language.
	ModalTerms []string

	// ActionVerbs; every clause must contain at least one.
	ActionVerbs []string

	// Conjunctions indicate more than one action in a clause.
	Conjunctions []string

	// OrderingMarkers disambiguate conjoined actions.
	OrderingMarkers []string

	// AssumptionMarkers and ExclusionMarkers select the normalization sub-lists.
	AssumptionMarkers []string
	ExclusionMarkers  []string

	// CostIndicators make a clause cost-bearing.
	CostIndicators []string

	// SubjectStopWords are never chosen as a cost attribution subject.
	SubjectStopWords []string

	// CurrencyGlyphs block unit resolution outright. The trailing entries are
	// mis-decoded UTF-8 renderings of the euro, pound and yen signs.
	CurrencyGlyphs []string
}

// DefaultLexicon returns a fresh copy of the standard keyword tables.
func DefaultLexicon() Lexicon {
	return Lexicon{
		ModalTerms:        []string{"should", "may", "where reasonable", "as appropriate", "could", "might", "possibly"},
		ActionVerbs:       []string{"must", "shall", "require", "log", "audit", "record", "deny", "allow", "enforce", "track", "exceed"},
		Conjunctions:      []string{" and ", " or "},
		OrderingMarkers:   []string{"then", "before", "after"},
		AssumptionMarkers: []string{"assumes", "assuming"},
		ExclusionMarkers:  []string{"except", "exclude", "unless"},
		CostIndicators:    []string{"cost", "spend", "usage", "quota", "resource consumption", "externality", "budget", "expense"},
		SubjectStopWords: []string{
			"cost", "spend", "usage", "quota", "the", "a", "an", "of", "for",
			"per", "must", "shall", "cannot", "exceed", "all", "no", "be", "by",
			"system", "user", "service",
		},
		CurrencyGlyphs: []string{"$", "€", "£", "¥", "â‚¬", "Â£", "Â¥"},
	}
}

// Clone returns a deep copy so callers can extend tables without aliasing.
func (l Lexicon) Clone() Lexicon {
	return Lexicon{
		ModalTerms:        slices.Clone(l.ModalTerms),
		ActionVerbs:       slices.Clone(l.ActionVerbs),
		Conjunctions:      slices.Clone(l.Conjunctions),
		OrderingMarkers:   slices.Clone(l.OrderingMarkers),
		AssumptionMarkers: slices.Clone(l.AssumptionMarkers),
		ExclusionMarkers:  slices.Clone(l.ExclusionMarkers),
		CostIndicators:    slices.Clone(l.CostIndicators),
		SubjectStopWords:  slices.Clone(l.SubjectStopWords),
		CurrencyGlyphs:    slices.Clone(l.CurrencyGlyphs),
	}
}
