package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/roach88/poc/internal/ir"
)

// ScenarioPattern selects scenario files under a directory.
const ScenarioPattern = "**/*.{yaml,yml}"

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Policy is the inline policy text to compile.
	Policy string `yaml:"policy,omitempty"`

	// PolicyFile points at a policy text file, relative to the scenario.
	// Exactly one of policy and policy_file may appear in the YAML;
	// LoadScenario then reads the file into Policy.
	PolicyFile string `yaml:"policy_file,omitempty"`

	// Expect describes the required compilation outcome.
	Expect Expectation `yaml:"expect"`

	// Path is the file the scenario was loaded from.
	Path string `yaml:"-"`
}

// Expectation lists outcome checks. Nil fields are skipped.
type Expectation struct {
	// Verdict is PASS or FAIL.
	Verdict string `yaml:"verdict"`

	// Errors must match the result's errors in order.
	Errors []ExpectedError `yaml:"errors,omitempty"`

	// Invariants is the expected DIO invariant count.
	Invariants *int `yaml:"invariants,omitempty"`

	// Authorities must match the authority graph in order.
	Authorities []ExpectedAuthority `yaml:"authorities,omitempty"`

	// Costs must match the cost constraints in order.
	Costs []ExpectedCost `yaml:"costs,omitempty"`

	// Assumptions and Exclusions must equal the normalization sub-lists.
	Assumptions []string `yaml:"assumptions,omitempty"`
	Exclusions  []string `yaml:"exclusions,omitempty"`
}

// ExpectedError matches one CompilationError.
type ExpectedError struct {
	Kind        string `yaml:"kind"`
	ClauseIndex *int   `yaml:"clause_index,omitempty"`
	Token       string `yaml:"token,omitempty"`
}

// ExpectedAuthority matches one ZT authority.
type ExpectedAuthority struct {
	Principal   string `yaml:"principal"`
	ClauseIndex *int   `yaml:"clause_index,omitempty"`
}

// ExpectedCost matches one ICAE constraint.
type ExpectedCost struct {
	Unit    string `yaml:"unit"`
	Subject string `yaml:"subject,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	scenario.Path = path

	if scenario.PolicyFile != "" {
		policyPath := scenario.PolicyFile
		if !filepath.IsAbs(policyPath) {
			policyPath = filepath.Join(filepath.Dir(path), policyPath)
		}
		text, err := os.ReadFile(policyPath)
		if err != nil {
			return nil, fmt.Errorf("invalid scenario: policy file: %w", err)
		}
		scenario.Policy = string(text)
	}

	return scenario, nil
}

// ParseScenario decodes and validates scenario YAML. A policy_file reference
// is validated but not read.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "expects:" vs "expect:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// LoadScenario fills Policy from PolicyFile afterwards, so exclusivity
	// only holds for the raw document.
	if scenario.Policy != "" && scenario.PolicyFile != "" {
		return nil, fmt.Errorf("invalid scenario: policy and policy_file are mutually exclusive")
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every scenario file under dir matching ScenarioPattern,
// in lexical path order. Loading stops at the first invalid file.
func LoadScenarios(dir string) ([]*Scenario, error) {
	matches, err := doublestar.Glob(os.DirFS(dir), ScenarioPattern)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	sort.Strings(matches)

	scenarios := make([]*Scenario, 0, len(matches))
	seen := make(map[string]string, len(matches))
	for _, rel := range matches {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if prev, dup := seen[s.Name]; dup {
			return nil, fmt.Errorf("%s: duplicate scenario name %q (also in %s)", path, s.Name, prev)
		}
		seen[s.Name] = path
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Policy == "" && s.PolicyFile == "" {
		return fmt.Errorf("a policy or policy_file is required")
	}

	var verdict ir.Verdict
	if err := verdict.UnmarshalText([]byte(s.Expect.Verdict)); err != nil {
		return fmt.Errorf("expect.verdict: must be PASS or FAIL, got %q", s.Expect.Verdict)
	}

	if verdict == ir.VerdictPass && len(s.Expect.Errors) > 0 {
		return fmt.Errorf("expect.errors: a PASS verdict has no errors")
	}

	for i, e := range s.Expect.Errors {
		if _, ok := ir.ParseErrorKind(e.Kind); !ok {
			return fmt.Errorf("expect.errors[%d]: unknown error kind %q", i, e.Kind)
		}
	}

	for i, a := range s.Expect.Authorities {
		if _, ok := ir.ParsePrincipal(a.Principal); !ok {
			return fmt.Errorf("expect.authorities[%d]: unknown principal %q", i, a.Principal)
		}
	}

	for i, c := range s.Expect.Costs {
		if _, ok := ir.ParseMeasurementUnit(c.Unit); !ok {
			return fmt.Errorf("expect.costs[%d]: unknown measurement unit %q", i, c.Unit)
		}
	}

	if s.Expect.Invariants != nil && *s.Expect.Invariants < 0 {
		return fmt.Errorf("expect.invariants: must be non-negative")
	}

	return nil
}
