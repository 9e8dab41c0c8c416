// Package harness provides conformance testing for policy compilation.
//
// A scenario pairs policy text with the outcome the compiler must produce.
// The harness compiles the policy, checks every expectation, and reports all
// mismatches at once.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	policy: |
//	  All actions must be logged by SYSTEM.
//	  Cost of logging cannot exceed 1000 USD per month by SERVICE.
//	expect:
//	  verdict: PASS
//	  invariants: 2
//	  authorities:
//	    - principal: SYSTEM
//	    - principal: SERVICE
//	  costs:
//	    - unit: USD
//	      subject: logging
//	  assumptions: []
//	  exclusions: []
//
// policy_file may replace policy; it is resolved relative to the scenario.
//
// A failing scenario lists the errors it expects, in order:
//
//	expect:
//	  verdict: FAIL
//	  errors:
//	    - kind: ModalLanguageDetected
//	      clause_index: 0
//	      token: should
//
// Omitted expectations are not checked. An empty list is checked and must
// match an empty artifact list.
//
// # Golden Files
//
// RunWithGolden snapshots the canonical JSON of the compilation result into
// testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
