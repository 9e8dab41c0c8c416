package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/poc/internal/ir"
)

// ResultSnapshot is the golden file payload for one scenario.
type ResultSnapshot struct {
	ScenarioName string               `json:"scenario_name"`
	Result       ir.CompilationResult `json:"result"`
}

// Snapshot renders the canonical JSON written to golden files.
func Snapshot(scenarioName string, result ir.CompilationResult) ([]byte, error) {
	return ir.MarshalCanonical(ResultSnapshot{
		ScenarioName: scenarioName,
		Result:       result,
	})
}

// RunWithGolden executes a scenario and compares the compilation result
// against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the harness result so callers can also check expectations.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenarioName, result.Compilation)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
