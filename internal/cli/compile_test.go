package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/poc/internal/ir"
	"github.com/roach88/poc/internal/store"
	"github.com/roach88/poc/internal/testutil"
)

const (
	policiesDir = "testdata/policies"
	failingDir  = "testdata/failing"
)

// decodeCompileReport unmarshals the data payload of a JSON CLI response.
func decodeCompileReport(t *testing.T, raw []byte) (CLIResponse, CompileReport) {
	t.Helper()

	var envelope struct {
		CLIResponse
		Data CompileReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &envelope))
	return envelope.CLIResponse, envelope.Data
}

// ============================================================================
// Single policy input
// ============================================================================

func TestCompileSinglePolicyText(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{filepath.Join(policiesDir, "access.policy")})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	assert.Contains(t, output, "✓ PASS")
	assert.Contains(t, output, "access.policy")
	assert.Contains(t, output, "2 clause(s): 2 invariant(s), 2 authorit(ies), 1 cost constraint(s)")
	assert.NotContains(t, output, "Summary:")
}

func TestCompileSinglePolicyJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{filepath.Join(policiesDir, "access.policy")})

	require.NoError(t, cmd.Execute())

	resp, report := decodeCompileReport(t, buf.Bytes())
	assert.Equal(t, "ok", resp.Status)
	assert.Nil(t, resp.Error)
	require.Len(t, report.Policies, 1)

	p := report.Policies[0]
	assert.Equal(t, "access.policy", p.Name)
	assert.Equal(t, ir.VerdictPass, p.Result.Verdict)
	assert.Len(t, p.PolicyHash, 64)
	assert.Equal(t, ir.MustResultDigest(p.Result), p.ResultDigest)
	assert.Empty(t, p.RunID, "no run id without --db")
	require.Len(t, p.Result.ICAEConstraints, 1)
	assert.Equal(t, "logging", p.Result.ICAEConstraints[0].Subject)
}

func TestCompileStdin(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetIn(strings.NewReader("All actions must be logged by SYSTEM."))
	cmd.SetArgs([]string{"-"})

	require.NoError(t, cmd.Execute())

	_, report := decodeCompileReport(t, buf.Bytes())
	require.Len(t, report.Policies, 1)
	assert.Equal(t, "<stdin>", report.Policies[0].Name)
	assert.Equal(t, ir.PolicyHash("All actions must be logged by SYSTEM."), report.Policies[0].PolicyHash)
}

// ============================================================================
// Failing policies
// ============================================================================

func TestCompileFailingPolicyExitsOne(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{filepath.Join(failingDir, "modal.policy")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	output := buf.String()
	assert.Contains(t, output, "✗ FAIL")
	assert.Contains(t, output, "E203")
	assert.Contains(t, output, "Clause 0 contains modal language 'should'")
}

func TestCompileFailingPolicyJSONKeepsResult(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{failingDir})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp, report := decodeCompileReport(t, buf.Bytes())
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodePolicyFailed, resp.Error.Code)

	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 1, report.Passed)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Policies, 2)
	assert.Equal(t, "modal.policy", report.Policies[0].Name)
	assert.Equal(t, ir.VerdictFail, report.Policies[0].Result.Verdict)
	assert.Empty(t, report.Policies[0].Result.DIOInvariants)
	assert.Equal(t, "ok.policy", report.Policies[1].Name)
	assert.Equal(t, ir.VerdictPass, report.Policies[1].Result.Verdict)
}

// ============================================================================
// Directory and bundle input
// ============================================================================

func TestCompileDirectory(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(&RootOptions{Format: "json", Concurrency: 2})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{policiesDir})

	require.NoError(t, cmd.Execute())

	_, report := decodeCompileReport(t, buf.Bytes())
	var names []string
	for _, p := range report.Policies {
		names = append(names, p.Name)
		assert.Equal(t, ir.VerdictPass, p.Result.Verdict, p.Name)
	}
	// Bundle entries first, then text files in path order; README.md is not included.
	assert.Equal(t, []string{"audit", "retention", "access.policy", "scoped.txt"}, names)
	assert.Equal(t, 4, report.Passed)
}

func TestCompileDirectoryTextSummary(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{policiesDir})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	assert.Contains(t, output, "Summary: 4 passed, 0 failed, 4 total")
	assert.Contains(t, output, "All policies passed")
}

func TestCompileIncludeOverride(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(&RootOptions{Format: "json", Include: []string{"*.txt"}})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{policiesDir})

	require.NoError(t, cmd.Execute())

	_, report := decodeCompileReport(t, buf.Bytes())
	require.Len(t, report.Policies, 3)
	assert.Equal(t, "scoped.txt", report.Policies[2].Name)
}

func TestCompileVerboseTraceability(t *testing.T) {
	buf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	cmd := NewCompileCommand(&RootOptions{Format: "text", Verbose: true})
	cmd.SetOut(buf)
	cmd.SetErr(errBuf)
	cmd.SetArgs([]string{filepath.Join(policiesDir, "access.policy")})

	require.NoError(t, cmd.Execute())

	assert.Contains(t, buf.String(), "clause_0")
	assert.Contains(t, buf.String(), "digest ")
	assert.Contains(t, errBuf.String(), "Loaded 1 policy(ies)")
}

// ============================================================================
// Output file
// ============================================================================

func TestCompileOutputFileSinglePolicy(t *testing.T) {
	outputFile := filepath.Join(t.TempDir(), "result.json")

	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{filepath.Join(policiesDir, "access.policy"), "-o", outputFile})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "Wrote results to "+outputFile)

	data, err := os.ReadFile(outputFile)
	require.NoError(t, err)

	var result ir.CompilationResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, ir.VerdictPass, result.Verdict)
	assert.Len(t, result.DIOInvariants, 2)
}

func TestCompileOutputFileDirectory(t *testing.T) {
	outputFile := filepath.Join(t.TempDir(), "results.json")

	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{failingDir, "--output", outputFile})

	err := cmd.Execute()
	assert.Equal(t, ExitFailure, GetExitCode(err))

	data, err := os.ReadFile(outputFile)
	require.NoError(t, err)

	var policies []PolicyReport
	require.NoError(t, json.Unmarshal(data, &policies))
	require.Len(t, policies, 2)
	assert.Equal(t, ir.VerdictFail, policies[0].Result.Verdict)
}

func TestCompileOutputFileUnwritable(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{filepath.Join(policiesDir, "access.policy"), "-o", filepath.Join(t.TempDir(), "missing", "out.json")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeWriteFailed)
}

// ============================================================================
// Load errors
// ============================================================================

func TestCompileNonExistentPath(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"/nonexistent/policy/path"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "E005")
	assert.Contains(t, buf.String(), "not found")
}

func TestCompileEmptyDirectory(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{t.TempDir()})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNoPolicies, resp.Error.Code)
}

func TestCompileInvalidBundle(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "bad.cue", "policy: {\n\tbroken: {\n")

	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "bad.cue")
}

// ============================================================================
// History recording
// ============================================================================

func TestCompileRecordsRuns(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")

	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(&RootOptions{Format: "json", DB: dbPath, RunIDs: testutil.NewSequentialIDGenerator("run")})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{failingDir})

	err := cmd.Execute()
	assert.Equal(t, ExitFailure, GetExitCode(err))

	_, report := decodeCompileReport(t, buf.Bytes())
	require.Len(t, report.Policies, 2)
	assert.Equal(t, "run-0001", report.Policies[0].RunID)
	assert.Equal(t, "run-0002", report.Policies[1].RunID)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	runs, err := st.ListRuns(t.Context(), store.RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "modal.policy", runs[0].PolicyName)
	assert.Equal(t, ir.VerdictFail, runs[0].Verdict)
	assert.Equal(t, report.Policies[0].RunID, runs[0].ID)
	assert.Equal(t, report.Policies[0].ResultDigest, runs[0].ResultDigest)
	assert.Equal(t, "ok.policy", runs[1].PolicyName)
}

// ============================================================================
// Determinism
// ============================================================================

func TestCompileIdenticalAcrossConcurrency(t *testing.T) {
	render := func(concurrency int) []byte {
		buf := &bytes.Buffer{}
		cmd := NewCompileCommand(&RootOptions{Format: "json", Concurrency: concurrency})
		cmd.SetOut(buf)
		cmd.SetArgs([]string{policiesDir})
		require.NoError(t, cmd.Execute())
		return buf.Bytes()
	}

	assert.Equal(t, string(render(1)), string(render(8)))
}

func TestCompileRecordedOutputIsReproducible(t *testing.T) {
	render := func() []byte {
		buf := &bytes.Buffer{}
		cmd := NewCompileCommand(&RootOptions{
			Format: "json",
			DB:     filepath.Join(t.TempDir(), "history.db"),
			RunIDs: testutil.NewSequentialIDGenerator("run"),
		})
		cmd.SetOut(buf)
		cmd.SetArgs([]string{policiesDir})
		require.NoError(t, cmd.Execute())
		return buf.Bytes()
	}

	assert.Equal(t, string(render()), string(render()))
}

// ============================================================================
// Command error codes
// ============================================================================

func TestCompileCancelledIsGenericError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{filepath.Join(policiesDir, "access.policy")})

	err := cmd.ExecuteContext(ctx)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeGeneric, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "context canceled")
}

func TestCompileUnopenableDatabaseIsStoreError(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "missing", "history.db")

	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(&RootOptions{Format: "json", DB: dbPath})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{filepath.Join(policiesDir, "access.policy")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeStoreFailed, resp.Error.Code)
}

func TestCompileErrorCode(t *testing.T) {
	assert.Equal(t, ErrCodeGeneric, compileErrorCode(context.Canceled))
	assert.Equal(t, ErrCodeGeneric, compileErrorCode(errors.New("digest failed")))
	assert.Equal(t, ErrCodeStoreFailed, compileErrorCode(&storeError{err: errors.New("disk full")}))
	assert.Equal(t, ErrCodeStoreFailed, compileErrorCode(fmt.Errorf("wrapped: %w", &storeError{err: errors.New("locked")})))
}
