package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/poc/internal/compiler"
	"github.com/roach88/poc/internal/ir"
	"github.com/roach88/poc/internal/store"
)

// PolicyReport is the outcome of compiling one policy.
type PolicyReport struct {
	Name         string               `json:"name"`
	PolicyHash   string               `json:"policy_hash"`
	ResultDigest string               `json:"result_digest"`
	RunID        string               `json:"run_id,omitempty"`
	Result       ir.CompilationResult `json:"result"`
}

// CompileReport summarizes a compile invocation.
type CompileReport struct {
	Policies []PolicyReport `json:"policies"`
	Passed   int            `json:"passed"`
	Failed   int            `json:"failed"`
	Total    int            `json:"total"`
}

// storeError marks a compileSources failure that came from the history database.
type storeError struct {
	err error
}

func (e *storeError) Error() string { return e.err.Error() }
func (e *storeError) Unwrap() error { return e.err }

// compileErrorCode maps a compileSources error to its CLI error code.
func compileErrorCode(err error) string {
	var se *storeError
	if errors.As(err, &se) {
		return ErrCodeStoreFailed
	}
	return ErrCodeGeneric
}

// compileSources compiles every source with bounded parallelism and, when a
// database is configured, records one run per policy.
func compileSources(ctx context.Context, opts *RootOptions, sources []compiler.PolicySource) (*CompileReport, error) {
	logger := opts.logger()
	c := compiler.New(compiler.WithLogger(logger))

	results, err := c.CompileBatch(ctx, sources, compiler.BatchOptions{Concurrency: opts.Concurrency})
	if err != nil {
		return nil, err
	}

	report := &CompileReport{
		Policies: make([]PolicyReport, len(results)),
		Total:    len(results),
	}
	for i, br := range results {
		digest, err := ir.ResultDigest(br.Result)
		if err != nil {
			return nil, fmt.Errorf("digest %s: %w", br.Name, err)
		}
		report.Policies[i] = PolicyReport{
			Name:         br.Name,
			PolicyHash:   br.PolicyHash,
			ResultDigest: digest,
			Result:       br.Result,
		}
		if br.Result.IsSuccess() {
			report.Passed++
		} else {
			report.Failed++
		}
	}

	if opts.DB != "" {
		if err := recordRuns(ctx, opts.DB, opts.runIDs(), sources, report, logger); err != nil {
			return nil, &storeError{err: err}
		}
	}
	return report, nil
}

// recordRuns appends every report to the history store and sets its RunID.
func recordRuns(ctx context.Context, dbPath string, ids store.RunIDGenerator, sources []compiler.PolicySource, report *CompileReport, logger *slog.Logger) error {
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening history database: %w", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	for i := range report.Policies {
		p := &report.Policies[i]
		run, err := store.NewRunWithGenerator(ids, p.Name, sources[i].Text, p.Result)
		if err != nil {
			return err
		}
		run, err = st.RecordRun(ctx, run)
		if err != nil {
			return err
		}
		p.RunID = run.ID
		logger.Debug("run recorded", "policy", p.Name, "run_id", run.ID, "seq", run.Seq)
	}
	return nil
}

// writePolicyText renders one policy outcome.
func writePolicyText(w io.Writer, s styles, p PolicyReport, verbose bool) {
	r := p.Result
	fmt.Fprintf(w, "%s %s\n", s.verdict(r.Verdict), s.bold.Render(p.Name))

	if !r.IsSuccess() {
		for _, e := range r.Errors {
			fmt.Fprintf(w, "  %s %s\n", e.Code(), e.Error())
		}
		return
	}

	fmt.Fprintf(w, "  %d clause(s): %d invariant(s), %d authorit(ies), %d cost constraint(s)\n",
		len(r.IntentNormalization.Clauses), len(r.DIOInvariants), len(r.ZTAuthorityGraph), len(r.ICAEConstraints))
	if n := len(r.IntentNormalization.Assumptions); n > 0 {
		fmt.Fprintf(w, "  %d assumption(s)\n", n)
	}
	if n := len(r.IntentNormalization.Exclusions); n > 0 {
		fmt.Fprintf(w, "  %d exclusion(s)\n", n)
	}

	if verbose {
		for _, entry := range r.TraceabilityMap {
			fmt.Fprintf(w, "  %s %q\n", s.dim.Render(entry.ClauseID), entry.ClauseText)
			fmt.Fprintf(w, "    invariants=%v authorities=%v costs=%v\n", entry.InvariantIDs, entry.AuthorityIDs, entry.CostIDs)
		}
		fmt.Fprintf(w, "  %s\n", s.dim.Render("digest "+p.ResultDigest))
	}
}

// writeSummaryText renders the closing summary line.
func writeSummaryText(w io.Writer, s styles, passed, failed, total int) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Summary: %d passed, %d failed, %d total\n", passed, failed, total)
	if failed == 0 {
		fmt.Fprintf(w, "%s All policies passed\n", s.mark(true))
	}
}
