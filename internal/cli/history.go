package cli

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/poc/internal/ir"
	"github.com/roach88/poc/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Policy  string
	Verdict string
	Limit   int
}

// RunSummary is one history row without the full compilation result.
type RunSummary struct {
	ID           string     `json:"id"`
	Seq          int64      `json:"seq"`
	PolicyName   string     `json:"policy_name"`
	PolicyHash   string     `json:"policy_hash"`
	ResultDigest string     `json:"result_digest"`
	Verdict      ir.Verdict `json:"verdict"`
	ErrorCount   int        `json:"error_count"`
}

// HistoryResult is the history command's list payload.
type HistoryResult struct {
	Runs  []RunSummary `json:"runs"`
	Count int          `json:"count"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recorded compilation runs",
		Long: `List compilation runs recorded with "poc compile --db".

Runs are listed oldest first. Pass a run id to print that run's full
compilation result.

Examples:
  poc history --db ./poc.db
  poc history --db ./poc.db --policy access.policy --verdict FAIL
  poc history --db ./poc.db 0190f5b2-...`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Policy, "policy", "", "only runs of this policy name")
	cmd.Flags().StringVar(&opts.Verdict, "verdict", "", "only runs with this verdict (PASS|FAIL)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of runs (0 = all)")

	return cmd
}

func runHistory(opts *HistoryOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if opts.DB == "" {
		return outputCommandError(formatter, ErrCodeGeneric, "--db is required")
	}

	filter := store.RunFilter{PolicyName: opts.Policy, Limit: opts.Limit}
	if opts.Verdict != "" {
		var v ir.Verdict
		if err := v.UnmarshalText([]byte(opts.Verdict)); err != nil {
			return outputCommandError(formatter, ErrCodeGeneric, fmt.Sprintf("invalid verdict %q: must be PASS or FAIL", opts.Verdict))
		}
		filter.Verdict = &v
	}
	if opts.Limit < 0 {
		return outputCommandError(formatter, ErrCodeGeneric, fmt.Sprintf("invalid limit %d", opts.Limit))
	}

	st, err := store.Open(opts.DB)
	if err != nil {
		return outputCommandError(formatter, ErrCodeStoreFailed, fmt.Sprintf("opening history database: %v", err))
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			opts.logger().Error("error closing database", "error", closeErr)
		}
	}()

	if len(args) == 1 {
		run, err := st.GetRun(cmd.Context(), args[0])
		if errors.Is(err, sql.ErrNoRows) {
			return outputCommandError(formatter, ErrCodeNotFound, fmt.Sprintf("run not found: %s", args[0]))
		}
		if err != nil {
			return outputCommandError(formatter, ErrCodeStoreFailed, err.Error())
		}
		return outputRun(formatter, run)
	}

	runs, err := st.ListRuns(cmd.Context(), filter)
	if err != nil {
		return outputCommandError(formatter, ErrCodeStoreFailed, err.Error())
	}

	result := HistoryResult{Runs: make([]RunSummary, len(runs)), Count: len(runs)}
	for i, r := range runs {
		result.Runs[i] = RunSummary{
			ID:           r.ID,
			Seq:          r.Seq,
			PolicyName:   r.PolicyName,
			PolicyHash:   r.PolicyHash,
			ResultDigest: r.ResultDigest,
			Verdict:      r.Verdict,
			ErrorCount:   r.ErrorCount,
		}
	}

	if formatter.IsJSON() {
		return formatter.Success(result)
	}

	if result.Count == 0 {
		fmt.Fprintln(formatter.Writer, "No runs recorded.")
		return nil
	}

	s := newStyles(formatter.Writer)
	for _, r := range result.Runs {
		fmt.Fprintf(formatter.Writer, "%4d  %s  %s  %s  %s\n",
			r.Seq, s.dim.Render(r.ID), s.verdict(r.Verdict), r.PolicyName, s.dim.Render(shortHash(r.PolicyHash)))
	}
	return nil
}

// outputRun prints a single recorded run.
func outputRun(formatter *OutputFormatter, run store.Run) error {
	if formatter.IsJSON() {
		return formatter.Success(run)
	}

	s := newStyles(formatter.Writer)
	w := formatter.Writer
	fmt.Fprintf(w, "Run %s (seq %d)\n", run.ID, run.Seq)
	fmt.Fprintf(w, "  policy:   %s\n", run.PolicyName)
	fmt.Fprintf(w, "  hash:     %s\n", run.PolicyHash)
	fmt.Fprintf(w, "  digest:   %s\n", run.ResultDigest)
	fmt.Fprintf(w, "  compiler: %s (ir v%s)\n", run.CompilerVersion, run.IRVersion)
	fmt.Fprintln(w)
	writePolicyText(w, s, PolicyReport{
		Name:         run.PolicyName,
		PolicyHash:   run.PolicyHash,
		ResultDigest: run.ResultDigest,
		RunID:        run.ID,
		Result:       run.Result,
	}, formatter.Verbose)
	return nil
}

// shortHash trims a hex digest for tabular display.
func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
