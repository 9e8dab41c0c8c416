package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/poc/internal/ir"
)

// ValidationError describes one reason a policy failed validation.
type ValidationError struct {
	Code        string       `json:"code"`
	Kind        ir.ErrorKind `json:"kind"`
	ClauseIndex *int         `json:"clause_index,omitempty"` // nil for errors not tied to a clause
	Message     string       `json:"message"`
}

// PolicyValidation is the validation outcome for one policy.
type PolicyValidation struct {
	Name    string            `json:"name"`
	Verdict ir.Verdict        `json:"verdict"`
	Errors  []ValidationError `json:"errors"`
}

// ValidationResult is the validate command's payload.
type ValidationResult struct {
	Valid    bool               `json:"valid"`
	Policies []PolicyValidation `json:"policies"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <path|->",
		Short: "Check policies without emitting artifacts",
		Long: `Compile policies and report only their verdicts and errors.

Nothing is written to the history database. Exit code 1 means at least
one policy would compile to FAIL.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	loaded, err := LoadPolicies(path, opts.includePatterns(), cmd.InOrStdin())
	if err != nil {
		return outputLoadError(formatter, err)
	}

	// Validation never records history.
	noStore := *opts
	noStore.DB = ""
	report, err := compileSources(cmd.Context(), &noStore, loaded.Sources)
	if err != nil {
		return outputCommandError(formatter, ErrCodeGeneric, err.Error())
	}

	result := ValidationResult{
		Valid:    report.Failed == 0,
		Policies: make([]PolicyValidation, len(report.Policies)),
	}
	for i, p := range report.Policies {
		pv := PolicyValidation{
			Name:    p.Name,
			Verdict: p.Result.Verdict,
			Errors:  make([]ValidationError, len(p.Result.Errors)),
		}
		for j, e := range p.Result.Errors {
			ve := ValidationError{
				Code:    e.Code(),
				Kind:    e.Kind,
				Message: e.Error(),
			}
			if e.Kind.PerClause() {
				ve.ClauseIndex = &e.ClauseIndex
			}
			pv.Errors[j] = ve
		}
		result.Policies[i] = pv
	}

	failMsg := fmt.Sprintf("%d of %d policy(ies) invalid", report.Failed, report.Total)

	if formatter.IsJSON() {
		if !result.Valid {
			if err := formatter.Failure(ErrCodePolicyFailed, failMsg, result); err != nil {
				return err
			}
			return NewExitError(ExitFailure, failMsg)
		}
		return formatter.Success(result)
	}

	s := newStyles(formatter.Writer)
	for _, pv := range result.Policies {
		fmt.Fprintf(formatter.Writer, "%s %s\n", s.mark(pv.Verdict == ir.VerdictPass), pv.Name)
		for _, e := range pv.Errors {
			fmt.Fprintf(formatter.Writer, "  %s %s\n", e.Code, e.Message)
		}
	}

	if !result.Valid {
		return NewExitError(ExitFailure, failMsg)
	}
	return nil
}
