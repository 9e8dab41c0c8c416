package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <path|->",
		Short: "Compile policies to governance artifacts",
		Long: `Compile natural-language policies into DIO invariants, a ZT authority
graph, ICAE cost constraints and a traceability map.

The path may be a plain-text policy, a CUE policy bundle, a directory of
either, or "-" to read a single policy from stdin. Directories are compiled
in parallel; results are reported in path order.

Exit codes:
  0 - Every policy compiled to PASS
  1 - At least one policy compiled to FAIL
  2 - Command error (invalid paths, load errors, database errors)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write results as JSON to this file")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	loaded, err := LoadPolicies(path, opts.includePatterns(), cmd.InOrStdin())
	if err != nil {
		return outputLoadError(formatter, err)
	}
	formatter.VerboseLog("Loaded %d policy(ies) from %d CUE file(s) and %d text file(s)",
		len(loaded.Sources), loaded.CUEFiles, loaded.TextFiles)

	report, err := compileSources(cmd.Context(), opts.RootOptions, loaded.Sources)
	if err != nil {
		return outputCommandError(formatter, compileErrorCode(err), err.Error())
	}

	if opts.Output != "" {
		if err := writeReportToFile(report, opts.Output); err != nil {
			return outputCommandError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err))
		}
	}

	return outputCompileReport(formatter, report, opts.Output)
}

// outputCompileReport renders the report and maps the verdicts to an exit code.
func outputCompileReport(formatter *OutputFormatter, report *CompileReport, outputFile string) error {
	failMsg := fmt.Sprintf("%d of %d policy(ies) failed", report.Failed, report.Total)

	if formatter.IsJSON() {
		if report.Failed > 0 {
			if err := formatter.Failure(ErrCodePolicyFailed, failMsg, report); err != nil {
				return err
			}
			return NewExitError(ExitFailure, failMsg)
		}
		return formatter.Success(report)
	}

	s := newStyles(formatter.Writer)
	for _, p := range report.Policies {
		writePolicyText(formatter.Writer, s, p, formatter.Verbose)
	}
	if report.Total > 1 {
		writeSummaryText(formatter.Writer, s, report.Passed, report.Failed, report.Total)
	}
	if outputFile != "" {
		fmt.Fprintf(formatter.Writer, "Wrote results to %s\n", outputFile)
	}

	if report.Failed > 0 {
		return NewExitError(ExitFailure, failMsg)
	}
	return nil
}

// outputLoadError reports a LoadPolicies failure as a command error.
func outputLoadError(formatter *OutputFormatter, err error) error {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		if loadErr.Pos.IsValid() && !formatter.IsJSON() {
			fmt.Fprintf(formatter.Writer, "%s:%d:%d\n", loadErr.Pos.Filename(), loadErr.Pos.Line(), loadErr.Pos.Column())
		}
		return outputCommandError(formatter, loadErr.Code, loadErr.Message)
	}
	return outputCommandError(formatter, ErrCodeGeneric, err.Error())
}

// outputCommandError outputs a single command-level error (exit code 2).
func outputCommandError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message), nil)
}

// writeReportToFile writes a single policy's result, or the array of
// policy reports for multi-policy input, as indented JSON.
func writeReportToFile(report *CompileReport, filename string) error {
	var payload any = report.Policies
	if len(report.Policies) == 1 {
		payload = report.Policies[0].Result
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling results: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}
