package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/poc/internal/config"
	"github.com/roach88/poc/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose     bool
	Format      string // "json" | "text"
	DB          string // history store path; empty disables recording
	Concurrency int
	Include     []string

	// Logger is built by the root command from Verbose. Commands constructed
	// without a root get a discarding logger.
	Logger *slog.Logger

	// RunIDs names recorded runs. Nil means UUIDv7.
	RunIDs store.RunIDGenerator
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the poc CLI.
// Environment variables (POC_*) seed flag defaults; explicit flags win.
func NewRootCommand() *cobra.Command {
	cfg, cfgErr := config.Load()
	if cfgErr != nil {
		cfg = config.Config{Format: "text", Concurrency: 4, Include: config.DefaultInclude()}
	}

	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "poc",
		Short: "POC - Policy-to-Outcome Compiler",
		Long: `Compile natural-language governance policies into deterministic artifacts:
DIO invariants, a ZT authority graph, ICAE cost constraints, and a
clause-level traceability map, with a binary PASS/FAIL verdict.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cfgErr != nil {
				return WrapExitError(ExitCommandError, "invalid environment configuration", cfgErr)
			}
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if opts.Concurrency < 1 {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid concurrency %d: must be at least 1", opts.Concurrency))
			}
			opts.Logger = newLogger(cmd.ErrOrStderr(), opts.Verbose)
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", cfg.Verbose, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", cfg.Format, "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.DB, "db", cfg.DB, "history database path")
	cmd.PersistentFlags().IntVar(&opts.Concurrency, "concurrency", cfg.Concurrency, "parallel compilations for directory input")
	cmd.PersistentFlags().StringSliceVar(&opts.Include, "include", cfg.Include, "glob patterns for plain-text policy files")

	// Add subcommands
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))

	return cmd
}

// newLogger writes text logs to w at Debug when verbose, Info otherwise.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// logger returns the configured logger or one that discards.
func (o *RootOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// runIDs returns the configured run id generator or UUIDv7.
func (o *RootOptions) runIDs() store.RunIDGenerator {
	if o.RunIDs != nil {
		return o.RunIDs
	}
	return store.UUIDv7Generator{}
}

// includePatterns returns the configured include globs or the defaults.
func (o *RootOptions) includePatterns() []string {
	if len(o.Include) > 0 {
		return o.Include
	}
	return config.DefaultInclude()
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
