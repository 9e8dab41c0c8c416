package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/poc/internal/compiler"
	"github.com/roach88/poc/internal/watch"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	Debounce time.Duration
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Recompile policies as they change",
		Long: `Compile every policy under a directory, then recompile each policy
file or CUE bundle whenever it is written. Runs until interrupted.

With --db every recompilation is recorded as a new run.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(opts, args[0], cmd)
		},
	}

	cmd.Flags().DurationVar(&opts.Debounce, "debounce", watch.DefaultDebounce, "quiet period before recompiling")

	return cmd
}

func runWatch(opts *WatchOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := opts.logger()
	include := opts.includePatterns()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loaded, err := LoadPolicies(dir, include, nil)
	var loadErr *LoadError
	switch {
	case err == nil:
		if err := compileAndReport(ctx, opts, formatter, loaded.Sources); err != nil {
			return err
		}
	case errors.As(err, &loadErr) && loadErr.Code == ErrCodeNoPolicies:
		formatter.VerboseLog("No policies yet in %s", dir)
	default:
		return outputLoadError(formatter, err)
	}

	w, err := watch.New(dir, watch.Options{
		Include:  append(slices.Clone(include), "**/*.cue"),
		Debounce: opts.Debounce,
		Logger:   logger,
	})
	if err != nil {
		return outputCommandError(formatter, ErrCodeGeneric, err.Error())
	}
	defer w.Close()

	if !formatter.IsJSON() {
		fmt.Fprintf(formatter.Writer, "Watching %s for changes (Ctrl+C to stop)\n", dir)
	}

	err = w.Run(ctx, func(paths []string) {
		recompile(ctx, opts, formatter, dir, paths)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// recompile reloads the changed files and reports their new verdicts.
// Failures are reported and never stop the watch loop.
func recompile(ctx context.Context, opts *WatchOptions, formatter *OutputFormatter, dir string, paths []string) {
	var sources []compiler.PolicySource
	for _, path := range paths {
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		if _, err := os.Stat(path); os.IsNotExist(err) {
			if formatter.IsJSON() {
				_ = formatter.Success(map[string]string{"removed": rel})
			} else {
				fmt.Fprintf(formatter.Writer, "- %s removed\n", rel)
			}
			continue
		}

		loaded, err := LoadPolicies(path, nil, nil)
		if err != nil {
			_ = outputLoadError(formatter, err)
			continue
		}
		if filepath.Ext(path) != ".cue" {
			// Match the names a directory load gives plain-text files.
			loaded.Sources[0].Name = rel
		}
		sources = append(sources, loaded.Sources...)
	}

	if len(sources) == 0 {
		return
	}
	if err := compileAndReport(ctx, opts, formatter, sources); err != nil {
		opts.logger().Error("recompile failed", "error", err)
	}
}

// compileAndReport compiles sources and renders them. A FAIL verdict is
// reported, not returned.
func compileAndReport(ctx context.Context, opts *WatchOptions, formatter *OutputFormatter, sources []compiler.PolicySource) error {
	report, err := compileSources(ctx, opts.RootOptions, sources)
	if err != nil {
		return outputCommandError(formatter, compileErrorCode(err), err.Error())
	}

	err = outputCompileReport(formatter, report, "")
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Code == ExitFailure {
		return nil
	}
	return err
}
