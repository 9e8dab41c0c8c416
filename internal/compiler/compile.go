package compiler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/poc/internal/ir"
)

// Stage is a state of the compilation pipeline. Transitions are strictly
// sequential; any failure jumps straight to StageDone.
type Stage int

const (
	StageSegmenting Stage = iota
	StageNormalizing
	StageCompilingDIO
	StageCompilingZT
	StageCompilingICAE
	StageBuildingTraceability
	StageDone
)

var stageNames = [...]string{
	StageSegmenting:           "segmenting",
	StageNormalizing:          "normalizing",
	StageCompilingDIO:         "compiling_dio",
	StageCompilingZT:          "compiling_zt",
	StageCompilingICAE:        "compiling_icae",
	StageBuildingTraceability: "building_traceability",
	StageDone:                 "done",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return stageNames[s]
}

// Compiler turns policy text into governance artifacts.
//
// A Compiler holds only immutable configuration and is safe for concurrent
// use; every Compile call allocates its own state.
type Compiler struct {
	lex    Lexicon
	logger *slog.Logger
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger routes stage transitions to logger at debug level.
// The default logger discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithLexicon replaces the keyword tables.
func WithLexicon(lex Lexicon) Option {
	return func(c *Compiler) {
		c.lex = lex.Clone()
	}
}

// New creates a Compiler with the default lexicon.
func New(opts ...Option) *Compiler {
	c := &Compiler{
		lex:    DefaultLexicon(),
		logger: discardLogger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// log returns the configured logger, or a discarding one for a zero Compiler.
func (c *Compiler) log() *slog.Logger {
	if c.logger == nil {
		return discardLogger
	}
	return c.logger
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// Lexicon returns a copy of the compiler's keyword tables.
func (c *Compiler) Lexicon() Lexicon {
	return c.lex.Clone()
}

// Compile runs the full pipeline over policy text.
//
// The result is all-or-nothing: on Fail every artifact list and the
// normalization are empty and Errors holds the triggering error(s).
// Identical input always yields an identical result.
func (c *Compiler) Compile(text string) (result ir.CompilationResult) {
	run := &compileRun{logger: c.log()}

	// The recovered result is built without logging: the panic may have come
	// from the logger itself.
	defer func() {
		if r := recover(); r != nil {
			result = ir.FailedResult(ir.NewInternalError(fmt.Sprintf("panic during %s: %v", run.stage, r)))
		}
	}()

	run.enter(StageSegmenting)
	clauses, err := SegmentClauses(text)
	if err != nil {
		return run.fail(asCompilationError(err))
	}

	run.enter(StageNormalizing, slog.Int("clauses", len(clauses)))
	norm, err := NormalizeIntent(clauses, c.lex)
	if err != nil {
		return run.fail(asCompilationError(err))
	}

	run.enter(StageCompilingDIO)
	dio := compileDIOInvariants(clauses)

	run.enter(StageCompilingZT)
	auth, authErrs := compileAuthorities(clauses)
	if len(authErrs) > 0 {
		return run.fail(authErrs...)
	}

	run.enter(StageCompilingICAE)
	cost, costErrs := compileCostConstraints(clauses, c.lex)
	if len(costErrs) > 0 {
		return run.fail(costErrs...)
	}

	run.enter(StageBuildingTraceability)
	result = ir.CompilationResult{
		IntentNormalization: norm,
		DIOInvariants:       flatten(dio),
		ZTAuthorityGraph:    flatten(auth),
		ICAEConstraints:     flatten(cost),
		TraceabilityMap:     buildTraceability(clauses, dio, auth, cost),
		Verdict:             ir.VerdictPass,
		Errors:              []ir.CompilationError{},
	}

	run.enter(StageDone, slog.String("verdict", result.Verdict.String()))
	return result
}

// compileRun tracks the current stage of one Compile call.
type compileRun struct {
	logger *slog.Logger
	stage  Stage
}

func (r *compileRun) enter(stage Stage, attrs ...any) {
	r.stage = stage
	r.logger.Debug("compile stage", append([]any{slog.String("stage", stage.String())}, attrs...)...)
}

func (r *compileRun) fail(errs ...ir.CompilationError) ir.CompilationResult {
	failedAt := r.stage
	r.stage = StageDone
	r.logger.Debug("compilation failed",
		slog.String("stage", failedAt.String()),
		slog.Int("errors", len(errs)),
		slog.String("first", errs[0].Kind.String()),
	)
	return ir.FailedResult(errs...)
}

// asCompilationError narrows an error from a pipeline stage. Anything that is
// not already a CompilationError means a stage broke its contract.
func asCompilationError(err error) ir.CompilationError {
	var ce ir.CompilationError
	if errors.As(err, &ce) {
		return ce
	}
	return ir.NewInternalError(err.Error())
}
