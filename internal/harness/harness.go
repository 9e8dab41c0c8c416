package harness

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/poc/internal/compiler"
)

// Harness runs scenarios against one compiler.
type Harness struct {
	compiler *compiler.Compiler
	logger   *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithCompiler runs scenarios through c instead of a default compiler.
func WithCompiler(c *compiler.Compiler) Option {
	return func(h *Harness) {
		if c != nil {
			h.compiler = c
		}
	}
}

// WithLogger sets the harness logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// New creates a Harness. Logs are discarded unless WithLogger is given.
func New(opts ...Option) *Harness {
	h := &Harness{
		compiler: compiler.New(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes a test scenario with a default harness.
func Run(scenario *Scenario) (*Result, error) {
	return New().Run(scenario)
}

// Run compiles the scenario's policy and checks every expectation.
//
// A returned error means the scenario itself could not be evaluated;
// expectation mismatches are reported through Result.Failures.
func (h *Harness) Run(scenario *Scenario) (*Result, error) {
	if scenario == nil {
		return nil, fmt.Errorf("nil scenario")
	}
	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario %q: %w", scenario.Name, err)
	}

	compilation := h.compiler.Compile(scenario.Policy)
	result := NewResult(compilation)
	for _, err := range checkExpectations(scenario.Expect, compilation) {
		result.AddFailure(err)
	}

	h.logger.Debug("scenario evaluated",
		slog.String("scenario", scenario.Name),
		slog.String("verdict", compilation.Verdict.String()),
		slog.Bool("pass", result.Pass),
		slog.Int("failures", len(result.Failures)),
	)
	return result, nil
}
