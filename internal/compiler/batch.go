package compiler

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/poc/internal/ir"
)

// DefaultBatchConcurrency bounds CompileBatch when BatchOptions leaves it unset.
const DefaultBatchConcurrency = 4

// PolicySource is one named policy text in a batch.
type PolicySource struct {
	Name string
	Text string
}

// BatchResult pairs a source with its compilation.
type BatchResult struct {
	Name       string               `json:"name"`
	PolicyHash string               `json:"policy_hash"`
	Result     ir.CompilationResult `json:"result"`
}

// BatchOptions tunes CompileBatch.
type BatchOptions struct {
	// Concurrency caps in-flight compilations. Zero or less means DefaultBatchConcurrency.
	Concurrency int
}

// CompileBatch compiles independent policies in parallel.
//
// Results are written to index-addressed slots, so output order always equals
// input order regardless of scheduling. Cancelling ctx stops new compilations
// from starting and returns ctx's error; a single Compile is never interrupted.
func (c *Compiler) CompileBatch(ctx context.Context, sources []PolicySource, opts BatchOptions) ([]BatchResult, error) {
	limit := opts.Concurrency
	if limit <= 0 {
		limit = DefaultBatchConcurrency
	}

	results := make([]BatchResult, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, src := range sources {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = BatchResult{
				Name:       src.Name,
				PolicyHash: ir.PolicyHash(src.Text),
				Result:     c.Compile(src.Text),
			}
			c.log().Debug("batch item compiled",
				slog.String("policy", src.Name),
				slog.String("verdict", results[i].Result.Verdict.String()),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
