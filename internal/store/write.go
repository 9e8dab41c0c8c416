package store

import (
	"context"
	"fmt"

	"github.com/roach88/poc/internal/ir"
)

// Run is one recorded compilation.
type Run struct {
	ID              string               `json:"id"`
	Seq             int64                `json:"seq"`
	PolicyName      string               `json:"policy_name"`
	PolicyHash      string               `json:"policy_hash"`
	ResultDigest    string               `json:"result_digest"`
	Verdict         ir.Verdict           `json:"verdict"`
	ErrorCount      int                  `json:"error_count"`
	Result          ir.CompilationResult `json:"result"`
	CompilerVersion string               `json:"compiler_version"`
	IRVersion       string               `json:"ir_version"`
}

// NewRun builds a Run for a compiled policy. The ID is a fresh UUIDv7, so
// ids sort in creation order; Seq is assigned by RecordRun.
func NewRun(name, text string, result ir.CompilationResult) (Run, error) {
	return NewRunWithGenerator(UUIDv7Generator{}, name, text, result)
}

// NewRunWithGenerator is NewRun with the id drawn from gen.
func NewRunWithGenerator(gen RunIDGenerator, name, text string, result ir.CompilationResult) (Run, error) {
	digest, err := ir.ResultDigest(result)
	if err != nil {
		return Run{}, fmt.Errorf("new run: %w", err)
	}
	return Run{
		ID:              gen.Generate(),
		PolicyName:      name,
		PolicyHash:      ir.PolicyHash(text),
		ResultDigest:    digest,
		Verdict:         result.Verdict,
		ErrorCount:      len(result.Errors),
		Result:          result,
		CompilerVersion: ir.CompilerVersion,
		IRVersion:       ir.IRVersion,
	}, nil
}

// RecordRun appends a run to the history and returns it with Seq set.
// Recording the same ID twice is an error; runs are never overwritten.
func (s *Store) RecordRun(ctx context.Context, run Run) (Run, error) {
	if run.ID == "" {
		return Run{}, fmt.Errorf("record run: empty id")
	}

	resultJSON, err := marshalResult(run.Result)
	if err != nil {
		return Run{}, fmt.Errorf("record run: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, policy_name, policy_hash, result_digest, verdict, error_count, result, compiler_version, ir_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.PolicyName,
		run.PolicyHash,
		run.ResultDigest,
		run.Verdict.String(),
		run.ErrorCount,
		resultJSON,
		run.CompilerVersion,
		run.IRVersion,
	)
	if err != nil {
		return Run{}, fmt.Errorf("record run: %w", err)
	}

	seq, err := res.LastInsertId()
	if err != nil {
		return Run{}, fmt.Errorf("record run: last insert id: %w", err)
	}
	run.Seq = seq
	return run, nil
}
