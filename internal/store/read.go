package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/roach88/poc/internal/ir"
)

// RunFilter narrows ListRuns. Zero values mean "no constraint".
type RunFilter struct {
	PolicyName string
	PolicyHash string
	Verdict    *ir.Verdict
	Limit      int
}

const runColumns = `seq, id, policy_name, policy_hash, result_digest, verdict, error_count, result, compiler_version, ir_version`

// ListRuns returns recorded runs ordered by seq ASC, id ASC COLLATE BINARY.
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) ListRuns(ctx context.Context, filter RunFilter) ([]Run, error) {
	var (
		where []string
		args  []any
	)
	if filter.PolicyName != "" {
		where = append(where, "policy_name = ?")
		args = append(args, filter.PolicyName)
	}
	if filter.PolicyHash != "" {
		where = append(where, "policy_hash = ?")
		args = append(args, filter.PolicyHash)
	}
	if filter.Verdict != nil {
		where = append(where, "verdict = ?")
		args = append(args, filter.Verdict.String())
	}

	query := "SELECT " + runColumns + " FROM runs"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq ASC, id COLLATE BINARY ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, nil
}

// GetRun retrieves a single run by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	return scanRun(row)
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run        Run
		verdict    string
		resultJSON string
	)
	err := row.Scan(
		&run.Seq,
		&run.ID,
		&run.PolicyName,
		&run.PolicyHash,
		&run.ResultDigest,
		&verdict,
		&run.ErrorCount,
		&resultJSON,
		&run.CompilerVersion,
		&run.IRVersion,
	)
	if err == sql.ErrNoRows {
		return Run{}, err
	}
	if err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}

	if err := run.Verdict.UnmarshalText([]byte(verdict)); err != nil {
		return Run{}, fmt.Errorf("scan run %s: %w", run.ID, err)
	}
	if run.Result, err = unmarshalResult(resultJSON); err != nil {
		return Run{}, fmt.Errorf("scan run %s: %w", run.ID, err)
	}
	return run, nil
}
