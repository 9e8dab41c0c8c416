// Package store provides SQLite-backed history of compilation runs.
//
// Every compile invoked with a database path appends one row to the runs
// table holding the JSON of the result, stored as compiled, plus its digests:
//   - policy_hash: ir.PolicyHash of the input text
//   - result_digest: ir.ResultDigest of the output
//
// Identical policies compiled by the same compiler version always record the
// same result_digest, so the history doubles as a determinism audit.
//
// # Ordering
//
// All queries order by seq ASC, id ASC COLLATE BINARY. seq is assigned by
// SQLite on insert; wall-clock timestamps are never stored.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
