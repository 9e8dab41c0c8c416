package store

import "github.com/google/uuid"

// RunIDGenerator produces unique run ids.
type RunIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 run ids.
//
// UUIDv7 embeds a millisecond timestamp in its most significant bits, so ids
// from one process sort in creation order.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate returns a hyphenated UUIDv7, e.g. "0190f5b2-7c1e-7d3a-9f00-5a1b2c3d4e5f".
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
