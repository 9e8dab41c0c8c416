package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/poc/internal/ir"
)

// marshalResult converts a CompilationResult to JSON TEXT for storage.
//
// Clause text is stored exactly as compiled. Canonical JSON (with its NFC
// normalization) is only hashed into result_digest, never persisted, so a
// recorded result reads back byte-for-byte.
func marshalResult(result ir.CompilationResult) (string, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}
	return string(data), nil
}

// unmarshalResult parses stored JSON TEXT back into a CompilationResult.
func unmarshalResult(data string) (ir.CompilationResult, error) {
	var result ir.CompilationResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return ir.CompilationResult{}, fmt.Errorf("unmarshal result: %w", err)
	}
	return result, nil
}
