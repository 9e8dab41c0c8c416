package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainPolicy = "poc/policy/v1"
	DomainResult = "poc/result/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// PolicyHash computes the content address of raw policy text.
// The text is hashed exactly as given; no trimming or normalization.
func PolicyHash(text string) string {
	return hashWithDomain(DomainPolicy, []byte(text))
}

// ResultDigest computes the content address of a compilation result over its
// canonical JSON. Identical input text always yields an identical digest.
func ResultDigest(result CompilationResult) (string, error) {
	canonical, err := MarshalCanonical(result)
	if err != nil {
		return "", fmt.Errorf("ResultDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainResult, canonical), nil
}

// MustResultDigest is like ResultDigest but panics on error.
// Use only in tests or when the result is known to be well formed.
func MustResultDigest(result CompilationResult) string {
	digest, err := ResultDigest(result)
	if err != nil {
		panic(err)
	}
	return digest
}
