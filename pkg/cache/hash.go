package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string. Used for content-change
// detection: two response bodies are considered identical when their
// hashes match, independent of any server-side validator support.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// URLFingerprint derives a stable, filesystem-safe identifier for a request
// URL. The first 16 hex characters of the SHA-256 are plenty for a per-type
// namespace that holds at most a few thousand distinct URLs.
func URLFingerprint(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:8])
}
