// Package cache provides byte-oriented storage backends for HTTP response
// caching.
//
// Entries are addressed by a key of the form "namespace/fingerprint" where
// the namespace groups entries for one response shape (e.g. "User") and the
// fingerprint is a stable hash of the request URL (see [URLFingerprint]).
// The stored value is the raw successful response body.
//
// Backends:
//   - file: One file per entry under <dir>/<namespace>/. The default for
//     CLI and desktop use.
//   - memory: LRU-bounded in-process cache for tests and short-lived
//     processes.
//   - redis: Shared cache for multi-instance deployments.
//   - null: Caching disabled.
//
// The cache is best-effort storage: concurrent writers to the same key may
// interleave and the last writer wins. Correctness-critical state does not
// belong here.
package cache

import (
	"context"
	"time"
)

// Cache is the interface for response-cache storage backends.
type Cache interface {
	// Get retrieves a value by key.
	// Returns (nil, false, nil) on a miss. A corrupt or unreadable entry is
	// reported as a miss, never as an error surfaced to the caller's read.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value under key, overwriting any previous entry.
	// A ttl of 0 means the entry never expires; backends without native
	// expiration ignore ttl entirely.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys lists all stored keys beginning with prefix.
	// Pass a namespace (e.g. "User/") to enumerate one response shape.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Purge removes every entry whose key begins with prefix.
	// An empty prefix purges the whole cache.
	Purge(ctx context.Context, prefix string) error

	// Close releases backend resources.
	Close() error
}

// Key joins a namespace and a URL into a storage key.
func Key(namespace, url string) string {
	return namespace + "/" + URLFingerprint(url)
}
