package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileCache stores each entry as one file under <dir>/<namespace>/.
// The file contents are the raw cached bytes, so a cached response body can
// be inspected (or deleted) with ordinary shell tools.
//
// File entries never expire; they are overwritten on the next successful
// response or removed explicitly. The ttl argument to Set is ignored.
type FileCache struct {
	dir string
}

// NewFileCache creates a file-based cache rooted at dir.
// The directory is created if it doesn't exist.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir}, nil
}

// Dir returns the cache root directory.
func (c *FileCache) Dir() string { return c.dir }

// Get retrieves a value from the cache.
func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		// Unreadable entries are misses; a cache read must never fail the
		// caller's request.
		return nil, false, nil
	}
	return data, true, nil
}

// Set stores a value in the cache. Last writer wins.
func (c *FileCache) Set(ctx context.Context, key string, data []byte, _ time.Duration) error {
	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Delete removes a value from the cache.
func (c *FileCache) Delete(ctx context.Context, key string) error {
	err := os.Remove(c.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Keys lists stored keys beginning with prefix.
func (c *FileCache) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := filepath.Walk(c.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil // Skip errors, continue walking
		}
		rel, err := filepath.Rel(c.dir, path)
		if err != nil {
			return nil
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	return keys, err
}

// Purge removes every entry whose key begins with prefix, then cleans up
// emptied namespace directories.
func (c *FileCache) Purge(ctx context.Context, prefix string) error {
	keys, err := c.Keys(ctx, prefix)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := os.Remove(c.path(key)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	_ = filepath.Walk(c.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || path == c.dir {
			return nil
		}
		if info.IsDir() {
			os.Remove(path) // Fails while non-empty, which is fine
		}
		return nil
	})
	return nil
}

// Close does nothing for file cache.
func (c *FileCache) Close() error {
	return nil
}

// path converts a cache key to a file path. Keys are produced by [Key], so
// each segment is already filesystem-safe.
func (c *FileCache) path(key string) string {
	return filepath.Join(c.dir, filepath.FromSlash(key))
}

// Ensure FileCache implements Cache.
var _ Cache = (*FileCache)(nil)
