// Package handlecache implements the bounded, most-recently-used cache
// of open backing-file readers from spec.md §4.7. It is the Go
// equivalent of original_source/translation_fs.py's FileHandleCache,
// backed by github.com/hashicorp/golang-lru/v2 so eviction and
// recency tracking don't have to be hand-rolled.
package handlecache

import (
	"os"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCapacity mirrors the original's max_handles=100 default.
const DefaultCapacity = 100

// Cache holds at most capacity open *os.File readers, keyed by backing
// path. It is not internally synchronized: callers (internal/facade)
// serialize access to it under the facade lock, per spec.md §5/§9(c).
type Cache struct {
	lru *lru.Cache[string, *os.File]
}

// New builds a cache bounded at capacity. On overflow the
// least-recently-touched entry is closed and evicted.
func New(capacity int) (*Cache, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c := &Cache{}
	l, err := lru.NewWithEvict[string, *os.File](capacity, func(_ string, f *os.File) {
		_ = f.Close()
	})
	if err != nil {
		return nil, err
	}
	c.lru = l
	return c, nil
}

// Get returns the cached reader for backingPath, opening it for binary
// read on first use. The entry's recency is refreshed.
func (c *Cache) Get(backingPath string) (*os.File, error) {
	if f, ok := c.lru.Get(backingPath); ok {
		return f, nil
	}
	f, err := os.Open(backingPath)
	if err != nil {
		return nil, err
	}
	c.lru.Add(backingPath, f)
	return f, nil
}

// Close closes and removes the cached handle for backingPath, if any.
func (c *Cache) Close(backingPath string) {
	c.lru.Remove(backingPath)
}

// CloseAll closes every cached handle and empties the cache.
func (c *Cache) CloseAll() {
	c.lru.Purge()
}

// Len reports the number of currently-cached handles.
func (c *Cache) Len() int {
	return c.lru.Len()
}
