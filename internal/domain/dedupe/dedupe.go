// Package dedupe tracks idempotency keys of detection submissions.
package dedupe

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// defaultMaxSize bounds the number of remembered keys.
const defaultMaxSize = 50000

// Deduper records submission keys to ensure at-most-once processing.
type Deduper interface {
	// SeenAndRecord atomically checks if key was seen and records it if not.
	// Returns true if key was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord forgets a key so the submission can be retried, e.g. after
	// the queue rejected it.
	Unrecord(ctx context.Context, key string)

	Size() int64
}

// inMemoryDeduper remembers keys in an LRU cache when bounded, or in a plain
// map when maxSize <= 0.
type inMemoryDeduper struct {
	maxSize int
	cache   *lru.Cache[string, struct{}]

	mu   sync.Mutex
	seen map[string]struct{}
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	if d.maxSize > 0 {
		// lru.New only fails for a non-positive size.
		c, err := lru.New[string, struct{}](d.maxSize)
		if err == nil {
			d.cache = c
			return d
		}
	}
	d.seen = make(map[string]struct{})
	return d
}

// SeenAndRecord reports whether key was already recorded, recording it if not.
func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	if d.cache != nil {
		ok, _ := d.cache.ContainsOrAdd(key, struct{}{})
		return ok
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[key]; ok {
		return true
	}
	d.seen[key] = struct{}{}
	return false
}

// Unrecord removes key, allowing it to be retried.
func (d *inMemoryDeduper) Unrecord(_ context.Context, key string) {
	if d.cache != nil {
		d.cache.Remove(key)
		return
	}
	d.mu.Lock()
	delete(d.seen, key)
	d.mu.Unlock()
}

// Size returns the current number of remembered keys.
func (d *inMemoryDeduper) Size() int64 {
	if d.cache != nil {
		return int64(d.cache.Len())
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.seen))
}
