// Package inmemory is a process-local prompt cache. Concurrent misses for the
// same key share one build through singleflight.
package inmemory

import (
	"context"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/leofalp/uigen/core/prompt"
	"github.com/leofalp/uigen/providers/cache"
	"github.com/leofalp/uigen/providers/observability"
)

const backendName = "memory"

// Cache is a map of entries guarded by a RWMutex.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cache.Entry
	// generation is bumped by Invalidate and Purge so that a build started
	// before the invalidation does not store its stale result.
	generation uint64

	group    singleflight.Group
	ttl      time.Duration
	now      func() time.Time
	observer observability.Provider
}

var _ cache.Provider = (*Cache)(nil)

// Option configures a Cache.
type Option func(*Cache)

// WithTTL expires entries ttl after they were built. Zero keeps them until
// invalidated.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

func WithObserver(observer observability.Provider) Option {
	return func(c *Cache) {
		c.observer = observer
	}
}

// New returns an empty Cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[string]cache.Entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrBuild returns the cached value for key or builds and stores it.
func (c *Cache) GetOrBuild(ctx context.Context, key string, build cache.BuildFunc) (prompt.BuildResult, error) {
	if key == "" {
		return prompt.BuildResult{}, cache.ErrEmptyKey
	}

	if value, ok := c.lookup(key); ok {
		c.count(ctx, observability.MetricCacheHits)
		return value, nil
	}

	v, err, shared := c.group.Do(key, func() (interface{}, error) {
		// Another caller may have stored the value between the lookup and Do.
		if value, ok := c.lookup(key); ok {
			return value, nil
		}

		c.mu.RLock()
		generation := c.generation
		c.mu.RUnlock()

		value, err := build()
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		if c.generation == generation {
			c.entries[key] = cache.Entry{Key: key, Value: detach(value), CreatedAt: c.now()}
		}
		c.mu.Unlock()
		return value, nil
	})
	if err != nil {
		return prompt.BuildResult{}, err
	}

	c.count(ctx, observability.MetricCacheMisses)
	if c.observer != nil {
		c.observer.Debug(ctx, "prompt cache miss",
			observability.String(observability.AttrPromptKey, key),
			observability.Bool("shared", shared),
		)
	}
	return detach(v.(prompt.BuildResult)), nil
}

// Invalidate removes key.
func (c *Cache) Invalidate(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.generation++
	c.mu.Unlock()
	c.group.Forget(key)

	if c.observer != nil {
		c.observer.Debug(ctx, "prompt cache entry invalidated", observability.String(observability.AttrPromptKey, key))
	}
	return nil
}

// Purge removes every entry.
func (c *Cache) Purge(ctx context.Context) error {
	c.mu.Lock()
	removed := len(c.entries)
	keys := make([]string, 0, removed)
	for key := range c.entries {
		keys = append(keys, key)
	}
	c.entries = make(map[string]cache.Entry)
	c.generation++
	c.mu.Unlock()
	for _, key := range keys {
		c.group.Forget(key)
	}

	if c.observer != nil {
		c.observer.Info(ctx, "prompt cache purged", observability.Int("removed", removed))
	}
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Entry returns the stored entry for key, if present and not expired.
func (c *Cache) Entry(key string) (cache.Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	if !ok || entry.Expired(c.now(), c.ttl) {
		return cache.Entry{}, false
	}
	entry.Value = detach(entry.Value)
	return entry, true
}

func (c *Cache) lookup(key string) (prompt.BuildResult, bool) {
	entry, ok := c.Entry(key)
	return entry.Value, ok
}

// detach copies the slices of r so that callers never share them with the
// stored entry or with each other.
func detach(r prompt.BuildResult) prompt.BuildResult {
	r.IncludedSections = slices.Clone(r.IncludedSections)
	return r
}

func (c *Cache) count(ctx context.Context, metric string) {
	if c.observer == nil {
		return
	}
	c.observer.Counter(metric).Add(ctx, 1, observability.String(observability.AttrCacheBackend, backendName))
}
