// Package cache defines the prompt cache used to memoise prompt builds by
// their content-derived key. Implementations must be safe for concurrent use
// and must run build at most once per key for concurrent misses.
//
// Bundled implementations: [github.com/leofalp/uigen/providers/cache/inmemory]
// and [github.com/leofalp/uigen/providers/cache/rediscache].
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/leofalp/uigen/core/prompt"
)

// ErrEmptyKey is returned for an empty cache key.
var ErrEmptyKey = errors.New("cache key is empty")

// BuildFunc produces the value stored on a miss.
type BuildFunc func() (prompt.BuildResult, error)

// Provider is a prompt cache.
type Provider interface {
	// GetOrBuild returns the value stored under key, or calls build, stores
	// its result and returns it. A failing build stores nothing.
	GetOrBuild(ctx context.Context, key string, build BuildFunc) (prompt.BuildResult, error)
	// Invalidate removes key. Removing a missing key is not an error.
	Invalidate(ctx context.Context, key string) error
	// Purge removes every entry.
	Purge(ctx context.Context) error
}

// Entry is a stored build.
type Entry struct {
	Key       string             `json:"key"`
	Value     prompt.BuildResult `json:"value"`
	CreatedAt time.Time          `json:"created_at"`
}

// Expired reports whether the entry is older than ttl at now. A ttl of zero
// or less never expires.
func (e Entry) Expired(now time.Time, ttl time.Duration) bool {
	return ttl > 0 && now.Sub(e.CreatedAt) >= ttl
}
