// Package rediscache is a prompt cache shared between processes through
// Redis. Entries are stored as JSON under a key prefix.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/leofalp/uigen/core/prompt"
	"github.com/leofalp/uigen/providers/cache"
	"github.com/leofalp/uigen/providers/observability"
)

const (
	// DefaultPrefix namespaces uigen keys in a shared Redis.
	DefaultPrefix = "uigen:prompt:"

	backendName = "redis"
	scanBatch   = 256
)

// Cache stores builds in Redis. A Redis failure on read or write is logged
// and the build result is still returned; only a failing build is an error.
type Cache struct {
	client   redis.UniversalClient
	prefix   string
	ttl      time.Duration
	group    singleflight.Group
	now      func() time.Time
	observer observability.Provider
}

var _ cache.Provider = (*Cache)(nil)

// Option configures a Cache.
type Option func(*Cache)

func WithPrefix(prefix string) Option {
	return func(c *Cache) {
		c.prefix = prefix
	}
}

// WithTTL sets the Redis expiry of new entries. Zero means no expiry.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

func WithObserver(observer observability.Provider) Option {
	return func(c *Cache) {
		c.observer = observer
	}
}

// New wraps an existing client. The caller keeps ownership of client.
func New(client redis.UniversalClient, opts ...Option) *Cache {
	c := &Cache{client: client, prefix: DefaultPrefix, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dial connects to addr and checks the connection with PING.
func Dial(ctx context.Context, addr, password string, db int, opts ...Option) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}
	return New(client, opts...), nil
}

// Close closes the underlying client.
func (c *Cache) Close() error {
	return c.client.Close()
}

func (c *Cache) GetOrBuild(ctx context.Context, key string, build cache.BuildFunc) (prompt.BuildResult, error) {
	if key == "" {
		return prompt.BuildResult{}, cache.ErrEmptyKey
	}

	if value, ok := c.get(ctx, key); ok {
		c.count(ctx, observability.MetricCacheHits)
		return value, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		if value, ok := c.get(ctx, key); ok {
			return value, nil
		}
		value, err := build()
		if err != nil {
			return nil, err
		}
		c.set(ctx, key, value)
		return value, nil
	})
	if err != nil {
		return prompt.BuildResult{}, err
	}
	c.count(ctx, observability.MetricCacheMisses)
	return v.(prompt.BuildResult), nil
}

func (c *Cache) Invalidate(ctx context.Context, key string) error {
	c.group.Forget(key)
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete prompt %s: %w", key, err)
	}
	return nil
}

// Purge deletes every key under the prefix using SCAN, so it never blocks
// Redis the way KEYS would.
func (c *Cache) Purge(ctx context.Context) error {
	var cursor uint64
	removed := 0
	for {
		keys, next, err := c.client.Scan(ctx, cursor, c.prefix+"*", scanBatch).Result()
		if err != nil {
			return fmt.Errorf("failed to scan prompt keys: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("failed to delete prompt keys: %w", err)
			}
			removed += len(keys)
		}
		if next == 0 {
			break
		}
		cursor = next
	}

	if c.observer != nil {
		c.observer.Info(ctx, "prompt cache purged",
			observability.String(observability.AttrCacheBackend, backendName),
			observability.Int("removed", removed))
	}
	return nil
}

func (c *Cache) get(ctx context.Context, key string) (prompt.BuildResult, bool) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.warn(ctx, "prompt cache read failed", key, err)
		}
		return prompt.BuildResult{}, false
	}

	var entry cache.Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		c.warn(ctx, "prompt cache entry is corrupt", key, err)
		return prompt.BuildResult{}, false
	}
	return entry.Value, true
}

func (c *Cache) set(ctx context.Context, key string, value prompt.BuildResult) {
	raw, err := json.Marshal(cache.Entry{Key: key, Value: value, CreatedAt: c.now().UTC()})
	if err != nil {
		c.warn(ctx, "prompt cache entry cannot be encoded", key, err)
		return
	}
	if err := c.client.Set(ctx, c.prefix+key, raw, c.ttl).Err(); err != nil {
		c.warn(ctx, "prompt cache write failed", key, err)
	}
}

func (c *Cache) warn(ctx context.Context, msg, key string, err error) {
	if c.observer == nil {
		return
	}
	c.observer.Warn(ctx, msg,
		observability.String(observability.AttrCacheBackend, backendName),
		observability.String(observability.AttrPromptKey, key),
		observability.Error(err))
}

func (c *Cache) count(ctx context.Context, metric string) {
	if c.observer == nil {
		return
	}
	c.observer.Counter(metric).Add(ctx, 1, observability.String(observability.AttrCacheBackend, backendName))
}
