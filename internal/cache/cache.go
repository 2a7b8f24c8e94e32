package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Config configures a ResultCache.
type Config struct {
	// MaxEntries bounds the in-process tier. The LRU may evict a
	// still-fresh entry under memory pressure; TTL expiry is a
	// secondary check applied on every read.
	MaxEntries int `yaml:"max_entries" json:"max_entries"`

	// DefaultTTL applies when Store is called with a zero TTL.
	DefaultTTL time.Duration `yaml:"default_ttl" json:"default_ttl"`

	// SweepInterval enables a periodic sweep of expired local entries
	// when positive. Lazy expiry-on-read is sufficient for
	// correctness; the sweep only reclaims memory sooner.
	SweepInterval time.Duration `yaml:"sweep_interval" json:"sweep_interval"`

	// Namespace prefixes keys in the shared tier.
	Namespace string `yaml:"namespace" json:"namespace"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxEntries:    10000,
		DefaultTTL:    5 * time.Minute,
		SweepInterval: time.Minute,
		Namespace:     "opscrew",
	}
}

// Stats tracks cache performance.
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Size      int   `json:"size"`
}

type entry struct {
	value     json.RawMessage
	expiresAt time.Time
}

// ResultCache is a two-tier key/value store for memoized operation
// results: an in-process LRU fast path plus an optional shared redis
// backing store. Safe for concurrent use.
type ResultCache struct {
	local  *lru.Cache[string, entry]
	shared *redis.Client
	group  singleflight.Group
	config Config
	logger *zap.Logger
	now    func() time.Time

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64

	stopSweep chan struct{}
}

// Option configures optional cache behavior.
type Option func(*ResultCache)

// WithShared attaches a redis client as the shared backing tier. The
// client's lifecycle belongs to the caller.
func WithShared(client *redis.Client) Option {
	return func(c *ResultCache) { c.shared = client }
}

// WithClock overrides the time source, for TTL tests.
func WithClock(now func() time.Time) Option {
	return func(c *ResultCache) { c.now = now }
}

// New creates a ResultCache. A nil logger is replaced with a nop.
func New(config Config, logger *zap.Logger, opts ...Option) (*ResultCache, error) {
	if config.MaxEntries <= 0 {
		config.MaxEntries = DefaultConfig().MaxEntries
	}
	if config.DefaultTTL <= 0 {
		config.DefaultTTL = DefaultConfig().DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &ResultCache{
		config: config,
		logger: logger.With(zap.String("component", "result_cache")),
		now:    time.Now,
	}

	local, err := lru.NewWithEvict[string, entry](config.MaxEntries, func(string, entry) {
		c.evictions.Add(1)
	})
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	c.local = local

	for _, opt := range opts {
		opt(c)
	}

	if config.SweepInterval > 0 {
		c.stopSweep = make(chan struct{})
		go c.sweepLoop()
	}

	return c, nil
}

// Lookup returns the cached value for (operation, params), or false on
// a miss. An entry past its expiry is treated as absent. Shared-tier
// errors are logged and degrade to a miss.
func (c *ResultCache) Lookup(ctx context.Context, operation string, params map[string]any) (json.RawMessage, bool) {
	return c.lookupKey(ctx, Key(operation, params))
}

func (c *ResultCache) lookupKey(ctx context.Context, key string) (json.RawMessage, bool) {
	if e, ok := c.local.Get(key); ok {
		if c.now().Before(e.expiresAt) {
			c.hits.Add(1)
			return e.value, true
		}
		c.local.Remove(key)
	}

	if c.shared != nil {
		nsKey := c.nsKey(key)
		val, err := c.shared.Get(ctx, nsKey).Bytes()
		switch {
		case err == redis.Nil:
			// fall through to miss
		case err != nil:
			c.logger.Warn("shared tier get failed", zap.String("key", key), zap.Error(err))
		default:
			// Re-populate the fast path with the remaining TTL.
			if ttl, err := c.shared.PTTL(ctx, nsKey).Result(); err == nil && ttl > 0 {
				c.local.Add(key, entry{value: val, expiresAt: c.now().Add(ttl)})
			}
			c.hits.Add(1)
			return val, true
		}
	}

	c.misses.Add(1)
	return nil, false
}

// Store caches a value under (operation, params) with the given TTL.
// An existing entry for the key is overwritten: last write wins.
func (c *ResultCache) Store(ctx context.Context, operation string, params map[string]any, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}
	return c.storeKey(ctx, Key(operation, params), data, ttl)
}

func (c *ResultCache) storeKey(ctx context.Context, key string, data json.RawMessage, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.config.DefaultTTL
	}

	c.local.Add(key, entry{value: data, expiresAt: c.now().Add(ttl)})

	if c.shared != nil {
		if err := c.shared.Set(ctx, c.nsKey(key), []byte(data), ttl).Err(); err != nil {
			c.logger.Warn("shared tier set failed", zap.String("key", key), zap.Error(err))
			return fmt.Errorf("shared tier set: %w", err)
		}
	}
	return nil
}

// GetOrCompute returns the cached value for (operation, params) or
// computes and stores it. Concurrent misses on the same key block on
// the first computation instead of duplicating work.
func (c *ResultCache) GetOrCompute(ctx context.Context, operation string, params map[string]any, ttl time.Duration, compute func(ctx context.Context) (any, error)) (json.RawMessage, error) {
	key := Key(operation, params)

	if val, ok := c.lookupKey(ctx, key); ok {
		return val, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// A racing caller may have stored while we waited for the
		// flight slot.
		if val, ok := c.lookupKey(ctx, key); ok {
			return val, nil
		}

		result, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("marshal computed value: %w", err)
		}
		if err := c.storeKey(ctx, key, data, ttl); err != nil {
			// The value is still good; a degraded shared tier must not
			// fail the caller.
			c.logger.Warn("store after compute failed", zap.String("key", key), zap.Error(err))
		}
		return json.RawMessage(data), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(json.RawMessage), nil
}

// Invalidate removes the entry for (operation, params) from both tiers.
func (c *ResultCache) Invalidate(ctx context.Context, operation string, params map[string]any) {
	key := Key(operation, params)
	c.local.Remove(key)
	if c.shared != nil {
		if err := c.shared.Del(ctx, c.nsKey(key)).Err(); err != nil {
			c.logger.Warn("shared tier delete failed", zap.String("key", key), zap.Error(err))
		}
	}
}

// Stats returns a snapshot of cache statistics.
func (c *ResultCache) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Size:      c.local.Len(),
	}
}

// Close stops the background sweep, if any.
func (c *ResultCache) Close() {
	if c.stopSweep != nil {
		close(c.stopSweep)
		c.stopSweep = nil
	}
}

func (c *ResultCache) nsKey(key string) string {
	return c.config.Namespace + ":" + key
}

func (c *ResultCache) sweepLoop() {
	ticker := time.NewTicker(c.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopSweep:
			return
		case <-ticker.C:
			removed := 0
			for _, key := range c.local.Keys() {
				if e, ok := c.local.Peek(key); ok && !c.now().Before(e.expiresAt) {
					c.local.Remove(key)
					removed++
				}
			}
			if removed > 0 {
				c.logger.Debug("swept expired entries", zap.Int("removed", removed))
			}
		}
	}
}
