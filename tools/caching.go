package tools

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/opscrew/internal/cache"
	"github.com/BaSui01/opscrew/internal/metrics"
)

// CachingConfig configures the caching executor.
type CachingConfig struct {
	// DefaultTTL applies to every cacheable operation without an
	// override. Tool results are idempotent only on a short horizon,
	// so the scale is seconds to minutes.
	DefaultTTL time.Duration `yaml:"default_ttl" json:"default_ttl"`

	// TTLOverrides sets per-operation TTLs.
	TTLOverrides map[string]time.Duration `yaml:"ttl_overrides" json:"ttl_overrides"`

	// ExcludedOps are never cached. Mutating operations belong here.
	ExcludedOps []string `yaml:"excluded_ops" json:"excluded_ops"`
}

// DefaultCachingConfig caches status queries for five minutes and
// excludes the mutating operations.
func DefaultCachingConfig() CachingConfig {
	return CachingConfig{
		DefaultTTL:   5 * time.Minute,
		TTLOverrides: map[string]time.Duration{OpInstanceStatus: 60 * time.Second},
		ExcludedOps:  []string{OpStartInstance, OpStopInstance, OpCreateSnapshot},
	}
}

// CachingExecutor wraps a Registry with the result cache so repeated
// or concurrent calls to the same idempotent operation are served from
// memory within the TTL window.
type CachingExecutor struct {
	registry *Registry
	cache    *cache.ResultCache
	config   CachingConfig
	excluded map[string]struct{}
	metrics  *metrics.Collector
	logger   *zap.Logger
}

// NewCachingExecutor creates the wrapper. The cache is required; the
// registry executes misses. A nil collector records nothing.
func NewCachingExecutor(registry *Registry, resultCache *cache.ResultCache, config CachingConfig, collector *metrics.Collector, logger *zap.Logger) *CachingExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	excluded := make(map[string]struct{}, len(config.ExcludedOps))
	for _, op := range config.ExcludedOps {
		excluded[op] = struct{}{}
	}
	return &CachingExecutor{
		registry: registry,
		cache:    resultCache,
		config:   config,
		excluded: excluded,
		metrics:  collector,
		logger:   logger.With(zap.String("component", "caching_executor")),
	}
}

// Execute runs the operation through the cache. Excluded operations
// bypass the cache entirely. Concurrent misses on the same key block
// on a single computation.
func (e *CachingExecutor) Execute(ctx context.Context, name string, params map[string]any) (json.RawMessage, error) {
	if _, skip := e.excluded[name]; skip {
		return e.registry.Execute(ctx, name, params)
	}

	computed := false
	raw, err := e.cache.GetOrCompute(ctx, name, params, e.ttlFor(name), func(ctx context.Context) (any, error) {
		computed = true
		e.logger.Debug("cache miss, executing tool", zap.String("tool", name))
		return e.registry.Execute(ctx, name, params)
	})
	if err == nil {
		if computed {
			e.metrics.RecordCacheMiss(name)
		} else {
			e.metrics.RecordCacheHit(name)
		}
	}
	return raw, err
}

func (e *CachingExecutor) ttlFor(name string) time.Duration {
	if ttl, ok := e.config.TTLOverrides[name]; ok {
		return ttl
	}
	return e.config.DefaultTTL
}
