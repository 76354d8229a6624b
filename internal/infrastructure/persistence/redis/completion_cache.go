package redis

import (
	"context"
	"errors"

	"github.com/fesc-practicas/practicas-hub/internal/application/query"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETION CACHE
// Caches the per-proceso semáforo aggregate. Misses and Redis failures both
// report "not cached": the query handler recomputes from PostgreSQL either
// way, so a broken cache degrades latency, never correctness.
// ══════════════════════════════════════════════════════════════════════════════

// CompletionCache implements query.CompletionCache on Redis.
type CompletionCache struct {
	cache *Cache
}

// NewCompletionCache creates a new CompletionCache.
func NewCompletionCache(cache *Cache) *CompletionCache {
	return &CompletionCache{cache: cache}
}

// Get returns the cached aggregate for a proceso, if present.
func (c *CompletionCache) Get(ctx context.Context, procesoID string) (*query.CompletionDTO, bool) {
	var dto query.CompletionDTO
	err := c.cache.Get(ctx, CompletionKey(procesoID), &dto)
	if err != nil {
		return nil, false
	}
	return &dto, true
}

// Set stores the aggregate under the completion TTL.
func (c *CompletionCache) Set(ctx context.Context, procesoID string, dto *query.CompletionDTO) error {
	if dto == nil {
		return nil
	}
	return c.cache.Set(ctx, CompletionKey(procesoID), dto, TTLCompletion)
}

// Invalidate drops the cached aggregate. A missing key is not an error.
func (c *CompletionCache) Invalidate(ctx context.Context, procesoID string) error {
	err := c.cache.Delete(ctx, CompletionKey(procesoID))
	if errors.Is(err, ErrCacheMiss) {
		return nil
	}
	return err
}
