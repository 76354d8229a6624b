package redis

import (
	"context"
	"fmt"
)

// ══════════════════════════════════════════════════════════════════════════════
// RATE LIMITER
// Fixed-window counter on the shared cache. Good enough for a form that a
// human fills out once; the window resets at most one minute late.
// ══════════════════════════════════════════════════════════════════════════════

// RateLimiter limits actions per identifier per minute, backed by Redis so
// the count survives restarts and is shared across instances.
type RateLimiter struct {
	cache *Cache
	limit int64
}

// NewRateLimiter creates a rate limiter allowing limit actions per minute.
func NewRateLimiter(cache *Cache, limit int) *RateLimiter {
	if limit <= 0 {
		limit = 100
	}
	return &RateLimiter{cache: cache, limit: int64(limit)}
}

// Allow reports whether the identifier may perform the action once more
// within the current window.
func (l *RateLimiter) Allow(ctx context.Context, identifier, action string) (bool, error) {
	key := RateLimitKey(identifier, action)

	count, err := l.cache.Incr(ctx, key)
	if err != nil {
		return false, fmt.Errorf("rate limiter incr: %w", err)
	}

	// First hit in the window opens it.
	if count == 1 {
		if err := l.cache.Expire(ctx, key, TTLRateLimitWindow); err != nil {
			return false, fmt.Errorf("rate limiter expire: %w", err)
		}
	}

	return count <= l.limit, nil
}
