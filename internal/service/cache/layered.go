package cache

import (
	"context"
	"time"
)

// LayeredCache is a two-level BytesCache: an in-process L1 in front of Redis.
// Writes go to Redis first. L1 entries filled from Redis live for l1TTL.
type LayeredCache struct {
	l1    *TTLCache
	l2    *RedisCache
	l1TTL time.Duration
}

func NewLayeredCache(l1 *TTLCache, l2 *RedisCache, l1TTL time.Duration) *LayeredCache {
	return &LayeredCache{l1: l1, l2: l2, l1TTL: l1TTL}
}

func (lc *LayeredCache) GetBytes(ctx context.Context, key string) ([]byte, bool, error) {
	if b, ok, _ := lc.l1.GetBytes(ctx, key); ok {
		return b, true, nil
	}

	b, ok, err := lc.l2.GetBytes(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	_ = lc.l1.SetBytes(ctx, key, b, lc.l1TTL)
	return b, true, nil
}

func (lc *LayeredCache) SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := lc.l2.SetBytes(ctx, key, value, ttl); err != nil {
		return err
	}
	l1TTL := lc.l1TTL
	if ttl > 0 && (l1TTL <= 0 || ttl < l1TTL) {
		l1TTL = ttl
	}
	return lc.l1.SetBytes(ctx, key, value, l1TTL)
}
