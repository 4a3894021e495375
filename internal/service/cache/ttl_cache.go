package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// TTLCache is an in-process BytesCache. When maxEntries is reached, expired
// entries are purged first; if none expired, the write is dropped.
type TTLCache struct {
	c          *gocache.Cache
	maxEntries int
}

func NewTTLCache(maxEntries int) *TTLCache {
	return &TTLCache{
		c:          gocache.New(gocache.NoExpiration, time.Minute),
		maxEntries: maxEntries,
	}
}

func (c *TTLCache) GetBytes(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := c.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, ok := v.([]byte)
	return b, ok, nil
}

func (c *TTLCache) SetBytes(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	if c.maxEntries > 0 && c.c.ItemCount() >= c.maxEntries {
		if _, exists := c.c.Get(key); !exists {
			c.c.DeleteExpired()
			if c.c.ItemCount() >= c.maxEntries {
				return nil
			}
		}
	}
	c.c.Set(key, value, ttl)
	return nil
}

// Len returns the number of stored entries, including expired ones not yet
// purged.
func (c *TTLCache) Len() int {
	return c.c.ItemCount()
}
