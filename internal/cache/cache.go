// Package cache is a thin optional wrapper over redis used for short-TTL
// read caches (public tracking lookups). A Cache built with an empty address
// is a no-op, so callers never branch on whether redis is configured.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

type Cache struct {
	rdb *redis.Client
}

func New(addr string) *Cache {
	if addr == "" {
		return &Cache{}
	}
	return &Cache{rdb: redis.NewClient(&redis.Options{Addr: addr})}
}

func (c *Cache) Enabled() bool { return c != nil && c.rdb != nil }

func (c *Cache) GetJSON(ctx context.Context, key string, v any) bool {
	if !c.Enabled() {
		return false
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}

func (c *Cache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) {
	if !c.Enabled() {
		return
	}
	if raw, err := json.Marshal(v); err == nil {
		_ = c.rdb.Set(ctx, key, raw, ttl).Err()
	}
}

func (c *Cache) Delete(ctx context.Context, key string) {
	if !c.Enabled() {
		return
	}
	_ = c.rdb.Del(ctx, key).Err()
}

func (c *Cache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Close()
}
