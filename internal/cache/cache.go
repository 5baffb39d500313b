// Package cache keeps recently served list-items pages in redis so the
// listing endpoint does not hit the database on every poll. Entries are
// short-lived and invalidated whenever a report is inserted or claimed.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kumarchinmay0704/lostfound/internal/lostfound"
	"github.com/kumarchinmay0704/lostfound/internal/store"
)

const keyPrefix = "items:"

// ItemPages caches pages of item listings. A nil *ItemPages is a no-op,
// so the server runs unchanged without redis configured.
type ItemPages struct {
	redis *store.Redis
	ttl   time.Duration
}

// NewItemPages wraps the redis connection. Returns nil when redis is nil.
func NewItemPages(r *store.Redis, ttl time.Duration) *ItemPages {
	if r == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &ItemPages{redis: r, ttl: ttl}
}

// Get returns a cached page, or ok=false on miss or redis trouble.
func (c *ItemPages) Get(ctx context.Context, limit, offset int) ([]lostfound.Item, bool) {
	if c == nil {
		return nil, false
	}
	data, err := c.redis.Client.Get(ctx, pageKey(limit, offset)).Result()
	if err != nil {
		return nil, false
	}
	var items []lostfound.Item
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		return nil, false
	}
	return items, true
}

// Set stores a page with the configured TTL. Failures are ignored: the
// cache is advisory.
func (c *ItemPages) Set(ctx context.Context, limit, offset int, items []lostfound.Item) {
	if c == nil {
		return
	}
	data, err := json.Marshal(items)
	if err != nil {
		return
	}
	c.redis.Client.Set(ctx, pageKey(limit, offset), data, c.ttl)
}

// Invalidate drops every cached page after an insert or claim. The items
// keyspace is a handful of page keys, so KEYS is fine here.
func (c *ItemPages) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}
	keys, err := c.redis.Client.Keys(ctx, keyPrefix+"*").Result()
	if err != nil || len(keys) == 0 {
		return
	}
	c.redis.Client.Del(ctx, keys...)
}

func pageKey(limit, offset int) string {
	return fmt.Sprintf("%s%d:%d", keyPrefix, limit, offset)
}
