package subscriber

import (
	"context"
	"log/slog"
	"sync"
)

// Cached collection keys. Each wire event invalidates exactly one of these.
const (
	CacheLeads    = "leads"
	CacheActivity = "activity"
	CacheUsers    = "users"
	CacheSettings = "settings"
)

// Cache tracks which locally held collections are stale and refetches them
// on invalidation. A collection without a registered fetcher is only marked
// stale; the owner can poll Stale and refetch on its own schedule.
type Cache struct {
	mu       sync.Mutex
	fetchers map[string]func(context.Context) error
	stale    map[string]bool
}

func NewCache() *Cache {
	return &Cache{
		fetchers: make(map[string]func(context.Context) error),
		stale:    make(map[string]bool),
	}
}

// Register attaches a refetch function for one collection key. Registering
// again replaces the previous fetcher.
func (c *Cache) Register(key string, refetch func(context.Context) error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetchers[key] = refetch
}

// Invalidate marks the collection stale and, when a fetcher is registered,
// refetches it immediately. The stale mark is cleared only after a
// successful refetch, so a failed fetch leaves the collection flagged for
// the next attempt.
func (c *Cache) Invalidate(ctx context.Context, key string) {
	c.mu.Lock()
	c.stale[key] = true
	refetch := c.fetchers[key]
	c.mu.Unlock()

	if refetch == nil {
		return
	}
	if err := refetch(ctx); err != nil {
		slog.Warn("cache refetch failed", "collection", key, "error", err)
		return
	}

	c.mu.Lock()
	c.stale[key] = false
	c.mu.Unlock()
}

// Stale reports whether the collection has a pending invalidation.
func (c *Cache) Stale(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stale[key]
}
