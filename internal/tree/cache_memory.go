package tree

import (
	"context"
	"sync"
	"time"

	id "lineage/pkg/domain"
	platformsync "lineage/pkg/platform/sync"
)

// MemoryCache is an in-process tree cache with per-entry TTL. Per-owner
// operations serialize on a sharded mutex so a rebuild and an invalidation
// for the same owner cannot interleave, while different owners stay
// independent.
type MemoryCache struct {
	ttl   time.Duration
	clock func() time.Time
	locks *platformsync.ShardedMutex

	mu      sync.RWMutex
	entries map[id.UserID]memoryEntry
}

type memoryEntry struct {
	roots     []*Node
	expiresAt time.Time
}

// MemoryCacheOption configures the MemoryCache.
type MemoryCacheOption func(*MemoryCache)

// WithMemoryClock overrides the time source, for tests.
func WithMemoryClock(clock func() time.Time) MemoryCacheOption {
	return func(c *MemoryCache) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// NewMemoryCache constructs a memory cache. A non-positive ttl falls back to
// 30 minutes.
func NewMemoryCache(ttl time.Duration, opts ...MemoryCacheOption) *MemoryCache {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	c := &MemoryCache{
		ttl:     ttl,
		clock:   time.Now,
		locks:   platformsync.NewShardedMutex(),
		entries: make(map[id.UserID]memoryEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *MemoryCache) Get(_ context.Context, ownerID id.UserID) ([]*Node, bool) {
	key := ownerID.String()
	c.locks.Lock(key)
	defer c.locks.Unlock(key)

	c.mu.RLock()
	entry, ok := c.entries[ownerID]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !c.clock().Before(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, ownerID)
		c.mu.Unlock()
		return nil, false
	}
	return entry.roots, true
}

func (c *MemoryCache) Set(_ context.Context, ownerID id.UserID, roots []*Node) {
	key := ownerID.String()
	c.locks.Lock(key)
	defer c.locks.Unlock(key)

	c.mu.Lock()
	c.entries[ownerID] = memoryEntry{roots: roots, expiresAt: c.clock().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *MemoryCache) Invalidate(_ context.Context, ownerID id.UserID) {
	key := ownerID.String()
	c.locks.Lock(key)
	defer c.locks.Unlock(key)

	c.mu.Lock()
	delete(c.entries, ownerID)
	c.mu.Unlock()
}

// Len reports how many owners currently have a cached tree, for tests.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
