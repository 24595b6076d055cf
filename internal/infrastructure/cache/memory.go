package cache

import (
	"context"
	"sync"

	"github.com/comparador-uy/backend/internal/domain"
)

// MemoryCache is a thread-safe in-memory resolution cache.
// Entries are never evicted here; the resolver ignores stale ones and
// overwrites them on the next resolution of the same key.
type MemoryCache struct {
	data  map[string]domain.CacheEntry
	mutex sync.RWMutex
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		data: make(map[string]domain.CacheEntry),
	}
}

// Get retrieves an entry from the cache
func (c *MemoryCache) Get(ctx context.Context, key string) (*domain.CacheEntry, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, exists := c.data[key]
	if !exists {
		return nil, domain.ErrCacheMiss
	}
	return &entry, nil
}

// Set stores an entry, replacing any previous one for the key
func (c *MemoryCache) Set(ctx context.Context, key string, entry *domain.CacheEntry) error {
	if entry == nil {
		return domain.ErrInvalidRequest
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data[key] = *entry
	return nil
}

// Size returns the current number of entries (for health reporting)
func (c *MemoryCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.data)
}
