package cache

import (
	"container/list"
	"sync"

	"github.com/mikey/phishguard/internal/core"
	"go.uber.org/zap"
)

// DefaultCapacity is used when a non-positive capacity is configured
const DefaultCapacity = 10000

// MemoryCache is a bounded in-memory implementation of the DomainAgeCache interface.
// Entries live for the process lifetime; the least recently used one is evicted when full.
type MemoryCache struct {
	entries  map[string]*list.Element
	order    *list.List
	capacity int
	mu       sync.Mutex
	logger   *zap.Logger
}

type cacheEntry struct {
	domain string
	result core.AgeResult
}

// NewMemoryCache creates a new in-memory domain age cache
func NewMemoryCache(logger *zap.Logger, capacity int) *MemoryCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	return &MemoryCache{
		entries:  make(map[string]*list.Element),
		order:    list.New(),
		capacity: capacity,
		logger:   logger,
	}
}

// Get retrieves a cached age for a domain
func (c *MemoryCache) Get(domain string) (core.AgeResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	element, ok := c.entries[domain]
	if !ok {
		return core.AgeResult{}, false
	}

	c.order.MoveToFront(element)
	return element.Value.(*cacheEntry).result, true
}

// Add stores an age for a domain
func (c *MemoryCache) Add(domain string, result core.AgeResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if element, ok := c.entries[domain]; ok {
		element.Value.(*cacheEntry).result = result
		c.order.MoveToFront(element)
		return
	}

	if c.order.Len() >= c.capacity {
		c.evictOldest()
	}

	c.entries[domain] = c.order.PushFront(&cacheEntry{domain: domain, result: result})
}

// Len returns the number of cached domains
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.order.Len()
}

// Capacity returns the maximum number of cached domains
func (c *MemoryCache) Capacity() int {
	return c.capacity
}

// evictOldest removes the least recently used entry. Must be called with c.mu held.
func (c *MemoryCache) evictOldest() {
	element := c.order.Back()
	if element == nil {
		return
	}

	entry := element.Value.(*cacheEntry)
	c.order.Remove(element)
	delete(c.entries, entry.domain)

	if c.logger != nil {
		c.logger.Debug("Evicted domain age cache entry", zap.String("domain", entry.domain))
	}
}
