package problem

import (
	"sync"
	"time"
)

type cacheEntry struct {
	problem  *Problem
	cachedAt time.Time
}

// Cache keeps problems by id after their first fetch. A zero ttl never expires entries.
type Cache struct {
	mu      sync.RWMutex
	entries map[uint]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[uint]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *Cache) Get(id uint) (*Problem, bool) {
	c.mu.RLock()
	entry, ok := c.entries[id]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.ttl > 0 && c.now().Sub(entry.cachedAt) > c.ttl {
		c.mu.Lock()
		delete(c.entries, id)
		c.mu.Unlock()
		return nil, false
	}
	return entry.problem, true
}

func (c *Cache) Put(p *Problem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[p.ID] = cacheEntry{problem: p, cachedAt: c.now()}
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
