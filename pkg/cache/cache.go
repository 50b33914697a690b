// Package cache provides the bounded, FIFO-evicting cache used by the
// comparison engine. Values live in patrickmn/go-cache (so an optional TTL is
// honored); this wrapper adds a capacity bound, insertion-order eviction and
// a mutex so one instance can be shared by concurrent comparisons.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/agentstation/motherdb/pkg/constants"
)

// Cache is a bounded FIFO cache. The zero value is not usable; call New.
type Cache struct {
	mu       sync.Mutex
	store    *gocache.Cache
	order    []string
	capacity int
	ttl      time.Duration

	hits      int
	misses    int
	evictions int
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL expires entries after ttl in addition to FIFO eviction.
// A zero or negative ttl means entries never expire.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// New creates a cache holding at most capacity entries.
// A capacity below 1 falls back to constants.DefaultCacheCapacity.
func New(capacity int, opts ...Option) *Cache {
	if capacity < 1 {
		capacity = constants.DefaultCacheCapacity
	}
	c := &Cache{capacity: capacity}
	for _, opt := range opts {
		opt(c)
	}

	expiration := gocache.NoExpiration
	var cleanup time.Duration
	if c.ttl > 0 {
		expiration = c.ttl
		cleanup = 2 * c.ttl
	}
	c.store = gocache.New(expiration, cleanup)
	return c
}

// Get retrieves a value from the cache.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.store.Get(key)
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return v, ok
}

// Set stores a value. Re-setting an existing key replaces the value but keeps
// its original insertion position. When the cache is full the oldest inserted
// key is evicted.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pruneExpired()

	if _, exists := c.store.Get(key); exists {
		c.store.Set(key, value, gocache.DefaultExpiration)
		return
	}

	for len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		c.store.Delete(oldest)
		c.evictions++
	}

	c.store.Set(key, value, gocache.DefaultExpiration)
	c.order = append(c.order, key)
}

// Delete removes a value from the cache.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store.Delete(key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Clear removes all items from the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store.Flush()
	c.order = nil
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pruneExpired()
	return len(c.order)
}

// Keys returns the live keys, oldest first.
func (c *Cache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pruneExpired()
	return append([]string(nil), c.order...)
}

// Capacity returns the maximum number of entries.
func (c *Cache) Capacity() int {
	return c.capacity
}

// Stats returns cache statistics.
type Stats struct {
	ItemCount int `json:"item_count"`
	Capacity  int `json:"capacity"`
	Hits      int `json:"hits"`
	Misses    int `json:"misses"`
	Evictions int `json:"evictions"`
}

// GetStats returns current cache statistics.
func (c *Cache) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pruneExpired()
	return Stats{
		ItemCount: len(c.order),
		Capacity:  c.capacity,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}

// pruneExpired drops keys whose values have expired. Caller holds mu.
func (c *Cache) pruneExpired() {
	if c.ttl <= 0 {
		return
	}
	live := c.order[:0]
	for _, k := range c.order {
		if _, ok := c.store.Get(k); ok {
			live = append(live, k)
		}
	}
	c.order = live
}

// Key derives a cache key from a set of source identifiers. Order and
// duplicates do not matter.
func Key(sourceIDs ...string) string {
	ids := make([]string, 0, len(sourceIDs))
	seen := make(map[string]bool, len(sourceIDs))
	for _, id := range sourceIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	sum := sha256.Sum256([]byte(strings.Join(ids, "\x00")))
	return hex.EncodeToString(sum[:])
}
