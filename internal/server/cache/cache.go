// Package cache keeps recently served baselines in memory. Entries are keyed
// by equipment type and invalidated when a baseline event for that type
// arrives.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/agentstation/motherdb/pkg/baseline"
)

const keyPrefix = "baseline:"

// Cache wraps go-cache for baseline lookups.
type Cache struct {
	store *gocache.Cache
}

// New creates a cache whose entries live for ttl.
func New(ttl time.Duration) *Cache {
	return &Cache{
		store: gocache.New(ttl, 2*ttl),
	}
}

// Baseline returns the cached entries of an equipment type.
func (c *Cache) Baseline(equipmentTypeID string) ([]baseline.Entry, bool) {
	v, ok := c.store.Get(keyPrefix + equipmentTypeID)
	if !ok {
		return nil, false
	}
	entries, ok := v.([]baseline.Entry)
	return entries, ok
}

// SetBaseline caches the entries of an equipment type.
func (c *Cache) SetBaseline(equipmentTypeID string, entries []baseline.Entry) {
	c.store.SetDefault(keyPrefix+equipmentTypeID, entries)
}

// Invalidate drops the cached baseline of an equipment type.
func (c *Cache) Invalidate(equipmentTypeID string) {
	c.store.Delete(keyPrefix + equipmentTypeID)
}

// Clear removes all items.
func (c *Cache) Clear() {
	c.store.Flush()
}

// ItemCount returns the number of cached baselines.
func (c *Cache) ItemCount() int {
	return c.store.ItemCount()
}
