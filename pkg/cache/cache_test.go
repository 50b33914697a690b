package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// TestCache_New tests cache creation.
func TestCache_New(t *testing.T) {
	c := New(3)
	if c == nil {
		t.Fatal("New() returned nil")
	}
	if c.store == nil {
		t.Error("cache store not initialized")
	}
	if c.Capacity() != 3 {
		t.Errorf("expected capacity 3, got %d", c.Capacity())
	}

	if d := New(0); d.Capacity() != 10 {
		t.Errorf("expected default capacity 10, got %d", d.Capacity())
	}
}

// TestCache_BasicOperations tests Get, Set, and Delete.
func TestCache_BasicOperations(t *testing.T) {
	c := New(5)

	t.Run("Set and Get", func(t *testing.T) {
		c.Set("key1", "value1")

		val, found := c.Get("key1")
		if !found {
			t.Error("expected key1 to be found")
		}
		if val != "value1" {
			t.Errorf("expected value1, got %v", val)
		}
	})

	t.Run("Get non-existent key", func(t *testing.T) {
		_, found := c.Get("nonexistent")
		if found {
			t.Error("expected nonexistent key to not be found")
		}
	})

	t.Run("Set and Delete", func(t *testing.T) {
		c.Set("key2", "value2")
		c.Delete("key2")

		_, found := c.Get("key2")
		if found {
			t.Error("expected key2 to be deleted")
		}
		for _, k := range c.Keys() {
			if k == "key2" {
				t.Error("expected key2 to be removed from insertion order")
			}
		}
	})
}

// TestCache_FIFOEviction tests that the oldest inserted key goes first.
func TestCache_FIFOEviction(t *testing.T) {
	c := New(2)

	c.Set("a", 1)
	c.Set("b", 2)

	// Reading "a" must not refresh its position.
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected a to be present")
	}

	c.Set("c", 3)

	if _, ok := c.Get("a"); ok {
		t.Error("expected a to be evicted as the oldest entry")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("expected b to survive")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("expected c to be present")
	}

	keys := c.Keys()
	if len(keys) != 2 || keys[0] != "b" || keys[1] != "c" {
		t.Errorf("unexpected key order %v", keys)
	}
	if stats := c.GetStats(); stats.Evictions != 1 {
		t.Errorf("expected 1 eviction, got %d", stats.Evictions)
	}
}

// TestCache_OverwriteKeepsPosition tests that re-setting a key does not move it.
func TestCache_OverwriteKeepsPosition(t *testing.T) {
	c := New(2)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("a", 10)
	c.Set("c", 3)

	if _, ok := c.Get("a"); ok {
		t.Error("expected a to be evicted despite overwrite")
	}
	if v, _ := c.Get("b"); v != 2 {
		t.Errorf("expected b=2, got %v", v)
	}
}

// TestCache_TTL tests optional expiry.
func TestCache_TTL(t *testing.T) {
	c := New(5, WithTTL(50*time.Millisecond))
	c.Set("expiring", "value")

	if _, found := c.Get("expiring"); !found {
		t.Error("expected key to exist immediately")
	}

	time.Sleep(100 * time.Millisecond)

	if _, found := c.Get("expiring"); found {
		t.Error("expected key to be expired")
	}
	if n := c.Len(); n != 0 {
		t.Errorf("expected expired key pruned, got %d entries", n)
	}
}

// TestCache_Clear tests clearing all items.
func TestCache_Clear(t *testing.T) {
	c := New(5)
	c.Set("key1", "value1")
	c.Set("key2", "value2")

	c.Clear()

	if n := c.Len(); n != 0 {
		t.Errorf("expected 0 items after clear, got %d", n)
	}
}

// TestCache_ConcurrentAccess tests thread-safety with concurrent operations.
func TestCache_ConcurrentAccess(t *testing.T) {
	c := New(16)

	const numGoroutines = 50
	const numOperations = 100

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < numOperations; j++ {
				key := fmt.Sprintf("key-%d-%d", id, j%20)
				c.Set(key, j)
				c.Get(key)
			}
		}(i)
	}
	wg.Wait()

	if n := c.Len(); n > 16 {
		t.Errorf("capacity exceeded: %d entries", n)
	}
}

// TestKey tests that keys depend only on the set of source IDs.
func TestKey(t *testing.T) {
	k1 := Key("unit-b", "unit-a", "unit-c")
	k2 := Key("unit-c", "unit-a", "unit-b", "unit-a")
	if k1 != k2 {
		t.Error("expected order and duplicates not to affect the key")
	}
	if Key("unit-a") == Key("unit-a", "unit-b") {
		t.Error("expected different sets to produce different keys")
	}
	if len(k1) != 64 {
		t.Errorf("expected hex sha256 key, got %q", k1)
	}
}
