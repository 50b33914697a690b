package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/agentstation/motherdb/pkg/baseline"
)

func TestCache_BaselineLifecycle(t *testing.T) {
	c := New(5 * time.Minute)
	entries := []baseline.Entry{{ParameterName: "Temp", Value: "25", Confidence: 1}}

	if _, ok := c.Baseline("ETCH-300"); ok {
		t.Fatal("expected empty cache")
	}

	c.SetBaseline("ETCH-300", entries)
	got, ok := c.Baseline("ETCH-300")
	if !ok {
		t.Fatal("expected cached baseline")
	}
	if len(got) != 1 || got[0].ParameterName != "Temp" {
		t.Errorf("unexpected entries: %+v", got)
	}
	if c.ItemCount() != 1 {
		t.Errorf("expected 1 item, got %d", c.ItemCount())
	}

	c.Invalidate("ETCH-300")
	if _, ok := c.Baseline("ETCH-300"); ok {
		t.Error("expected baseline to be invalidated")
	}
}

func TestCache_InvalidateIsScoped(t *testing.T) {
	c := New(5 * time.Minute)
	c.SetBaseline("ETCH-300", nil)
	c.SetBaseline("CVD-200", nil)

	c.Invalidate("ETCH-300")
	if _, ok := c.Baseline("CVD-200"); !ok {
		t.Error("invalidating one equipment type must keep the others")
	}

	c.Clear()
	if c.ItemCount() != 0 {
		t.Errorf("expected empty cache after Clear, got %d", c.ItemCount())
	}
}

func TestCache_Expiration(t *testing.T) {
	c := New(20 * time.Millisecond)
	c.SetBaseline("ETCH-300", nil)

	time.Sleep(40 * time.Millisecond)
	if _, ok := c.Baseline("ETCH-300"); ok {
		t.Error("expected entry to expire")
	}
}

func TestCache_Concurrent(t *testing.T) {
	c := New(time.Minute)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.SetBaseline("ETCH-300", []baseline.Entry{{ParameterName: "Temp"}})
			c.Baseline("ETCH-300")
			c.Invalidate("ETCH-300")
		}()
	}
	wg.Wait()
}
