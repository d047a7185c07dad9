package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/mikey/phishguard/internal/core"
	"go.uber.org/zap/zaptest"
)

func TestMemoryCache_GetAdd(t *testing.T) {
	c := NewMemoryCache(zaptest.NewLogger(t), 10)

	if _, ok := c.Get("example.com"); ok {
		t.Fatal("empty cache should miss")
	}

	c.Add("example.com", core.AgeResult{Days: 400, Status: core.StatusOK})
	got, ok := c.Get("example.com")
	if !ok || got.Days != 400 || got.Status != core.StatusOK {
		t.Errorf("Get = (%+v, %v), want 400 days ok", got, ok)
	}

	c.Add("example.com", core.AgeResult{Days: -1, Status: core.StatusTimeout})
	got, _ = c.Get("example.com")
	if got.Days != -1 || c.Len() != 1 {
		t.Errorf("update should replace in place, got %+v len %d", got, c.Len())
	}
}

func TestMemoryCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewMemoryCache(zaptest.NewLogger(t), 2)

	c.Add("a.com", core.AgeResult{Days: 1})
	c.Add("b.com", core.AgeResult{Days: 2})
	c.Get("a.com") // a.com is now the most recent
	c.Add("c.com", core.AgeResult{Days: 3})

	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}
	if _, ok := c.Get("b.com"); ok {
		t.Error("b.com should have been evicted")
	}
	if _, ok := c.Get("a.com"); !ok {
		t.Error("a.com should still be cached")
	}
	if _, ok := c.Get("c.com"); !ok {
		t.Error("c.com should be cached")
	}
}

func TestMemoryCache_DefaultCapacity(t *testing.T) {
	c := NewMemoryCache(nil, 0)
	if c.Capacity() != DefaultCapacity {
		t.Errorf("Capacity = %d, want %d", c.Capacity(), DefaultCapacity)
	}
}

func TestMemoryCache_ConcurrentAccessStaysBounded(t *testing.T) {
	c := NewMemoryCache(nil, 50)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("d%d-%d.com", w, i)
				c.Add(key, core.AgeResult{Days: i, Status: core.StatusOK})
				c.Get(key)
			}
		}(w)
	}
	wg.Wait()

	if c.Len() > 50 {
		t.Errorf("Len = %d exceeds capacity 50", c.Len())
	}
}
