package cache

import (
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
)

func TestNew(t *testing.T) {
	c := New[string, int](100)
	if c.Capacity() != 100 {
		t.Errorf("expected capacity 100, got %d", c.Capacity())
	}
	if c.Len() != 0 {
		t.Errorf("expected empty cache, got %d entries", c.Len())
	}
}

func TestCacheGetSet(t *testing.T) {
	c := New[string, int](10)
	c.Set("key1", 42)

	val, ok := c.Get("key1")
	if !ok || val != 42 {
		t.Errorf("Get(key1) = %d, %v", val, ok)
	}
	if _, ok := c.Get("nonexistent"); ok {
		t.Error("expected nonexistent key to not exist")
	}
}

func TestCacheGetOrCreate(t *testing.T) {
	c := New[string, int](10)
	calls := 0
	create := func(v int) func() (int, error) {
		return func() (int, error) {
			calls++
			return v, nil
		}
	}

	if val, err := c.GetOrCreate("key1", create(100)); err != nil || val != 100 {
		t.Fatalf("GetOrCreate = %d, %v", val, err)
	}
	if val, err := c.GetOrCreate("key1", create(200)); err != nil || val != 100 {
		t.Errorf("GetOrCreate (cached) = %d, %v", val, err)
	}
	if calls != 1 {
		t.Errorf("create called %d times, want 1", calls)
	}
}

func TestCacheGetOrCreateError(t *testing.T) {
	c := New[string, int](10)
	boom := errors.New("boom")
	if _, err := c.GetOrCreate("bad", func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Fatalf("GetOrCreate error = %v", err)
	}
	if c.Len() != 0 {
		t.Error("failed creation should not be cached")
	}
	if val, err := c.GetOrCreate("bad", func() (int, error) { return 7, nil }); err != nil || val != 7 {
		t.Errorf("retry = %d, %v", val, err)
	}
}

func TestCacheEviction(t *testing.T) {
	c := New[int, int](8)
	for i := range 8 {
		c.Set(i, i)
	}
	// Touch the oldest entries so they survive.
	c.Get(0)
	c.Get(1)

	c.Set(8, 8)
	if c.Len() != 6 {
		t.Fatalf("Len after eviction = %d, want 6", c.Len())
	}
	for _, k := range []int{0, 1, 8} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("recently used key %d was evicted", k)
		}
	}
	for _, k := range []int{2, 3, 4} {
		if _, ok := c.Get(k); ok {
			t.Errorf("old key %d survived", k)
		}
	}
}

func TestCacheUnlimited(t *testing.T) {
	c := New[int, int](0)
	for i := range 1000 {
		c.Set(i, i)
	}
	if c.Len() != 1000 {
		t.Errorf("Len = %d, want 1000", c.Len())
	}
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len after Clear = %d", c.Len())
	}
}

func TestCacheConcurrent(t *testing.T) {
	c := New[string, int](64)
	var created atomic.Int32
	var wg sync.WaitGroup
	for g := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 100 {
				key := strconv.Itoa(i % 32)
				_, _ = c.GetOrCreate(key, func() (int, error) {
					created.Add(1)
					return g, nil
				})
			}
		}()
	}
	wg.Wait()
	if got := created.Load(); got != 32 {
		t.Errorf("created %d values, want 32", got)
	}
}

func BenchmarkCacheGetOrCreateHit(b *testing.B) {
	c := New[string, int](256)
	_, _ = c.GetOrCreate("key", func() (int, error) { return 1, nil })
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = c.GetOrCreate("key", func() (int, error) { return 1, nil })
	}
}
