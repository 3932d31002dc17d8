package pesticide

import (
	"testing"
	"time"
)

func TestLookupCache_MemoizesWithinTTL(t *testing.T) {
	cache := NewLookupCache(time.Minute)

	calls := 0
	resolve := func(s string) string {
		calls++
		return NormalizeCrop(s)
	}

	for i := 0; i < 3; i++ {
		if got := cache.Resolve("vine", resolve); got != "grapes" {
			t.Fatalf("Resolve = %q, want %q", got, "grapes")
		}
	}

	if calls != 1 {
		t.Errorf("resolver called %d times, want 1", calls)
	}
	if cache.Len() != 1 {
		t.Errorf("Len = %d, want 1", cache.Len())
	}
}

func TestLookupCache_EvictsAfterTTL(t *testing.T) {
	cache := NewLookupCache(time.Minute)

	now := time.Now()
	cache.now = func() time.Time { return now }

	calls := 0
	resolve := func(s string) string {
		calls++
		return s
	}

	cache.Resolve("vine", resolve)
	cache.Resolve("tomato", resolve)

	// Advance past the TTL: both entries are stale, the next resolve
	// recomputes and sweeps.
	now = now.Add(2 * time.Minute)
	cache.Resolve("vine", resolve)

	if calls != 3 {
		t.Errorf("resolver called %d times, want 3", calls)
	}
	if cache.Len() != 1 {
		t.Errorf("Len after sweep = %d, want 1", cache.Len())
	}
}

func TestLookupCache_DefaultTTL(t *testing.T) {
	cache := NewLookupCache(0)
	if cache.ttl != DefaultCacheTTL {
		t.Errorf("ttl = %v, want %v", cache.ttl, DefaultCacheTTL)
	}
}
