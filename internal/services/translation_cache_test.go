package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/tablemate/backoffice-backend/internal/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New failed: %v", err)
	}
	return log
}

func TestCacheKey_TargetOrderDoesNotMatter(t *testing.T) {
	a := CacheKey("hello", "en", []string{"ar", "ku", "fr"})
	b := CacheKey("hello", "en", []string{"fr", "AR", "ku"})
	if a != b {
		t.Fatalf("expected identical keys for reordered targets, got %s and %s", a, b)
	}
	c := CacheKey("hello", "en", []string{"ar", "ku"})
	if a == c {
		t.Fatalf("expected different keys for different target sets")
	}
}

func TestCacheKey_EmptySourceHashesAsAuto(t *testing.T) {
	a := CacheKey("hello", "", []string{"ar"})
	b := CacheKey("hello", "auto", []string{"ar"})
	if a != b {
		t.Fatalf("expected empty source to hash as auto")
	}
}

func TestCacheKey_TrimsText(t *testing.T) {
	a := CacheKey("  hello  ", "en", []string{"ar"})
	b := CacheKey("hello", "en", []string{"ar"})
	if a != b {
		t.Fatalf("expected surrounding whitespace to be ignored")
	}
}

func TestTranslationCache_PutGet(t *testing.T) {
	cache := NewTranslationCache(testLogger(t), time.Hour, 10)

	key := CacheKey("hello", "en", []string{"ar"})
	if _, ok := cache.Get(key); ok {
		t.Fatalf("expected miss on empty cache")
	}
	cache.Put(key, map[string]string{"ar": "مرحبا"})
	got, ok := cache.Get(key)
	if !ok {
		t.Fatalf("expected hit after Put")
	}
	if got["ar"] != "مرحبا" {
		t.Fatalf("unexpected cached value: %v", got)
	}
}

func TestTranslationCache_HitReturnsCopy(t *testing.T) {
	cache := NewTranslationCache(testLogger(t), time.Hour, 10)
	cache.Put("k", map[string]string{"ar": "a"})

	got, _ := cache.Get("k")
	got["ar"] = "mutated"

	again, _ := cache.Get("k")
	if again["ar"] != "a" {
		t.Fatalf("cache entry was mutated through a returned map")
	}
}

func TestTranslationCache_ExpiredEntryIsMiss(t *testing.T) {
	cache := NewTranslationCache(testLogger(t), time.Hour, 10)
	current := time.Now()
	cache.now = func() time.Time { return current }

	cache.Put("k", map[string]string{"ar": "a"})
	current = current.Add(2 * time.Hour)

	if _, ok := cache.Get("k"); ok {
		t.Fatalf("expected expired entry to miss")
	}
	if stats := cache.Stats(); stats.Size != 0 {
		t.Fatalf("expected expired entry to be removed on access, size=%d", stats.Size)
	}
}

func TestTranslationCache_EvictsOldestAtCapacity(t *testing.T) {
	cache := NewTranslationCache(testLogger(t), time.Hour, 3)
	current := time.Now()
	cache.now = func() time.Time { return current }

	for i := 0; i < 3; i++ {
		cache.Put(fmt.Sprintf("k%d", i), map[string]string{"ar": "v"})
		current = current.Add(time.Second)
	}
	cache.Put("k3", map[string]string{"ar": "v"})

	if _, ok := cache.Get("k0"); ok {
		t.Fatalf("expected oldest entry k0 to be evicted")
	}
	for _, key := range []string{"k1", "k2", "k3"} {
		if _, ok := cache.Get(key); !ok {
			t.Fatalf("expected %s to survive eviction", key)
		}
	}
	if stats := cache.Stats(); stats.Size != 3 {
		t.Fatalf("expected size 3, got %d", stats.Size)
	}
}

func TestTranslationCache_RePutRefreshesValue(t *testing.T) {
	cache := NewTranslationCache(testLogger(t), time.Hour, 3)
	cache.Put("k", map[string]string{"ar": "old"})
	cache.Put("k", map[string]string{"ar": "new"})

	got, ok := cache.Get("k")
	if !ok || got["ar"] != "new" {
		t.Fatalf("expected refreshed value, got %v ok=%v", got, ok)
	}
	if stats := cache.Stats(); stats.Size != 1 {
		t.Fatalf("expected re-put to keep one entry, size=%d", stats.Size)
	}
}

func TestTranslationCache_ClearExpired(t *testing.T) {
	cache := NewTranslationCache(testLogger(t), time.Hour, 10)
	current := time.Now()
	cache.now = func() time.Time { return current }

	cache.Put("old1", map[string]string{"ar": "v"})
	cache.Put("old2", map[string]string{"ar": "v"})
	current = current.Add(2 * time.Hour)
	cache.Put("fresh", map[string]string{"ar": "v"})

	removed := cache.ClearExpired()
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	if _, ok := cache.Get("fresh"); !ok {
		t.Fatalf("expected fresh entry to survive ClearExpired")
	}
	if stats := cache.Stats(); stats.Size != 1 {
		t.Fatalf("expected size 1 after ClearExpired, got %d", stats.Size)
	}
}
