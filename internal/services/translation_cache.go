package services

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tablemate/backoffice-backend/internal/logger"
)

const (
	DefaultCacheTTL     = 24 * time.Hour
	DefaultCacheMaxSize = 1000
)

// TranslationCache is a process-wide TTL cache of finished translation
// results, keyed by CacheKey. It is a pure performance optimization: entries
// are lost on restart with no correctness impact. All access goes through one
// mutex because get-check/evict/put is not naturally atomic.
type TranslationCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	order   []string
	ttl     time.Duration
	maxSize int
	log     *logger.Logger

	now func() time.Time
}

type cacheEntry struct {
	translations map[string]string
	insertedAt   time.Time
}

type CacheStats struct {
	Size    int           `json:"size"`
	MaxSize int           `json:"max_size"`
	TTL     time.Duration `json:"ttl"`
}

func NewTranslationCache(baseLog *logger.Logger, ttl time.Duration, maxSize int) *TranslationCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if maxSize <= 0 {
		maxSize = DefaultCacheMaxSize
	}
	return &TranslationCache{
		entries: make(map[string]*cacheEntry),
		ttl:     ttl,
		maxSize: maxSize,
		log:     baseLog.With("service", "TranslationCache"),
		now:     time.Now,
	}
}

// CacheKey fingerprints one translation request. The target list is sorted so
// the single-text and batch paths converge on the same key, and an unknown
// source language hashes as "auto".
func CacheKey(text, sourceLanguage string, targetLanguages []string) string {
	src := strings.TrimSpace(strings.ToLower(sourceLanguage))
	if src == "" {
		src = "auto"
	}
	targets := make([]string, 0, len(targetLanguages))
	for _, t := range targetLanguages {
		targets = append(targets, strings.TrimSpace(strings.ToLower(t)))
	}
	sort.Strings(targets)

	h := sha256.New()
	_, _ = h.Write([]byte(strings.TrimSpace(text)))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(src))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(strings.Join(targets, ",")))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached translations for key, or false on a miss. A hit on
// an expired entry removes it and reports a miss.
func (c *TranslationCache) Get(key string) (map[string]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.insertedAt) > c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	out := make(map[string]string, len(e.translations))
	for k, v := range e.translations {
		out[k] = v
	}
	return out, true
}

// Put stores translations under key, evicting the single oldest entry first
// when the cache is full. Re-putting an existing key refreshes its value and
// timestamp without changing its insertion position.
func (c *TranslationCache) Put(key string, translations map[string]string) {
	if key == "" || translations == nil {
		return
	}
	stored := make(map[string]string, len(translations))
	for k, v := range translations {
		stored[k] = v
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.translations = stored
		e.insertedAt = c.now()
		return
	}
	if len(c.entries) >= c.maxSize {
		c.evictOldestLocked()
	}
	c.entries[key] = &cacheEntry{translations: stored, insertedAt: c.now()}
	c.order = append(c.order, key)
}

// ClearExpired drops every expired entry and returns how many were removed.
func (c *TranslationCache) ClearExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, e := range c.entries {
		if now.Sub(e.insertedAt) > c.ttl {
			delete(c.entries, key)
			removed++
		}
	}
	c.compactOrderLocked()
	return removed
}

func (c *TranslationCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{
		Size:    len(c.entries),
		MaxSize: c.maxSize,
		TTL:     c.ttl,
	}
}

// evictOldestLocked removes the oldest live entry. The order queue may hold
// keys already removed by expiry, so it skips those.
func (c *TranslationCache) evictOldestLocked() {
	for len(c.order) > 0 {
		key := c.order[0]
		c.order = c.order[1:]
		if _, ok := c.entries[key]; ok {
			delete(c.entries, key)
			return
		}
	}
}

func (c *TranslationCache) compactOrderLocked() {
	if len(c.order) == len(c.entries) {
		return
	}
	live := c.order[:0]
	for _, key := range c.order {
		if _, ok := c.entries[key]; ok {
			live = append(live, key)
		}
	}
	c.order = live
}
