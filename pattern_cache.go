package grepkit

import (
	"fmt"
	"sync"
)

const defaultPatternCacheSize = 256

// patternCache is a small LRU of compiled patterns keyed by source and flags.
type patternCache struct {
	mu      sync.Mutex
	entries map[patternKey]*cachedPattern
	maxSize int
	tick    uint64
	hits    int64
	misses  int64
	evicted int64
}

type patternKey struct {
	source     string
	ignoreCase bool
	multiline  bool
}

type cachedPattern struct {
	pattern  *Pattern
	lastUsed uint64
	useCount int64
}

// CacheStats reports pattern cache activity.
type CacheStats struct {
	Size    int     `json:"size"`
	MaxSize int     `json:"maxSize"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	Evicted int64   `json:"evicted"`
	HitRate float64 `json:"hitRate"`
}

// String returns a human-readable representation of cache stats.
func (s CacheStats) String() string {
	return fmt.Sprintf("Cache Stats: Size=%d/%d, Hits=%d, Misses=%d, Evicted=%d, Hit Rate=%.2f%%",
		s.Size, s.MaxSize, s.Hits, s.Misses, s.Evicted, s.HitRate*100)
}

func newPatternCache(maxSize int) *patternCache {
	if maxSize <= 0 {
		maxSize = defaultPatternCacheSize
	}
	return &patternCache{
		entries: make(map[patternKey]*cachedPattern),
		maxSize: maxSize,
	}
}

func (c *patternCache) getOrCompile(source string, ignoreCase, multiline bool) (*Pattern, error) {
	key := patternKey{source: source, ignoreCase: ignoreCase, multiline: multiline}

	c.mu.Lock()
	if cached, ok := c.entries[key]; ok {
		c.tick++
		cached.lastUsed = c.tick
		cached.useCount++
		c.hits++
		c.mu.Unlock()
		return cached.pattern, nil
	}
	c.misses++
	c.mu.Unlock()

	// Compile outside the lock; invalid patterns are not cached.
	p, err := compilePattern(source, ignoreCase, multiline)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if cached, ok := c.entries[key]; ok {
		return cached.pattern, nil
	}
	if len(c.entries) >= c.maxSize {
		c.evictLRU()
	}
	c.tick++
	c.entries[key] = &cachedPattern{pattern: p, lastUsed: c.tick, useCount: 1}
	return p, nil
}

// evictLRU removes the least recently used entry. Callers hold c.mu.
func (c *patternCache) evictLRU() {
	var oldestKey patternKey
	var oldest uint64
	first := true
	for key, cached := range c.entries {
		if first || cached.lastUsed < oldest {
			oldestKey = key
			oldest = cached.lastUsed
			first = false
		}
	}
	if !first {
		delete(c.entries, oldestKey)
		c.evicted++
	}
}

func (c *patternCache) stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	hitRate := float64(0)
	if total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}
	return CacheStats{
		Size:    len(c.entries),
		MaxSize: c.maxSize,
		Hits:    c.hits,
		Misses:  c.misses,
		Evicted: c.evicted,
		HitRate: hitRate,
	}
}

var (
	patternCacheOnce sync.Once
	sharedCache      *patternCache
)

func globalPatternCache() *patternCache {
	patternCacheOnce.Do(func() {
		sharedCache = newPatternCache(defaultPatternCacheSize)
	})
	return sharedCache
}

// PatternCacheStats returns statistics for the process-wide pattern cache.
func PatternCacheStats() CacheStats {
	return globalPatternCache().stats()
}
