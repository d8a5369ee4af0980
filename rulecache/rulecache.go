// Package rulecache provides memoization for compiled rules. Compiling
// a patch is much more expensive than hashing its source, so repeated
// checks with the same patch reuse the cached rule.
package rulecache

import (
	"crypto/sha256"
	"sync"

	"github.com/smpl-xyz/go-smpl/smpl"
)

// RuleCache caches compiled rules keyed by a hash of the patch source.
type RuleCache struct {
	mu        sync.RWMutex
	cache     map[string]*smpl.Rule
	maxSize   int
	hits      int64
	misses    int64
	evictions int64
}

// NewRuleCache creates a cache with the given maximum size.
// When the cache is full, Put evicts one arbitrary entry before storing;
// insertion order is not kept, so the evicted entry is not the oldest.
// Set maxSize to 0 for an unlimited cache.
func NewRuleCache(maxSize int) *RuleCache {
	return &RuleCache{
		cache:   make(map[string]*smpl.Rule),
		maxSize: maxSize,
	}
}

// hashSource creates a deterministic key for a patch source.
func hashSource(source string) string {
	sum := sha256.Sum256([]byte(source))
	return string(sum[:])
}

// Get retrieves the cached rule for a patch source.
// Returns nil if not found.
func (c *RuleCache) Get(source string) *smpl.Rule {
	key := hashSource(source)

	c.mu.Lock()
	defer c.mu.Unlock()

	if rule, ok := c.cache[key]; ok {
		c.hits++
		return rule
	}
	c.misses++
	return nil
}

// Put stores a compiled rule under its patch source.
func (c *RuleCache) Put(source string, rule *smpl.Rule) {
	key := hashSource(source)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxSize > 0 && len(c.cache) >= c.maxSize {
		for k := range c.cache {
			delete(c.cache, k)
			c.evictions++
			break
		}
	}

	c.cache[key] = rule
}

// GetOrParse retrieves from the cache or compiles and caches the rule.
func (c *RuleCache) GetOrParse(source string) (*smpl.Rule, error) {
	if rule := c.Get(source); rule != nil {
		return rule, nil
	}

	rule, err := smpl.Parse(source)
	if err != nil {
		return nil, err
	}
	c.Put(source, rule)
	return rule, nil
}

// Clear removes all entries from the cache.
func (c *RuleCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]*smpl.Rule)
}

// Size returns the current number of cached rules.
func (c *RuleCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

// Stats reports cache effectiveness.
type Stats struct {
	Size      int
	MaxSize   int
	Hits      int64
	Misses    int64
	Evictions int64
	HitRate   float64
}

// Stats returns cache statistics.
func (c *RuleCache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := c.hits + c.misses
	hitRate := 0.0
	if total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}

	return Stats{
		Size:      len(c.cache),
		MaxSize:   c.maxSize,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		HitRate:   hitRate,
	}
}
