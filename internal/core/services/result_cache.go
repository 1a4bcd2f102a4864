package services

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/agentstudio/studio-core/internal/core/domain"
)

// CacheStats is a snapshot of cache effectiveness.
type CacheStats struct {
	Size    int     `json:"size"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

type cacheEntry struct {
	result    domain.GenerationResult
	createdAt time.Time
}

// ResultCache gives at-most-once computation per identical request. Entries are
// never updated in place, only replaced or evicted (LRU capacity + TTL on read).
type ResultCache struct {
	mu       sync.Mutex
	entries  map[uint64]cacheEntry
	order    []uint64 // LRU order, most recent last
	capacity int
	ttl      time.Duration
	hits     int64
	misses   int64
	now      func() time.Time
}

// NewResultCache creates a cache with the given capacity and entry TTL.
// Non-positive values fall back to 256 entries / 30 minutes.
func NewResultCache(capacity int, ttl time.Duration) *ResultCache {
	if capacity <= 0 {
		capacity = 256
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &ResultCache{
		entries:  make(map[uint64]cacheEntry, capacity),
		order:    make([]uint64, 0, capacity),
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Fingerprint derives the deterministic cache key for a request. Parameters are
// canonicalized (recursively sorted keys) before hashing so that two semantically
// identical parameter maps with different key order fingerprint identically.
// The model version is part of the keyed material: upgrading a model busts its
// cached results.
func Fingerprint(model domain.ModelDescriptor, reqType domain.ModelType, prompt string, params map[string]any) uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(model.ID)
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(model.Version)
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(string(reqType))
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(prompt)
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(canonicalize(params))
	return h.Sum64()
}

// canonicalize renders a parameter value into a stable textual form. Maps are
// walked in sorted key order at every depth.
func canonicalize(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := "{"
		for i, k := range keys {
			if i > 0 {
				out += ","
			}
			out += strconv.Quote(k) + ":" + canonicalize(t[k])
		}
		return out + "}"
	case []any:
		out := "["
		for i, e := range t {
			if i > 0 {
				out += ","
			}
			out += canonicalize(e)
		}
		return out + "]"
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(b)
	}
}

// Get returns the cached result for the fingerprint, or ok=false on miss.
// Expired entries count as misses and are dropped.
func (c *ResultCache) Get(fp uint64) (domain.GenerationResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[fp]
	if !ok {
		c.misses++
		return domain.GenerationResult{}, false
	}
	if c.now().Sub(entry.createdAt) > c.ttl {
		delete(c.entries, fp)
		c.removeOrderLocked(fp)
		c.misses++
		return domain.GenerationResult{}, false
	}

	c.hits++
	c.touchLocked(fp)

	result := entry.result
	result.ServedFromCache = true
	return result, true
}

// Put stores a result under its fingerprint, replacing any existing entry and
// evicting the least recently used entry past capacity.
func (c *ResultCache) Put(fp uint64, result domain.GenerationResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[fp]; exists {
		c.removeOrderLocked(fp)
	}
	c.entries[fp] = cacheEntry{result: result, createdAt: c.now()}
	c.order = append(c.order, fp)

	for len(c.entries) > c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
}

// Stats returns a point-in-time effectiveness snapshot.
func (c *ResultCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := CacheStats{Size: len(c.entries), Hits: c.hits, Misses: c.misses}
	if total := c.hits + c.misses; total > 0 {
		stats.HitRate = float64(c.hits) / float64(total)
	}
	return stats
}

func (c *ResultCache) touchLocked(fp uint64) {
	c.removeOrderLocked(fp)
	c.order = append(c.order, fp)
}

func (c *ResultCache) removeOrderLocked(fp uint64) {
	for i, id := range c.order {
		if id == fp {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
