package font

import (
	"sync/atomic"

	"github.com/dshills/glyphterm/internal/renderer/core"
)

// DefaultFallbackCacheSize is the ring capacity used when none is configured.
const DefaultFallbackCacheSize = 64

// FallbackEntry records the atlas chosen for a style by a fallback search.
type FallbackEntry struct {
	// Atlas may be nil when the catalog had no candidate at all.
	Atlas *Atlas

	// Style is the lookup key.
	Style core.FontStyle

	// Codepoint is the character that triggered the search. An entry whose
	// atlas lacks Codepoint answers lookups for it negatively.
	Codepoint rune

	// Seq is the insertion sequence number.
	Seq uint64
}

// Negative reports whether the entry records a character its atlas lacks.
func (e FallbackEntry) Negative() bool {
	return e.Atlas.Glyph(e.Codepoint) == NotdefGlyph
}

// FallbackCache is a fixed-capacity ring of fallback entries. When full, the
// entry in the last slot is destroyed and replaced.
type FallbackCache struct {
	entries []FallbackEntry
	n       int
	seq     uint64

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// NewFallbackCache creates a ring holding at most capacity entries.
func NewFallbackCache(capacity int) *FallbackCache {
	if capacity <= 0 {
		capacity = DefaultFallbackCacheSize
	}
	return &FallbackCache{entries: make([]FallbackEntry, capacity)}
}

// Lookup scans the ring for an entry answering (cp, style). It returns the
// entry and the glyph it provides, which is NotdefGlyph for a negative hit.
func (c *FallbackCache) Lookup(cp rune, style core.FontStyle) (FallbackEntry, GlyphIndex, bool) {
	for i := 0; i < c.n; i++ {
		e := c.entries[i]
		if e.Style != style {
			continue
		}
		g := e.Atlas.Glyph(cp)
		if g != NotdefGlyph || e.Codepoint == cp {
			c.hits.Add(1)
			return e, g, true
		}
	}
	c.misses.Add(1)
	return FallbackEntry{}, NotdefGlyph, false
}

// Insert adds e to the ring and returns the slot it occupies. When the ring
// is full the last slot's atlas is destroyed and e takes its place.
func (c *FallbackCache) Insert(e FallbackEntry) int {
	if c.n >= len(c.entries) {
		c.n = len(c.entries) - 1
		c.entries[c.n].Atlas.Destroy()
		c.entries[c.n] = FallbackEntry{}
		c.evictions.Add(1)
	}

	c.seq++
	e.Seq = c.seq
	slot := c.n
	c.entries[slot] = e
	c.n++
	return slot
}

// Len returns the number of live entries.
func (c *FallbackCache) Len() int {
	return c.n
}

// Cap returns the fixed capacity.
func (c *FallbackCache) Cap() int {
	return len(c.entries)
}

// Entries returns a copy of the live entries in slot order.
func (c *FallbackCache) Entries() []FallbackEntry {
	out := make([]FallbackEntry, c.n)
	copy(out, c.entries[:c.n])
	return out
}

// Reset destroys every entry's atlas and empties the ring. Counters are kept.
func (c *FallbackCache) Reset() {
	for i := c.n - 1; i >= 0; i-- {
		c.entries[i].Atlas.Destroy()
		c.entries[i] = FallbackEntry{}
	}
	c.n = 0
}

// Stats returns cache statistics.
func (c *FallbackCache) Stats() CacheStats {
	hits := c.hits.Load()
	misses := c.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return CacheStats{
		Size:      c.n,
		MaxSize:   len(c.entries),
		Hits:      hits,
		Misses:    misses,
		Evictions: c.evictions.Load(),
		HitRate:   hitRate,
	}
}

// CacheStats holds fallback cache statistics.
type CacheStats struct {
	Size      int
	MaxSize   int
	Hits      uint64
	Misses    uint64
	Evictions uint64
	HitRate   float64
}
