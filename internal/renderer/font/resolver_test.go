package font

import (
	"errors"
	"testing"

	"github.com/dshills/glyphterm/internal/renderer/core"
)

func loadedResolver(t *testing.T, catalog Catalog, cacheSize int) *Resolver {
	t.Helper()
	cfg := DefaultConfig()
	cfg.FallbackCacheSize = cacheSize
	r := NewResolver(catalog, cfg)
	if err := r.Load(Pattern{Family: "Mono", Size: 20}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return r
}

func TestResolverLoad(t *testing.T) {
	catalog := newCountingCatalog(monoFamily()...)
	r := loadedResolver(t, catalog, 8)

	if !r.Loaded() {
		t.Fatal("resolver should be loaded")
	}
	if catalog.lookups != 4 {
		t.Errorf("catalog lookups = %d, want 4", catalog.lookups)
	}
	if catalog.sorts != 0 {
		t.Errorf("catalog sorts = %d, want 0 before any fallback", catalog.sorts)
	}

	face := r.Face(core.StyleRegular)
	if face.Ascent != 16 || face.Descent != 4 || face.Height != 20 {
		t.Errorf("metrics = %d/%d/%d, want 16/4/20", face.Ascent, face.Descent, face.Height)
	}
	if face.Width != 12 {
		t.Errorf("Width = %d, want 12", face.Width)
	}

	w, h := r.CellSize()
	if w != 12 || h != 20 {
		t.Errorf("CellSize() = %dx%d, want 12x20", w, h)
	}

	for _, s := range []core.FontStyle{core.StyleBold, core.StyleItalic, core.StyleBoldItalic} {
		f := r.Face(s)
		if f == nil {
			t.Fatalf("face %v not loaded", s)
		}
		if f.Atlas.Typeface().Style() != s {
			t.Errorf("face %v loaded typeface style %v", s, f.Atlas.Typeface().Style())
		}
		if f.BadSlant || f.BadWeight {
			t.Errorf("face %v should match its style", s)
		}
	}
}

func TestResolverCellScale(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WidthScale = 1.5
	cfg.HeightScale = 1.5
	r := NewResolver(NewCollection(monoFamily()...), cfg)
	if err := r.Load(Pattern{Family: "Mono", Size: 20}); err != nil {
		t.Fatalf("Load: %v", err)
	}

	w, h := r.CellSize()
	if w != 18 || h != 30 {
		t.Errorf("CellSize() = %dx%d, want 18x30", w, h)
	}
}

func TestResolverStyleMismatchFlags(t *testing.T) {
	catalog := NewCollection(newFakeTypeface("Plain", core.StyleRegular, ascii))
	r := NewResolver(catalog, DefaultConfig())
	if err := r.Load(Pattern{Family: "Plain", Size: 10}); err != nil {
		t.Fatalf("Load: %v", err)
	}

	tests := []struct {
		style     core.FontStyle
		badSlant  bool
		badWeight bool
	}{
		{core.StyleRegular, false, false},
		{core.StyleBold, false, true},
		{core.StyleItalic, true, false},
		{core.StyleBoldItalic, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.style.String(), func(t *testing.T) {
			f := r.Face(tt.style)
			if f.BadSlant != tt.badSlant {
				t.Errorf("BadSlant = %v, want %v", f.BadSlant, tt.badSlant)
			}
			if f.BadWeight != tt.badWeight {
				t.Errorf("BadWeight = %v, want %v", f.BadWeight, tt.badWeight)
			}
		})
	}
}

func TestResolverLoadFailure(t *testing.T) {
	r := NewResolver(NewCollection(), DefaultConfig())

	err := r.Load(Pattern{Family: "Mono", Size: 12})
	if !errors.Is(err, ErrFontLoad) {
		t.Fatalf("Load error = %v, want ErrFontLoad", err)
	}
	if !errors.Is(err, ErrNoFonts) {
		t.Errorf("Load error = %v, want it to wrap ErrNoFonts", err)
	}
	if r.Loaded() {
		t.Error("failed load should leave resolver unloaded")
	}

	atlas, g := r.Resolve('a', core.StyleRegular)
	if atlas != nil || g != NotdefGlyph {
		t.Errorf("Resolve before load = (%v, %d), want (nil, 0)", atlas, g)
	}
}

func TestResolverLoadInvalidSize(t *testing.T) {
	r := NewResolver(NewCollection(monoFamily()...), DefaultConfig())
	if err := r.Load(Pattern{Family: "Mono"}); !errors.Is(err, ErrFontLoad) {
		t.Errorf("Load with zero size = %v, want ErrFontLoad", err)
	}
}

func TestResolverUnscalableRejected(t *testing.T) {
	bitmap := newFakeTypeface("Fixed", core.StyleRegular, ascii)
	bitmap.unscalable = true

	r := NewResolver(newCountingCatalog(bitmap), DefaultConfig())
	if err := r.Load(Pattern{Family: "Fixed", Size: 12}); !errors.Is(err, ErrFontLoad) {
		t.Errorf("Load = %v, want ErrFontLoad", err)
	}
}

func TestResolverDirectHit(t *testing.T) {
	catalog := newCountingCatalog(monoFamily()...)
	r := loadedResolver(t, catalog, 8)

	atlas, g := r.Resolve('H', core.StyleRegular)
	if atlas != r.Face(core.StyleRegular).Atlas {
		t.Error("direct hit should return the primary atlas")
	}
	if g == NotdefGlyph {
		t.Error("direct hit should return a real glyph")
	}

	stats := r.Stats()
	if stats.DirectHits != 1 || stats.Searches != 0 {
		t.Errorf("stats = %+v, want 1 direct hit and no search", stats)
	}
	if r.Cache().Len() != 0 {
		t.Errorf("cache Len() = %d, want 0", r.Cache().Len())
	}
}

func TestResolverFallbackReusesCache(t *testing.T) {
	catalog := newCountingCatalog(monoFamily()...)
	r := loadedResolver(t, catalog, 8)

	// "Hi" with 'i' in bold-italic, which that face lacks.
	if _, g := r.Resolve('H', core.StyleRegular); g == NotdefGlyph {
		t.Fatal("'H' should resolve directly")
	}
	atlas, g := r.Resolve('i', core.StyleBoldItalic)
	if g == NotdefGlyph {
		t.Fatal("'i' should resolve through fallback")
	}
	if atlas == r.Face(core.StyleBoldItalic).Atlas {
		t.Fatal("'i' should come from a fallback atlas")
	}
	if got := r.Stats().Searches; got != 1 {
		t.Fatalf("Searches = %d, want 1", got)
	}
	hitsBefore := r.Cache().Stats().Hits

	for i := 0; i < 5; i++ {
		again, g2 := r.Resolve('i', core.StyleBoldItalic)
		if again != atlas || g2 != g {
			t.Fatalf("repeat %d resolved to a different glyph", i)
		}
	}

	if got := r.Stats().Searches; got != 1 {
		t.Errorf("Searches = %d after repeats, want 1", got)
	}
	if got := r.Cache().Stats().Hits; got != hitsBefore+5 {
		t.Errorf("cache hits = %d, want %d", got, hitsBefore+5)
	}
	if catalog.sorts != 1 {
		t.Errorf("catalog sorts = %d, want 1", catalog.sorts)
	}
}

func TestResolverCandidateListBuiltOnce(t *testing.T) {
	faces := append(monoFamily(), newFakeTypeface("Symbols", core.StyleRegular, "αβγδ"))
	catalog := newCountingCatalog(faces...)
	r := loadedResolver(t, catalog, 8)

	for _, cp := range "αβγδ" {
		if _, g := r.Resolve(cp, core.StyleRegular); g == NotdefGlyph {
			t.Errorf("%q should resolve through Symbols", cp)
		}
	}

	// The entry created for 'α' also covers the rest of the block.
	if got := r.Stats().Searches; got != 1 {
		t.Errorf("Searches = %d, want 1", got)
	}
	if got := r.Cache().Len(); got != 1 {
		t.Errorf("cache Len() = %d, want 1", got)
	}
	if catalog.sorts != 1 {
		t.Errorf("catalog sorts = %d, want 1", catalog.sorts)
	}
	if len(r.Face(core.StyleRegular).Candidates()) != 5 {
		t.Errorf("candidates = %d, want 5", len(r.Face(core.StyleRegular).Candidates()))
	}
}

func TestResolverCoverageGap(t *testing.T) {
	r := loadedResolver(t, newCountingCatalog(monoFamily()...), 8)

	for i := 0; i < 3; i++ {
		atlas, g := r.Resolve('中', core.StyleRegular)
		if g != NotdefGlyph {
			t.Fatalf("uncovered character resolved to glyph %d", g)
		}
		if atlas != r.Face(core.StyleRegular).Atlas {
			t.Fatal("notdef should come from the primary atlas")
		}
	}

	stats := r.Stats()
	if stats.Searches != 1 {
		t.Errorf("Searches = %d, want 1", stats.Searches)
	}
	if stats.Gaps != 3 {
		t.Errorf("Gaps = %d, want 3", stats.Gaps)
	}

	entries := r.Cache().Entries()
	if len(entries) != 1 || !entries[0].Negative() {
		t.Errorf("cache should hold one negative entry, got %+v", entries)
	}
}

func TestResolverNegativeEntryIsPerStyle(t *testing.T) {
	r := loadedResolver(t, newCountingCatalog(monoFamily()...), 8)

	r.Resolve('中', core.StyleRegular)
	r.Resolve('中', core.StyleBold)

	if got := r.Stats().Searches; got != 2 {
		t.Errorf("Searches = %d, want 2", got)
	}
	if got := r.Cache().Len(); got != 2 {
		t.Errorf("cache Len() = %d, want 2", got)
	}
}

func TestResolverEvictionAtCapacity(t *testing.T) {
	const capacity = 4
	r := loadedResolver(t, newCountingCatalog(monoFamily()...), capacity)

	styles := []core.FontStyle{core.StyleRegular, core.StyleBold, core.StyleItalic, core.StyleBoldItalic}
	for i, s := range styles {
		r.Resolve(rune(0x4e00+i), s)
	}
	if got := r.Cache().Len(); got != capacity {
		t.Fatalf("cache Len() = %d, want %d", got, capacity)
	}
	last := r.Cache().Entries()[capacity-1]

	// A new uncovered character under the first style misses and evicts.
	r.Resolve(0x9fa5, styles[0])

	cache := r.Cache()
	if cache.Len() != capacity {
		t.Errorf("cache Len() = %d, want %d", cache.Len(), capacity)
	}
	if got := cache.Stats().Evictions; got != 1 {
		t.Errorf("Evictions = %d, want 1", got)
	}
	if !last.Atlas.Destroyed() {
		t.Error("evicted atlas should be destroyed")
	}
	entries := cache.Entries()
	if entries[capacity-1].Codepoint != 0x9fa5 {
		t.Errorf("last slot codepoint = %U, want U+9FA5", entries[capacity-1].Codepoint)
	}
	for i := 0; i < capacity-1; i++ {
		if entries[i].Codepoint != rune(0x4e00+i) {
			t.Errorf("slot %d codepoint = %U, want %U", i, entries[i].Codepoint, rune(0x4e00+i))
		}
	}
}

func TestResolverReload(t *testing.T) {
	catalog := newCountingCatalog(monoFamily()...)
	r := loadedResolver(t, catalog, 8)

	r.Resolve('i', core.StyleBoldItalic)
	oldAtlas := r.Face(core.StyleRegular).Atlas
	fallback := r.Cache().Entries()[0].Atlas

	if err := r.Reload(Pattern{Family: "Mono", Size: 30}); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	if r.Cache().Len() != 0 {
		t.Errorf("cache Len() = %d after reload, want 0", r.Cache().Len())
	}
	if !oldAtlas.Destroyed() || !fallback.Destroyed() {
		t.Error("reload should destroy old atlases")
	}
	face := r.Face(core.StyleRegular)
	if face.Atlas == oldAtlas {
		t.Error("reload should create new atlases")
	}
	if face.Height != 30 {
		t.Errorf("Height = %d, want 30", face.Height)
	}

	// The candidate list is rebuilt for the new faces.
	r.Resolve('i', core.StyleBoldItalic)
	if catalog.sorts != 2 {
		t.Errorf("catalog sorts = %d, want 2", catalog.sorts)
	}
}
