package font

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/dshills/glyphterm/internal/renderer/core"
)

// Config configures the resolver.
type Config struct {
	// FallbackCacheSize is the fallback ring capacity.
	FallbackCacheSize int

	// ReferenceGlyph sets the cell width through its advance.
	ReferenceGlyph rune

	// WidthScale and HeightScale stretch the cell box.
	WidthScale  float64
	HeightScale float64

	// Logger receives diagnostics. Nil discards them.
	Logger Logger
}

// DefaultConfig returns the default resolver configuration.
func DefaultConfig() Config {
	return Config{
		FallbackCacheSize: DefaultFallbackCacheSize,
		ReferenceGlyph:    'M',
		WidthScale:        1.0,
		HeightScale:       1.0,
	}
}

var loadOrder = [core.NumStyles]core.FontStyle{
	core.StyleRegular,
	core.StyleBold,
	core.StyleItalic,
	core.StyleBoldItalic,
}

// Resolver maps (codepoint, style) to (atlas, glyph).
//
// Resolver is not safe for concurrent use; it belongs to the render loop.
type Resolver struct {
	catalog Catalog
	config  Config
	log     Logger

	faces  [core.NumStyles]*Face
	cache  *FallbackCache
	nextID uint32

	lookups  atomic.Uint64
	direct   atomic.Uint64
	searches atomic.Uint64
	gaps     atomic.Uint64
}

// NewResolver creates a resolver over catalog. Faces are loaded by Load.
func NewResolver(catalog Catalog, config Config) *Resolver {
	if config.ReferenceGlyph == 0 {
		config.ReferenceGlyph = 'M'
	}
	if config.WidthScale <= 0 {
		config.WidthScale = 1.0
	}
	if config.HeightScale <= 0 {
		config.HeightScale = 1.0
	}

	log := config.Logger
	if log == nil {
		log = nopLogger{}
	}

	return &Resolver{
		catalog: catalog,
		config:  config,
		log:     log,
		cache:   NewFallbackCache(config.FallbackCacheSize),
	}
}

// Load loads all four faces for p. Either every face loads or none does; the
// error wraps ErrFontLoad.
func (r *Resolver) Load(p Pattern) error {
	if p.Size <= 0 {
		return fmt.Errorf("%w: invalid size %v", ErrFontLoad, p.Size)
	}

	var faces [core.NumStyles]*Face
	for _, style := range loadOrder {
		face, err := r.loadFace(p.WithStyle(style))
		if err != nil {
			for _, f := range faces {
				if f != nil {
					f.Atlas.Destroy()
				}
			}
			return fmt.Errorf("%w: %s face: %w", ErrFontLoad, style, err)
		}
		faces[style] = face
		r.log.Debug("loaded face",
			"style", style.String(),
			"family", face.Atlas.Typeface().Family(),
			"cell", fmt.Sprintf("%dx%d", face.Width, face.Height),
			"badSlant", face.BadSlant,
			"badWeight", face.BadWeight)
	}

	r.faces = faces
	return nil
}

func (r *Resolver) loadFace(p Pattern) (*Face, error) {
	tf, err := r.catalog.Lookup(p)
	if err != nil {
		return nil, err
	}
	if !tf.Scalable() {
		return nil, fmt.Errorf("typeface %s is not scalable", tf.Family())
	}

	face := newFace(r.newAtlas(tf, p.Size), p, r.config.ReferenceGlyph)
	if face.Width <= 0 || face.Height <= 0 {
		face.Atlas.Destroy()
		return nil, fmt.Errorf("typeface %s has degenerate metrics", tf.Family())
	}
	return face, nil
}

// Unload destroys every face and fallback atlas.
func (r *Resolver) Unload() {
	r.cache.Reset()
	for i, f := range r.faces {
		if f != nil {
			f.Atlas.Destroy()
			r.faces[i] = nil
		}
	}
}

// Reload rebuilds all faces for p and invalidates the fallback cache.
func (r *Resolver) Reload(p Pattern) error {
	r.Unload()
	return r.Load(p)
}

// Loaded reports whether faces are available.
func (r *Resolver) Loaded() bool {
	return r.faces[core.StyleRegular] != nil
}

// Face returns the primary face for style, or nil before Load.
func (r *Resolver) Face(style core.FontStyle) *Face {
	if int(style) >= len(r.faces) {
		return nil
	}
	return r.faces[style]
}

// Ascent returns the ascent of the face for style.
func (r *Resolver) Ascent(style core.FontStyle) int {
	if f := r.Face(style); f != nil {
		return f.Ascent
	}
	return 0
}

// CellSize returns the cell box derived from the regular face.
func (r *Resolver) CellSize() (width, height int) {
	f := r.faces[core.StyleRegular]
	if f == nil {
		return 0, 0
	}
	width = int(math.Ceil(float64(f.Width) * r.config.WidthScale))
	height = int(math.Ceil(float64(f.Height) * r.config.HeightScale))
	return width, height
}

// Cache returns the fallback cache.
func (r *Resolver) Cache() *FallbackCache {
	return r.cache
}

// Resolve returns the atlas and glyph that draw cp in style. It never
// fails: characters no font covers resolve to NotdefGlyph of the primary
// face. Before Load it returns (nil, NotdefGlyph).
func (r *Resolver) Resolve(cp rune, style core.FontStyle) (*Atlas, GlyphIndex) {
	face := r.Face(style)
	if face == nil {
		return nil, NotdefGlyph
	}
	r.lookups.Add(1)

	if g := face.Atlas.Glyph(cp); g != NotdefGlyph {
		r.direct.Add(1)
		return face.Atlas, g
	}

	if e, g, ok := r.cache.Lookup(cp, style); ok {
		if g != NotdefGlyph {
			return e.Atlas, g
		}
		r.gaps.Add(1)
		return face.Atlas, NotdefGlyph
	}

	atlas := r.search(face, cp)
	r.cache.Insert(FallbackEntry{Atlas: atlas, Style: style, Codepoint: cp})

	if g := atlas.Glyph(cp); g != NotdefGlyph {
		return atlas, g
	}
	r.gaps.Add(1)
	r.log.Debug("no font covers character", "codepoint", fmt.Sprintf("U+%04X", cp), "style", style.String())
	return face.Atlas, NotdefGlyph
}

// search picks the best-ranked candidate covering cp. When none covers it,
// the best-ranked candidate is returned so the ring records a negative entry.
func (r *Resolver) search(face *Face, cp rune) *Atlas {
	r.searches.Add(1)

	var best Typeface
	for _, tf := range r.candidates(face) {
		if !tf.Scalable() {
			continue
		}
		if best == nil {
			best = tf
		}
		if tf.GlyphIndex(cp) != NotdefGlyph {
			best = tf
			break
		}
	}
	if best == nil {
		return nil
	}
	return r.newAtlas(best, face.pattern.Size)
}

func (r *Resolver) candidates(face *Face) []Typeface {
	if !face.sorted {
		list, err := r.catalog.Sort(face.pattern)
		if err != nil {
			r.log.Warn("fallback candidate query failed", "pattern", face.pattern.String(), "error", err)
		}
		face.candidates = list
		face.sorted = true
	}
	return face.candidates
}

func (r *Resolver) newAtlas(tf Typeface, size float64) *Atlas {
	r.nextID++
	return newAtlas(r.nextID, tf, size)
}

// Stats returns resolver statistics.
func (r *Resolver) Stats() Stats {
	return Stats{
		Lookups:    r.lookups.Load(),
		DirectHits: r.direct.Load(),
		Searches:   r.searches.Load(),
		Gaps:       r.gaps.Load(),
		Cache:      r.cache.Stats(),
	}
}

// Stats holds resolver statistics.
type Stats struct {
	Lookups    uint64
	DirectHits uint64
	Searches   uint64
	Gaps       uint64
	Cache      CacheStats
}
