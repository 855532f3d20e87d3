package batch

import (
	"github.com/dshills/glyphterm/internal/renderer/core"
	"github.com/dshills/glyphterm/internal/renderer/font"
)

// GlyphResolver maps characters to glyphs. *font.Resolver implements it.
type GlyphResolver interface {
	Resolve(cp rune, style core.FontStyle) (*font.Atlas, font.GlyphIndex)
	Ascent(style core.FontStyle) int
}

// DirtySource hands out per-cell dirty flags for the row being built.
// *dirty.RowPass implements it.
type DirtySource interface {
	Consume(x int) bool
}

// Builder produces glyph specs for rows of cells.
type Builder struct {
	resolver GlyphResolver
	metrics  Metrics
}

// NewBuilder creates a builder.
func NewBuilder(resolver GlyphResolver, metrics Metrics) *Builder {
	return &Builder{resolver: resolver, metrics: metrics}
}

// Metrics returns the current grid geometry.
func (b *Builder) Metrics() Metrics {
	return b.metrics
}

// SetMetrics updates the geometry after a font reload or border change.
func (b *Builder) SetMetrics(m Metrics) {
	b.metrics = m
}

// Build appends the specs for cells, which start at column col of grid row
// y, to dst and returns the extended slice.
//
// Every cell's dirty bit is taken from pass before placeholders are
// skipped, so a pass over the slice clears the whole span. pass may be nil.
func (b *Builder) Build(dst []GlyphSpec, cells []core.Cell, col, y int, pass DirtySource) []GlyphSpec {
	winx, winy := b.metrics.CellOrigin(col, y)

	var (
		xp      = winx
		yp      int
		advance int
		style   core.FontStyle
		prev    core.Attribute
		started bool
	)

	for i, c := range cells {
		dirty := false
		if pass != nil {
			dirty = pass.Consume(col + i)
		}
		if c.IsPlaceholder() {
			continue
		}

		if !started || c.Attr != prev {
			started = true
			prev = c.Attr
			style = c.Attr.FontStyle()
			advance = b.metrics.CellWidth
			if c.Attr.Has(core.AttrWide) {
				advance *= 2
			}
			yp = winy + b.resolver.Ascent(style)
		}

		atlas, glyph := b.resolver.Resolve(c.Rune, style)
		dst = append(dst, GlyphSpec{
			Atlas: atlas,
			Glyph: glyph,
			Rune:  c.Rune,
			X:     xp,
			Y:     yp,
			Dirty: dirty,
		})
		xp += advance
	}
	return dst
}
