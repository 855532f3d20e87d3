package batch

import "github.com/dshills/glyphterm/internal/renderer/core"

// Run is a span of consecutive cells that share one rendition and are
// drawn with one call.
type Run struct {
	// Col is the grid column of the first cell.
	Col int

	// Base is the first cell of the run with the selection applied. Its
	// attributes and colors stand for every cell in the run.
	Base core.Cell

	// Specs are the glyphs of the run, one per cell.
	Specs []GlyphSpec
}

// Cells returns the number of columns the run covers.
func (r Run) Cells() int {
	n := len(r.Specs)
	if r.Base.Attr.Has(core.AttrWide) {
		n *= 2
	}
	return n
}

// Group splits the specs of one row into runs and appends them to dst.
//
// cells and specs must come from the same Build call: each non-placeholder
// cell owns the next spec. Cells for which selected reports true have
// their reverse attribute toggled before comparison. selected may be nil.
func Group(dst []Run, cells []core.Cell, col int, specs []GlyphSpec, selected func(x int) bool) []Run {
	var (
		base  core.Cell
		start int
		ox    int
		i     int
	)

	for x := 0; x < len(cells) && i < len(specs); x++ {
		c := cells[x]
		if c.IsPlaceholder() {
			continue
		}
		if selected != nil && selected(col+x) {
			c.Attr ^= core.AttrReverse
		}
		if i > start && !base.SameRendition(c) {
			dst = append(dst, Run{Col: ox, Base: base, Specs: specs[start:i]})
			start = i
		}
		if i == start {
			ox = col + x
			base = c
		}
		i++
	}
	if i > start {
		dst = append(dst, Run{Col: ox, Base: base, Specs: specs[start:i]})
	}
	return dst
}
