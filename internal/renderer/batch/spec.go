// Package batch turns rows of terminal cells into positioned glyph draws
// and groups them into attribute runs.
//
// Layout is fixed-pitch: the pen moves one cell width per cell and two at
// a wide glyph, whatever the glyph's own advance. The continuation column
// of a wide glyph produces nothing.
package batch

import "github.com/dshills/glyphterm/internal/renderer/font"

// GlyphSpec is one positioned glyph.
type GlyphSpec struct {
	// Atlas and Glyph identify what to draw. Glyph is font.NotdefGlyph for
	// characters no installed font covers.
	Atlas *font.Atlas
	Glyph font.GlyphIndex

	// Rune is the source character, kept for cell-based backends.
	Rune rune

	// X is the pen position and Y the baseline, in pixels.
	X, Y int

	// Dirty marks a cell of a minor row that changed since the last frame.
	Dirty bool
}

// Metrics is the pixel geometry of the grid.
type Metrics struct {
	CellWidth  int
	CellHeight int
	Border     int
}

// CellOrigin returns the top-left pixel of cell (col, row).
func (m Metrics) CellOrigin(col, row int) (x, y int) {
	return m.Border + col*m.CellWidth, m.Border + row*m.CellHeight
}

// CellAt returns the cell containing pixel (x, y). Pixels in the border
// clamp to the nearest cell.
func (m Metrics) CellAt(x, y int) (col, row int) {
	if m.CellWidth <= 0 || m.CellHeight <= 0 {
		return 0, 0
	}
	col = max(x-m.Border, 0) / m.CellWidth
	row = max(y-m.Border, 0) / m.CellHeight
	return col, row
}

// GridSize returns how many whole cells fit in a width x height window.
func (m Metrics) GridSize(width, height int) (cols, rows int) {
	if m.CellWidth <= 0 || m.CellHeight <= 0 {
		return 0, 0
	}
	cols = max((width-2*m.Border)/m.CellWidth, 1)
	rows = max((height-2*m.Border)/m.CellHeight, 1)
	return cols, rows
}
