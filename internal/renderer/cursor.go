package renderer

import "github.com/dshills/glyphterm/internal/renderer/core"

// CursorShape is a DECSCUSR cursor style.
type CursorShape int

const (
	CursorBlinkingBlock CursorShape = iota
	CursorBlinkingBlockDefault
	CursorSteadyBlock
	CursorBlinkingUnderline
	CursorSteadyUnderline
	CursorBlinkingBar
	CursorSteadyBar
	CursorSnowman
)

// String returns the name of the shape.
func (s CursorShape) String() string {
	switch s {
	case CursorBlinkingBlock, CursorBlinkingBlockDefault, CursorSteadyBlock:
		return "block"
	case CursorBlinkingUnderline, CursorSteadyUnderline:
		return "underline"
	case CursorBlinkingBar, CursorSteadyBar:
		return "bar"
	case CursorSnowman:
		return "snowman"
	default:
		return "unknown"
	}
}

const cursorKeep = core.AttrBold | core.AttrItalic | core.AttrUnderline | core.AttrStruck

// drawCursor repaints the cell the cursor last occupied and draws the
// cursor at its current position.
func (r *Renderer) drawCursor() {
	cols, rows := r.screen.Cols(), r.screen.Rows()
	if cols <= 0 || rows <= 0 {
		return
	}
	sel := r.screen.SelectionActive()

	ox, oy := clamp(r.oldX, 0, cols-1), clamp(r.oldY, 0, rows-1)
	cx, cy := r.screen.Cursor()
	cx, cy = clamp(cx, 0, cols-1), clamp(cy, 0, rows-1)

	// A cursor on the right half of a wide glyph sits on its left half.
	if r.screen.Row(oy)[ox].IsPlaceholder() && ox > 0 {
		ox--
	}
	if r.screen.Row(cy)[cx].IsPlaceholder() && cx > 0 {
		cx--
	}

	old := r.screen.Row(oy)[ox]
	if sel && r.screen.Selected(ox, oy) {
		old.Attr ^= core.AttrReverse
	}
	r.drawCell(old, ox, oy)

	under := r.screen.Row(cy)[cx]
	g := core.Cell{
		Rune: under.Rune,
		Attr: under.Attr & cursorKeep,
		FG:   core.ColorDefaultBG,
		BG:   core.ColorCursor,
	}

	pal := &r.opts.Palette
	selected := sel && r.screen.Selected(cx, cy)
	var drawcol core.Color
	if r.screen.ReverseVideo() {
		g.Attr |= core.AttrReverse
		g.BG = core.ColorDefaultFG
		if selected {
			drawcol = pal.Resolve(core.ColorCursor)
			g.FG = core.ColorReverseCursor
		} else {
			drawcol = pal.Resolve(core.ColorReverseCursor)
			g.FG = core.ColorCursor
		}
	} else if selected {
		drawcol = pal.Resolve(core.ColorReverseCursor)
		g.FG = core.ColorDefaultFG
		g.BG = core.ColorReverseCursor
	} else {
		drawcol = pal.Resolve(core.ColorCursor)
	}

	if r.screen.CursorHidden() {
		return
	}

	m := r.builder.Metrics()
	x0, y0 := m.CellOrigin(cx, cy)
	cw, ch := m.CellWidth, m.CellHeight
	thick := r.opts.CursorThickness

	if r.focused {
		switch CursorShape(r.screen.CursorShape()) {
		case CursorSnowman:
			g.Rune = '☃'
			fallthrough
		case CursorBlinkingBlock, CursorBlinkingBlockDefault, CursorSteadyBlock:
			g.Attr |= under.Attr & core.AttrWide
			r.drawCell(g, cx, cy)
		case CursorBlinkingUnderline, CursorSteadyUnderline:
			r.out.DrawRect(drawcol, core.Rect{X: x0, Y: y0 + ch - thick, W: cw, H: thick})
		case CursorBlinkingBar, CursorSteadyBar:
			r.out.DrawRect(drawcol, core.Rect{X: x0, Y: y0, W: thick, H: ch})
		}
	} else {
		r.out.DrawRect(drawcol, core.Rect{X: x0, Y: y0, W: cw - 1, H: 1})
		r.out.DrawRect(drawcol, core.Rect{X: x0, Y: y0, W: 1, H: ch - 1})
		r.out.DrawRect(drawcol, core.Rect{X: x0 + cw - 1, Y: y0, W: 1, H: ch - 1})
		r.out.DrawRect(drawcol, core.Rect{X: x0, Y: y0 + ch - 1, W: cw, H: 1})
	}
	r.oldX, r.oldY = cx, cy
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
