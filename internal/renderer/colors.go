package renderer

import (
	"github.com/dshills/glyphterm/internal/renderer/batch"
	"github.com/dshills/glyphterm/internal/renderer/core"
)

// runColors resolves the foreground and background of a run.
func (r *Renderer) runColors(base core.Cell) (fg, bg core.Color) {
	attr := base.Attr
	fgID, bgID := base.FG, base.BG

	// Show styles the font cannot render as a color instead.
	if r.styleUnsupported(attr) {
		fgID = r.opts.AttrFallback
	}

	// Bold brightens the eight base colors.
	if attr&core.AttrBoldFaint == core.AttrBold && fgID < 8 {
		fgID += 8
	}

	pal := &r.opts.Palette
	fg, bg = pal.Resolve(fgID), pal.Resolve(bgID)

	if r.screen.ReverseVideo() {
		if fgID == core.ColorDefaultFG {
			fg = pal.Resolve(core.ColorDefaultBG)
		} else {
			fg = fg.Invert()
		}
		if bgID == core.ColorDefaultBG {
			bg = pal.Resolve(core.ColorDefaultFG)
		} else {
			bg = bg.Invert()
		}
	}

	if attr.Has(core.AttrReverse) {
		fg, bg = bg, fg
	}
	if attr&core.AttrBoldFaint == core.AttrFaint {
		fg = fg.Halve()
	}
	if attr.Has(core.AttrBlink) && r.screen.BlinkHidden() {
		fg = bg
	}
	if attr.Has(core.AttrInvisible) {
		fg = bg
	}
	return fg, bg
}

func (r *Renderer) styleUnsupported(attr core.Attribute) bool {
	bold, italic := attr.Has(core.AttrBold), attr.Has(core.AttrItalic)
	switch {
	case bold && italic:
		f := r.fonts.Face(core.StyleBoldItalic)
		return f != nil && (f.BadSlant || f.BadWeight)
	case italic:
		f := r.fonts.Face(core.StyleItalic)
		return f != nil && f.BadSlant
	case bold:
		f := r.fonts.Face(core.StyleBold)
		return f != nil && f.BadWeight
	}
	return false
}

// drawRun paints the background of a run, its glyphs and decorations.
func (r *Renderer) drawRun(run batch.Run, y int) {
	m := r.builder.Metrics()
	winx, winy := m.CellOrigin(run.Col, y)
	width := run.Cells() * m.CellWidth
	fg, bg := r.runColors(run.Base)

	r.out.DrawRect(bg, core.Rect{X: winx, Y: winy, W: width, H: m.CellHeight})
	r.out.DrawGlyphs(run.Specs, fg)

	ascent := r.fonts.Ascent(core.StyleRegular)
	if run.Base.Attr.Has(core.AttrUnderline) {
		r.out.DrawRect(fg, core.Rect{X: winx, Y: winy + ascent + 1, W: width, H: 1})
	}
	if run.Base.Attr.Has(core.AttrStruck) {
		r.out.DrawRect(fg, core.Rect{X: winx, Y: winy + 2*ascent/3, W: width, H: 1})
	}
}
