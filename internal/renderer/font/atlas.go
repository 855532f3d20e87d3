package font

import (
	"image"
	"image/draw"
	"math"

	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// Atlas is a typeface bound to one pixel size together with the glyph
// masks rasterized from it so far.
type Atlas struct {
	id        uint32
	face      Typeface
	size      float64
	masks     map[GlyphIndex]*Mask
	destroyed bool
}

// Mask is a rasterized glyph coverage image.
type Mask struct {
	// Image is nil for glyphs without ink (space).
	Image *image.Alpha

	// Offset positions Image relative to the pen on the baseline.
	Offset image.Point
}

func newAtlas(id uint32, face Typeface, size float64) *Atlas {
	return &Atlas{
		id:    id,
		face:  face,
		size:  size,
		masks: make(map[GlyphIndex]*Mask),
	}
}

// ID returns the atlas handle. A nil atlas has ID 0.
func (a *Atlas) ID() uint32 {
	if a == nil {
		return 0
	}
	return a.id
}

// Typeface returns the underlying typeface.
func (a *Atlas) Typeface() Typeface {
	if a == nil {
		return nil
	}
	return a.face
}

// Size returns the pixel size.
func (a *Atlas) Size() float64 {
	if a == nil {
		return 0
	}
	return a.size
}

// Glyph returns the glyph for r, or NotdefGlyph. Safe on a nil atlas.
func (a *Atlas) Glyph(r rune) GlyphIndex {
	if a == nil || a.face == nil {
		return NotdefGlyph
	}
	return a.face.GlyphIndex(r)
}

// Destroyed reports whether Destroy has been called.
func (a *Atlas) Destroyed() bool {
	return a != nil && a.destroyed
}

// Destroy releases the rasterized masks. Safe on a nil atlas.
func (a *Atlas) Destroy() {
	if a == nil {
		return
	}
	a.masks = nil
	a.destroyed = true
}

// Mask returns the coverage mask for g, rasterizing it on first use.
// A destroyed atlas still rasterizes but no longer caches.
func (a *Atlas) Mask(g GlyphIndex) (*Mask, error) {
	if m, ok := a.masks[g]; ok {
		return m, nil
	}

	segs, err := a.face.Outline(g, a.size)
	if err != nil {
		return nil, err
	}
	m := rasterize(segs)

	if a.masks != nil {
		a.masks[g] = m
	}
	return m, nil
}

// MaskCount returns the number of cached masks.
func (a *Atlas) MaskCount() int {
	return len(a.masks)
}

func rasterize(segs sfnt.Segments) *Mask {
	if len(segs) == 0 {
		return &Mask{}
	}

	minX, minY := float32(math.MaxFloat32), float32(math.MaxFloat32)
	maxX, maxY := float32(-math.MaxFloat32), float32(-math.MaxFloat32)
	for _, s := range segs {
		for _, p := range s.Args[:argCount(s.Op)] {
			x, y := fx(p.X), fx(p.Y)
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)
		}
	}

	bounds := image.Rect(
		int(math.Floor(float64(minX))), int(math.Floor(float64(minY))),
		int(math.Ceil(float64(maxX))), int(math.Ceil(float64(maxY))),
	)
	if bounds.Empty() {
		return &Mask{}
	}

	ox, oy := float32(bounds.Min.X), float32(bounds.Min.Y)
	r := vector.NewRasterizer(bounds.Dx(), bounds.Dy())
	r.DrawOp = draw.Src
	for _, s := range segs {
		a := s.Args
		switch s.Op {
		case sfnt.SegmentOpMoveTo:
			r.MoveTo(fx(a[0].X)-ox, fx(a[0].Y)-oy)
		case sfnt.SegmentOpLineTo:
			r.LineTo(fx(a[0].X)-ox, fx(a[0].Y)-oy)
		case sfnt.SegmentOpQuadTo:
			r.QuadTo(
				fx(a[0].X)-ox, fx(a[0].Y)-oy,
				fx(a[1].X)-ox, fx(a[1].Y)-oy,
			)
		case sfnt.SegmentOpCubeTo:
			r.CubeTo(
				fx(a[0].X)-ox, fx(a[0].Y)-oy,
				fx(a[1].X)-ox, fx(a[1].Y)-oy,
				fx(a[2].X)-ox, fx(a[2].Y)-oy,
			)
		}
	}

	dst := image.NewAlpha(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	r.Draw(dst, dst.Bounds(), image.Opaque, image.Point{})
	return &Mask{Image: dst, Offset: bounds.Min}
}

func argCount(op sfnt.SegmentOp) int {
	switch op {
	case sfnt.SegmentOpQuadTo:
		return 2
	case sfnt.SegmentOpCubeTo:
		return 3
	default:
		return 1
	}
}

func fx(v fixed.Int26_6) float32 {
	return float32(v) / 64
}
