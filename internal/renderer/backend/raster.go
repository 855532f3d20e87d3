package backend

import (
	"fmt"
	"image"
	"image/draw"
	"sync"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/dshills/glyphterm/internal/renderer/batch"
	"github.com/dshills/glyphterm/internal/renderer/core"
	"github.com/dshills/glyphterm/internal/renderer/font"
)

// Raster implements Renderer by drawing into an RGBA image. Glyph
// coverage is blended in linear light.
type Raster struct {
	mu      sync.Mutex
	img     *image.RGBA
	clear   core.Color
	stats   RasterStats
	present func(img *image.RGBA) error
}

// RasterStats counts raster work.
type RasterStats struct {
	Frames  uint64
	Rects   uint64
	Glyphs  uint64
	Dirty   uint64
	Missing uint64
}

// NewRaster creates a raster renderer. Init must be called before drawing.
func NewRaster() *Raster {
	return &Raster{}
}

// OnPresent registers a function that receives each finished frame.
func (r *Raster) OnPresent(fn func(img *image.RGBA) error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.present = fn
}

func (r *Raster) Init(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.img = image.NewRGBA(image.Rect(0, 0, width, height))
	r.fill(r.img.Rect, r.clear)
	return nil
}

func (r *Raster) SetClearColor(c core.Color) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clear = c
}

func (r *Raster) DrawRect(c core.Color, rect core.Rect) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.img == nil || rect.IsEmpty() {
		return
	}
	r.stats.Rects++
	r.fill(image.Rect(rect.X, rect.Y, rect.X+rect.W, rect.Y+rect.H), c)
}

func (r *Raster) DrawGlyphs(specs []batch.GlyphSpec, c core.Color) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.img == nil {
		return
	}
	for _, s := range specs {
		r.stats.Glyphs++
		if s.Dirty {
			r.stats.Dirty++
		}
		if s.Glyph == font.NotdefGlyph {
			r.stats.Missing++
		}
		if s.Atlas == nil {
			continue
		}
		m, err := s.Atlas.Mask(s.Glyph)
		if err != nil || m.Image == nil {
			continue
		}
		blendMask(r.img, m.Image, image.Pt(s.X+m.Offset.X, s.Y+m.Offset.Y), c)
	}
}

func (r *Raster) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.img = image.NewRGBA(image.Rect(0, 0, width, height))
	r.fill(r.img.Rect, r.clear)
}

func (r *Raster) Present() error {
	r.mu.Lock()
	r.stats.Frames++
	fn, img := r.present, r.img
	r.mu.Unlock()

	if fn == nil || img == nil {
		return nil
	}
	return fn(img)
}

// Image returns a copy of the current frame, or nil before Init.
func (r *Raster) Image() *image.RGBA {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.img == nil {
		return nil
	}
	out := image.NewRGBA(r.img.Rect)
	copy(out.Pix, r.img.Pix)
	return out
}

// Stats returns the work counters.
func (r *Raster) Stats() RasterStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

func (r *Raster) fill(rect image.Rectangle, c core.Color) {
	draw.Draw(r.img, rect, image.NewUniform(c.RGBA()), image.Point{}, draw.Src)
}

// blendMask composites c through mask onto dst with the mask's origin at
// at.
func blendMask(dst *image.RGBA, mask *image.Alpha, at image.Point, c core.Color) {
	fr, fg, fb := c.Linear()
	b := mask.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			a := mask.AlphaAt(x, y).A
			if a == 0 {
				continue
			}
			p := image.Pt(at.X+x, at.Y+y)
			if !p.In(dst.Rect) {
				continue
			}
			i := dst.PixOffset(p.X, p.Y)
			if a == 0xff {
				dst.Pix[i], dst.Pix[i+1], dst.Pix[i+2], dst.Pix[i+3] = c.R, c.G, c.B, 0xff
				continue
			}

			cov := float64(a) / 0xff
			under := colorful.Color{
				R: float64(dst.Pix[i]) / 0xff,
				G: float64(dst.Pix[i+1]) / 0xff,
				B: float64(dst.Pix[i+2]) / 0xff,
			}
			dr, dg, db := under.LinearRgb()
			out := colorful.LinearRgb(
				dr+(fr-dr)*cov,
				dg+(fg-dg)*cov,
				db+(fb-db)*cov,
			).Clamped()
			dst.Pix[i], dst.Pix[i+1], dst.Pix[i+2] = out.RGB255()
			dst.Pix[i+3] = 0xff
		}
	}
}
