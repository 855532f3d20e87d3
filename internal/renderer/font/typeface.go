package font

import (
	"fmt"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/dshills/glyphterm/internal/renderer/core"
)

// GlyphIndex is a font-internal glyph identifier.
type GlyphIndex = sfnt.GlyphIndex

// NotdefGlyph is the glyph every font draws for characters it lacks.
const NotdefGlyph GlyphIndex = 0

// Metrics holds vertical font metrics in pixels.
type Metrics struct {
	Ascent  float64
	Descent float64
}

// Typeface is a parsed font file at no particular size.
type Typeface interface {
	// Family returns the family name.
	Family() string

	// Style returns the style the typeface actually provides.
	Style() core.FontStyle

	// Scalable reports whether the typeface has outlines.
	Scalable() bool

	// GlyphIndex returns the glyph for r, or NotdefGlyph.
	GlyphIndex(r rune) GlyphIndex

	// Metrics returns vertical metrics at the given pixel size.
	Metrics(size float64) Metrics

	// Advance returns the horizontal advance of g at the given pixel size.
	Advance(g GlyphIndex, size float64) float64

	// Outline returns the vector outline of g with y pointing down and the
	// origin on the baseline.
	Outline(g GlyphIndex, size float64) (sfnt.Segments, error)
}

// SFNT is a TrueType/OpenType typeface.
type SFNT struct {
	font   *sfnt.Font
	buf    sfnt.Buffer
	family string
	style  core.FontStyle
	path   string
}

// ParseSFNT parses a single-font TTF or OTF file. Family and style are read
// from the name table.
func ParseSFNT(data []byte) (*SFNT, error) {
	f, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}
	return newSFNT(f, "")
}

// ParseSFNTWithStyle parses data and overrides the name-table family and
// style. Used for fonts whose names are known up front.
func ParseSFNTWithStyle(data []byte, family string, style core.FontStyle) (*SFNT, error) {
	f, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing font %s: %w", family, err)
	}
	return &SFNT{font: f, family: family, style: style}, nil
}

func newSFNT(f *sfnt.Font, path string) (*SFNT, error) {
	t := &SFNT{font: f, path: path}

	family, err := f.Name(&t.buf, sfnt.NameIDTypographicFamily)
	if err != nil || family == "" {
		family, err = f.Name(&t.buf, sfnt.NameIDFamily)
		if err != nil {
			return nil, fmt.Errorf("reading family name: %w", err)
		}
	}
	t.family = family

	sub, err := f.Name(&t.buf, sfnt.NameIDTypographicSubfamily)
	if err != nil || sub == "" {
		sub, _ = f.Name(&t.buf, sfnt.NameIDSubfamily)
	}
	t.style = styleFromNames(family, sub)

	return t, nil
}

// styleFromNames guesses the style from family and subfamily names.
func styleFromNames(family, subfamily string) core.FontStyle {
	names := strings.ToLower(family + " " + subfamily)
	var s core.FontStyle
	for _, w := range []string{"bold", "black", "heavy", "semibold", "extrabold"} {
		if strings.Contains(names, w) {
			s |= core.StyleBold
			break
		}
	}
	if strings.Contains(names, "italic") || strings.Contains(names, "oblique") {
		s |= core.StyleItalic
	}
	return s
}

// Family returns the family name.
func (t *SFNT) Family() string { return t.family }

// Style returns the style the typeface provides.
func (t *SFNT) Style() core.FontStyle { return t.style }

// Path returns the file the typeface was read from, if any.
func (t *SFNT) Path() string { return t.path }

// Scalable is always true for sfnt outlines.
func (t *SFNT) Scalable() bool { return true }

// GlyphIndex returns the glyph for r, or NotdefGlyph.
func (t *SFNT) GlyphIndex(r rune) GlyphIndex {
	g, err := t.font.GlyphIndex(&t.buf, r)
	if err != nil {
		return NotdefGlyph
	}
	return g
}

// Metrics returns vertical metrics at the given pixel size.
func (t *SFNT) Metrics(size float64) Metrics {
	m, err := t.font.Metrics(&t.buf, ppem(size), font.HintingFull)
	if err != nil {
		return Metrics{}
	}
	return Metrics{
		Ascent:  fromFixed(m.Ascent),
		Descent: fromFixed(m.Descent),
	}
}

// Advance returns the horizontal advance of g.
func (t *SFNT) Advance(g GlyphIndex, size float64) float64 {
	adv, err := t.font.GlyphAdvance(&t.buf, g, ppem(size), font.HintingFull)
	if err != nil {
		return 0
	}
	return fromFixed(adv)
}

// Outline returns a copy of the glyph's segments.
func (t *SFNT) Outline(g GlyphIndex, size float64) (sfnt.Segments, error) {
	segs, err := t.font.LoadGlyph(&t.buf, g, ppem(size), nil)
	if err != nil {
		return nil, fmt.Errorf("loading glyph %d: %w", g, err)
	}
	// segs aliases t.buf.
	out := make(sfnt.Segments, len(segs))
	copy(out, segs)
	return out, nil
}

func ppem(size float64) fixed.Int26_6 {
	return fixed.Int26_6(size*64 + 0.5)
}

func fromFixed(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
