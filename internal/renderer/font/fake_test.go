package font

import (
	"golang.org/x/image/font/sfnt"

	"github.com/dshills/glyphterm/internal/renderer/core"
)

// fakeTypeface covers exactly the characters it was built with.
type fakeTypeface struct {
	family     string
	style      core.FontStyle
	glyphs     map[rune]GlyphIndex
	unscalable bool
}

func newFakeTypeface(family string, style core.FontStyle, chars string) *fakeTypeface {
	f := &fakeTypeface{family: family, style: style, glyphs: make(map[rune]GlyphIndex)}
	for _, r := range chars {
		f.glyphs[r] = GlyphIndex(len(f.glyphs) + 1)
	}
	return f
}

func (f *fakeTypeface) Family() string        { return f.family }
func (f *fakeTypeface) Style() core.FontStyle { return f.style }
func (f *fakeTypeface) Scalable() bool        { return !f.unscalable }

func (f *fakeTypeface) GlyphIndex(r rune) GlyphIndex {
	return f.glyphs[r]
}

func (f *fakeTypeface) Metrics(size float64) Metrics {
	return Metrics{Ascent: size * 0.8, Descent: size * 0.2}
}

func (f *fakeTypeface) Advance(g GlyphIndex, size float64) float64 {
	return size * 0.6
}

func (f *fakeTypeface) Outline(g GlyphIndex, size float64) (sfnt.Segments, error) {
	return nil, nil
}

// countingCatalog records how often each query runs.
type countingCatalog struct {
	*Collection
	lookups int
	sorts   int
}

func newCountingCatalog(faces ...Typeface) *countingCatalog {
	return &countingCatalog{Collection: NewCollection(faces...)}
}

func (c *countingCatalog) Lookup(p Pattern) (Typeface, error) {
	c.lookups++
	return c.Collection.Lookup(p)
}

func (c *countingCatalog) Sort(p Pattern) ([]Typeface, error) {
	c.sorts++
	return c.Collection.Sort(p)
}

const ascii = " !\"#$%&'()*+,-./0123456789:;<=>?@ABCDEFGHIJKLMNOPQRSTUVWXYZ[\\]^_`abcdefghijklmnopqrstuvwxyz{|}~"

// monoFamily returns four faces covering ASCII, with the bold-italic face
// missing the letter 'i'.
func monoFamily() []Typeface {
	boldItalic := ""
	for _, r := range ascii {
		if r != 'i' {
			boldItalic += string(r)
		}
	}
	return []Typeface{
		newFakeTypeface("Mono", core.StyleRegular, ascii),
		newFakeTypeface("Mono", core.StyleBold, ascii),
		newFakeTypeface("Mono", core.StyleItalic, ascii),
		newFakeTypeface("Mono", core.StyleBoldItalic, boldItalic),
	}
}
