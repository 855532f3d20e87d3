package font

import (
	"math"

	"github.com/dshills/glyphterm/internal/renderer/core"
)

// Face is one of the four primary faces with its derived cell metrics.
type Face struct {
	// Style is the style this face serves.
	Style core.FontStyle

	// Atlas is the face's glyph source.
	Atlas *Atlas

	// Ascent, Descent and Height are in whole pixels.
	Ascent  int
	Descent int
	Height  int

	// Width is the advance of the reference glyph in whole pixels.
	Width int

	// BadSlant is set when italic was requested but the matched typeface
	// is upright; BadWeight likewise for bold.
	BadSlant  bool
	BadWeight bool

	pattern    Pattern
	candidates []Typeface
	sorted     bool
}

// Pattern returns the pattern the face was loaded from.
func (f *Face) Pattern() Pattern {
	return f.pattern
}

// Candidates returns the memoized fallback list, or nil before the first
// fallback search.
func (f *Face) Candidates() []Typeface {
	return f.candidates
}

func newFace(atlas *Atlas, p Pattern, reference rune) *Face {
	tf := atlas.Typeface()
	m := tf.Metrics(p.Size)
	adv := tf.Advance(tf.GlyphIndex(reference), p.Size)

	got := tf.Style()
	f := &Face{
		Style:     p.Style,
		Atlas:     atlas,
		Ascent:    int(math.Ceil(m.Ascent)),
		Descent:   int(math.Ceil(m.Descent)),
		Width:     int(math.Ceil(adv)),
		BadSlant:  p.Style.Italic() && !got.Italic(),
		BadWeight: p.Style.Bold() && !got.Bold(),
		pattern:   p,
	}
	f.Height = f.Ascent + f.Descent
	return f
}
