package renderer

import (
	"testing"

	"golang.org/x/image/font/sfnt"

	"github.com/dshills/glyphterm/internal/renderer/backend"
	"github.com/dshills/glyphterm/internal/renderer/core"
	"github.com/dshills/glyphterm/internal/renderer/font"
)

// fakeScreen keeps cells and dirty state the way the terminal does.
type fakeScreen struct {
	cols, rows  int
	cells       [][]core.Cell
	bits        [][]bool
	rowCount    []int
	frameCount  int
	cx, cy      int
	hidden      bool
	shape       int
	reverse     bool
	blinkHidden bool
	selected    map[[2]int]bool
}

func newFakeScreen(cols, rows int) *fakeScreen {
	s := &fakeScreen{cols: cols, rows: rows, shape: int(CursorSteadyBlock), rowCount: make([]int, rows)}
	s.cells = make([][]core.Cell, rows)
	s.bits = make([][]bool, rows)
	for y := range s.cells {
		s.cells[y] = make([]core.Cell, cols)
		s.bits[y] = make([]bool, cols)
		for x := range s.cells[y] {
			s.cells[y][x] = core.BlankCell()
		}
	}
	return s
}

func (s *fakeScreen) set(x, y int, c core.Cell) {
	s.cells[y][x] = c
	if !s.bits[y][x] {
		s.bits[y][x] = true
		s.rowCount[y]++
		s.frameCount++
	}
}

func (s *fakeScreen) write(x, y int, text string, attr core.Attribute, fg core.ColorID) {
	for _, r := range text {
		s.set(x, y, core.Cell{Rune: r, Attr: attr, FG: fg, BG: core.ColorDefaultBG})
		x++
	}
}

func (s *fakeScreen) markAll() {
	for y := 0; y < s.rows; y++ {
		for x := 0; x < s.cols; x++ {
			s.set(x, y, s.cells[y][x])
		}
	}
}

func (s *fakeScreen) Rows() int               { return s.rows }
func (s *fakeScreen) Cols() int               { return s.cols }
func (s *fakeScreen) RowDirtyCount(y int) int { return s.rowCount[y] }
func (s *fakeScreen) ResetRowDirty(y int)     { s.rowCount[y] = 0 }
func (s *fakeScreen) ResetFrameDirty()        { s.frameCount = 0 }
func (s *fakeScreen) Row(y int) []core.Cell   { return s.cells[y] }
func (s *fakeScreen) Cursor() (int, int)      { return s.cx, s.cy }
func (s *fakeScreen) CursorHidden() bool      { return s.hidden }
func (s *fakeScreen) CursorShape() int        { return s.shape }
func (s *fakeScreen) ReverseVideo() bool      { return s.reverse }
func (s *fakeScreen) BlinkHidden() bool       { return s.blinkHidden }
func (s *fakeScreen) SelectionActive() bool   { return len(s.selected) > 0 }
func (s *fakeScreen) Selected(x, y int) bool  { return s.selected[[2]int{x, y}] }

func (s *fakeScreen) TakeCellDirty(y, x int) bool {
	d := s.bits[y][x]
	s.bits[y][x] = false
	return d
}

// fakeTypeface covers exactly the characters it was built with.
type fakeTypeface struct {
	family string
	style  core.FontStyle
	glyphs map[rune]font.GlyphIndex
}

func newFakeTypeface(family string, style core.FontStyle, chars string) *fakeTypeface {
	f := &fakeTypeface{family: family, style: style, glyphs: make(map[rune]font.GlyphIndex)}
	for _, r := range chars {
		f.glyphs[r] = font.GlyphIndex(len(f.glyphs) + 1)
	}
	return f
}

func (f *fakeTypeface) Family() string                    { return f.family }
func (f *fakeTypeface) Style() core.FontStyle             { return f.style }
func (f *fakeTypeface) Scalable() bool                    { return true }
func (f *fakeTypeface) GlyphIndex(r rune) font.GlyphIndex { return f.glyphs[r] }

func (f *fakeTypeface) Metrics(size float64) font.Metrics {
	return font.Metrics{Ascent: size * 0.8, Descent: size * 0.2}
}

func (f *fakeTypeface) Advance(font.GlyphIndex, float64) float64 { return 12 }

func (f *fakeTypeface) Outline(font.GlyphIndex, float64) (sfnt.Segments, error) {
	return nil, nil
}

const printable = " !\"#$%&'()*+,-./0123456789:;<=>?@ABCDEFGHIJKLMNOPQRSTUVWXYZ[\\]^_`abcdefghijklmnopqrstuvwxyz{|}~☃"

func without(s string, drop rune) string {
	var out []rune
	for _, r := range s {
		if r != drop {
			out = append(out, r)
		}
	}
	return string(out)
}

// monoFonts returns a loaded resolver over four Mono faces whose
// bold-italic face lacks 'i'. Cells are 12x20 with an ascent of 16.
func monoFonts(t *testing.T, faces ...font.Typeface) *font.Resolver {
	t.Helper()
	if len(faces) == 0 {
		faces = []font.Typeface{
			newFakeTypeface("Mono", core.StyleRegular, printable),
			newFakeTypeface("Mono", core.StyleBold, printable),
			newFakeTypeface("Mono", core.StyleItalic, printable),
			newFakeTypeface("Mono", core.StyleBoldItalic, without(printable, 'i')),
		}
	}
	r := font.NewResolver(font.NewCollection(faces...), font.DefaultConfig())
	if err := r.Load(font.Pattern{Family: "Mono", Size: 20}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return r
}

type fixture struct {
	screen *fakeScreen
	fonts  *font.Resolver
	out    *backend.Recorder
	r      *Renderer
}

func newFixture(t *testing.T, cols, rows int) *fixture {
	t.Helper()
	screen := newFakeScreen(cols, rows)
	fonts := monoFonts(t)
	out := backend.NewRecorder(0, 0)
	r, err := New(screen, fonts, out, DefaultOptions())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out.Reset()
	return &fixture{screen: screen, fonts: fonts, out: out, r: r}
}
