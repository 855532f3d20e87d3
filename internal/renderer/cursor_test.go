package renderer

import (
	"testing"

	"github.com/dshills/glyphterm/internal/renderer/backend"
	"github.com/dshills/glyphterm/internal/renderer/core"
)

// cursorCalls draws a blank screen and returns the calls made after the
// rows, starting with the repaint of the previous cursor cell.
func cursorCalls(t *testing.T, f *fixture) []backend.Call {
	t.Helper()
	if err := f.r.Draw(); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	calls := f.out.Calls()
	return calls[2*f.screen.rows : len(calls)-1]
}

func TestCursorShapes(t *testing.T) {
	cursor := pal[core.ColorCursor]

	tests := []struct {
		name  string
		shape CursorShape
		want  []core.Rect
	}{
		{"block", CursorSteadyBlock, []core.Rect{{X: 38, Y: 22, W: 12, H: 20}}},
		{"blinking block", CursorBlinkingBlock, []core.Rect{{X: 38, Y: 22, W: 12, H: 20}}},
		{"underline", CursorSteadyUnderline, []core.Rect{{X: 38, Y: 40, W: 12, H: 2}}},
		{"bar", CursorBlinkingBar, []core.Rect{{X: 38, Y: 22, W: 2, H: 20}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 10, 4)
			f.screen.cx, f.screen.cy = 3, 1
			f.screen.shape = int(tt.shape)

			calls := cursorCalls(t, f)
			// The old cell at (0,0) is repainted first.
			if calls[0].Rect != (core.Rect{X: 2, Y: 2, W: 12, H: 20}) {
				t.Errorf("repaint rect = %+v, want cell (0,0)", calls[0].Rect)
			}
			var got []core.Rect
			for _, c := range calls[2:] {
				if c.Op == backend.OpRect && c.Color == cursor {
					got = append(got, c.Rect)
				}
			}
			if len(got) != len(tt.want) {
				t.Fatalf("cursor rects = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("rect[%d] = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestCursorBlockGlyph(t *testing.T) {
	f := newFixture(t, 10, 4)
	f.screen.write(3, 1, "k", core.AttrBold|core.AttrBlink, core.IndexColor(2))
	f.screen.cx, f.screen.cy = 3, 1

	if err := f.r.Draw(); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	glyphs := f.out.CallsOf(backend.OpGlyphs)
	last := glyphs[len(glyphs)-1]
	if last.Color != pal[core.ColorDefaultBG] {
		t.Errorf("cursor glyph color = %v, want default background", last.Color)
	}
	if len(last.Specs) != 1 || last.Specs[0].Rune != 'k' {
		t.Fatalf("cursor glyph specs = %+v, want 'k'", last.Specs)
	}
	bold := f.fonts.Face(core.StyleBold).Atlas
	if last.Specs[0].Atlas != bold {
		t.Error("cursor glyph should keep the bold style")
	}
}

func TestCursorUnfocused(t *testing.T) {
	f := newFixture(t, 10, 4)
	f.screen.cx, f.screen.cy = 3, 1
	f.r.SetFocused(false)

	calls := cursorCalls(t, f)[2:]
	want := []core.Rect{
		{X: 38, Y: 22, W: 11, H: 1},
		{X: 38, Y: 22, W: 1, H: 19},
		{X: 49, Y: 22, W: 1, H: 19},
		{X: 38, Y: 41, W: 12, H: 1},
	}
	if len(calls) != len(want) {
		t.Fatalf("got %d calls, want %d", len(calls), len(want))
	}
	for i, c := range calls {
		if c.Op != backend.OpRect || c.Rect != want[i] || c.Color != pal[core.ColorCursor] {
			t.Errorf("calls[%d] = %v %+v, want rect %+v", i, c.Op, c.Rect, want[i])
		}
	}
}

func TestCursorHidden(t *testing.T) {
	f := newFixture(t, 10, 4)
	f.screen.cx, f.screen.cy = 3, 1
	f.screen.hidden = true

	calls := cursorCalls(t, f)
	if len(calls) != 2 {
		t.Errorf("hidden cursor made %d calls, want only the repaint", len(calls))
	}

	// The old position does not move while hidden.
	f.out.Reset()
	calls = cursorCalls(t, f)
	if calls[0].Rect.X != 2 || calls[0].Rect.Y != 2 {
		t.Errorf("repaint at (%d,%d), want the original cell", calls[0].Rect.X, calls[0].Rect.Y)
	}
}

func TestCursorRepaintsOldCell(t *testing.T) {
	f := newFixture(t, 10, 4)
	f.screen.cx, f.screen.cy = 3, 1
	cursorCalls(t, f)

	f.out.Reset()
	f.screen.cx, f.screen.cy = 5, 2
	calls := cursorCalls(t, f)
	if calls[0].Rect != (core.Rect{X: 38, Y: 22, W: 12, H: 20}) {
		t.Errorf("repaint rect = %+v, want cell (3,1)", calls[0].Rect)
	}
	if calls[0].Color != pal[core.ColorDefaultBG] {
		t.Errorf("repaint color = %v, want default background", calls[0].Color)
	}
}

func TestCursorOnWidePlaceholder(t *testing.T) {
	f := newFixture(t, 10, 4)
	f.screen.set(2, 1, core.Cell{Rune: '中', Attr: core.AttrWide, FG: core.ColorDefaultFG, BG: core.ColorDefaultBG})
	f.screen.set(3, 1, core.Cell{Attr: core.AttrWDummy, FG: core.ColorDefaultFG, BG: core.ColorDefaultBG})
	f.screen.cx, f.screen.cy = 3, 1

	if err := f.r.Draw(); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	want := core.Rect{X: 26, Y: 22, W: 24, H: 20}
	if !hasRect(f.out, pal[core.ColorCursor], want) {
		t.Errorf("no double-width cursor block at %+v", want)
	}
}

func TestCursorSnowman(t *testing.T) {
	f := newFixture(t, 10, 4)
	f.screen.shape = int(CursorSnowman)

	if err := f.r.Draw(); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	glyphs := f.out.CallsOf(backend.OpGlyphs)
	last := glyphs[len(glyphs)-1]
	if len(last.Specs) != 1 || last.Specs[0].Rune != '☃' {
		t.Errorf("cursor glyph = %+v, want a snowman", last.Specs)
	}
}

func TestCursorSelected(t *testing.T) {
	f := newFixture(t, 10, 4)
	f.screen.cx, f.screen.cy = 3, 1
	f.screen.selected = map[[2]int]bool{{3, 1}: true}

	if err := f.r.Draw(); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	want := core.Rect{X: 38, Y: 22, W: 12, H: 20}
	if !hasRect(f.out, pal[core.ColorReverseCursor], want) {
		t.Error("selected cell should draw the reverse cursor color")
	}
}

func TestCursorShapeString(t *testing.T) {
	tests := []struct {
		s    CursorShape
		want string
	}{
		{CursorBlinkingBlockDefault, "block"},
		{CursorBlinkingUnderline, "underline"},
		{CursorSteadyBar, "bar"},
		{CursorSnowman, "snowman"},
		{CursorShape(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", int(tt.s), got, tt.want)
		}
	}
}
