package term

import (
	"strings"

	"github.com/dshills/glyphterm/internal/renderer/core"
)

// SelectionMode is the shape of a selection.
type SelectionMode uint8

const (
	// SelectRegular selects a stream of text from the anchor to the head.
	SelectRegular SelectionMode = iota
	// SelectRectangular selects the block between anchor and head.
	SelectRectangular
)

// Point is a cell position.
type Point struct {
	X, Y int
}

// selection tracks the anchor the user pressed at and the head being dragged.
type selection struct {
	mode   SelectionMode
	anchor Point
	head   Point
	on     bool
	alt    bool // made on the alternate screen
}

// normalize returns the selection corners in reading order.
func (sel selection) normalize() (begin, end Point) {
	a, h := sel.anchor, sel.head
	if sel.mode == SelectRectangular {
		return Point{min(a.X, h.X), min(a.Y, h.Y)}, Point{max(a.X, h.X), max(a.Y, h.Y)}
	}
	if a.Y > h.Y || (a.Y == h.Y && a.X > h.X) {
		a, h = h, a
	}
	return a, h
}

func (sel selection) contains(x, y int) bool {
	begin, end := sel.normalize()
	if y < begin.Y || y > end.Y {
		return false
	}
	if sel.mode == SelectRectangular {
		return x >= begin.X && x <= end.X
	}
	return (y != begin.Y || x >= begin.X) && (y != end.Y || x <= end.X)
}

func (sel selection) rows() (int, int) {
	begin, end := sel.normalize()
	return begin.Y, end.Y
}

// SelectStart begins a selection at (x, y). It shows once SelectExtend moves
// the head off the anchor.
func (s *Screen) SelectStart(x, y int, mode SelectionMode) {
	s.SelectClear()
	p := s.clampPoint(x, y)
	s.sel = selection{mode: mode, anchor: p, head: p, on: true, alt: s.mode&ModeAltScreen != 0}
}

// SelectExtend moves the selection head to (x, y).
func (s *Screen) SelectExtend(x, y int) {
	if !s.sel.on {
		return
	}
	y0, y1 := s.sel.rows()
	s.sel.head = s.clampPoint(x, y)
	n0, n1 := s.sel.rows()
	s.MarkRowsDirty(min(y0, n0), max(y1, n1))
}

// SelectClear drops the selection.
func (s *Screen) SelectClear() {
	if !s.sel.on {
		return
	}
	y0, y1 := s.sel.rows()
	s.sel = selection{}
	s.MarkRowsDirty(y0, y1)
}

// SelectionActive reports whether a non-empty selection applies to the
// screen being shown.
func (s *Screen) SelectionActive() bool {
	return s.sel.on && s.sel.anchor != s.sel.head && s.sel.alt == (s.mode&ModeAltScreen != 0)
}

// Selected reports whether cell (x, y) is selected.
func (s *Screen) Selected(x, y int) bool {
	return s.SelectionActive() && s.sel.contains(x, y)
}

// SelectionText returns the selected text. Lines are joined with newlines
// except where a line wrapped onto the next.
func (s *Screen) SelectionText() string {
	if !s.SelectionActive() {
		return ""
	}
	begin, end := s.sel.normalize()

	var b strings.Builder
	for y := begin.Y; y <= end.Y; y++ {
		x0, x1 := 0, s.cols-1
		if s.sel.mode == SelectRectangular {
			x0, x1 = begin.X, end.X
		} else {
			if y == begin.Y {
				x0 = begin.X
			}
			if y == end.Y {
				x1 = end.X
			}
		}
		line := s.lines[y]
		b.WriteString(lineText(line, x0, x1))

		wrapped := s.sel.mode == SelectRegular && line[s.cols-1].Attr.Has(core.AttrWrap)
		if y < end.Y && !wrapped {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (s *Screen) clampPoint(x, y int) Point {
	return Point{X: min(max(x, 0), s.cols-1), Y: min(max(y, 0), s.rows-1)}
}

// scrollSelection drops a selection touching rows moved by a scroll.
func (s *Screen) scrollSelection(y0, y1 int) {
	if !s.sel.on {
		return
	}
	r0, r1 := s.sel.rows()
	if r1 >= y0 && r0 <= y1 {
		s.SelectClear()
	}
}
