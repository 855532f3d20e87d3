package term

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/dshills/glyphterm/internal/renderer/core"
)

// Mode is a set of terminal mode flags.
type Mode uint32

const (
	ModeWrap           Mode = 1 << iota // DECAWM
	ModeInsert                          // IRM
	ModeOrigin                          // DECOM
	ModeAltScreen                       // 47, 1047, 1049
	ModeReverse                         // DECSCNM
	ModeHideCursor                      // DECTCEM reset
	ModeAppCursor                       // DECCKM
	ModeAppKeypad                       // DECKPAM
	ModeBracketedPaste                  // 2004
	ModeMouseButton                     // 1000
	ModeMouseMotion                     // 1002
	ModeMouseSGR                        // 1006
	ModeFocus                           // 1004
)

// ModeMouse is set when any mouse reporting is enabled.
const ModeMouse = ModeMouseButton | ModeMouseMotion

// DefaultCursorShape is the DECSCUSR shape used after a reset: a steady block.
const DefaultCursorShape = 2

const tabWidth = 8

type cursor struct {
	x, y     int
	pen      core.Cell
	wrapNext bool
}

// Screen is the terminal cell grid.
//
// Each cell carries a dirty bit. Setting a bit that was clear bumps the
// row's counter and the frame counter, so a row counter always equals the
// number of bits set in that row until the renderer resets it.
type Screen struct {
	cols, rows int
	lines      [][]core.Cell
	alt        [][]core.Cell

	dirty      [][]bool
	rowDirty   []int
	frameDirty int

	cur   cursor
	saved [2]cursor // main, alternate

	top, bottom int
	mode        Mode
	tabs        []bool

	shape        int
	defaultShape int
	blinkHidden  bool

	sel selection
}

// NewScreen creates a screen of cols x rows cells. Non-positive sizes fall
// back to 80x24.
func NewScreen(cols, rows int) *Screen {
	if cols < 1 {
		cols = 80
	}
	if rows < 1 {
		rows = 24
	}
	s := &Screen{shape: DefaultCursorShape, defaultShape: DefaultCursorShape}
	s.cols, s.rows = cols, rows
	s.lines = newGrid(cols, rows)
	s.alt = newGrid(cols, rows)
	s.dirty, s.rowDirty = newDirty(cols, rows)
	s.tabs = make([]bool, cols)
	s.reset()
	return s
}

func newGrid(cols, rows int) [][]core.Cell {
	g := make([][]core.Cell, rows)
	for y := range g {
		g[y] = make([]core.Cell, cols)
		for x := range g[y] {
			g[y][x] = core.BlankCell()
		}
	}
	return g
}

func newDirty(cols, rows int) ([][]bool, []int) {
	bits := make([][]bool, rows)
	for y := range bits {
		bits[y] = make([]bool, cols)
	}
	return bits, make([]int, rows)
}

// Cols returns the number of columns.
func (s *Screen) Cols() int { return s.cols }

// Rows returns the number of rows.
func (s *Screen) Rows() int { return s.rows }

// Row returns the cells of row y. The slice aliases the grid and is valid
// until the next write.
func (s *Screen) Row(y int) []core.Cell {
	if y < 0 || y >= s.rows {
		return nil
	}
	return s.lines[y]
}

// Cell returns the cell at (x, y), or a blank cell when out of bounds.
func (s *Screen) Cell(x, y int) core.Cell {
	if x < 0 || x >= s.cols || y < 0 || y >= s.rows {
		return core.BlankCell()
	}
	return s.lines[y][x]
}

// Dirty bookkeeping

func (s *Screen) markDirty(x, y int) {
	if s.dirty[y][x] {
		return
	}
	s.dirty[y][x] = true
	s.rowDirty[y]++
	s.frameDirty++
}

// MarkRowsDirty marks every cell of rows y0 through y1 dirty.
func (s *Screen) MarkRowsDirty(y0, y1 int) {
	y0, y1 = max(y0, 0), min(y1, s.rows-1)
	for y := y0; y <= y1; y++ {
		for x := 0; x < s.cols; x++ {
			s.markDirty(x, y)
		}
	}
}

// MarkAllDirty marks the whole screen dirty.
func (s *Screen) MarkAllDirty() {
	s.MarkRowsDirty(0, s.rows-1)
}

// RowDirtyCount returns the number of dirty cells in row y.
func (s *Screen) RowDirtyCount(y int) int { return s.rowDirty[y] }

// TakeCellDirty returns the dirty bit of cell (x, y) and clears it.
func (s *Screen) TakeCellDirty(y, x int) bool {
	d := s.dirty[y][x]
	s.dirty[y][x] = false
	return d
}

// ResetRowDirty zeroes the counter of row y.
func (s *Screen) ResetRowDirty(y int) { s.rowDirty[y] = 0 }

// ResetFrameDirty zeroes the frame counter.
func (s *Screen) ResetFrameDirty() { s.frameDirty = 0 }

// FrameDirtyCount returns the number of cells dirtied since the last frame.
func (s *Screen) FrameDirtyCount() int { return s.frameDirty }

// HasAttr reports whether any cell carries attr.
func (s *Screen) HasAttr(attr core.Attribute) bool {
	for _, line := range s.lines {
		for _, c := range line {
			if c.Attr.Has(attr) {
				return true
			}
		}
	}
	return false
}

// MarkAttrDirty marks every cell carrying attr dirty.
func (s *Screen) MarkAttrDirty(attr core.Attribute) {
	for y, line := range s.lines {
		for x, c := range line {
			if c.Attr.Has(attr) {
				s.markDirty(x, y)
			}
		}
	}
}

// BlinkHidden reports whether blinking text is in its hidden phase.
func (s *Screen) BlinkHidden() bool { return s.blinkHidden }

// ToggleBlink flips the blink phase and returns the new hidden state.
func (s *Screen) ToggleBlink() bool {
	s.blinkHidden = !s.blinkHidden
	return s.blinkHidden
}

// Cursor and modes

// Cursor returns the cursor position.
func (s *Screen) Cursor() (x, y int) { return s.cur.x, s.cur.y }

// CursorHidden reports whether the application hid the cursor.
func (s *Screen) CursorHidden() bool { return s.mode&ModeHideCursor != 0 }

// CursorShape returns the DECSCUSR shape.
func (s *Screen) CursorShape() int { return s.shape }

// SetCursorShape sets the DECSCUSR shape. Values outside 0-7 are ignored.
func (s *Screen) SetCursorShape(n int) {
	if n < 0 || n > 7 {
		return
	}
	s.shape = n
}

// SetDefaultCursorShape sets the shape restored by a reset and applies it.
func (s *Screen) SetDefaultCursorShape(n int) {
	if n < 0 || n > 7 {
		return
	}
	s.defaultShape = n
	s.shape = n
}

// ReverseVideo reports whether the whole screen is in reverse video.
func (s *Screen) ReverseVideo() bool { return s.mode&ModeReverse != 0 }

// Mode reports whether every flag in m is set.
func (s *Screen) Mode(m Mode) bool { return s.mode&m == m }

// SetMode sets or clears the flags in m.
func (s *Screen) SetMode(m Mode, on bool) {
	prev := s.mode
	if on {
		s.mode |= m
	} else {
		s.mode &^= m
	}
	if (prev^s.mode)&ModeReverse != 0 {
		s.MarkAllDirty()
	}
}

// Pen returns the cell template new characters are written with.
func (s *Screen) Pen() core.Cell { return s.cur.pen }

// SetPen replaces the pen.
func (s *Screen) SetPen(c core.Cell) { s.cur.pen = c }

// erased returns the cell erase operations fill with.
func (s *Screen) erased() core.Cell {
	return core.Cell{Rune: ' ', FG: s.cur.pen.FG, BG: s.cur.pen.BG}
}

// Writing

// WriteRune writes r at the cursor with the current pen and advances the
// cursor. Double-width characters take two cells, the second marked as a
// placeholder. Zero-width characters are dropped.
func (s *Screen) WriteRune(r rune) {
	w := runewidth.RuneWidth(r)
	if w == 0 || w > s.cols {
		return
	}

	if s.cur.wrapNext && s.mode&ModeWrap != 0 {
		s.lines[s.cur.y][s.cur.x].Attr |= core.AttrWrap
		s.newline(true)
	}
	s.cur.wrapNext = false

	if s.cur.x+w > s.cols {
		if s.mode&ModeWrap != 0 {
			s.lines[s.cur.y][s.cur.x].Attr |= core.AttrWrap
			s.newline(true)
		} else {
			s.cur.x = s.cols - w
		}
	}
	x, y := s.cur.x, s.cur.y

	if s.mode&ModeInsert != 0 && x+w < s.cols {
		s.InsertBlanks(w)
	}
	if s.Selected(x, y) {
		s.SelectClear()
	}

	c := s.cur.pen
	c.Rune = r
	c.Attr &^= core.AttrWide | core.AttrWDummy | core.AttrWrap
	if w == 2 {
		c.Attr |= core.AttrWide
	}
	s.put(x, y, c)
	if w == 2 {
		dummy := c
		dummy.Rune = 0
		dummy.Attr = c.Attr&^core.AttrWide | core.AttrWDummy
		s.put(x+1, y, dummy)
	}

	if x+w < s.cols {
		s.cur.x = x + w
	} else {
		s.cur.wrapNext = true
	}
}

// WriteString writes every rune of str.
func (s *Screen) WriteString(str string) {
	for _, r := range str {
		s.WriteRune(r)
	}
}

// put stores c at (x, y), breaking up any wide pair it overwrites.
func (s *Screen) put(x, y int, c core.Cell) {
	line := s.lines[y]
	old := line[x]
	if old.Attr.Has(core.AttrWide) && x+1 < s.cols {
		s.unwide(x+1, y)
	} else if old.Attr.Has(core.AttrWDummy) && x > 0 {
		s.unwide(x-1, y)
	}
	line[x] = c
	s.markDirty(x, y)
}

func (s *Screen) unwide(x, y int) {
	c := s.lines[y][x]
	c.Rune = ' '
	c.Attr &^= core.AttrWide | core.AttrWDummy
	s.lines[y][x] = c
	s.markDirty(x, y)
}

// Cursor movement

func (s *Screen) moveTo(x, y int) {
	miny, maxy := 0, s.rows-1
	if s.mode&ModeOrigin != 0 {
		miny, maxy = s.top, s.bottom
	}
	s.cur.x = min(max(x, 0), s.cols-1)
	s.cur.y = min(max(y, miny), maxy)
	s.cur.wrapNext = false
}

// MoveCursor moves the cursor to (x, y), relative to the scroll region in
// origin mode.
func (s *Screen) MoveCursor(x, y int) {
	if s.mode&ModeOrigin != 0 {
		y += s.top
	}
	s.moveTo(x, y)
}

// MoveCursorRelative moves the cursor by the given delta.
func (s *Screen) MoveCursorRelative(dx, dy int) {
	s.moveTo(s.cur.x+dx, s.cur.y+dy)
}

// CarriageReturn moves the cursor to the first column.
func (s *Screen) CarriageReturn() {
	s.moveTo(0, s.cur.y)
}

// LineFeed moves the cursor down one line, scrolling at the region bottom.
func (s *Screen) LineFeed() {
	s.newline(false)
}

// NextLine moves to the first column of the next line.
func (s *Screen) NextLine() {
	s.newline(true)
}

func (s *Screen) newline(firstCol bool) {
	y := s.cur.y
	if y == s.bottom {
		s.scrollUp(s.top, 1)
	} else {
		y++
	}
	x := s.cur.x
	if firstCol {
		x = 0
	}
	s.moveTo(x, y)
}

// ReverseLineFeed moves the cursor up one line, scrolling at the region top.
func (s *Screen) ReverseLineFeed() {
	if s.cur.y == s.top {
		s.scrollDown(s.top, 1)
		return
	}
	s.moveTo(s.cur.x, s.cur.y-1)
}

// Tab moves the cursor across n tab stops, backwards when n is negative.
func (s *Screen) Tab(n int) {
	x := s.cur.x
	for ; n > 0 && x < s.cols-1; n-- {
		for x++; x < s.cols-1 && !s.tabs[x]; x++ {
		}
	}
	for ; n < 0 && x > 0; n++ {
		for x--; x > 0 && !s.tabs[x]; x-- {
		}
	}
	s.moveTo(x, s.cur.y)
}

// SetTabStop sets a tab stop at the cursor column.
func (s *Screen) SetTabStop() {
	s.tabs[s.cur.x] = true
}

// ClearTabStop clears the stop at the cursor column, or every stop.
func (s *Screen) ClearTabStop(all bool) {
	if !all {
		s.tabs[s.cur.x] = false
		return
	}
	clear(s.tabs)
}

// SaveCursor saves the cursor position and pen for the active screen.
func (s *Screen) SaveCursor() {
	s.saved[s.screenIndex()] = s.cur
}

// RestoreCursor restores what SaveCursor saved.
func (s *Screen) RestoreCursor() {
	s.cur = s.saved[s.screenIndex()]
	s.moveTo(s.cur.x, s.cur.y)
}

func (s *Screen) screenIndex() int {
	if s.mode&ModeAltScreen != 0 {
		return 1
	}
	return 0
}

// Scrolling

// SetScrollRegion sets the scroll region to rows top through bottom.
func (s *Screen) SetScrollRegion(top, bottom int) {
	top = min(max(top, 0), s.rows-1)
	bottom = min(max(bottom, 0), s.rows-1)
	if top > bottom {
		top, bottom = bottom, top
	}
	s.top, s.bottom = top, bottom
}

// ScrollRegion returns the scroll region rows.
func (s *Screen) ScrollRegion() (top, bottom int) { return s.top, s.bottom }

// ScrollUp scrolls the scroll region up by n lines.
func (s *Screen) ScrollUp(n int) { s.scrollUp(s.top, n) }

// ScrollDown scrolls the scroll region down by n lines.
func (s *Screen) ScrollDown(n int) { s.scrollDown(s.top, n) }

func (s *Screen) scrollUp(orig, n int) {
	n = min(n, s.bottom-orig+1)
	if n <= 0 {
		return
	}
	for y := orig; y <= s.bottom-n; y++ {
		s.lines[y], s.lines[y+n] = s.lines[y+n], s.lines[y]
	}
	s.fillRows(s.bottom-n+1, s.bottom)
	s.MarkRowsDirty(orig, s.bottom)
	s.scrollSelection(orig, s.bottom)
}

func (s *Screen) scrollDown(orig, n int) {
	n = min(n, s.bottom-orig+1)
	if n <= 0 {
		return
	}
	for y := s.bottom; y >= orig+n; y-- {
		s.lines[y], s.lines[y-n] = s.lines[y-n], s.lines[y]
	}
	s.fillRows(orig, orig+n-1)
	s.MarkRowsDirty(orig, s.bottom)
	s.scrollSelection(orig, s.bottom)
}

func (s *Screen) fillRows(y0, y1 int) {
	blank := s.erased()
	for y := y0; y <= y1; y++ {
		for x := range s.lines[y] {
			s.lines[y][x] = blank
		}
	}
}

// Erasing

// clearRegion blanks the cells between (x0, y0) and (x1, y1) inclusive.
func (s *Screen) clearRegion(x0, y0, x1, y1 int) {
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	x0, x1 = max(x0, 0), min(x1, s.cols-1)
	y0, y1 = max(y0, 0), min(y1, s.rows-1)

	blank := s.erased()
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			if s.Selected(x, y) {
				s.SelectClear()
			}
			s.lines[y][x] = blank
			s.markDirty(x, y)
		}
	}
}

// EraseDisplay implements ED: 0 erases below the cursor, 1 above it, and
// 2 or 3 the whole screen.
func (s *Screen) EraseDisplay(mode int) {
	x, y := s.cur.x, s.cur.y
	switch mode {
	case 0:
		s.clearRegion(x, y, s.cols-1, y)
		if y < s.rows-1 {
			s.clearRegion(0, y+1, s.cols-1, s.rows-1)
		}
	case 1:
		if y > 0 {
			s.clearRegion(0, 0, s.cols-1, y-1)
		}
		s.clearRegion(0, y, x, y)
	case 2, 3:
		s.clearRegion(0, 0, s.cols-1, s.rows-1)
	}
}

// EraseLine implements EL: 0 erases right of the cursor, 1 left of it, and
// 2 the whole line.
func (s *Screen) EraseLine(mode int) {
	x, y := s.cur.x, s.cur.y
	switch mode {
	case 0:
		s.clearRegion(x, y, s.cols-1, y)
	case 1:
		s.clearRegion(0, y, x, y)
	case 2:
		s.clearRegion(0, y, s.cols-1, y)
	}
}

// EraseChars blanks n cells starting at the cursor.
func (s *Screen) EraseChars(n int) {
	if n <= 0 {
		return
	}
	s.clearRegion(s.cur.x, s.cur.y, s.cur.x+n-1, s.cur.y)
}

// InsertBlanks shifts the rest of the line right by n blank cells.
func (s *Screen) InsertBlanks(n int) {
	x, y := s.cur.x, s.cur.y
	n = min(n, s.cols-x)
	if n <= 0 {
		return
	}
	line := s.lines[y]
	copy(line[x+n:], line[x:s.cols-n])
	for i := x + n; i < s.cols; i++ {
		s.markDirty(i, y)
	}
	s.clearRegion(x, y, x+n-1, y)
}

// DeleteChars removes n cells at the cursor, shifting the rest left.
func (s *Screen) DeleteChars(n int) {
	x, y := s.cur.x, s.cur.y
	n = min(n, s.cols-x)
	if n <= 0 {
		return
	}
	line := s.lines[y]
	copy(line[x:], line[x+n:])
	for i := x; i < s.cols-n; i++ {
		s.markDirty(i, y)
	}
	s.clearRegion(s.cols-n, y, s.cols-1, y)
}

// InsertLines inserts n blank lines at the cursor row.
func (s *Screen) InsertLines(n int) {
	if s.cur.y < s.top || s.cur.y > s.bottom {
		return
	}
	s.scrollDown(s.cur.y, n)
}

// DeleteLines deletes n lines at the cursor row.
func (s *Screen) DeleteLines(n int) {
	if s.cur.y < s.top || s.cur.y > s.bottom {
		return
	}
	s.scrollUp(s.cur.y, n)
}

// SwapScreen switches between the main and alternate screens.
func (s *Screen) SwapScreen() {
	s.lines, s.alt = s.alt, s.lines
	s.mode ^= ModeAltScreen
	s.MarkAllDirty()
}

// Resize changes the grid to cols x rows. Lines are dropped from the top
// when needed to keep the cursor on screen. Everything is marked dirty.
func (s *Screen) Resize(cols, rows int) error {
	if cols < 1 || rows < 1 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, cols, rows)
	}

	shift := max(s.cur.y-rows+1, 0)
	s.lines = resizeGrid(s.lines, shift, cols, rows)
	s.alt = resizeGrid(s.alt, shift, cols, rows)
	s.dirty, s.rowDirty = newDirty(cols, rows)
	s.frameDirty = 0

	tabs := make([]bool, cols)
	copy(tabs, s.tabs)
	for x := len(s.tabs); x < cols; x++ {
		tabs[x] = x%tabWidth == 0 && x > 0
	}
	s.tabs = tabs

	s.cols, s.rows = cols, rows
	s.top, s.bottom = 0, rows-1
	s.sel = selection{}

	s.cur.y -= shift
	s.moveTo(s.cur.x, s.cur.y)
	for i := range s.saved {
		s.saved[i].x = min(s.saved[i].x, cols-1)
		s.saved[i].y = min(max(s.saved[i].y-shift, 0), rows-1)
	}
	s.MarkAllDirty()
	return nil
}

func resizeGrid(old [][]core.Cell, shift, cols, rows int) [][]core.Cell {
	g := newGrid(cols, rows)
	for y := range g {
		src := y + shift
		if src >= len(old) {
			break
		}
		copy(g[y], old[src])
		// A wide glyph cut in half by the new width loses its wide bit.
		if last := &g[y][cols-1]; last.Attr.Has(core.AttrWide) {
			last.Rune = ' '
			last.Attr &^= core.AttrWide
		}
	}
	return g
}

// Reset restores the power-on state (RIS).
func (s *Screen) Reset() {
	s.reset()
	s.fillRows(0, s.rows-1)
	s.lines, s.alt = s.alt, s.lines
	s.fillRows(0, s.rows-1)
	s.lines, s.alt = s.alt, s.lines
	s.MarkAllDirty()
}

func (s *Screen) reset() {
	s.cur = cursor{pen: core.BlankCell()}
	s.saved = [2]cursor{s.cur, s.cur}
	s.mode = ModeWrap
	s.shape = s.defaultShape
	s.top, s.bottom = 0, s.rows-1
	s.sel = selection{}
	s.blinkHidden = false
	for x := range s.tabs {
		s.tabs[x] = x%tabWidth == 0 && x > 0
	}
	s.MarkAllDirty()
}

// Text returns the screen contents, one line per row with trailing blanks
// removed.
func (s *Screen) Text() string {
	var b strings.Builder
	for y := 0; y < s.rows; y++ {
		if y > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(lineText(s.lines[y], 0, s.cols-1))
	}
	return b.String()
}

// lineText returns the characters of line[x0..x1] without placeholders or
// trailing blanks.
func lineText(line []core.Cell, x0, x1 int) string {
	var rs []rune
	for x := x0; x <= x1 && x < len(line); x++ {
		c := line[x]
		if c.IsPlaceholder() {
			continue
		}
		if c.Rune == 0 {
			rs = append(rs, ' ')
			continue
		}
		rs = append(rs, c.Rune)
	}
	return strings.TrimRight(string(rs), " ")
}
