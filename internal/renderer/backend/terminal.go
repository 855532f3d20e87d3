package backend

import (
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/glyphterm/internal/renderer/batch"
	"github.com/dshills/glyphterm/internal/renderer/core"
)

// Terminal implements Renderer and Display on a character terminal using
// tcell. Pixel coordinates are mapped to cells through the grid metrics,
// so the rest of the renderer works in the same units as a pixel backend.
//
// Rectangles covering at least half a cell each way fill cell
// backgrounds. Thinner rectangles become cell attributes: underline in
// the lower half of a cell, strike-through in the upper half, reverse for
// narrow vertical bars.
type Terminal struct {
	mu        sync.Mutex
	screen    tcell.Screen
	metrics   batch.Metrics
	clipboard Clipboard
	opened    bool
	resized   bool

	events chan tcell.Event
	quit   chan struct{}
	ready  chan struct{}
	once   sync.Once

	qmu   sync.Mutex
	queue []Event
}

// NewTerminal creates a terminal backend on the controlling terminal.
func NewTerminal(metrics batch.Metrics) (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, &DisplayError{Op: "open", Err: err}
	}
	return NewTerminalWithScreen(screen, metrics), nil
}

// NewTerminalWithScreen wraps an existing tcell screen, such as a
// simulation screen.
func NewTerminalWithScreen(screen tcell.Screen, metrics batch.Metrics) *Terminal {
	return &Terminal{
		screen:    screen,
		metrics:   metrics,
		clipboard: DefaultClipboard(),
		events:    make(chan tcell.Event, 64),
		quit:      make(chan struct{}),
		ready:     make(chan struct{}, 1),
	}
}

// Open initializes the screen and starts event delivery. It is safe to
// call more than once.
func (t *Terminal) Open() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.opened {
		return nil
	}
	if err := t.screen.Init(); err != nil {
		return &DisplayError{Op: "init", Err: err}
	}
	t.screen.EnableMouse()
	t.screen.EnablePaste()
	t.screen.EnableFocus()
	t.screen.HideCursor()
	t.opened = true

	go t.screen.ChannelEvents(t.events, t.quit)
	go t.pump()
	return nil
}

// SetMetrics updates the cell geometry used to map pixels to cells.
func (t *Terminal) SetMetrics(m batch.Metrics) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.metrics = m
}

// SetClipboard replaces the clipboard returned by Clipboard.
func (t *Terminal) SetClipboard(c Clipboard) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clipboard = c
}

// Init opens the screen. The size is taken from the terminal.
func (t *Terminal) Init(width, height int) error {
	if err := t.Open(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.screen.Clear()
	return nil
}

func (t *Terminal) SetClearColor(c core.Color) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.screen.SetStyle(tcell.StyleDefault.Background(tcellColor(c)))
}

func (t *Terminal) DrawRect(c core.Color, r core.Rect) {
	t.mu.Lock()
	defer t.mu.Unlock()

	m := t.metrics
	if r.IsEmpty() || m.CellWidth <= 0 || m.CellHeight <= 0 {
		return
	}
	col0, row0 := m.CellAt(r.X, r.Y)
	col1, row1 := m.CellAt(r.X+r.W-1, r.Y+r.H-1)
	cols, rows := t.screen.Size()

	fill := r.W*2 >= m.CellWidth && r.H*2 >= m.CellHeight
	for y := row0; y <= row1 && y < rows; y++ {
		_, top := m.CellOrigin(0, y)
		for x := col0; x <= col1 && x < cols; x++ {
			mainc, comb, style, _ := t.screen.GetContent(x, y) //nolint:staticcheck // GetContent is the correct API
			switch {
			case fill:
				t.screen.SetContent(x, y, ' ', nil, tcell.StyleDefault.Background(tcellColor(c)))
			case r.H*2 < m.CellHeight && (r.Y-top)*2 >= m.CellHeight:
				t.screen.SetContent(x, y, mainc, comb, style.Underline(true))
			case r.H*2 < m.CellHeight:
				t.screen.SetContent(x, y, mainc, comb, style.StrikeThrough(true))
			default:
				t.screen.SetContent(x, y, mainc, comb, style.Reverse(true))
			}
		}
	}
}

func (t *Terminal) DrawGlyphs(specs []batch.GlyphSpec, c core.Color) {
	t.mu.Lock()
	defer t.mu.Unlock()

	m := t.metrics
	if m.CellWidth <= 0 || m.CellHeight <= 0 {
		return
	}
	fg := tcellColor(c)
	for _, s := range specs {
		// Y is the baseline, which lies inside the cell.
		x, y := m.CellAt(s.X, s.Y-1)
		r := s.Rune
		if r == 0 {
			r = ' '
		}
		_, _, style, _ := t.screen.GetContent(x, y) //nolint:staticcheck // GetContent is the correct API
		t.screen.SetContent(x, y, r, nil, style.Foreground(fg))
	}
}

func (t *Terminal) Resize(width, height int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resized = true
}

func (t *Terminal) Present() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.resized {
		t.resized = false
		t.screen.Sync()
		return nil
	}
	t.screen.Show()
	return nil
}

func (t *Terminal) Events() <-chan struct{} {
	return t.ready
}

func (t *Terminal) PollEvent() (Event, bool) {
	t.qmu.Lock()
	defer t.qmu.Unlock()

	if len(t.queue) == 0 {
		return Event{}, false
	}
	ev := t.queue[0]
	t.queue = t.queue[1:]
	return ev, true
}

// Post queues a synthetic event. Safe to call from any goroutine.
func (t *Terminal) Post(ev Event) {
	t.qmu.Lock()
	t.queue = append(t.queue, ev)
	t.qmu.Unlock()

	select {
	case t.ready <- struct{}{}:
	default:
	}
}

func (t *Terminal) Size() (int, int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cols, rows := t.screen.Size()
	return t.pixelSize(cols, rows)
}

func (t *Terminal) Clipboard() Clipboard {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.clipboard
}

func (t *Terminal) Close() error {
	t.once.Do(func() {
		close(t.quit)
		t.mu.Lock()
		if t.opened {
			t.screen.Fini()
		}
		t.mu.Unlock()
	})
	return nil
}

// Beep rings the terminal bell.
func (t *Terminal) Beep() {
	t.mu.Lock()
	defer t.mu.Unlock()

	_ = t.screen.Beep() // best-effort; terminal may not support beep
}

// SetTitle sets the window title where the terminal supports it.
func (t *Terminal) SetTitle(title string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.screen.SetTitle(title)
}

func (t *Terminal) pump() {
	for {
		select {
		case <-t.quit:
			return
		case ev, ok := <-t.events:
			if !ok {
				return
			}
			t.mu.Lock()
			m := t.metrics
			t.mu.Unlock()
			if e, ok := convertEvent(ev, m); ok {
				t.Post(e)
			}
		}
	}
}

func (t *Terminal) pixelSize(cols, rows int) (int, int) {
	m := t.metrics
	return cols*m.CellWidth + 2*m.Border, rows*m.CellHeight + 2*m.Border
}

func tcellColor(c core.Color) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

// convertEvent converts tcell events to our Event type. Cell positions
// are reported as the pixel origin of the cell.
func convertEvent(ev tcell.Event, m batch.Metrics) (Event, bool) {
	switch e := ev.(type) {
	case *tcell.EventKey:
		key, r, mod := convertKey(e.Key(), e.Rune(), convertMod(e.Modifiers()))
		if key == KeyNone {
			return Event{}, false
		}
		return Event{Type: EventKey, Key: key, Rune: r, Mod: mod}, true

	case *tcell.EventMouse:
		col, row := e.Position()
		x, y := m.CellOrigin(col, row)
		return Event{
			Type:        EventMouse,
			MouseX:      x,
			MouseY:      y,
			MouseButton: convertMouseButton(e.Buttons()),
			Mod:         convertMod(e.Modifiers()),
		}, true

	case *tcell.EventResize:
		cols, rows := e.Size()
		return Event{
			Type:   EventResize,
			Width:  cols*m.CellWidth + 2*m.Border,
			Height: rows*m.CellHeight + 2*m.Border,
		}, true

	case *tcell.EventPaste:
		return Event{Type: EventPaste, PasteStart: e.Start()}, true

	case *tcell.EventFocus:
		return Event{Type: EventFocus, Focused: e.Focused}, true

	case *tcell.EventInterrupt:
		return Event{Type: EventInterrupt, Data: e.Data()}, true

	case *tcell.EventError:
		return Event{Type: EventError, Err: &DisplayError{Op: "event", Err: e}}, true

	default:
		return Event{}, false
	}
}

// convertKey converts a tcell key. Control letters arrive as KeyRune with
// ModCtrl.
func convertKey(k tcell.Key, r rune, mod ModMask) (Key, rune, ModMask) {
	switch k {
	case tcell.KeyRune:
		return KeyRune, r, mod
	case tcell.KeyEscape:
		return KeyEscape, 0, mod
	case tcell.KeyEnter:
		return KeyEnter, 0, mod
	case tcell.KeyTab:
		return KeyTab, 0, mod
	case tcell.KeyBacktab:
		return KeyBacktab, 0, mod
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return KeyBackspace, 0, mod
	case tcell.KeyDelete:
		return KeyDelete, 0, mod
	case tcell.KeyInsert:
		return KeyInsert, 0, mod
	case tcell.KeyHome:
		return KeyHome, 0, mod
	case tcell.KeyEnd:
		return KeyEnd, 0, mod
	case tcell.KeyPgUp:
		return KeyPageUp, 0, mod
	case tcell.KeyPgDn:
		return KeyPageDown, 0, mod
	case tcell.KeyUp:
		return KeyUp, 0, mod
	case tcell.KeyDown:
		return KeyDown, 0, mod
	case tcell.KeyLeft:
		return KeyLeft, 0, mod
	case tcell.KeyRight:
		return KeyRight, 0, mod
	}

	if k >= tcell.KeyF1 && k <= tcell.KeyF12 {
		return KeyF1 + Key(k-tcell.KeyF1), 0, mod
	}
	if k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ {
		return KeyRune, 'a' + rune(k-tcell.KeyCtrlA), mod | ModCtrl
	}
	return KeyNone, 0, mod
}

// convertMod converts tcell modifier mask to our ModMask.
func convertMod(m tcell.ModMask) ModMask {
	var mod ModMask
	if m&tcell.ModShift != 0 {
		mod |= ModShift
	}
	if m&tcell.ModCtrl != 0 {
		mod |= ModCtrl
	}
	if m&tcell.ModAlt != 0 {
		mod |= ModAlt
	}
	if m&tcell.ModMeta != 0 {
		mod |= ModMeta
	}
	return mod
}

// convertMouseButton converts tcell button mask to our MouseButton.
func convertMouseButton(b tcell.ButtonMask) MouseButton {
	switch {
	case b&tcell.Button1 != 0:
		return MouseLeft
	case b&tcell.Button3 != 0:
		return MouseMiddle
	case b&tcell.Button2 != 0:
		return MouseRight
	case b&tcell.WheelUp != 0:
		return MouseWheelUp
	case b&tcell.WheelDown != 0:
		return MouseWheelDown
	default:
		return MouseNone
	}
}
