package term

import (
	"strconv"
	"unicode/utf8"

	"github.com/dshills/glyphterm/internal/renderer/backend"
)

// cursorKeys maps keys with a CSI/SS3 letter form.
var cursorKeys = map[backend.Key]byte{
	backend.KeyUp:    'A',
	backend.KeyDown:  'B',
	backend.KeyRight: 'C',
	backend.KeyLeft:  'D',
	backend.KeyHome:  'H',
	backend.KeyEnd:   'F',
	backend.KeyF1:    'P',
	backend.KeyF2:    'Q',
	backend.KeyF3:    'R',
	backend.KeyF4:    'S',
}

// tildeKeys maps keys sent as CSI n ~.
var tildeKeys = map[backend.Key]int{
	backend.KeyInsert:   2,
	backend.KeyDelete:   3,
	backend.KeyPageUp:   5,
	backend.KeyPageDown: 6,
	backend.KeyF5:       15,
	backend.KeyF6:       17,
	backend.KeyF7:       18,
	backend.KeyF8:       19,
	backend.KeyF9:       20,
	backend.KeyF10:      21,
	backend.KeyF11:      23,
	backend.KeyF12:      24,
}

// modParam returns the xterm modifier parameter, 1 when no modifier is held.
func modParam(mod backend.ModMask) int {
	m := 1
	if mod.Has(backend.ModShift) {
		m++
	}
	if mod.Has(backend.ModAlt) || mod.Has(backend.ModMeta) {
		m += 2
	}
	if mod.Has(backend.ModCtrl) {
		m += 4
	}
	return m
}

// EncodeKey returns the bytes a key event sends to the child. appCursor
// selects the SS3 forms of the cursor keys (DECCKM).
func EncodeKey(ev backend.Event, appCursor bool) []byte {
	alt := ev.Mod.Has(backend.ModAlt) || ev.Mod.Has(backend.ModMeta)

	if c, ok := cursorKeys[ev.Key]; ok {
		m := modParam(ev.Mod)
		isArrow := ev.Key < backend.KeyF1
		switch {
		case m > 1:
			return []byte("\x1b[1;" + strconv.Itoa(m) + string(c))
		case isArrow && !appCursor:
			return []byte{0x1b, '[', c}
		default:
			return []byte{0x1b, 'O', c}
		}
	}
	if n, ok := tildeKeys[ev.Key]; ok {
		seq := "\x1b[" + strconv.Itoa(n)
		if m := modParam(ev.Mod); m > 1 {
			seq += ";" + strconv.Itoa(m)
		}
		return []byte(seq + "~")
	}

	var out []byte
	switch ev.Key {
	case backend.KeyEnter:
		out = []byte{'\r'}
	case backend.KeyTab:
		out = []byte{'\t'}
	case backend.KeyBacktab:
		return []byte("\x1b[Z")
	case backend.KeyBackspace:
		out = []byte{0x7f}
	case backend.KeyEscape:
		out = []byte{0x1b}
	case backend.KeyRune:
		out = encodeRune(ev.Rune, ev.Mod.Has(backend.ModCtrl))
	default:
		return nil
	}
	if alt {
		out = append([]byte{0x1b}, out...)
	}
	return out
}

func encodeRune(r rune, ctrl bool) []byte {
	if ctrl {
		switch {
		case r >= 'a' && r <= 'z':
			return []byte{byte(r - 'a' + 1)}
		case r >= '@' && r <= '_':
			return []byte{byte(r - '@')}
		case r == ' ':
			return []byte{0}
		case r == '?':
			return []byte{0x7f}
		}
	}
	return utf8.AppendRune(nil, r)
}

// MouseAction says what happened to a mouse button.
type MouseAction int

const (
	MousePress MouseAction = iota
	MouseRelease
	MouseMotion
)

// EncodeMouse returns the report for a mouse event at cell (col, row), or
// nil when the screen's modes do not ask for it.
func EncodeMouse(s *Screen, btn backend.MouseButton, action MouseAction, mod backend.ModMask, col, row int) []byte {
	switch {
	case !s.Mode(ModeMouseButton) && !s.Mode(ModeMouseMotion):
		return nil
	case action == MouseMotion && (!s.Mode(ModeMouseMotion) || btn == backend.MouseNone):
		return nil
	}

	var code int
	switch btn {
	case backend.MouseLeft:
		code = 0
	case backend.MouseMiddle:
		code = 1
	case backend.MouseRight:
		code = 2
	case backend.MouseWheelUp:
		code = 64
	case backend.MouseWheelDown:
		code = 65
	default:
		code = 3
	}
	if action == MouseMotion {
		code += 32
	}
	if mod.Has(backend.ModShift) {
		code += 4
	}
	if mod.Has(backend.ModAlt) || mod.Has(backend.ModMeta) {
		code += 8
	}
	if mod.Has(backend.ModCtrl) {
		code += 16
	}

	if s.Mode(ModeMouseSGR) {
		final := "M"
		if action == MouseRelease {
			final = "m"
		}
		return []byte("\x1b[<" + strconv.Itoa(code) + ";" + strconv.Itoa(col+1) + ";" + strconv.Itoa(row+1) + final)
	}

	// X10 encoding cannot address past column 223.
	if col > 222 || row > 222 {
		return nil
	}
	if action == MouseRelease {
		code = 3 | code&^3
	}
	return []byte{0x1b, '[', 'M', byte(32 + code), byte(33 + col), byte(33 + row)}
}
