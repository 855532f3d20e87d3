package term

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/dshills/glyphterm/internal/renderer/core"
)

// Parser parses VT/xterm escape sequences and updates a Screen.
type Parser struct {
	screen *Screen

	state  parserState
	params []int
	inter  []byte // intermediate and private-marker bytes
	osc    []byte

	utf8Buf   [4]byte
	utf8Len   int
	utf8Count int

	onTitle     func(string)
	onReply     func([]byte)
	onClipboard func(string)
	onBell      func()
	onUnknown   func(seq string)
}

type parserState int

const (
	stateGround parserState = iota
	stateEscape
	stateEscapeInter
	stateCSI
	stateCSIParam
	stateCSIInter
	stateOSC
	stateDCS
)

const maxParams = 16

// NewParser creates a parser for screen.
func NewParser(screen *Screen) *Parser {
	return &Parser{
		screen: screen,
		state:  stateGround,
		params: make([]int, 0, maxParams),
		inter:  make([]byte, 0, 4),
		osc:    make([]byte, 0, 256),
	}
}

// SetTitleCallback sets the callback for title changes.
func (p *Parser) SetTitleCallback(fn func(string)) { p.onTitle = fn }

// SetReplyCallback sets where answers to status queries are written.
func (p *Parser) SetReplyCallback(fn func([]byte)) { p.onReply = fn }

// SetClipboardCallback sets the callback for OSC 52 clipboard writes.
func (p *Parser) SetClipboardCallback(fn func(string)) { p.onClipboard = fn }

// SetBellCallback sets the callback for BEL.
func (p *Parser) SetBellCallback(fn func()) { p.onBell = fn }

// SetUnknownCallback sets the callback for unknown sequences.
func (p *Parser) SetUnknownCallback(fn func(seq string)) { p.onUnknown = fn }

// Parse parses data and updates the screen.
func (p *Parser) Parse(data []byte) {
	for _, b := range data {
		p.processByte(b)
	}
}

// ParseString parses s and updates the screen.
func (p *Parser) ParseString(s string) {
	p.Parse([]byte(s))
}

func (p *Parser) processByte(b byte) {
	switch p.state {
	case stateGround:
		p.processGround(b)
	case stateEscape:
		p.processEscape(b)
	case stateEscapeInter:
		p.processEscapeInter(b)
	case stateCSI:
		p.processCSI(b)
	case stateCSIParam:
		p.processCSIParam(b)
	case stateCSIInter:
		p.processCSIInter(b)
	case stateOSC:
		p.processOSC(b)
	case stateDCS:
		p.processDCS(b)
	}
}

func (p *Parser) processGround(b byte) {
	if p.utf8Len > 0 {
		p.processUTF8Continuation(b)
		return
	}

	switch {
	case b == 0x1B:
		p.enterEscape()
	case b == 0x07:
		if p.onBell != nil {
			p.onBell()
		}
	case b == 0x08:
		p.screen.MoveCursorRelative(-1, 0)
	case b == 0x09:
		p.screen.Tab(1)
	case b == 0x0A, b == 0x0B, b == 0x0C:
		p.screen.LineFeed()
	case b == 0x0D:
		p.screen.CarriageReturn()
	case b >= 0x20 && b < 0x7F:
		p.screen.WriteRune(rune(b))
	case b >= 0xC0 && b < 0xE0:
		p.startUTF8(b, 2)
	case b >= 0xE0 && b < 0xF0:
		p.startUTF8(b, 3)
	case b >= 0xF0 && b < 0xF8:
		p.startUTF8(b, 4)
	case b >= 0x80 && b < 0xC0:
		p.screen.WriteRune('�')
	}
}

func (p *Parser) startUTF8(b byte, n int) {
	p.utf8Buf[0] = b
	p.utf8Len = n
	p.utf8Count = 1
}

func (p *Parser) processUTF8Continuation(b byte) {
	if b < 0x80 || b >= 0xC0 {
		p.utf8Len = 0
		p.utf8Count = 0
		p.screen.WriteRune('�')
		p.processGround(b)
		return
	}

	p.utf8Buf[p.utf8Count] = b
	p.utf8Count++
	if p.utf8Count == p.utf8Len {
		r := p.decodeUTF8()
		p.utf8Len = 0
		p.utf8Count = 0
		p.screen.WriteRune(r)
	}
}

// decodeUTF8 decodes the collected bytes, rejecting overlong forms and
// surrogates.
func (p *Parser) decodeUTF8() rune {
	switch p.utf8Len {
	case 2:
		r := rune(p.utf8Buf[0]&0x1F)<<6 | rune(p.utf8Buf[1]&0x3F)
		if r < 0x80 {
			return '�'
		}
		return r
	case 3:
		r := rune(p.utf8Buf[0]&0x0F)<<12 | rune(p.utf8Buf[1]&0x3F)<<6 | rune(p.utf8Buf[2]&0x3F)
		if r < 0x800 || (r >= 0xD800 && r <= 0xDFFF) {
			return '�'
		}
		return r
	case 4:
		r := rune(p.utf8Buf[0]&0x07)<<18 | rune(p.utf8Buf[1]&0x3F)<<12 |
			rune(p.utf8Buf[2]&0x3F)<<6 | rune(p.utf8Buf[3]&0x3F)
		if r < 0x10000 || r > 0x10FFFF {
			return '�'
		}
		return r
	default:
		return '�'
	}
}

func (p *Parser) processEscape(b byte) {
	p.state = stateGround
	switch {
	case b == '[':
		p.state = stateCSI
	case b == ']':
		p.state = stateOSC
		p.osc = p.osc[:0]
	case b == 'P':
		p.state = stateDCS
	case b == '7': // DECSC
		p.screen.SaveCursor()
	case b == '8': // DECRC
		p.screen.RestoreCursor()
	case b == 'D': // IND
		p.screen.LineFeed()
	case b == 'E': // NEL
		p.screen.NextLine()
	case b == 'H': // HTS
		p.screen.SetTabStop()
	case b == 'M': // RI
		p.screen.ReverseLineFeed()
	case b == 'c': // RIS
		p.screen.Reset()
	case b == '=': // DECKPAM
		p.screen.SetMode(ModeAppKeypad, true)
	case b == '>': // DECKPNM
		p.screen.SetMode(ModeAppKeypad, false)
	case b == '\\': // ST
	case b >= 0x20 && b <= 0x2F:
		p.inter = append(p.inter, b)
		p.state = stateEscapeInter
	case b >= 0x30 && b <= 0x7E:
		p.unknown("ESC " + string(b))
	}
}

func (p *Parser) processEscapeInter(b byte) {
	switch {
	case b >= 0x20 && b <= 0x2F:
		p.inter = append(p.inter, b)
	case b >= 0x30 && b <= 0x7E:
		// Charset designation and the like are accepted and ignored.
		p.unknown("ESC " + string(p.inter) + string(b))
		p.state = stateGround
	default:
		p.state = stateGround
	}
}

func (p *Parser) processCSI(b byte) {
	switch {
	case b >= '0' && b <= '9':
		p.params = append(p.params, int(b-'0'))
		p.state = stateCSIParam
	case b == ';':
		p.params = append(p.params, 0, 0)
		p.state = stateCSIParam
	case b == '?', b == '>', b == '!', b == '=':
		p.inter = append(p.inter, b)
	case b >= 0x20 && b <= 0x2F:
		p.inter = append(p.inter, b)
		p.state = stateCSIInter
	case b >= 0x40 && b <= 0x7E:
		p.handleCSI(b)
		p.state = stateGround
	default:
		p.state = stateGround
	}
}

func (p *Parser) processCSIParam(b byte) {
	switch {
	case b >= '0' && b <= '9':
		last := &p.params[len(p.params)-1]
		if *last < 1<<16 {
			*last = *last*10 + int(b-'0')
		}
	case b == ';', b == ':':
		if len(p.params) < maxParams {
			p.params = append(p.params, 0)
		}
	case b >= 0x20 && b <= 0x2F:
		p.inter = append(p.inter, b)
		p.state = stateCSIInter
	case b >= 0x40 && b <= 0x7E:
		p.handleCSI(b)
		p.state = stateGround
	default:
		p.state = stateGround
	}
}

func (p *Parser) processCSIInter(b byte) {
	switch {
	case b >= 0x20 && b <= 0x2F:
		p.inter = append(p.inter, b)
	case b >= 0x40 && b <= 0x7E:
		p.handleCSI(b)
		p.state = stateGround
	default:
		p.state = stateGround
	}
}

func (p *Parser) processOSC(b byte) {
	switch b {
	case 0x07:
		p.handleOSC()
		p.state = stateGround
	case 0x1B:
		p.handleOSC()
		p.enterEscape()
	default:
		p.osc = append(p.osc, b)
	}
}

// processDCS discards device control strings up to the terminator.
func (p *Parser) processDCS(b byte) {
	if b == 0x1B {
		p.enterEscape()
	}
}

func (p *Parser) enterEscape() {
	p.state = stateEscape
	p.params = p.params[:0]
	p.inter = p.inter[:0]
}

func (p *Parser) handleCSI(final byte) {
	private := len(p.inter) > 0 && p.inter[0] == '?'
	s := p.screen

	switch final {
	case 'A': // CUU
		s.MoveCursorRelative(0, -p.param(0, 1))
	case 'B', 'e': // CUD, VPR
		s.MoveCursorRelative(0, p.param(0, 1))
	case 'C', 'a': // CUF, HPR
		s.MoveCursorRelative(p.param(0, 1), 0)
	case 'D': // CUB
		s.MoveCursorRelative(-p.param(0, 1), 0)
	case 'E': // CNL
		s.CarriageReturn()
		s.MoveCursorRelative(0, p.param(0, 1))
	case 'F': // CPL
		s.CarriageReturn()
		s.MoveCursorRelative(0, -p.param(0, 1))
	case 'G', '`': // CHA, HPA
		_, y := s.Cursor()
		s.moveTo(p.param(0, 1)-1, y)
	case 'H', 'f': // CUP, HVP
		s.MoveCursor(p.param(1, 1)-1, p.param(0, 1)-1)
	case 'I': // CHT
		s.Tab(p.param(0, 1))
	case 'Z': // CBT
		s.Tab(-p.param(0, 1))
	case 'J': // ED
		s.EraseDisplay(p.param(0, 0))
	case 'K': // EL
		s.EraseLine(p.param(0, 0))
	case 'L': // IL
		s.InsertLines(p.param(0, 1))
	case 'M': // DL
		s.DeleteLines(p.param(0, 1))
	case 'P': // DCH
		s.DeleteChars(p.param(0, 1))
	case 'S': // SU
		s.ScrollUp(p.param(0, 1))
	case 'T': // SD
		s.ScrollDown(p.param(0, 1))
	case 'X': // ECH
		s.EraseChars(p.param(0, 1))
	case '@': // ICH
		s.InsertBlanks(p.param(0, 1))
	case 'd': // VPA
		x, _ := s.Cursor()
		s.MoveCursor(x, p.param(0, 1)-1)
	case 'g': // TBC
		switch p.param(0, 0) {
		case 0:
			s.ClearTabStop(false)
		case 3:
			s.ClearTabStop(true)
		}
	case 'h': // SM
		p.setModes(private, true)
	case 'l': // RM
		p.setModes(private, false)
	case 'm': // SGR
		if len(p.inter) == 0 {
			p.handleSGR()
		}
	case 'r': // DECSTBM
		if private {
			break
		}
		s.SetScrollRegion(p.param(0, 1)-1, p.param(1, s.Rows())-1)
		s.MoveCursor(0, 0)
	case 's': // SCOSC
		s.SaveCursor()
	case 'u': // SCORC
		s.RestoreCursor()
	case 'n': // DSR
		switch p.param(0, 0) {
		case 5:
			p.reply("\x1b[0n")
		case 6:
			x, y := s.Cursor()
			if s.Mode(ModeOrigin) {
				top, _ := s.ScrollRegion()
				y -= top
			}
			p.reply(fmt.Sprintf("\x1b[%d;%dR", y+1, x+1))
		}
	case 'c': // DA
		if len(p.inter) == 0 && p.param(0, 0) == 0 {
			p.reply("\x1b[?6c")
		}
	case 'q': // DECSCUSR
		if len(p.inter) > 0 && p.inter[0] == ' ' {
			s.SetCursorShape(p.param(0, 0))
		}
	default:
		p.unknown("CSI " + string(p.inter) + formatParams(p.params) + string(final))
	}
}

func (p *Parser) setModes(private, set bool) {
	s := p.screen
	if !private {
		for _, mode := range p.params {
			if mode == 4 { // IRM
				s.SetMode(ModeInsert, set)
			}
		}
		return
	}

	for _, mode := range p.params {
		switch mode {
		case 1: // DECCKM
			s.SetMode(ModeAppCursor, set)
		case 5: // DECSCNM
			s.SetMode(ModeReverse, set)
		case 6: // DECOM
			s.SetMode(ModeOrigin, set)
			s.MoveCursor(0, 0)
		case 7: // DECAWM
			s.SetMode(ModeWrap, set)
		case 12: // cursor blink, driven by DECSCUSR instead
		case 25: // DECTCEM
			s.SetMode(ModeHideCursor, !set)
		case 1000:
			s.SetMode(ModeMouse, false)
			s.SetMode(ModeMouseButton, set)
		case 1002:
			s.SetMode(ModeMouse, false)
			s.SetMode(ModeMouseMotion, set)
		case 1004:
			s.SetMode(ModeFocus, set)
		case 1006:
			s.SetMode(ModeMouseSGR, set)
		case 1049:
			if set {
				s.SaveCursor()
			}
			p.switchScreen(set)
			if !set {
				s.RestoreCursor()
			}
		case 47, 1047:
			p.switchScreen(set)
		case 1048:
			if set {
				s.SaveCursor()
			} else {
				s.RestoreCursor()
			}
		case 2004:
			s.SetMode(ModeBracketedPaste, set)
		}
	}
}

// switchScreen clears the alternate screen when leaving or re-entering it
// and swaps when the requested screen is not the active one.
func (p *Parser) switchScreen(alt bool) {
	s := p.screen
	active := s.Mode(ModeAltScreen)
	if active {
		s.clearRegion(0, 0, s.Cols()-1, s.Rows()-1)
	}
	if alt != active {
		s.SwapScreen()
	}
}

func (p *Parser) handleSGR() {
	pen := p.screen.Pen()
	if len(p.params) == 0 {
		p.screen.SetPen(resetPen(pen))
		return
	}

	for i := 0; i < len(p.params); i++ {
		switch n := p.params[i]; {
		case n == 0:
			pen = resetPen(pen)
		case n == 1:
			pen.Attr |= core.AttrBold
		case n == 2:
			pen.Attr |= core.AttrFaint
		case n == 3:
			pen.Attr |= core.AttrItalic
		case n == 4, n == 21:
			pen.Attr |= core.AttrUnderline
		case n == 5, n == 6:
			pen.Attr |= core.AttrBlink
		case n == 7:
			pen.Attr |= core.AttrReverse
		case n == 8:
			pen.Attr |= core.AttrInvisible
		case n == 9:
			pen.Attr |= core.AttrStruck
		case n == 22:
			pen.Attr &^= core.AttrBold | core.AttrFaint
		case n == 23:
			pen.Attr &^= core.AttrItalic
		case n == 24:
			pen.Attr &^= core.AttrUnderline
		case n == 25:
			pen.Attr &^= core.AttrBlink
		case n == 27:
			pen.Attr &^= core.AttrReverse
		case n == 28:
			pen.Attr &^= core.AttrInvisible
		case n == 29:
			pen.Attr &^= core.AttrStruck
		case n >= 30 && n <= 37:
			pen.FG = core.IndexColor(uint8(n - 30))
		case n == 38:
			if id, next, ok := p.extendedColor(i); ok {
				pen.FG = id
				i = next
			}
		case n == 39:
			pen.FG = core.ColorDefaultFG
		case n >= 40 && n <= 47:
			pen.BG = core.IndexColor(uint8(n - 40))
		case n == 48:
			if id, next, ok := p.extendedColor(i); ok {
				pen.BG = id
				i = next
			}
		case n == 49:
			pen.BG = core.ColorDefaultBG
		case n >= 90 && n <= 97:
			pen.FG = core.IndexColor(uint8(n - 90 + 8))
		case n >= 100 && n <= 107:
			pen.BG = core.IndexColor(uint8(n - 100 + 8))
		}
	}
	p.screen.SetPen(pen)
}

func resetPen(pen core.Cell) core.Cell {
	pen.Attr = core.AttrNone
	pen.FG = core.ColorDefaultFG
	pen.BG = core.ColorDefaultBG
	return pen
}

// extendedColor parses the 38/48 forms "5;n" and "2;r;g;b" starting at
// params[i]. It returns the index of the last parameter consumed.
func (p *Parser) extendedColor(i int) (core.ColorID, int, bool) {
	if i+1 >= len(p.params) {
		return 0, i, false
	}
	switch p.params[i+1] {
	case 5:
		if i+2 < len(p.params) {
			return core.IndexColor(clampColorValue(p.params[i+2])), i + 2, true
		}
	case 2:
		if i+4 < len(p.params) {
			r := clampColorValue(p.params[i+2])
			g := clampColorValue(p.params[i+3])
			b := clampColorValue(p.params[i+4])
			return core.TrueColor(r, g, b), i + 4, true
		}
	}
	return 0, i, false
}

func clampColorValue(v int) uint8 {
	return uint8(min(max(v, 0), 255))
}

func (p *Parser) handleOSC() {
	cmdStr, value, _ := strings.Cut(string(p.osc), ";")
	cmd, err := strconv.Atoi(cmdStr)
	if err != nil {
		return
	}

	switch cmd {
	case 0, 2:
		if p.onTitle != nil {
			p.onTitle(value)
		}
	case 1:
		// icon name
	case 52:
		// Pc;Pd with Pd base64. Queries ("?") are not answered.
		_, data, ok := strings.Cut(value, ";")
		if !ok || data == "?" || p.onClipboard == nil {
			return
		}
		text, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			p.unknown("OSC 52 " + err.Error())
			return
		}
		p.onClipboard(string(text))
	default:
		p.unknown("OSC " + strconv.Itoa(cmd))
	}
}

func (p *Parser) reply(s string) {
	if p.onReply != nil {
		p.onReply([]byte(s))
	}
}

func (p *Parser) unknown(seq string) {
	if p.onUnknown != nil {
		p.onUnknown(seq)
	}
}

func (p *Parser) param(index, defaultValue int) int {
	if index < len(p.params) && p.params[index] > 0 {
		return p.params[index]
	}
	return defaultValue
}

func formatParams(params []int) string {
	parts := make([]string, len(params))
	for i, v := range params {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ";")
}
