package term

import (
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/dshills/glyphterm/internal/renderer/backend"
)

// Child is the process side of a terminal.
type Child interface {
	io.ReadWriter

	// Fd returns a descriptor that polls readable when output is pending.
	Fd() uintptr

	// Resize tells the child about a new grid size.
	Resize(cols, rows int) error

	// Close hangs up the child.
	Close() error
}

// Logger is the logging the terminal uses.
type Logger interface {
	Debug(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}

// Options configures a new terminal.
type Options struct {
	// Shell is the program to run (defaults to $SHELL or /bin/sh).
	Shell string

	// Args are passed to the shell.
	Args []string

	// Env are additional environment variables.
	Env []string

	// WorkDir is the working directory for the shell.
	WorkDir string

	// TermName is exported as TERM (default xterm-256color).
	TermName string

	// Cols and Rows are the initial grid size (default 80x24).
	Cols int
	Rows int

	// CursorShape is the DECSCUSR shape restored by a reset.
	CursorShape int

	// Logger receives debug output. Nil disables logging.
	Logger Logger
}

func (o Options) withDefaults() Options {
	if o.Shell == "" {
		o.Shell = os.Getenv("SHELL")
		if o.Shell == "" {
			o.Shell = "/bin/sh"
		}
	}
	if o.TermName == "" {
		o.TermName = "xterm-256color"
	}
	if o.Cols <= 0 {
		o.Cols = 80
	}
	if o.Rows <= 0 {
		o.Rows = 24
	}
	if o.CursorShape <= 0 || o.CursorShape > 7 {
		o.CursorShape = DefaultCursorShape
	}
	if o.Logger == nil {
		o.Logger = nopLogger{}
	}
	return o
}

const (
	readBufferSize = 8192
	maxPump        = 1 << 20
)

// Terminal is a Screen and Parser fed by a child process.
type Terminal struct {
	id     string
	screen *Screen
	parser *Parser
	child  Child
	log    Logger
	buf    []byte
	closed bool

	title       string
	onTitle     func(string)
	onClipboard func(string)
	onBell      func()
}

// Start runs the configured shell on a new pty.
func Start(opts Options) (*Terminal, error) {
	opts = opts.withDefaults()
	id := uuid.New().String()

	p, err := StartPty(opts, "GLYPHTERM_SESSION="+id)
	if err != nil {
		return nil, err
	}
	t := newTerminal(id, p, opts)
	t.log.Debug("terminal started", "id", id, "shell", opts.Shell, "pid", p.Pid())
	return t, nil
}

// New wraps an already running child.
func New(child Child, opts Options) *Terminal {
	return newTerminal(uuid.New().String(), child, opts.withDefaults())
}

func newTerminal(id string, child Child, opts Options) *Terminal {
	screen := NewScreen(opts.Cols, opts.Rows)
	screen.SetDefaultCursorShape(opts.CursorShape)

	t := &Terminal{
		id:     id,
		screen: screen,
		parser: NewParser(screen),
		child:  child,
		log:    opts.Logger,
		buf:    make([]byte, readBufferSize),
	}

	t.parser.SetTitleCallback(func(title string) {
		t.title = title
		if t.onTitle != nil {
			t.onTitle(title)
		}
	})
	t.parser.SetReplyCallback(func(b []byte) {
		if _, err := t.child.Write(b); err != nil {
			t.log.Debug("reply write failed", "error", err)
		}
	})
	t.parser.SetClipboardCallback(func(text string) {
		if t.onClipboard != nil {
			t.onClipboard(text)
		}
	})
	t.parser.SetBellCallback(func() {
		if t.onBell != nil {
			t.onBell()
		}
	})
	t.parser.SetUnknownCallback(func(seq string) {
		t.log.Debug("unhandled sequence", "seq", seq)
	})
	return t
}

// ID returns the session identifier exported to the child.
func (t *Terminal) ID() string { return t.id }

// Screen returns the terminal's screen.
func (t *Terminal) Screen() *Screen { return t.screen }

// Title returns the last title set by the child.
func (t *Terminal) Title() string { return t.title }

// OnTitle sets the callback for title changes.
func (t *Terminal) OnTitle(fn func(string)) { t.onTitle = fn }

// OnClipboard sets the callback for clipboard writes from the child.
func (t *Terminal) OnClipboard(fn func(string)) { t.onClipboard = fn }

// OnBell sets the callback for BEL.
func (t *Terminal) OnBell(fn func()) { t.onBell = fn }

// Fd returns the child's output descriptor for readiness polling.
func (t *Terminal) Fd() uintptr { return t.child.Fd() }

// Pump reads the output pending from the child and applies it to the
// screen. Call it once the child's descriptor polls readable. io.EOF means
// the child has gone away.
func (t *Terminal) Pump() (int, error) {
	if t.closed {
		return 0, ErrClosed
	}
	total := 0
	for total < maxPump {
		n, err := t.child.Read(t.buf)
		if n > 0 {
			t.parser.Parse(t.buf[:n])
			total += n
		}
		if err != nil {
			return total, err
		}
		if n < len(t.buf) {
			break
		}
		ok, err := Readable(t.child.Fd(), 0)
		if err != nil || !ok {
			return total, err
		}
	}
	return total, nil
}

// Feed applies data to the screen as if the child had written it.
func (t *Terminal) Feed(data []byte) {
	t.parser.Parse(data)
}

// Write sends raw input to the child.
func (t *Terminal) Write(data []byte) (int, error) {
	if t.closed {
		return 0, ErrClosed
	}
	return t.child.Write(data)
}

// SendKey encodes a key event and sends it to the child.
func (t *Terminal) SendKey(ev backend.Event) error {
	b := EncodeKey(ev, t.screen.Mode(ModeAppCursor))
	if len(b) == 0 {
		return nil
	}
	_, err := t.Write(b)
	return err
}

// SendMouse reports a mouse event at cell (col, row) when the child asked
// for mouse reports. It returns false when no report was sent.
func (t *Terminal) SendMouse(btn backend.MouseButton, action MouseAction, mod backend.ModMask, col, row int) (bool, error) {
	b := EncodeMouse(t.screen, btn, action, mod, col, row)
	if b == nil {
		return false, nil
	}
	_, err := t.Write(b)
	return true, err
}

// SendFocus reports a focus change when the child enabled focus events.
func (t *Terminal) SendFocus(focused bool) error {
	if !t.screen.Mode(ModeFocus) {
		return nil
	}
	seq := "\x1b[O"
	if focused {
		seq = "\x1b[I"
	}
	_, err := t.Write([]byte(seq))
	return err
}

// Paste sends text as a paste, bracketed when the child enabled it.
func (t *Terminal) Paste(text string) error {
	_, err := t.Write(EncodePaste(text, t.screen.Mode(ModeBracketedPaste)))
	return err
}

// Resize resizes the screen and tells the child.
func (t *Terminal) Resize(cols, rows int) error {
	if err := t.screen.Resize(cols, rows); err != nil {
		return err
	}
	return t.child.Resize(cols, rows)
}

// Close hangs up the child. Closing twice returns ErrClosed.
func (t *Terminal) Close() error {
	if t.closed {
		return ErrClosed
	}
	t.closed = true
	return t.child.Close()
}

// Wait reaps the child when it is a process.
func (t *Terminal) Wait() error {
	if w, ok := t.child.(interface{ Wait() error }); ok {
		return w.Wait()
	}
	return nil
}
