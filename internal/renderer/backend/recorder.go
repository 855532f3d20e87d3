package backend

import (
	"sync"

	"github.com/dshills/glyphterm/internal/renderer/batch"
	"github.com/dshills/glyphterm/internal/renderer/core"
)

// Op identifies a recorded renderer call.
type Op int

const (
	OpInit Op = iota
	OpClearColor
	OpRect
	OpGlyphs
	OpResize
	OpPresent
)

// String returns the name of the operation.
func (o Op) String() string {
	switch o {
	case OpInit:
		return "init"
	case OpClearColor:
		return "clear-color"
	case OpRect:
		return "rect"
	case OpGlyphs:
		return "glyphs"
	case OpResize:
		return "resize"
	case OpPresent:
		return "present"
	default:
		return "unknown"
	}
}

// Call is one recorded renderer call.
type Call struct {
	Op    Op
	Color core.Color
	Rect  core.Rect
	Specs []batch.GlyphSpec
}

// Recorder implements Renderer and Display without drawing anything. It
// records every renderer call and serves events queued with Post.
type Recorder struct {
	mu            sync.Mutex
	width, height int
	calls         []Call
	frames        int
	events        []Event
	ready         chan struct{}
	clipboard     MemoryClipboard
	presentErr    error
	closed        bool
}

// NewRecorder creates a recorder reporting the given window size.
func NewRecorder(width, height int) *Recorder {
	return &Recorder{
		width:  width,
		height: height,
		ready:  make(chan struct{}, 1),
	}
}

func (r *Recorder) Init(width, height int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.width, r.height = width, height
	r.calls = append(r.calls, Call{Op: OpInit, Rect: core.Rect{W: width, H: height}})
	return nil
}

func (r *Recorder) SetClearColor(c core.Color) {
	r.record(Call{Op: OpClearColor, Color: c})
}

func (r *Recorder) DrawRect(c core.Color, rect core.Rect) {
	r.record(Call{Op: OpRect, Color: c, Rect: rect})
}

// DrawGlyphs records a copy of specs; callers reuse their buffers.
func (r *Recorder) DrawGlyphs(specs []batch.GlyphSpec, c core.Color) {
	cp := make([]batch.GlyphSpec, len(specs))
	copy(cp, specs)
	r.record(Call{Op: OpGlyphs, Color: c, Specs: cp})
}

func (r *Recorder) Resize(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.width, r.height = width, height
	r.calls = append(r.calls, Call{Op: OpResize, Rect: core.Rect{W: width, H: height}})
}

func (r *Recorder) Present() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.frames++
	r.calls = append(r.calls, Call{Op: OpPresent})
	return r.presentErr
}

// SetPresentError makes every following Present return err.
func (r *Recorder) SetPresentError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.presentErr = err
}

func (r *Recorder) record(c Call) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)
}

// Calls returns the recorded calls.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// CallsOf returns the recorded calls of one kind.
func (r *Recorder) CallsOf(op Op) []Call {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Call
	for _, c := range r.calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Frames returns the number of Present calls.
func (r *Recorder) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// Reset forgets recorded calls. The frame count is kept.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = r.calls[:0]
}

// Post queues an event for PollEvent.
func (r *Recorder) Post(ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()

	select {
	case r.ready <- struct{}{}:
	default:
	}
}

func (r *Recorder) Events() <-chan struct{} {
	return r.ready
}

func (r *Recorder) PollEvent() (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.events) == 0 {
		return Event{}, false
	}
	ev := r.events[0]
	r.events = r.events[1:]
	return ev, true
}

// Pending returns the number of queued events.
func (r *Recorder) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func (r *Recorder) Size() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.width, r.height
}

func (r *Recorder) Clipboard() Clipboard {
	return &r.clipboard
}

func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	r.closed = true
	return nil
}
