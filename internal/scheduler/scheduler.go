package scheduler

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"time"

	"github.com/dshills/glyphterm/internal/renderer/backend"
	"github.com/dshills/glyphterm/internal/renderer/core"
)

var (
	// ErrWait is returned when waiting for input fails for a reason other
	// than an interrupted system call. It is fatal.
	ErrWait = errors.New("scheduler: wait failed")

	// ErrAlreadyRunning is returned by Run when the loop is running.
	ErrAlreadyRunning = errors.New("scheduler: already running")

	// ErrQuit may be returned by a Handler to end the loop after the
	// current tick.
	ErrQuit = errors.New("scheduler: quit")

	// ErrChildExited is the payload of the interrupt posted when the
	// child hangs up.
	ErrChildExited = errors.New("scheduler: child exited")
)

// Child is the source of terminal output.
type Child interface {
	// Pump applies pending output to the screen. io.EOF means the child
	// has gone away.
	Pump() (int, error)
}

// Screen is the screen state the scheduler inspects for blinking.
type Screen interface {
	FrameDirtyCount() int
	HasAttr(attr core.Attribute) bool
	MarkAttrDirty(attr core.Attribute)
	BlinkHidden() bool
	ToggleBlink() bool
}

// Drawer draws and presents one frame.
type Drawer interface {
	Draw() error
}

// Handler receives key, mouse, resize, focus and paste events, and
// interrupts that carry Data but no error. Other interrupts and error
// events are handled by the scheduler.
type Handler interface {
	HandleEvent(ev backend.Event) error
}

// Logger is the logging the scheduler uses.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}

// Config controls frame pacing.
type Config struct {
	// ActiveFPS is the frame rate while display events keep arriving.
	ActiveFPS int

	// IdleFPS is the frame rate once they stop. The active period lasts
	// IdleFPS frames after the last event.
	IdleFPS int

	// BlinkTimeout is the blink half period. Zero disables blinking.
	BlinkTimeout time.Duration
}

// DefaultConfig returns the default pacing: 120 active and 30 idle frames
// per second, blinking every 800ms.
func DefaultConfig() Config {
	return Config{
		ActiveFPS:    120,
		IdleFPS:      30,
		BlinkTimeout: 800 * time.Millisecond,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ActiveFPS <= 0 {
		c.ActiveFPS = d.ActiveFPS
	}
	if c.IdleFPS <= 0 {
		c.IdleFPS = d.IdleFPS
	}
	if c.IdleFPS > c.ActiveFPS {
		c.IdleFPS = c.ActiveFPS
	}
	if c.BlinkTimeout < 0 {
		c.BlinkTimeout = 0
	}
	return c
}

// Deps are the collaborators the loop drives. Child may be nil.
type Deps struct {
	Waiter  Waiter
	Display backend.Display
	Child   Child
	Screen  Screen
	Drawer  Drawer
	Handler Handler
	Clock   Clock
	Logger  Logger
}

// Stats counts loop activity.
type Stats struct {
	Ticks        uint64
	Redraws      uint64
	Deferred     uint64
	Events       uint64
	ChildReads   uint64
	BlinkToggles uint64
}

// Scheduler is the frame loop.
type Scheduler struct {
	deps    Deps
	cfg     Config
	log     Logger
	clock   Clock
	running atomic.Bool

	active  time.Duration // minimum interval between frames while active
	idle    time.Duration
	timeout time.Duration

	last      time.Time // last redraw
	lastBlink time.Time
	countdown int
	pending   bool
	forced    bool // pending frame paced at the active rate
	blinkSet  bool
	quit      bool

	stats Stats
}

// New creates a scheduler.
func New(deps Deps, cfg Config) *Scheduler {
	cfg = cfg.withDefaults()
	if deps.Clock == nil {
		deps.Clock = SystemClock()
	}
	if deps.Logger == nil {
		deps.Logger = nopLogger{}
	}
	return &Scheduler{
		deps:   deps,
		cfg:    cfg,
		log:    deps.Logger,
		clock:  deps.Clock,
		active: time.Second / time.Duration(cfg.ActiveFPS),
		idle:   time.Second / time.Duration(cfg.IdleFPS),
	}
}

// Config returns the pacing configuration in effect.
func (s *Scheduler) Config() Config { return s.cfg }

// Stats returns loop statistics. Call it from the loop goroutine or after
// Run returns.
func (s *Scheduler) Stats() Stats { return s.stats }

// Invalidate requests a redraw on the next frame deadline.
func (s *Scheduler) Invalidate() { s.pending = true }

// Run runs the loop until an interrupt event arrives, a handler returns
// ErrQuit, ctx is done or a fatal error occurs. The first frame is drawn
// right away.
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer s.running.Store(false)

	s.start()
	for !s.quit {
		if err := s.tick(ctx); err != nil {
			return err
		}
	}
	return nil
}

// start resets the loop state.
func (s *Scheduler) start() {
	now := s.clock.Now()
	s.last = now.Add(-s.active)
	s.lastBlink = now
	s.countdown = s.cfg.IdleFPS
	s.pending = true
	s.forced = false
	s.quit = false
	if s.cfg.BlinkTimeout > 0 {
		s.blinkSet = s.deps.Screen.HasAttr(core.AttrBlink)
	}
	s.timeout = s.nextTimeout(now)
}

// tick runs one iteration: wait, drain, decide, redraw.
func (s *Scheduler) tick(ctx context.Context) error {
	ready, err := s.deps.Waiter.Wait(ctx, s.timeout)
	if err != nil {
		return err
	}
	s.stats.Ticks++

	if ready.Child && s.deps.Child != nil {
		s.readChild()
	}

	event := s.drainEvents()
	if event {
		s.countdown = s.cfg.IdleFPS
		s.pending = true
		s.rescanBlink()
	}

	now := s.clock.Now()
	if s.deps.Screen.FrameDirtyCount() > 0 {
		s.pending = true
	}
	if s.blinkDue(now) {
		s.deps.Screen.MarkAttrDirty(core.AttrBlink)
		s.deps.Screen.ToggleBlink()
		s.lastBlink = now
		s.pending = true
		s.forced = true
		s.stats.BlinkToggles++
	}

	if s.redrawDue(now) {
		if err := s.redraw(now, event); err != nil {
			return err
		}
	} else if s.pending && now.Sub(s.last) < s.active {
		s.stats.Deferred++
	}

	s.timeout = s.nextTimeout(now)
	return nil
}

func (s *Scheduler) readChild() {
	s.stats.ChildReads++
	_, err := s.deps.Child.Pump()
	switch {
	case errors.Is(err, io.EOF):
		s.log.Debug("child exited")
		s.deps.Display.Post(backend.Event{Type: backend.EventInterrupt, Err: ErrChildExited})
	case err != nil:
		s.log.Warn("child read failed", "error", err)
	}
	s.rescanBlink()
}

// rescanBlink looks for blinking text again after the grid changed, either
// from child output or from a handler such as a resize.
func (s *Scheduler) rescanBlink() {
	if s.cfg.BlinkTimeout <= 0 || s.deps.Screen.FrameDirtyCount() == 0 {
		return
	}
	s.blinkSet = s.deps.Screen.HasAttr(core.AttrBlink)
	if !s.blinkSet && s.deps.Screen.BlinkHidden() {
		s.deps.Screen.ToggleBlink()
	}
}

// drainEvents dispatches every pending display event and reports whether
// there were any.
func (s *Scheduler) drainEvents() bool {
	got := false
	for {
		ev, ok := s.deps.Display.PollEvent()
		if !ok {
			return got
		}
		got = true
		s.stats.Events++
		s.dispatch(ev)
	}
}

func (s *Scheduler) dispatch(ev backend.Event) {
	// An interrupt with a payload is a wakeup for the handler.
	if ev.Type == backend.EventInterrupt && ev.Data != nil && ev.Err == nil {
		s.handle(ev)
		return
	}

	switch ev.Type {
	case backend.EventInterrupt:
		s.log.Debug("interrupt", "reason", ev.Err)
		s.quit = true
	case backend.EventError:
		s.log.Warn("display error", "error", ev.Err)
	case backend.EventNone:
	default:
		s.handle(ev)
	}
}

func (s *Scheduler) handle(ev backend.Event) {
	if s.deps.Handler == nil {
		return
	}
	if err := s.deps.Handler.HandleEvent(ev); err != nil {
		if errors.Is(err, ErrQuit) {
			s.quit = true
			return
		}
		s.log.Warn("event handler failed", "event", ev.Type.String(), "error", err)
	}
}

func (s *Scheduler) blinkDue(now time.Time) bool {
	return s.cfg.BlinkTimeout > 0 && s.blinkSet && now.Sub(s.lastBlink) >= s.cfg.BlinkTimeout
}

// interval returns the current minimum time between frames.
func (s *Scheduler) interval() time.Duration {
	if s.countdown > 0 || s.forced {
		return s.active
	}
	return s.idle
}

// redrawDue reports whether a frame should be drawn now. Frames keep
// coming at the active rate while the countdown runs, and otherwise only
// when something is pending.
func (s *Scheduler) redrawDue(now time.Time) bool {
	if !s.pending && s.countdown <= 0 {
		return false
	}
	return now.Sub(s.last) >= s.interval()
}

func (s *Scheduler) redraw(now time.Time, event bool) error {
	if err := s.deps.Drawer.Draw(); err != nil {
		if !backend.IsDisplayError(err) {
			return err
		}
		s.log.Warn("draw failed", "error", err)
	}
	s.last = now
	s.pending = false
	s.forced = false
	s.stats.Redraws++
	if s.countdown > 0 && !event {
		s.countdown--
	}
	return nil
}

// nextTimeout returns how long the next wait may block: until the next
// blink toggle when blinking text is shown, and until the next frame
// deadline when a frame is pending or the active period runs.
func (s *Scheduler) nextTimeout(now time.Time) time.Duration {
	timeout := Forever
	if s.cfg.BlinkTimeout > 0 && s.blinkSet {
		timeout = max(s.lastBlink.Add(s.cfg.BlinkTimeout).Sub(now), 0)
	}
	if s.pending || s.countdown > 0 {
		next := max(s.last.Add(s.interval()).Sub(now), 0)
		if timeout == Forever || next < timeout {
			timeout = next
		}
	}
	return timeout
}
