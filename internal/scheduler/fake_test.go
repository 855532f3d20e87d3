package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/dshills/glyphterm/internal/renderer/backend"
	"github.com/dshills/glyphterm/internal/renderer/core"
)

var errScriptDone = errors.New("script done")

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

// since returns the time elapsed since t0.
func (c *fakeClock) since() time.Duration { return c.now.Sub(t0) }

// step is one scripted wake-up. after is how long the wait lasted;
// a negative value means the full timeout.
type step struct {
	after time.Duration
	ready Ready
	do    func()
}

// scriptWaiter plays back steps, advancing the fake clock.
type scriptWaiter struct {
	clock    *fakeClock
	steps    []step
	timeouts []time.Duration
}

func (w *scriptWaiter) Wait(_ context.Context, timeout time.Duration) (Ready, error) {
	w.timeouts = append(w.timeouts, timeout)
	if len(w.steps) == 0 {
		return Ready{}, errScriptDone
	}
	st := w.steps[0]
	w.steps = w.steps[1:]

	d := st.after
	if d < 0 {
		if timeout < 0 {
			return Ready{}, errors.New("full timeout requested for an endless wait")
		}
		d = timeout
	}
	w.clock.now = w.clock.now.Add(d)
	if st.do != nil {
		st.do()
	}
	return st.ready, nil
}

func timeouts(n int) []step {
	steps := make([]step, n)
	for i := range steps {
		steps[i].after = -1
	}
	return steps
}

type fakeScreen struct {
	clock   *fakeClock
	dirty   int
	blink   bool
	hidden  bool
	scans   int
	toggles []time.Duration
}

func (s *fakeScreen) FrameDirtyCount() int { return s.dirty }

func (s *fakeScreen) HasAttr(attr core.Attribute) bool {
	s.scans++
	return attr == core.AttrBlink && s.blink
}

func (s *fakeScreen) MarkAttrDirty(attr core.Attribute) {
	if attr == core.AttrBlink && s.blink {
		s.dirty++
	}
}

func (s *fakeScreen) BlinkHidden() bool { return s.hidden }

func (s *fakeScreen) ToggleBlink() bool {
	s.hidden = !s.hidden
	s.toggles = append(s.toggles, s.clock.since())
	return s.hidden
}

type fakeDrawer struct {
	clock  *fakeClock
	screen *fakeScreen
	draws  []time.Duration
	err    error
}

func (d *fakeDrawer) Draw() error {
	d.draws = append(d.draws, d.clock.since())
	d.screen.dirty = 0
	return d.err
}

type fakeChild struct {
	pumps int
	fn    func() error
}

func (c *fakeChild) Pump() (int, error) {
	c.pumps++
	if c.fn != nil {
		return 1, c.fn()
	}
	return 1, nil
}

type fakeHandler struct {
	events []backend.EventType
	err    func(ev backend.Event) error
}

func (h *fakeHandler) HandleEvent(ev backend.Event) error {
	h.events = append(h.events, ev.Type)
	if h.err != nil {
		return h.err(ev)
	}
	return nil
}

type fakeLogger struct {
	warns []string
}

func (l *fakeLogger) Debug(string, ...any)     {}
func (l *fakeLogger) Warn(msg string, _ ...any) { l.warns = append(l.warns, msg) }

// harness wires a scheduler to fakes. Pacing is 100 fps active (10ms),
// 20 fps idle (50ms) and a 500ms blink.
type harness struct {
	clock   *fakeClock
	waiter  *scriptWaiter
	display *backend.Recorder
	screen  *fakeScreen
	drawer  *fakeDrawer
	child   *fakeChild
	handler *fakeHandler
	log     *fakeLogger
	sched   *Scheduler
}

func newHarness(steps ...step) *harness {
	clock := &fakeClock{now: t0}
	screen := &fakeScreen{clock: clock}
	h := &harness{
		clock:   clock,
		waiter:  &scriptWaiter{clock: clock, steps: steps},
		display: backend.NewRecorder(100, 100),
		screen:  screen,
		drawer:  &fakeDrawer{clock: clock, screen: screen},
		child:   &fakeChild{},
		handler: &fakeHandler{},
		log:     &fakeLogger{},
	}
	h.sched = New(Deps{
		Waiter:  h.waiter,
		Display: h.display,
		Child:   h.child,
		Screen:  h.screen,
		Drawer:  h.drawer,
		Handler: h.handler,
		Clock:   h.clock,
		Logger:  h.log,
	}, Config{ActiveFPS: 100, IdleFPS: 20, BlinkTimeout: 500 * time.Millisecond})
	return h
}

// run runs the loop until the script is exhausted and returns any other
// error.
func (h *harness) run() error {
	err := h.sched.Run(context.Background())
	if errors.Is(err, errScriptDone) {
		return nil
	}
	return err
}

// ticks runs ticks after the caller prepared the state with start.
func (h *harness) ticks() error {
	for !h.sched.quit {
		if err := h.sched.tick(context.Background()); err != nil {
			if errors.Is(err, errScriptDone) {
				return nil
			}
			return err
		}
	}
	return nil
}

const (
	activeInterval = 10 * time.Millisecond
	idleInterval   = 50 * time.Millisecond
)
