package scheduler

import (
	"context"
	"errors"
	"io"
	"slices"
	"testing"
	"time"

	"github.com/dshills/glyphterm/internal/renderer/backend"
)

func TestFirstFrameDrawnImmediately(t *testing.T) {
	h := newHarness(step{after: 0})
	if err := h.run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(h.drawer.draws) != 1 || h.drawer.draws[0] != 0 {
		t.Errorf("draws = %v, want one at 0", h.drawer.draws)
	}
	want := []time.Duration{0, activeInterval}
	if !slices.Equal(h.waiter.timeouts, want) {
		t.Errorf("timeouts = %v, want %v", h.waiter.timeouts, want)
	}
}

func TestCountdownGoesIdle(t *testing.T) {
	h := newHarness(timeouts(20)...)
	if err := h.run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(h.drawer.draws) != 20 {
		t.Fatalf("draws = %d, want 20 active frames", len(h.drawer.draws))
	}
	for i, at := range h.drawer.draws {
		if want := time.Duration(i) * activeInterval; at != want {
			t.Errorf("draw %d at %v, want %v", i, at, want)
		}
	}
	if got := h.waiter.timeouts[20]; got != Forever {
		t.Errorf("idle timeout = %v, want Forever", got)
	}
}

func TestMinimumIntervalUnderLoad(t *testing.T) {
	steps := make([]step, 30)
	h := newHarness()
	for i := range steps {
		steps[i] = step{
			after: 3 * time.Millisecond,
			ready: Ready{Display: true},
			do: func() {
				h.display.Post(backend.Event{Type: backend.EventKey, Key: backend.KeyRune, Rune: 'x'})
			},
		}
	}
	h.waiter.steps = steps

	if err := h.run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(h.drawer.draws) < 5 {
		t.Fatalf("draws = %v, want frames while events arrive", h.drawer.draws)
	}
	for i := 1; i < len(h.drawer.draws); i++ {
		if gap := h.drawer.draws[i] - h.drawer.draws[i-1]; gap < activeInterval {
			t.Errorf("draws %d and %d are %v apart, want at least %v", i-1, i, gap, activeInterval)
		}
	}
	if len(h.handler.events) != 30 {
		t.Errorf("handled %d events, want 30", len(h.handler.events))
	}
	if h.sched.Stats().Deferred == 0 {
		t.Error("some frames should have been deferred")
	}
}

func TestIdleRate(t *testing.T) {
	h := newHarness(
		step{after: 5 * time.Millisecond, ready: Ready{Child: true}},
		step{after: -1},
	)
	h.child.fn = func() error {
		h.screen.dirty = 1
		return nil
	}

	h.sched.start()
	h.sched.countdown = 0
	h.sched.pending = false
	h.sched.last = h.clock.now
	h.sched.timeout = h.sched.nextTimeout(h.clock.now)
	if h.sched.timeout != Forever {
		t.Fatalf("idle timeout = %v, want Forever", h.sched.timeout)
	}

	if err := h.ticks(); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if got := h.waiter.timeouts[1]; got != idleInterval-5*time.Millisecond {
		t.Errorf("timeout after output = %v, want %v", got, idleInterval-5*time.Millisecond)
	}
	if !slices.Equal(h.drawer.draws, []time.Duration{idleInterval}) {
		t.Errorf("draws = %v, want one at %v", h.drawer.draws, idleInterval)
	}
	if got := h.waiter.timeouts[2]; got != Forever {
		t.Errorf("timeout after frame = %v, want Forever", got)
	}
}

func TestBlinkToggles(t *testing.T) {
	h := newHarness(timeouts(23)...)
	h.screen.blink = true
	if err := h.run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []time.Duration{500 * time.Millisecond, 1000 * time.Millisecond, 1500 * time.Millisecond}
	if !slices.Equal(h.screen.toggles, want) {
		t.Errorf("toggles = %v, want %v", h.screen.toggles, want)
	}
	if got := h.waiter.timeouts[20]; got != 310*time.Millisecond {
		t.Errorf("timeout after the active period = %v, want 310ms to the blink", got)
	}
	if got := h.waiter.timeouts[21]; got != 500*time.Millisecond {
		t.Errorf("timeout between blinks = %v, want 500ms", got)
	}
	for _, at := range want {
		if !slices.Contains(h.drawer.draws, at) {
			t.Errorf("no frame drawn at blink toggle %v", at)
		}
	}
}

func TestBlinkRedrawDeferred(t *testing.T) {
	h := newHarness(timeouts(2)...)
	h.screen.blink = true

	h.sched.start()
	h.sched.countdown = 0
	h.sched.pending = false
	h.clock.now = t0.Add(495 * time.Millisecond)
	h.sched.last = h.clock.now
	h.sched.timeout = h.sched.nextTimeout(h.clock.now)

	if err := h.ticks(); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if !slices.Equal(h.screen.toggles, []time.Duration{500 * time.Millisecond}) {
		t.Errorf("toggles = %v, want [500ms]", h.screen.toggles)
	}
	if !slices.Equal(h.drawer.draws, []time.Duration{505 * time.Millisecond}) {
		t.Errorf("draws = %v, want [505ms]", h.drawer.draws)
	}
	if h.sched.Stats().Deferred != 1 {
		t.Errorf("Deferred = %d, want 1", h.sched.Stats().Deferred)
	}
}

func TestNoBlinkWithoutBlinkingText(t *testing.T) {
	h := newHarness(timeouts(20)...)
	if err := h.run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(h.screen.toggles) != 0 {
		t.Errorf("toggles = %v, want none", h.screen.toggles)
	}
}

func TestBlinkRescan(t *testing.T) {
	h := newHarness(
		step{after: time.Millisecond, ready: Ready{Child: true}},
		step{after: time.Millisecond, ready: Ready{Child: true}},
	)
	h.screen.hidden = true
	calls := 0
	h.child.fn = func() error {
		calls++
		if calls == 1 {
			h.screen.dirty = 1
		}
		return nil
	}

	if err := h.run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if h.child.pumps != 2 {
		t.Errorf("pumps = %d, want 2", h.child.pumps)
	}
	// One scan at start, one after the output that changed the screen.
	if h.screen.scans != 2 {
		t.Errorf("scans = %d, want 2", h.screen.scans)
	}
	if h.screen.hidden {
		t.Error("blink phase should be reset to shown once no blinking text is left")
	}
}

func TestBlinkRescanAfterEvent(t *testing.T) {
	h := newHarness()
	h.screen.blink = true
	// A resize drops the rows that held the blinking text.
	h.handler.err = func(ev backend.Event) error {
		if ev.Type == backend.EventResize {
			h.screen.blink = false
			h.screen.dirty = 1
		}
		return nil
	}
	h.waiter.steps = []step{
		{after: time.Millisecond, ready: Ready{Display: true}, do: func() {
			h.display.Post(backend.Event{Type: backend.EventResize, Width: 10, Height: 10})
		}},
		{after: 600 * time.Millisecond},
		{after: 600 * time.Millisecond},
	}

	if err := h.run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if h.screen.scans != 2 {
		t.Errorf("scans = %d, want 2", h.screen.scans)
	}
	if len(h.screen.toggles) != 0 {
		t.Errorf("toggles = %v, want none once the blinking text is gone", h.screen.toggles)
	}
}

func TestChildExitEndsLoop(t *testing.T) {
	h := newHarness(step{after: 0, ready: Ready{Child: true}}, step{after: 0})
	h.child.fn = func() error { return io.EOF }

	if err := h.sched.Run(context.Background()); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}
	if len(h.waiter.timeouts) != 1 {
		t.Errorf("waits = %d, want the loop to end after the first tick", len(h.waiter.timeouts))
	}
	if len(h.drawer.draws) != 1 {
		t.Errorf("draws = %d, want the tick to finish its frame", len(h.drawer.draws))
	}
	if h.sched.Stats().Events != 1 {
		t.Errorf("Events = %d, want the interrupt", h.sched.Stats().Events)
	}
}

func TestEventDispatch(t *testing.T) {
	h := newHarness()
	h.handler.err = func(ev backend.Event) error {
		switch {
		case ev.Type == backend.EventKey && ev.Key == backend.KeyEscape:
			return ErrQuit
		case ev.Type == backend.EventMouse:
			return errors.New("boom")
		}
		return nil
	}
	h.waiter.steps = []step{
		{after: 0, ready: Ready{Display: true}, do: func() {
			h.display.Post(backend.Event{Type: backend.EventKey, Key: backend.KeyEnter})
			h.display.Post(backend.Event{Type: backend.EventResize, Width: 10, Height: 10})
			h.display.Post(backend.Event{Type: backend.EventError, Err: errors.New("lost")})
			h.display.Post(backend.Event{Type: backend.EventFocus, Focused: true})
			h.display.Post(backend.Event{Type: backend.EventMouse})
			h.display.Post(backend.Event{Type: backend.EventInterrupt, Data: "reload"})
		}},
		{after: time.Millisecond, ready: Ready{Display: true}, do: func() {
			h.display.Post(backend.Event{Type: backend.EventKey, Key: backend.KeyEscape})
		}},
		{after: time.Millisecond},
	}

	if err := h.sched.Run(context.Background()); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}
	want := []backend.EventType{backend.EventKey, backend.EventResize, backend.EventFocus, backend.EventMouse, backend.EventInterrupt, backend.EventKey}
	if !slices.Equal(h.handler.events, want) {
		t.Errorf("handled %v, want %v", h.handler.events, want)
	}
	if !slices.Equal(h.log.warns, []string{"display error", "event handler failed"}) {
		t.Errorf("warnings = %q", h.log.warns)
	}
	if len(h.waiter.timeouts) != 2 {
		t.Errorf("waits = %d, want the loop to stop after ErrQuit", len(h.waiter.timeouts))
	}
}

func TestDrawErrors(t *testing.T) {
	t.Run("display error", func(t *testing.T) {
		h := newHarness(step{after: 0}, step{after: -1})
		h.drawer.err = &backend.DisplayError{Op: "present", Err: errors.New("gone")}
		if err := h.run(); err != nil {
			t.Fatalf("Run: %v", err)
		}
		if len(h.drawer.draws) != 2 {
			t.Errorf("draws = %d, want the loop to keep going", len(h.drawer.draws))
		}
		if len(h.log.warns) != 2 || h.log.warns[0] != "draw failed" {
			t.Errorf("warnings = %q", h.log.warns)
		}
	})

	t.Run("fatal", func(t *testing.T) {
		h := newHarness(step{after: 0}, step{after: -1})
		boom := errors.New("boom")
		h.drawer.err = boom
		if err := h.run(); !errors.Is(err, boom) {
			t.Errorf("Run() = %v, want %v", err, boom)
		}
	})
}

type failingWaiter struct{}

func (failingWaiter) Wait(context.Context, time.Duration) (Ready, error) {
	return Ready{}, ErrWait
}

func TestWaitErrorIsFatal(t *testing.T) {
	h := newHarness()
	h.sched.deps.Waiter = failingWaiter{}
	if err := h.sched.Run(context.Background()); !errors.Is(err, ErrWait) {
		t.Errorf("Run() = %v, want ErrWait", err)
	}
}

func TestRunTwice(t *testing.T) {
	h := newHarness()
	h.sched.running.Store(true)
	if err := h.sched.Run(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("Run() = %v, want ErrAlreadyRunning", err)
	}
}

func TestInvalidate(t *testing.T) {
	h := newHarness(timeouts(20)...)
	if err := h.run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := h.sched.nextTimeout(h.clock.now); got != Forever {
		t.Fatalf("nextTimeout() = %v when idle, want Forever", got)
	}
	h.sched.Invalidate()
	if got := h.sched.nextTimeout(h.clock.now); got != idleInterval {
		t.Errorf("nextTimeout() = %v after Invalidate, want %v", got, idleInterval)
	}
}

func TestConfigDefaults(t *testing.T) {
	tests := []struct {
		name string
		in   Config
		want Config
	}{
		{"zero", Config{}, DefaultConfig()},
		{"idle above active", Config{ActiveFPS: 30, IdleFPS: 60, BlinkTimeout: time.Second}, Config{ActiveFPS: 30, IdleFPS: 30, BlinkTimeout: time.Second}},
		{"negative blink", Config{ActiveFPS: 60, IdleFPS: 30, BlinkTimeout: -1}, Config{ActiveFPS: 60, IdleFPS: 30}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(Deps{}, tt.in)
			if got := s.Config(); got != tt.want {
				t.Errorf("Config() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
