package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dshills/glyphterm/internal/term"
)

// Forever is the timeout of a wait without a deadline.
const Forever time.Duration = -1

// Ready reports which sources ended a wait. Both are false on timeout.
type Ready struct {
	Child   bool
	Display bool
}

// Waiter blocks until the child has output, the display has events or
// the timeout elapses. It is the only place the loop suspends.
type Waiter interface {
	Wait(ctx context.Context, timeout time.Duration) (Ready, error)
}

// pollSlice bounds each poll so the watcher notices Close.
const pollSlice = 100 // milliseconds

// PollWaiter waits on a child descriptor with poll(2) and on a display
// event channel. A helper goroutine turns descriptor readiness into a
// channel send; it never touches screen state.
type PollWaiter struct {
	fd     uintptr
	child  bool
	events <-chan struct{}
	poll   func(fd uintptr, timeoutMs int) (bool, error)

	readable chan error
	resume   chan struct{}
	done     chan struct{}

	startOnce sync.Once
	closeOnce sync.Once
	consumed  bool
}

// NewPollWaiter returns a waiter for child descriptor fd and display
// notifications on events.
func NewPollWaiter(fd uintptr, events <-chan struct{}) *PollWaiter {
	w := newWaiter(events)
	w.fd = fd
	w.child = true
	return w
}

// NewDisplayWaiter returns a waiter that only watches display events.
func NewDisplayWaiter(events <-chan struct{}) *PollWaiter {
	return newWaiter(events)
}

func newWaiter(events <-chan struct{}) *PollWaiter {
	return &PollWaiter{
		events:   events,
		poll:     term.Readable,
		readable: make(chan error, 1),
		resume:   make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// watch reports readiness of the descriptor, then waits until the loop
// has read the data before polling again.
func (w *PollWaiter) watch() {
	for {
		ok, err := w.poll(w.fd, pollSlice)
		select {
		case <-w.done:
			return
		default:
		}
		if err == nil && !ok {
			continue
		}

		select {
		case w.readable <- err:
		case <-w.done:
			return
		}
		if err != nil {
			return
		}

		select {
		case <-w.resume:
		case <-w.done:
			return
		}
	}
}

// Wait implements Waiter. A negative timeout waits without a deadline.
// Poll failures other than EINTR are returned wrapped in ErrWait.
func (w *PollWaiter) Wait(ctx context.Context, timeout time.Duration) (Ready, error) {
	if w.child {
		w.startOnce.Do(func() { go w.watch() })
	}
	if w.consumed {
		w.consumed = false
		w.resume <- struct{}{}
	}

	var timer <-chan time.Time
	if timeout >= 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timer = t.C
	}

	var r Ready
	select {
	case <-ctx.Done():
		return r, ctx.Err()
	case err := <-w.readable:
		if err != nil {
			return r, fmt.Errorf("%w: %v", ErrWait, err)
		}
		r.Child = true
	case <-w.events:
		r.Display = true
	case <-timer:
	}

	// Pick up the other source if it is ready too.
	if !r.Child {
		select {
		case err := <-w.readable:
			if err != nil {
				return r, fmt.Errorf("%w: %v", ErrWait, err)
			}
			r.Child = true
		default:
		}
	}
	if !r.Display {
		select {
		case <-w.events:
			r.Display = true
		default:
		}
	}
	if r.Child {
		w.consumed = true
	}
	return r, nil
}

// Close stops the watcher goroutine.
func (w *PollWaiter) Close() error {
	w.closeOnce.Do(func() { close(w.done) })
	return nil
}
