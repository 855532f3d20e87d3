package app

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/dshills/glyphterm/internal/renderer/backend"
	"github.com/dshills/glyphterm/internal/scheduler"
)

// Metrics tracks frame and event timing. Counters are atomic so a
// snapshot may be taken from any goroutine.
type Metrics struct {
	clock scheduler.Clock

	frameCount    atomic.Uint64
	frameTotalNs  atomic.Int64
	frameMinNs    atomic.Int64
	frameMaxNs    atomic.Int64
	lastFrameNs   atomic.Int64
	droppedFrames atomic.Uint64

	eventCount   atomic.Uint64
	eventTotalNs atomic.Int64
	eventErrors  atomic.Uint64

	reloads atomic.Uint64

	startTime time.Time
}

// NewMetrics creates a metrics tracker timing with clock. A nil clock uses
// the system clock.
func NewMetrics(clock scheduler.Clock) *Metrics {
	if clock == nil {
		clock = scheduler.SystemClock()
	}
	m := &Metrics{
		clock:     clock,
		startTime: clock.Now(),
	}
	// First frame is always smaller.
	m.frameMinNs.Store(1<<63 - 1)
	return m
}

// RecordFrame records how long one frame took to draw and present.
func (m *Metrics) RecordFrame(duration time.Duration) {
	ns := duration.Nanoseconds()

	m.frameCount.Add(1)
	m.frameTotalNs.Add(ns)
	m.lastFrameNs.Store(ns)

	for {
		old := m.frameMinNs.Load()
		if ns >= old || m.frameMinNs.CompareAndSwap(old, ns) {
			break
		}
	}
	for {
		old := m.frameMaxNs.Load()
		if ns <= old || m.frameMaxNs.CompareAndSwap(old, ns) {
			break
		}
	}
}

// RecordDroppedFrame records a frame the display failed to present.
func (m *Metrics) RecordDroppedFrame() {
	m.droppedFrames.Add(1)
}

// RecordEvent records how long handling one display event took.
func (m *Metrics) RecordEvent(duration time.Duration, failed bool) {
	m.eventCount.Add(1)
	m.eventTotalNs.Add(duration.Nanoseconds())
	if failed {
		m.eventErrors.Add(1)
	}
}

// RecordReload records an applied configuration reload.
func (m *Metrics) RecordReload() {
	m.reloads.Add(1)
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	frameCount := m.frameCount.Load()
	eventCount := m.eventCount.Load()

	var avgFrameNs int64
	if frameCount > 0 {
		avgFrameNs = m.frameTotalNs.Load() / int64(frameCount)
	}
	var avgEventNs int64
	if eventCount > 0 {
		avgEventNs = m.eventTotalNs.Load() / int64(eventCount)
	}

	minFrameNs := m.frameMinNs.Load()
	if minFrameNs == 1<<63-1 {
		minFrameNs = 0
	}

	return MetricsSnapshot{
		Uptime:         m.clock.Now().Sub(m.startTime),
		FrameCount:     frameCount,
		AvgFrameTimeNs: avgFrameNs,
		MinFrameTimeNs: minFrameNs,
		MaxFrameTimeNs: m.frameMaxNs.Load(),
		LastFrameNs:    m.lastFrameNs.Load(),
		DroppedFrames:  m.droppedFrames.Load(),
		EventCount:     eventCount,
		AvgEventNs:     avgEventNs,
		EventErrors:    m.eventErrors.Load(),
		Reloads:        m.reloads.Load(),
	}
}

// Reset clears all metrics.
func (m *Metrics) Reset() {
	m.frameCount.Store(0)
	m.frameTotalNs.Store(0)
	m.frameMinNs.Store(1<<63 - 1)
	m.frameMaxNs.Store(0)
	m.lastFrameNs.Store(0)
	m.droppedFrames.Store(0)
	m.eventCount.Store(0)
	m.eventTotalNs.Store(0)
	m.eventErrors.Store(0)
	m.reloads.Store(0)
	m.startTime = m.clock.Now()
}

// MetricsSnapshot is a point-in-time view of metrics.
type MetricsSnapshot struct {
	Uptime         time.Duration
	FrameCount     uint64
	AvgFrameTimeNs int64
	MinFrameTimeNs int64
	MaxFrameTimeNs int64
	LastFrameNs    int64
	DroppedFrames  uint64
	EventCount     uint64
	AvgEventNs     int64
	EventErrors    uint64
	Reloads        uint64
}

// AvgFrameMs returns the average draw time in milliseconds.
func (s MetricsSnapshot) AvgFrameMs() float64 {
	return float64(s.AvgFrameTimeNs) / 1e6
}

// FrameRate returns frames drawn per second of uptime.
func (s MetricsSnapshot) FrameRate() float64 {
	if s.Uptime <= 0 {
		return 0
	}
	return float64(s.FrameCount) / s.Uptime.Seconds()
}

// DropRate returns the percentage of frames that failed to present.
func (s MetricsSnapshot) DropRate() float64 {
	total := s.FrameCount + s.DroppedFrames
	if total == 0 {
		return 0
	}
	return float64(s.DroppedFrames) / float64(total) * 100
}

// timedDrawer records the duration of every frame.
type timedDrawer struct {
	next    scheduler.Drawer
	metrics *Metrics
}

func (d timedDrawer) Draw() error {
	start := d.metrics.clock.Now()
	err := d.next.Draw()
	if err != nil && backend.IsDisplayError(err) {
		d.metrics.RecordDroppedFrame()
		return err
	}
	d.metrics.RecordFrame(d.metrics.clock.Now().Sub(start))
	return err
}

// timedHandler records the duration of every handled event.
type timedHandler struct {
	next    scheduler.Handler
	metrics *Metrics
}

func (h timedHandler) HandleEvent(ev backend.Event) error {
	start := h.metrics.clock.Now()
	err := h.next.HandleEvent(ev)
	h.metrics.RecordEvent(h.metrics.clock.Now().Sub(start), err != nil && !errors.Is(err, scheduler.ErrQuit))
	return err
}
