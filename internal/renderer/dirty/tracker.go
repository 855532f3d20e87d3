package dirty

import "sync"

// Grid is the change state a Tracker consumes. A terminal owns it and marks
// cells as it writes them; the tracker only reads and clears.
type Grid interface {
	// Rows returns the number of rows in the grid.
	Rows() int

	// RowDirtyCount returns how many cells of row y changed since its last pass.
	RowDirtyCount(y int) int

	// TakeCellDirty reports whether cell (y, x) is dirty and clears its bit.
	TakeCellDirty(y, x int) bool

	// ResetRowDirty zeroes the dirty counter of row y.
	ResetRowDirty(y int)

	// ResetFrameDirty zeroes the frame-wide dirty counter.
	ResetFrameDirty()
}

// Tracker walks grid rows during a redraw.
//
// Passes run on the thread that owns the grid. Stats may be read from
// elsewhere.
type Tracker struct {
	grid Grid

	mu    sync.Mutex
	stats TrackerStats
}

// NewTracker creates a tracker over grid.
func NewTracker(grid Grid) *Tracker {
	return &Tracker{grid: grid}
}

// Row begins a pass over row y.
//
// A row is minor when fewer than rows-1 of its cells changed. Cells of a
// minor row report their own dirty state so the renderer can blend them in
// place; a major row reports nothing and is repainted whole.
func (t *Tracker) Row(y int) RowPass {
	count := t.grid.RowDirtyCount(y)
	return RowPass{
		tracker: t,
		y:       y,
		count:   count,
		minor:   count < t.grid.Rows()-1,
	}
}

// EndFrame resets the frame-wide counter after every row has been passed.
func (t *Tracker) EndFrame() {
	t.grid.ResetFrameDirty()

	t.mu.Lock()
	t.stats.Frames++
	t.mu.Unlock()
}

// Stats returns statistics about the passes run so far.
func (t *Tracker) Stats() TrackerStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}

// TrackerStats contains statistics about the tracker state.
type TrackerStats struct {
	Frames        uint64
	RowsPassed    uint64
	MinorRows     uint64
	MajorRows     uint64
	CellsConsumed uint64
}

// RowPass is one traversal of one row.
type RowPass struct {
	tracker  *Tracker
	y        int
	count    int
	minor    bool
	consumed int
	done     bool
}

// Row returns the row index being passed.
func (p *RowPass) Row() int { return p.y }

// Count returns the row's dirty-cell count at the start of the pass.
func (p *RowPass) Count() int { return p.count }

// Minor reports whether the row was classified as a minor update.
func (p *RowPass) Minor() bool { return p.minor }

// Consumed returns the number of dirty bits taken so far.
func (p *RowPass) Consumed() int { return p.consumed }

// Consume takes the dirty bit of column x and returns whether the cell
// should be flagged for a blended redraw.
func (p *RowPass) Consume(x int) bool {
	if p == nil || p.tracker == nil || p.done {
		return false
	}
	if !p.tracker.grid.TakeCellDirty(p.y, x) {
		return false
	}
	p.consumed++
	return p.minor
}

// Done ends the pass and zeroes the row's counter. Calling Done again has
// no effect.
func (p *RowPass) Done() {
	if p == nil || p.tracker == nil || p.done {
		return
	}
	p.done = true
	p.tracker.grid.ResetRowDirty(p.y)

	t := p.tracker
	t.mu.Lock()
	t.stats.RowsPassed++
	if p.minor {
		t.stats.MinorRows++
	} else {
		t.stats.MajorRows++
	}
	t.stats.CellsConsumed += uint64(p.consumed)
	t.mu.Unlock()
}
