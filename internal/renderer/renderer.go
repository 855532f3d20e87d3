package renderer

import (
	"errors"
	"fmt"

	"github.com/dshills/glyphterm/internal/renderer/backend"
	"github.com/dshills/glyphterm/internal/renderer/batch"
	"github.com/dshills/glyphterm/internal/renderer/core"
	"github.com/dshills/glyphterm/internal/renderer/dirty"
	"github.com/dshills/glyphterm/internal/renderer/font"
)

// ErrFontsNotLoaded is returned by New when the resolver has no faces.
var ErrFontsNotLoaded = errors.New("renderer: fonts not loaded")

// Screen is the terminal state a frame is drawn from.
type Screen interface {
	dirty.Grid

	// Cols returns the number of columns.
	Cols() int

	// Row returns the cells of row y. The slice is read, never kept.
	Row(y int) []core.Cell

	// Cursor returns the cursor position.
	Cursor() (x, y int)

	// CursorHidden reports whether the application hid the cursor.
	CursorHidden() bool

	// CursorShape returns the DECSCUSR shape.
	CursorShape() int

	// ReverseVideo reports whether the whole screen is in reverse video.
	ReverseVideo() bool

	// BlinkHidden reports whether blinking text is in its hidden phase.
	BlinkHidden() bool

	// SelectionActive reports whether a selection applies to this screen.
	SelectionActive() bool

	// Selected reports whether cell (x, y) is selected.
	Selected(x, y int) bool
}

// Logger is the logging the renderer uses.
type Logger interface {
	Debug(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}

// Options configures the renderer.
type Options struct {
	// Border is the padding around the grid in pixels.
	Border int

	// CursorThickness is the height of the underline cursor and the width
	// of the bar cursor, in pixels.
	CursorThickness int

	// AttrFallback is the color used for bold or italic text when the
	// loaded font cannot show the style.
	AttrFallback core.ColorID

	// Palette maps color ids to colors.
	Palette core.Palette

	// Logger receives debug output. Nil disables logging.
	Logger Logger
}

// DefaultOptions returns sensible default options.
func DefaultOptions() Options {
	return Options{
		Border:          2,
		CursorThickness: 2,
		AttrFallback:    core.IndexColor(11),
		Palette:         core.DefaultPalette(),
	}
}

// Stats counts rendering work.
type Stats struct {
	Frames  uint64
	Rows    uint64
	Runs    uint64
	Glyphs  uint64
	Fonts   font.Stats
	Tracker dirty.TrackerStats
}

// Renderer is the main rendering facade. It is driven from the thread
// that owns the screen.
type Renderer struct {
	screen  Screen
	fonts   *font.Resolver
	tracker *dirty.Tracker
	builder *batch.Builder
	out     backend.Renderer
	opts    Options
	log     Logger

	visible bool
	focused bool
	width   int
	height  int

	oldX, oldY int

	specs []batch.GlyphSpec
	runs  []batch.Run
	stats Stats
}

// New creates a renderer and initializes out to fit the screen.
func New(screen Screen, fonts *font.Resolver, out backend.Renderer, opts Options) (*Renderer, error) {
	if !fonts.Loaded() {
		return nil, ErrFontsNotLoaded
	}
	log := opts.Logger
	if log == nil {
		log = nopLogger{}
	}
	r := &Renderer{
		screen:  screen,
		fonts:   fonts,
		tracker: dirty.NewTracker(screen),
		out:     out,
		opts:    opts,
		log:     log,
		visible: true,
		focused: true,
	}
	r.builder = batch.NewBuilder(fonts, r.cellMetrics())

	r.width, r.height = r.pixelSize(screen.Cols(), screen.Rows())
	r.out.SetClearColor(r.opts.Palette.Resolve(core.ColorDefaultBG))
	if err := r.out.Init(r.width, r.height); err != nil {
		return nil, fmt.Errorf("renderer init: %w", err)
	}
	return r, nil
}

func (r *Renderer) cellMetrics() batch.Metrics {
	cw, ch := r.fonts.CellSize()
	return batch.Metrics{CellWidth: cw, CellHeight: ch, Border: r.opts.Border}
}

func (r *Renderer) pixelSize(cols, rows int) (int, int) {
	m := r.builder.Metrics()
	return 2*m.Border + cols*m.CellWidth, 2*m.Border + rows*m.CellHeight
}

// Metrics returns the current cell geometry.
func (r *Renderer) Metrics() batch.Metrics {
	return r.builder.Metrics()
}

// Size returns the surface size in pixels.
func (r *Renderer) Size() (width, height int) {
	return r.width, r.height
}

// GridSize returns how many cells fit a width x height pixel window.
func (r *Renderer) GridSize(width, height int) (cols, rows int) {
	return r.builder.Metrics().GridSize(width, height)
}

// SetVisible records whether the window can be seen. Nothing is drawn
// while it cannot; the owner marks the screen dirty when it shows again.
func (r *Renderer) SetVisible(v bool) { r.visible = v }

// Visible reports the window visibility.
func (r *Renderer) Visible() bool { return r.visible }

// SetFocused records keyboard focus, which changes the cursor shape.
func (r *Renderer) SetFocused(f bool) { r.focused = f }

// Focused reports keyboard focus.
func (r *Renderer) Focused() bool { return r.focused }

// SetPalette replaces the color table.
func (r *Renderer) SetPalette(p core.Palette) {
	r.opts.Palette = p
	r.out.SetClearColor(p.Resolve(core.ColorDefaultBG))
}

// Palette returns the color table.
func (r *Renderer) Palette() core.Palette {
	return r.opts.Palette
}

// Draw redraws the whole screen and presents the frame.
func (r *Renderer) Draw() error {
	return r.DrawRegion(dirty.Full(r.screen.Cols(), r.screen.Rows()))
}

// DrawRegion redraws the cells of region, draws the cursor and presents
// the frame. While the window is not visible nothing is drawn, but the
// frame still ends so the loop can go idle.
func (r *Renderer) DrawRegion(region dirty.Region) error {
	if !r.visible {
		r.tracker.EndFrame()
		return nil
	}
	region = region.Clamp(r.screen.Cols(), r.screen.Rows())

	for y := region.StartRow; y < region.EndRow; y++ {
		r.drawRow(y, region.StartCol, region.EndCol)
	}
	r.drawCursor()
	r.tracker.EndFrame()
	r.stats.Frames++

	if err := r.out.Present(); err != nil {
		return &backend.DisplayError{Op: "present", Err: err}
	}
	return nil
}

func (r *Renderer) drawRow(y, x1, x2 int) {
	cells := r.screen.Row(y)[x1:x2]

	pass := r.tracker.Row(y)
	r.specs = r.builder.Build(r.specs[:0], cells, x1, y, &pass)

	var selected func(x int) bool
	if r.screen.SelectionActive() {
		selected = func(x int) bool { return r.screen.Selected(x, y) }
	}
	r.runs = batch.Group(r.runs[:0], cells, x1, r.specs, selected)
	for _, run := range r.runs {
		r.drawRun(run, y)
	}
	pass.Done()

	r.stats.Rows++
	r.stats.Runs += uint64(len(r.runs))
	r.stats.Glyphs += uint64(len(r.specs))
}

// drawCell draws a single cell outside of a row pass.
func (r *Renderer) drawCell(c core.Cell, x, y int) {
	specs := r.builder.Build(nil, []core.Cell{c}, x, y, nil)
	r.drawRun(batch.Run{Col: x, Base: c, Specs: specs}, y)
}

// Resize adapts the surface to a cols x rows grid. The screen itself is
// resized by its owner.
func (r *Renderer) Resize(cols, rows int) {
	r.width, r.height = r.pixelSize(cols, rows)
	r.out.Resize(r.width, r.height)
	r.out.DrawRect(r.opts.Palette.Resolve(core.ColorDefaultBG), core.Rect{W: r.width, H: r.height})
	r.oldX, r.oldY = 0, 0
	r.log.Debug("renderer resized", "cols", cols, "rows", rows, "width", r.width, "height", r.height)
}

// ReloadFonts replaces every face and the fallback cache, and updates the
// cell geometry. The caller resizes the grid to the new metrics.
func (r *Renderer) ReloadFonts(p font.Pattern) error {
	if err := r.fonts.Reload(p); err != nil {
		return err
	}
	m := r.cellMetrics()
	r.builder.SetMetrics(m)
	r.log.Debug("fonts reloaded", "pattern", p.String(), "cell_width", m.CellWidth, "cell_height", m.CellHeight)
	return nil
}

// Fonts returns the font resolver.
func (r *Renderer) Fonts() *font.Resolver {
	return r.fonts
}

// Stats returns rendering statistics.
func (r *Renderer) Stats() Stats {
	s := r.stats
	s.Fonts = r.fonts.Stats()
	s.Tracker = r.tracker.Stats()
	return s
}
