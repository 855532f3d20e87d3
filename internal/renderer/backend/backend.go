// Package backend provides the drawing surfaces and event sources the
// renderer talks to.
//
// A Renderer receives pixel-space rectangles and glyph runs. A Display
// delivers input and window events and owns the clipboard. The tcell
// Terminal implements both on a character terminal, Raster draws into an
// in-memory image, and Recorder logs calls for tests.
package backend

import (
	"errors"
	"fmt"

	"github.com/dshills/glyphterm/internal/renderer/batch"
	"github.com/dshills/glyphterm/internal/renderer/core"
)

var (
	// ErrClosed is returned by operations on a closed display.
	ErrClosed = errors.New("display closed")

	// ErrInvalidSize is returned when a surface has no area.
	ErrInvalidSize = errors.New("invalid surface size")
)

// Renderer draws one frame at a time. Calls between Present calls build
// the next frame.
type Renderer interface {
	// Init prepares a width x height pixel surface.
	Init(width, height int) error

	// SetClearColor sets the color used for areas nothing draws over.
	SetClearColor(c core.Color)

	// DrawRect fills a pixel rectangle.
	DrawRect(c core.Color, r core.Rect)

	// DrawGlyphs draws specs in one color.
	DrawGlyphs(specs []batch.GlyphSpec, c core.Color)

	// Resize changes the surface size. The next frame must repaint.
	Resize(width, height int)

	// Present makes the frame visible.
	Present() error
}

// Display is the source of window and input events.
type Display interface {
	// Events returns a channel that receives a value whenever events are
	// pending. Several pending events may share one notification.
	Events() <-chan struct{}

	// PollEvent returns the next pending event without blocking.
	PollEvent() (Event, bool)

	// Post queues ev as if the display had produced it.
	Post(ev Event)

	// Size returns the window size in pixels.
	Size() (width, height int)

	// Clipboard returns the display's clipboard.
	Clipboard() Clipboard

	// Close releases the display.
	Close() error
}

// DisplayError reports a failed display request. It is not fatal.
type DisplayError struct {
	Op  string
	Err error
}

func (e *DisplayError) Error() string {
	return fmt.Sprintf("display %s: %v", e.Op, e.Err)
}

func (e *DisplayError) Unwrap() error {
	return e.Err
}

// IsDisplayError reports whether err is or wraps a DisplayError.
func IsDisplayError(err error) bool {
	var de *DisplayError
	return errors.As(err, &de)
}
