package app

import (
	"bytes"
	"image"

	"github.com/dshills/glyphterm/internal/config"
	"github.com/dshills/glyphterm/internal/renderer"
	"github.com/dshills/glyphterm/internal/renderer/backend"
	"github.com/dshills/glyphterm/internal/renderer/core"
	"github.com/dshills/glyphterm/internal/renderer/font"
	"github.com/dshills/glyphterm/internal/term"
)

// Snapshot is one frame rendered offscreen from recorded terminal output.
type Snapshot struct {
	Image    *image.RGBA
	Text     string
	Cols     int
	Rows     int
	Renderer renderer.Stats
	Raster   backend.RasterStats
}

// SnapshotOptions configures RenderSnapshot.
type SnapshotOptions struct {
	// Cols and Rows size the grid. Zero uses the configured window.
	Cols, Rows int

	// Raw feeds data unchanged. Otherwise bare line feeds become CRLF the
	// way a tty in cooked mode would output them.
	Raw bool

	// Catalog replaces the configured font sources when set.
	Catalog font.Catalog

	Logger *Logger
}

// RenderSnapshot replays data through a fresh screen and draws one frame
// into an image.
func RenderSnapshot(cfg *config.Config, data []byte, opts SnapshotOptions) (*Snapshot, error) {
	log := opts.Logger
	if log == nil {
		log = NullLogger()
	}
	cols, rows := opts.Cols, opts.Rows
	if cols <= 0 {
		cols = cfg.Window.Cols
	}
	if rows <= 0 {
		rows = cfg.Window.Rows
	}

	catalog := opts.Catalog
	if catalog == nil {
		c, err := BuildCatalog(cfg.Font, log)
		if err != nil {
			return nil, Fatal(err)
		}
		catalog = c
	}
	fonts, err := NewFontResolver(catalog, cfg, log)
	if err != nil {
		return nil, Fatal(err)
	}
	defer fonts.Unload()

	palette, err := cfg.Colors.Palette()
	if err != nil {
		return nil, &InitError{Component: "colors", Err: err}
	}

	screen := term.NewScreen(cols, rows)
	screen.SetDefaultCursorShape(cfg.Cursor.Shape)
	if !opts.Raw {
		data = crlf(data)
	}
	term.NewParser(screen).Parse(data)

	raster := backend.NewRaster()
	r, err := renderer.New(screen, fonts, raster, renderer.Options{
		Border:          cfg.Window.Border,
		CursorThickness: cfg.Cursor.Thickness,
		AttrFallback:    core.IndexColor(uint8(cfg.Colors.AttrFallback)),
		Palette:         palette,
		Logger:          log.WithComponent("renderer"),
	})
	if err != nil {
		return nil, &InitError{Component: "renderer", Err: err}
	}
	if err := r.Draw(); err != nil {
		return nil, NewOperationError("snapshot", "frame", err)
	}

	return &Snapshot{
		Image:    raster.Image(),
		Text:     screen.Text(),
		Cols:     cols,
		Rows:     rows,
		Renderer: r.Stats(),
		Raster:   raster.Stats(),
	}, nil
}

func crlf(data []byte) []byte {
	if bytes.IndexByte(data, '\n') < 0 {
		return data
	}
	out := make([]byte, 0, len(data)+bytes.Count(data, []byte{'\n'}))
	for i, b := range data {
		if b == '\n' && (i == 0 || data[i-1] != '\r') {
			out = append(out, '\r')
		}
		out = append(out, b)
	}
	return out
}
