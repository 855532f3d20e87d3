package app

import (
	"io"

	"github.com/dshills/glyphterm/internal/config/watcher"
	"github.com/dshills/glyphterm/internal/renderer"
	"github.com/dshills/glyphterm/internal/renderer/backend"
	"github.com/dshills/glyphterm/internal/renderer/core"
	"github.com/dshills/glyphterm/internal/scheduler"
	"github.com/dshills/glyphterm/internal/term"
)

// bootstrapper handles component initialization with proper cleanup on failure.
type bootstrapper struct {
	app       *Application
	opts      Options
	initOrder []string
}

// newBootstrapper creates a new bootstrapper for the application.
func newBootstrapper(app *Application, opts Options) *bootstrapper {
	return &bootstrapper{
		app:       app,
		opts:      opts,
		initOrder: make([]string, 0, 5),
	}
}

// bootstrap initializes all components in dependency order.
// On failure, it cleans up already-initialized components.
func (b *bootstrapper) bootstrap() error {
	steps := []func() error{
		b.initFonts,
		b.initTerminal,
		b.initRenderer,
		b.initScheduler,
		b.initWatcher,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			b.cleanup()
			return err
		}
	}
	return nil
}

// initFonts builds the catalog and loads the primary faces.
func (b *bootstrapper) initFonts() error {
	log := b.app.log.WithComponent("font")

	catalog := b.opts.Catalog
	if catalog == nil {
		c, err := BuildCatalog(b.app.cfg.Font, log)
		if err != nil {
			return &InitError{Component: "fonts", Err: err}
		}
		catalog = c
	}

	fonts, err := NewFontResolver(catalog, b.app.cfg, log)
	if err != nil {
		return &InitError{Component: "fonts", Err: err}
	}
	b.app.fonts = fonts
	b.initOrder = append(b.initOrder, "fonts")
	return nil
}

// initTerminal starts the shell, or wraps the given child.
func (b *bootstrapper) initTerminal() error {
	cfg := b.app.cfg
	topts := term.Options{
		Shell:       cfg.Terminal.Shell,
		Args:        cfg.Terminal.Args,
		Env:         cfg.Terminal.Env,
		WorkDir:     b.opts.WorkDir,
		TermName:    cfg.Terminal.TermName,
		Cols:        cfg.Window.Cols,
		Rows:        cfg.Window.Rows,
		CursorShape: cfg.Cursor.Shape,
		Logger:      b.app.log.WithComponent("term"),
	}

	if b.opts.Child != nil {
		b.app.term = term.New(b.opts.Child, topts)
	} else {
		t, err := term.Start(topts)
		if err != nil {
			return &InitError{Component: "terminal", Err: err}
		}
		b.app.term = t
	}
	b.app.wireTerminal()
	b.initOrder = append(b.initOrder, "terminal")
	return nil
}

// initRenderer creates the renderer and fits the grid to the window.
func (b *bootstrapper) initRenderer() error {
	cfg := b.app.cfg
	palette, err := cfg.Colors.Palette()
	if err != nil {
		return &InitError{Component: "colors", Err: err}
	}

	r, err := renderer.New(b.app.term.Screen(), b.app.fonts, b.opts.Output, renderer.Options{
		Border:          cfg.Window.Border,
		CursorThickness: cfg.Cursor.Thickness,
		AttrFallback:    core.IndexColor(uint8(cfg.Colors.AttrFallback)),
		Palette:         palette,
		Logger:          b.app.log.WithComponent("renderer"),
	})
	if err != nil {
		return &InitError{Component: "renderer", Err: err}
	}
	b.app.renderer = r
	b.initOrder = append(b.initOrder, "renderer")

	b.app.syncMetrics()
	w, h := b.app.display.Size()
	if err := b.app.fit(w, h); err != nil {
		b.app.log.Warn("initial resize failed", "error", err)
	}
	return nil
}

// initScheduler creates the frame loop over the child and the display.
func (b *bootstrapper) initScheduler() error {
	cfg := b.app.cfg.Scheduler

	b.app.waiter = b.opts.Waiter
	if b.app.waiter == nil {
		b.app.waiter = scheduler.NewPollWaiter(b.app.term.Fd(), b.app.display.Events())
	}

	b.app.sched = scheduler.New(scheduler.Deps{
		Waiter:  b.app.waiter,
		Display: b.app.display,
		Child:   b.app.term,
		Screen:  b.app.term.Screen(),
		Drawer:  timedDrawer{next: b.app.renderer, metrics: b.app.metrics},
		Handler: timedHandler{next: b.app, metrics: b.app.metrics},
		Clock:   b.opts.Clock,
		Logger:  b.app.log.WithComponent("scheduler"),
	}, scheduler.Config{
		ActiveFPS:    cfg.ActiveFPS,
		IdleFPS:      cfg.IdleFPS,
		BlinkTimeout: cfg.BlinkTimeout(),
	})
	b.initOrder = append(b.initOrder, "scheduler")
	return nil
}

// initWatcher watches the configuration files. A watcher that cannot
// start only disables live reload.
func (b *bootstrapper) initWatcher() error {
	if !b.opts.Watch || b.opts.Reload == nil || len(b.app.cfg.Files) == 0 {
		return nil
	}
	log := b.app.log.WithComponent("watcher")

	w, err := watcher.New(watcher.WithErrorHandler(func(err error) {
		log.Warn("watch error", "error", err)
	}))
	if err != nil {
		log.Warn("live reload disabled", "error", err)
		return nil
	}
	display := b.app.display
	w.OnChange(func(ev watcher.Event) {
		log.Debug("config changed", "path", ev.Path, "op", ev.Op.String())
		display.Post(backend.Event{Type: backend.EventInterrupt, Data: ReloadRequest{Path: ev.Path}})
	})
	b.app.watcher = w
	b.app.watchFiles(b.app.cfg.Files)
	b.initOrder = append(b.initOrder, "watcher")
	return nil
}

// cleanup releases initialized components in reverse order.
func (b *bootstrapper) cleanup() {
	for i := len(b.initOrder) - 1; i >= 0; i-- {
		b.cleanupComponent(b.initOrder[i])
	}
	b.initOrder = b.initOrder[:0]
}

func (b *bootstrapper) cleanupComponent(name string) {
	switch name {
	case "fonts":
		b.app.fonts.Unload()
		b.app.fonts = nil
	case "terminal":
		_ = b.app.term.Close()
		_ = b.app.term.Wait()
		b.app.term = nil
	case "renderer":
		b.app.renderer = nil
	case "scheduler":
		if c, ok := b.app.waiter.(io.Closer); ok {
			_ = c.Close()
		}
		b.app.sched = nil
	case "watcher":
		_ = b.app.watcher.Close()
		b.app.watcher = nil
	}
}
