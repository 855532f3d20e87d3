package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dshills/glyphterm/internal/renderer/backend"
	"github.com/dshills/glyphterm/internal/scheduler"
	"github.com/dshills/glyphterm/internal/term"
)

// inputState is what the handlers remember between events.
type inputState struct {
	buttons   backend.MouseButton // button held at the last mouse event
	selecting bool
	pasting   bool
	paste     strings.Builder
}

// titleSetter and beeper are optional display features.
type titleSetter interface {
	SetTitle(title string)
}

type beeper interface {
	Beep()
}

// HandleEvent applies one display event. It runs on the loop goroutine.
func (app *Application) HandleEvent(ev backend.Event) error {
	switch ev.Type {
	case backend.EventKey:
		return app.handleKey(ev)
	case backend.EventMouse:
		return app.handleMouse(ev)
	case backend.EventResize:
		return app.fit(ev.Width, ev.Height)
	case backend.EventFocus:
		app.renderer.SetFocused(ev.Focused)
		return app.term.SendFocus(ev.Focused)
	case backend.EventPaste:
		return app.handlePaste(ev)
	case backend.EventInterrupt:
		if req, ok := ev.Data.(ReloadRequest); ok {
			return app.reload(req)
		}
	}
	return nil
}

func (app *Application) handleKey(ev backend.Event) error {
	in := &app.input
	if in.pasting {
		switch ev.Key {
		case backend.KeyRune:
			in.paste.WriteRune(ev.Rune)
		case backend.KeyEnter:
			in.paste.WriteByte('\r')
		case backend.KeyTab:
			in.paste.WriteByte('\t')
		}
		return nil
	}

	if ev.Key == backend.KeyInsert && ev.Mod.Has(backend.ModShift) {
		return app.pasteClipboard()
	}
	return app.term.SendKey(ev)
}

func (app *Application) handlePaste(ev backend.Event) error {
	in := &app.input
	if ev.PasteStart {
		in.pasting = true
		in.paste.Reset()
		return nil
	}
	if !in.pasting {
		return nil
	}
	in.pasting = false
	text := in.paste.String()
	in.paste.Reset()
	if text == "" {
		return nil
	}
	return app.term.Paste(text)
}

func (app *Application) pasteClipboard() error {
	text, err := app.display.Clipboard().Get()
	if err != nil {
		return err
	}
	if text == "" {
		return nil
	}
	return app.term.Paste(text)
}

// mouseAction derives what happened from the button held now and at the
// previous event. Wheel notches are presses without a release.
func (app *Application) mouseAction(btn backend.MouseButton) (backend.MouseButton, term.MouseAction) {
	prev := app.input.buttons
	switch {
	case btn == backend.MouseWheelUp || btn == backend.MouseWheelDown:
		app.input.buttons = backend.MouseNone
		return btn, term.MousePress
	case btn == backend.MouseNone && prev != backend.MouseNone:
		app.input.buttons = backend.MouseNone
		return prev, term.MouseRelease
	case btn != backend.MouseNone && btn == prev:
		return btn, term.MouseMotion
	case btn != backend.MouseNone:
		app.input.buttons = btn
		return btn, term.MousePress
	}
	return backend.MouseNone, term.MouseMotion
}

// handleMouse reports the event to the child when it asked for mouse
// reports. Otherwise, or with shift held, the left button selects and the
// middle button pastes.
func (app *Application) handleMouse(ev backend.Event) error {
	btn, action := app.mouseAction(ev.MouseButton)
	scr := app.term.Screen()
	col, row := app.renderer.Metrics().CellAt(ev.MouseX, ev.MouseY)
	col = min(max(col, 0), scr.Cols()-1)
	row = min(max(row, 0), scr.Rows()-1)

	if !ev.Mod.Has(backend.ModShift) {
		sent, err := app.term.SendMouse(btn, action, ev.Mod, col, row)
		if sent || err != nil {
			return err
		}
	}

	in := &app.input
	switch {
	case btn == backend.MouseLeft && action == term.MousePress:
		mode := term.SelectRegular
		if ev.Mod.Has(backend.ModAlt) {
			mode = term.SelectRectangular
		}
		scr.SelectStart(col, row, mode)
		in.selecting = true
	case btn == backend.MouseLeft && action == term.MouseMotion && in.selecting:
		scr.SelectExtend(col, row)
	case btn == backend.MouseLeft && action == term.MouseRelease && in.selecting:
		scr.SelectExtend(col, row)
		in.selecting = false
		if text := scr.SelectionText(); text != "" {
			return app.display.Clipboard().Set(text)
		}
	case btn == backend.MouseMiddle && action == term.MousePress:
		return app.pasteClipboard()
	}
	return nil
}

// fit resizes the grid to a width x height pixel window. A window too
// small to hold one cell is treated as hidden.
func (app *Application) fit(width, height int) error {
	m := app.renderer.Metrics()
	if width < 2*m.Border+m.CellWidth || height < 2*m.Border+m.CellHeight {
		app.setVisible(false)
		return nil
	}
	app.setVisible(true)
	cols, rows := app.renderer.GridSize(width, height)
	return app.resize(cols, rows)
}

func (app *Application) setVisible(v bool) {
	if app.renderer.Visible() == v {
		return
	}
	app.renderer.SetVisible(v)
	if v {
		app.term.Screen().MarkAllDirty()
	}
	app.log.Debug("window visibility changed", "visible", v)
}

// resize resizes the screen, the child and the renderer, and repaints.
func (app *Application) resize(cols, rows int) error {
	scr := app.term.Screen()
	if cols == scr.Cols() && rows == scr.Rows() {
		return nil
	}
	err := app.term.Resize(cols, rows)
	if scr.Cols() == cols && scr.Rows() == rows {
		app.renderer.Resize(cols, rows)
		scr.MarkAllDirty()
		app.log.Debug("grid resized", "cols", cols, "rows", rows)
	}
	if err != nil {
		return NewOperationError("resize", fmt.Sprintf("%dx%d", cols, rows), err)
	}
	return nil
}

// syncMetrics tells a cell-based display the current cell geometry.
func (app *Application) syncMetrics() {
	if ms, ok := app.display.(metricsSetter); ok {
		ms.SetMetrics(app.renderer.Metrics())
	}
}

// wireTerminal forwards title, clipboard and bell requests from the child
// to the display.
func (app *Application) wireTerminal() {
	log := app.log.WithComponent("term")
	app.term.OnTitle(func(title string) {
		if ts, ok := app.display.(titleSetter); ok {
			ts.SetTitle(title)
		}
	})
	app.term.OnClipboard(func(text string) {
		if err := app.display.Clipboard().Set(text); err != nil {
			log.Warn("clipboard write failed", "error", err)
		}
	})
	app.term.OnBell(func() {
		if b, ok := app.display.(beeper); ok {
			b.Beep()
		}
	})
}

// reload applies a freshly loaded configuration: log level, colors and
// fonts. Pacing, window and shell settings take effect on restart. A
// configuration that fails to load leaves the current one in place.
func (app *Application) reload(req ReloadRequest) error {
	if app.opts.Reload == nil {
		return nil
	}
	cfg, err := app.opts.Reload()
	if err != nil {
		return NewOperationError("reload", req.Path, err)
	}
	palette, err := cfg.Colors.Palette()
	if err != nil {
		return NewOperationError("reload", req.Path, err).WithContext("colors")
	}

	app.log.SetLevel(ParseLogLevel(cfg.Log.Level))
	app.renderer.SetPalette(palette)

	old := fontPattern(app.cfg)
	if p := fontPattern(cfg); p != old {
		if err := app.renderer.ReloadFonts(p); err != nil {
			app.log.Warn("font reload failed", "pattern", p.String(), "error", err)
			if rerr := app.renderer.ReloadFonts(old); rerr != nil {
				app.fatal = errors.Join(err, rerr)
				return scheduler.ErrQuit
			}
			cfg.Font = app.cfg.Font
		}
		app.syncMetrics()
		w, h := app.display.Size()
		if err := app.fit(w, h); err != nil {
			app.log.Warn("resize after font reload failed", "error", err)
		}
	}

	if app.watcher != nil {
		app.watchFiles(cfg.Files)
	}
	app.cfg = cfg
	app.term.Screen().MarkAllDirty()
	app.metrics.RecordReload()
	app.log.Info("configuration reloaded", "path", req.Path)
	return nil
}

// watchFiles adds files to the watch list, such as a newly named theme.
// Files already watched are skipped by the watcher.
func (app *Application) watchFiles(files []string) {
	for _, f := range files {
		if err := app.watcher.Watch(f); err != nil {
			app.log.Warn("cannot watch file", "path", f, "error", err)
		}
	}
}
