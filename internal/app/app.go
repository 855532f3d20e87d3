package app

import (
	"context"
	"errors"
	"io"
	"runtime/debug"
	"sync/atomic"

	"github.com/dshills/glyphterm/internal/config"
	"github.com/dshills/glyphterm/internal/config/watcher"
	"github.com/dshills/glyphterm/internal/renderer"
	"github.com/dshills/glyphterm/internal/renderer/backend"
	"github.com/dshills/glyphterm/internal/renderer/batch"
	"github.com/dshills/glyphterm/internal/renderer/font"
	"github.com/dshills/glyphterm/internal/scheduler"
	"github.com/dshills/glyphterm/internal/term"
)

// Options configures the application.
type Options struct {
	// Config is the validated configuration. Nil uses config.Default().
	Config *config.Config

	// Display delivers input and window events. The application closes it.
	Display backend.Display

	// Output draws frames. It may be the same value as Display.
	Output backend.Renderer

	// Child replaces the shell started on a pty, e.g. in tests.
	Child term.Child

	// WorkDir is the shell's working directory.
	WorkDir string

	// Catalog replaces the embedded and scanned font catalog.
	Catalog font.Catalog

	// Logger receives diagnostics. Nil uses GetLogger().
	Logger *Logger

	// Clock paces frames. Nil uses the system clock.
	Clock scheduler.Clock

	// Waiter replaces the poll waiter on the child and the display.
	Waiter scheduler.Waiter

	// Reload loads the configuration again. Nil disables reloading.
	Reload func() (*config.Config, error)

	// Watch reloads when a configuration or theme file changes.
	Watch bool
}

// ReloadRequest is posted to the display to reload the configuration on
// the loop goroutine.
type ReloadRequest struct {
	// Path is the file that changed, if a file change triggered it.
	Path string
}

// metricsSetter is implemented by displays that map pixels to cells.
type metricsSetter interface {
	SetMetrics(m batch.Metrics)
}

// Application owns the terminal, the renderer and the frame loop. All of
// its state is touched only from the loop goroutine.
type Application struct {
	opts    Options
	cfg     *config.Config
	log     *Logger
	metrics *Metrics

	display  backend.Display
	fonts    *font.Resolver
	term     *term.Terminal
	renderer *renderer.Renderer
	waiter   scheduler.Waiter
	sched    *scheduler.Scheduler
	watcher  *watcher.Watcher

	input inputState
	fatal error

	running atomic.Bool
	closed  atomic.Bool
}

// New creates an Application and initializes every component. On failure
// the components created so far are released; the display is left open.
func New(opts Options) (*Application, error) {
	if opts.Display == nil || opts.Output == nil {
		return nil, &InitError{Component: "display", Err: errors.New("display and output are required")}
	}
	if opts.Config == nil {
		cfg := config.Default()
		opts.Config = &cfg
	}
	if opts.Logger == nil {
		opts.Logger = GetLogger()
	}

	app := &Application{
		opts:    opts,
		cfg:     opts.Config,
		log:     opts.Logger,
		metrics: NewMetrics(opts.Clock),
		display: opts.Display,
	}
	if err := newBootstrapper(app, opts).bootstrap(); err != nil {
		return nil, Fatal(err)
	}
	return app, nil
}

// Run runs the frame loop until the child exits, the display is closed,
// or ctx is done. A cancelled context is a normal exit. Fatal errors are
// returned as *FatalError.
func (app *Application) Run(ctx context.Context) error {
	if app.closed.Load() {
		return ErrClosed
	}
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)

	scr := app.term.Screen()
	app.log.Info("terminal running", "session", app.term.ID(), "cols", scr.Cols(), "rows", scr.Rows())

	err := app.loop(ctx)
	if app.fatal != nil {
		err = app.fatal
	}
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	err = Fatal(err)
	if err != nil {
		app.log.Error("terminal stopped", "error", err)
		return err
	}
	app.log.Info("terminal stopped", "frames", app.sched.Stats().Redraws)
	return nil
}

func (app *Application) loop(ctx context.Context) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = NewRecoveredPanicError(v, string(debug.Stack()))
		}
	}()
	return app.sched.Run(ctx)
}

// IsRunning returns true while Run is running.
func (app *Application) IsRunning() bool {
	return app.running.Load()
}

// Close stops watching files, hangs up the child and releases the display.
// It is safe to call more than once.
func (app *Application) Close() error {
	if !app.closed.CompareAndSwap(false, true) {
		return nil
	}

	errs := NewErrorList()
	if app.watcher != nil {
		errs.Add(componentErr("watcher", "close", app.watcher.Close()))
	}
	if c, ok := app.waiter.(io.Closer); ok {
		errs.Add(componentErr("waiter", "close", c.Close()))
	}
	if err := app.term.Close(); err != nil && !errors.Is(err, term.ErrClosed) {
		errs.Add(NewComponentError("terminal", "close", err))
	}
	if err := app.term.Wait(); err != nil {
		app.log.Debug("child exit", "error", err)
	}
	if err := app.display.Close(); err != nil && !errors.Is(err, backend.ErrClosed) {
		errs.Add(NewComponentError("display", "close", err))
	}
	return errs.AsError()
}

// Config returns the configuration in effect.
func (app *Application) Config() *config.Config { return app.cfg }

// Terminal returns the terminal.
func (app *Application) Terminal() *term.Terminal { return app.term }

// Renderer returns the renderer.
func (app *Application) Renderer() *renderer.Renderer { return app.renderer }

// Scheduler returns the frame loop.
func (app *Application) Scheduler() *scheduler.Scheduler { return app.sched }

// Metrics returns frame and event timing.
func (app *Application) Metrics() *Metrics { return app.metrics }

// RequestReload asks the loop to reload the configuration. Safe to call
// from any goroutine.
func (app *Application) RequestReload() {
	app.display.Post(backend.Event{Type: backend.EventInterrupt, Data: ReloadRequest{}})
}

func componentErr(component, action string, err error) error {
	if err == nil {
		return nil
	}
	return NewComponentError(component, action, err)
}
