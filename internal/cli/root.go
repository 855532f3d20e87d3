// Package cli implements the glyphterm command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	xterm "golang.org/x/term"

	"github.com/dshills/glyphterm/internal/app"
	"github.com/dshills/glyphterm/internal/config"
	"github.com/dshills/glyphterm/internal/renderer/backend"
	"github.com/dshills/glyphterm/internal/renderer/batch"
)

// ErrNotTerminal is returned when glyphterm is started without a terminal
// to draw on.
var ErrNotTerminal = errors.New("stdin is not a terminal")

var rootCmd = &cobra.Command{
	Use:   "glyphterm [flags] [-- command [args...]]",
	Short: "glyphterm is a terminal emulator",
	Long: `glyphterm runs a shell on a pseudo terminal and draws its screen.

Arguments after -- replace the configured shell. Send SIGUSR1 to reload the
configuration; configuration files are also watched unless --no-watch is
given.`,
	Args:          cobra.ArbitraryArgs,
	RunE:          runTerminal,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	addConfigFlags(rootCmd.PersistentFlags())

	f := rootCmd.Flags()
	f.StringP("title", "t", "", "window title")
	f.String("dir", "", "working directory for the shell")
	f.Bool("no-watch", false, "do not reload when configuration files change")
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "glyphterm:", err)
		os.Exit(1)
	}
}

func addConfigFlags(f *pflag.FlagSet) {
	f.StringP("config", "c", "", "configuration file (default "+config.DefaultPath()+")")
	f.StringP("font", "f", "", "font family")
	f.Int("size", 0, "font size in pixels")
	f.StringP("geometry", "g", "", "grid size as COLSxROWS")
	f.String("log-level", "", "log level (debug, info, warn, error)")
	f.String("log-file", "", `log file, "-" for stderr`)
}

// configOptions turns the flags that were set into config overrides. Args
// replace the shell and its arguments.
func configOptions(f *pflag.FlagSet, args []string) (config.Options, error) {
	opts := config.Options{Overrides: map[string]any{}}
	section := func(name string) map[string]any {
		m, ok := opts.Overrides[name].(map[string]any)
		if !ok {
			m = map[string]any{}
			opts.Overrides[name] = m
		}
		return m
	}

	var err error
	if opts.Path, err = f.GetString("config"); err != nil {
		return opts, err
	}
	if f.Changed("font") {
		v, _ := f.GetString("font")
		section("font")["family"] = v
	}
	if f.Changed("size") {
		v, _ := f.GetInt("size")
		section("font")["size"] = v
	}
	if f.Changed("geometry") {
		v, _ := f.GetString("geometry")
		cols, rows, err := parseGeometry(v)
		if err != nil {
			return opts, err
		}
		section("window")["cols"] = cols
		section("window")["rows"] = rows
	}
	if f.Changed("log-level") {
		v, _ := f.GetString("log-level")
		section("log")["level"] = v
	}
	if f.Changed("log-file") {
		v, _ := f.GetString("log-file")
		section("log")["file"] = v
	}
	if len(args) > 0 {
		section("terminal")["shell"] = args[0]
		section("terminal")["args"] = append([]string{}, args[1:]...)
	}
	if len(opts.Overrides) == 0 {
		opts.Overrides = nil
	}
	return opts, nil
}

func parseGeometry(s string) (cols, rows int, err error) {
	c, r, ok := strings.Cut(strings.ToLower(s), "x")
	if ok {
		cols, err = strconv.Atoi(c)
		if err == nil {
			rows, err = strconv.Atoi(r)
		}
	}
	if !ok || err != nil || cols <= 0 || rows <= 0 {
		return 0, 0, fmt.Errorf("invalid geometry %q, want COLSxROWS", s)
	}
	return cols, rows, nil
}

// loadConfig reads the configuration named by the flags and installs the
// configured logger. The returned function closes the log file.
func loadConfig(cmd *cobra.Command, args []string) (config.Options, *config.Config, func(), error) {
	opts, err := configOptions(cmd.Flags(), args)
	if err != nil {
		return opts, nil, nil, err
	}
	cfg, err := config.Load(opts)
	if err != nil {
		return opts, nil, nil, err
	}
	out, err := app.OpenLogOutput(cfg.Log.File)
	if err != nil {
		return opts, nil, nil, err
	}
	log := app.NewLogger(app.LoggerConfig{
		Level:  app.ParseLogLevel(cfg.Log.Level),
		Output: out,
		Prefix: "glyphterm",
	})
	app.SetLogger(log)
	return opts, cfg, func() { _ = out.Close() }, nil
}

func runTerminal(cmd *cobra.Command, args []string) error {
	opts, cfg, closeLog, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	defer closeLog()
	log := app.GetLogger()

	if !xterm.IsTerminal(int(os.Stdin.Fd())) {
		return ErrNotTerminal
	}

	display, err := backend.NewTerminal(batch.Metrics{})
	if err != nil {
		return err
	}
	dir, _ := cmd.Flags().GetString("dir")
	noWatch, _ := cmd.Flags().GetBool("no-watch")

	a, err := app.New(app.Options{
		Config:  cfg,
		Display: display,
		Output:  display,
		WorkDir: dir,
		Logger:  log,
		Reload:  func() (*config.Config, error) { return config.Load(opts) },
		Watch:   !noWatch,
	})
	if err != nil {
		_ = display.Close()
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn("shutdown", "error", err)
		}
	}()
	if title, _ := cmd.Flags().GetString("title"); title != "" {
		display.SetTitle(title)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGHUP)
	defer stop()
	go reloadOnSignal(ctx, a)

	return a.Run(ctx)
}

func reloadOnSignal(ctx context.Context, a *app.Application) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGUSR1)
	defer signal.Stop(ch)
	for {
		select {
		case <-ch:
			a.RequestReload()
		case <-ctx.Done():
			return
		}
	}
}
