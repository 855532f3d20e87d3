package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config is the complete glyphterm configuration.
type Config struct {
	Font      FontConfig      `toml:"font"`
	Window    WindowConfig    `toml:"window"`
	Scheduler SchedulerConfig `toml:"scheduler"`
	Cursor    CursorConfig    `toml:"cursor"`
	Colors    ColorsConfig    `toml:"colors"`
	Terminal  TerminalConfig  `toml:"terminal"`
	Log       LogConfig       `toml:"log"`

	// Files lists the configuration and theme files the settings were
	// read from. Live reload watches them.
	Files []string `toml:"-"`
}

// FontConfig selects the primary font and where fallbacks come from.
type FontConfig struct {
	// Family is the preferred family name.
	Family string `toml:"family"`

	// Size is the pixel size.
	Size int `toml:"size"`

	// WidthScale and HeightScale stretch the cell box.
	WidthScale  float64 `toml:"cwscale"`
	HeightScale float64 `toml:"chscale"`

	// Dirs are extra directories scanned for font files.
	Dirs []string `toml:"dirs"`

	// SystemFonts adds the host's standard font directories.
	SystemFonts bool `toml:"system_fonts"`

	// FallbackCache is the number of fallback faces kept open.
	FallbackCache int `toml:"fallback_cache"`
}

// WindowConfig sizes the window.
type WindowConfig struct {
	// Border is the padding around the grid in pixels.
	Border int `toml:"border"`

	// Cols and Rows are the initial grid size.
	Cols int `toml:"cols"`
	Rows int `toml:"rows"`
}

// SchedulerConfig paces drawing.
type SchedulerConfig struct {
	// ActiveFPS is the frame rate while input is arriving.
	ActiveFPS int `toml:"active_fps"`

	// IdleFPS is the frame rate otherwise.
	IdleFPS int `toml:"idle_fps"`

	// BlinkTimeoutMs is the blink half period. Zero disables blinking.
	BlinkTimeoutMs int `toml:"blink_timeout_ms"`
}

// BlinkTimeout returns the blink half period.
func (c SchedulerConfig) BlinkTimeout() time.Duration {
	return time.Duration(c.BlinkTimeoutMs) * time.Millisecond
}

// CursorConfig sets the default cursor.
type CursorConfig struct {
	// Shape is the DECSCUSR shape used until the application sets one.
	Shape int `toml:"shape"`

	// Thickness is the underline height and bar width in pixels.
	Thickness int `toml:"thickness"`
}

// ColorsConfig overrides the default palette. Empty values keep the
// theme's or the built-in color.
type ColorsConfig struct {
	Foreground    string `toml:"foreground"`
	Background    string `toml:"background"`
	Cursor        string `toml:"cursor"`
	ReverseCursor string `toml:"reverse_cursor"`

	// Indexed overrides palette colors; keys are "0" to "255".
	Indexed map[string]string `toml:"palette"`

	// Theme is a JSON theme file applied before the settings above.
	Theme string `toml:"theme"`

	// AttrFallback is the palette index used for bold or italic text the
	// font cannot show.
	AttrFallback int `toml:"attr_fallback"`
}

// TerminalConfig describes the child process.
type TerminalConfig struct {
	// Shell is the program to run. Empty means $SHELL.
	Shell string `toml:"shell"`

	// Args are passed to the shell.
	Args []string `toml:"args"`

	// Env are extra NAME=value pairs.
	Env []string `toml:"env"`

	// TermName is exported as TERM.
	TermName string `toml:"term"`
}

// LogConfig controls diagnostics.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `toml:"level"`

	// File is the log file. "-" logs to stderr.
	File string `toml:"file"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Font: FontConfig{
			Family:        "Go Mono",
			Size:          14,
			WidthScale:    1.0,
			HeightScale:   1.0,
			SystemFonts:   true,
			FallbackCache: 64,
		},
		Window: WindowConfig{
			Border: 2,
			Cols:   80,
			Rows:   24,
		},
		Scheduler: SchedulerConfig{
			ActiveFPS:      120,
			IdleFPS:        30,
			BlinkTimeoutMs: 800,
		},
		Cursor: CursorConfig{
			Shape:     2,
			Thickness: 2,
		},
		Colors: ColorsConfig{
			AttrFallback: 11,
		},
		Terminal: TerminalConfig{
			TermName: "xterm-256color",
		},
		Log: LogConfig{
			Level: "info",
			File:  DefaultLogFile(),
		},
	}
}

// DefaultPath returns the user's config file path.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "glyphterm", "config.toml")
}

// DefaultLogFile returns the log file used when none is configured.
func DefaultLogFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "-"
	}
	return filepath.Join(dir, "glyphterm", "glyphterm.log")
}
