package config

import (
	"slices"
	"strconv"
	"strings"

	"github.com/dshills/glyphterm/internal/renderer/core"
)

var logLevels = []string{"debug", "info", "warn", "error"}

// Validate checks every setting and returns ValidationErrors listing all
// problems, or nil.
func (c *Config) Validate() error {
	var errs ValidationErrors
	add := func(path, msg string, value any, code ValidationErrorCode) {
		errs = append(errs, &ValidationError{Path: path, Message: msg, Value: value, Code: code})
	}
	positive := func(path string, v int) {
		if v <= 0 {
			add(path, "must be positive", v, ErrCodeOutOfRange)
		}
	}

	if strings.TrimSpace(c.Font.Family) == "" {
		add("font.family", "must not be empty", c.Font.Family, ErrCodePatternMismatch)
	}
	if c.Font.Size <= 0 || c.Font.Size > 512 {
		add("font.size", "must be between 1 and 512", c.Font.Size, ErrCodeOutOfRange)
	}
	if c.Font.WidthScale <= 0 {
		add("font.cwscale", "must be positive", c.Font.WidthScale, ErrCodeOutOfRange)
	}
	if c.Font.HeightScale <= 0 {
		add("font.chscale", "must be positive", c.Font.HeightScale, ErrCodeOutOfRange)
	}
	positive("font.fallback_cache", c.Font.FallbackCache)

	if c.Window.Border < 0 {
		add("window.border", "must not be negative", c.Window.Border, ErrCodeOutOfRange)
	}
	positive("window.cols", c.Window.Cols)
	positive("window.rows", c.Window.Rows)

	positive("scheduler.active_fps", c.Scheduler.ActiveFPS)
	positive("scheduler.idle_fps", c.Scheduler.IdleFPS)
	if c.Scheduler.IdleFPS > c.Scheduler.ActiveFPS && c.Scheduler.ActiveFPS > 0 {
		add("scheduler.idle_fps", "must not exceed active_fps", c.Scheduler.IdleFPS, ErrCodeOutOfRange)
	}
	if c.Scheduler.BlinkTimeoutMs < 0 {
		add("scheduler.blink_timeout_ms", "must not be negative", c.Scheduler.BlinkTimeoutMs, ErrCodeOutOfRange)
	}

	if c.Cursor.Shape < 0 || c.Cursor.Shape > 7 {
		add("cursor.shape", "must be between 0 and 7", c.Cursor.Shape, ErrCodeOutOfRange)
	}
	positive("cursor.thickness", c.Cursor.Thickness)

	colors := Theme{
		Foreground: c.Colors.Foreground,
		Background: c.Colors.Background,
		Cursor:     c.Colors.Cursor,
		Colors:     make(map[int]string, len(c.Colors.Indexed)),
	}
	for k, hex := range c.Colors.Indexed {
		i, err := strconv.Atoi(k)
		if err != nil {
			add("colors.palette", "key is not an index", k, ErrCodePatternMismatch)
			continue
		}
		colors.Colors[i] = hex
	}
	if err := colors.validate("colors"); err != nil {
		errs = append(errs, err.(ValidationErrors)...)
	}
	if c.Colors.ReverseCursor != "" {
		if _, err := core.ColorFromHex(c.Colors.ReverseCursor); err != nil {
			add("colors.reverse_cursor", "not a hex color", c.Colors.ReverseCursor, ErrCodePatternMismatch)
		}
	}
	if c.Colors.AttrFallback < 0 || c.Colors.AttrFallback > 255 {
		add("colors.attr_fallback", "must be a palette index", c.Colors.AttrFallback, ErrCodeOutOfRange)
	}

	if c.Terminal.TermName == "" {
		add("terminal.term", "must not be empty", c.Terminal.TermName, ErrCodePatternMismatch)
	}
	for _, kv := range c.Terminal.Env {
		if name, _, ok := strings.Cut(kv, "="); !ok || name == "" {
			add("terminal.env", "must be NAME=value", kv, ErrCodePatternMismatch)
		}
	}

	if !slices.Contains(logLevels, strings.ToLower(c.Log.Level)) {
		add("log.level", "must be one of "+strings.Join(logLevels, ", "), c.Log.Level, ErrCodeInvalidEnum)
	}

	if len(errs) > 0 {
		slices.SortStableFunc(errs, func(a, b *ValidationError) int {
			return strings.Compare(a.Path, b.Path)
		})
		return errs
	}
	return nil
}
