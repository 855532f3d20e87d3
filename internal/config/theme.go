package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/dshills/glyphterm/internal/renderer/core"
)

// Theme is a set of colors read from a JSON theme file.
type Theme struct {
	Foreground string
	Background string
	Cursor     string

	// Colors maps palette indexes to hex colors.
	Colors map[int]string
}

// ansiNames are the color names used by Windows Terminal style schemes.
var ansiNames = [16]string{
	"black", "red", "green", "yellow", "blue", "purple", "cyan", "white",
	"brightBlack", "brightRed", "brightGreen", "brightYellow",
	"brightBlue", "brightPurple", "brightCyan", "brightWhite",
}

// LoadTheme reads a theme file.
func LoadTheme(path string) (*Theme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading theme: %w", err)
	}
	th, err := ParseTheme(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return th, nil
}

// ParseTheme reads a JSON theme. Three layouts are understood:
//
//	{"foreground": "#..", "background": "#..", "cursor": "#..", "palette": ["#..", ...]}
//	{"special": {"foreground": ..}, "colors": {"color0": "#..", ...}}
//	{"foreground": .., "cursorColor": .., "black": "#..", "brightWhite": "#.."}
func ParseTheme(data []byte) (*Theme, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: theme is not valid JSON", ErrInvalidConfig)
	}

	th := &Theme{Colors: make(map[int]string)}
	th.Foreground = first(data, "foreground", "special.foreground")
	th.Background = first(data, "background", "special.background")
	th.Cursor = first(data, "cursor", "cursorColor", "special.cursor")

	gjson.GetBytes(data, "palette").ForEach(func(key, value gjson.Result) bool {
		th.Colors[int(key.Int())] = value.String()
		return int(key.Int()) < 255
	})
	gjson.GetBytes(data, "colors").ForEach(func(key, value gjson.Result) bool {
		var i int
		if _, err := fmt.Sscanf(key.String(), "color%d", &i); err == nil {
			th.Colors[i] = value.String()
		}
		return true
	})
	for i, name := range ansiNames {
		if v := gjson.GetBytes(data, name); v.Exists() {
			th.Colors[i] = v.String()
		}
	}

	if th.Foreground == "" && th.Background == "" && len(th.Colors) == 0 {
		return nil, fmt.Errorf("%w: theme has no colors", ErrInvalidConfig)
	}
	if err := th.validate("theme"); err != nil {
		return nil, err
	}
	return th, nil
}

func first(data []byte, paths ...string) string {
	for _, r := range gjson.GetManyBytes(data, paths...) {
		if r.Exists() {
			return r.String()
		}
	}
	return ""
}

func (th *Theme) validate(prefix string) error {
	var errs ValidationErrors
	check := func(path, hex string) {
		if hex == "" {
			return
		}
		if _, err := core.ColorFromHex(hex); err != nil {
			errs = append(errs, &ValidationError{Path: path, Message: "not a hex color", Value: hex, Code: ErrCodePatternMismatch})
		}
	}
	check(prefix+".foreground", th.Foreground)
	check(prefix+".background", th.Background)
	check(prefix+".cursor", th.Cursor)
	for i, hex := range th.Colors {
		if i < 0 || i > 255 {
			errs = append(errs, &ValidationError{Path: prefix + ".palette", Message: "index out of range", Value: i, Code: ErrCodeOutOfRange})
			continue
		}
		check(prefix+".palette."+strconv.Itoa(i), hex)
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Apply writes the theme's colors into p. The theme must be valid.
func (th *Theme) Apply(p *core.Palette) {
	set := func(id core.ColorID, hex string) {
		if c, err := core.ColorFromHex(hex); err == nil {
			p[id] = c
		}
	}
	set(core.ColorDefaultFG, th.Foreground)
	set(core.ColorDefaultBG, th.Background)
	set(core.ColorCursor, th.Cursor)
	for i, hex := range th.Colors {
		if i >= 0 && i <= 255 {
			set(core.IndexColor(uint8(i)), hex)
		}
	}
}

// Palette builds the palette: built-in colors, then the theme, then the
// explicit settings.
func (c ColorsConfig) Palette() (core.Palette, error) {
	p := core.DefaultPalette()
	if c.Theme != "" {
		th, err := LoadTheme(c.Theme)
		if err != nil {
			return p, err
		}
		th.Apply(&p)
	}

	explicit := Theme{
		Foreground: c.Foreground,
		Background: c.Background,
		Cursor:     c.Cursor,
		Colors:     make(map[int]string, len(c.Indexed)),
	}
	for k, hex := range c.Indexed {
		i, err := strconv.Atoi(k)
		if err != nil {
			return p, &ValidationError{Path: "colors.palette", Message: "key is not an index", Value: k, Code: ErrCodePatternMismatch}
		}
		explicit.Colors[i] = hex
	}
	if err := explicit.validate("colors"); err != nil {
		return p, err
	}
	explicit.Apply(&p)

	if c.ReverseCursor != "" {
		rc, err := core.ColorFromHex(c.ReverseCursor)
		if err != nil {
			return p, &ValidationError{Path: "colors.reverse_cursor", Message: "not a hex color", Value: c.ReverseCursor, Code: ErrCodePatternMismatch}
		}
		p[core.ColorReverseCursor] = rc
	}
	return p, nil
}
