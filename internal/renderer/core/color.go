package core

import (
	"fmt"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// ColorID identifies a cell color: a palette slot or a tagged 24-bit value.
type ColorID uint32

// Special palette slots following the 256 indexed colors.
const (
	ColorDefaultFG ColorID = 256 + iota
	ColorDefaultBG
	ColorCursor
	ColorReverseCursor
)

// PaletteSize is the number of addressable palette slots.
const PaletteSize = 260

const trueColorFlag ColorID = 1 << 24

// IndexColor returns the id of a 256-color palette entry.
func IndexColor(i uint8) ColorID {
	return ColorID(i)
}

// TrueColor returns the id of a 24-bit color.
func TrueColor(r, g, b uint8) ColorID {
	return trueColorFlag | ColorID(r)<<16 | ColorID(g)<<8 | ColorID(b)
}

// IsTrueColor reports whether the id carries its own RGB value.
func (id ColorID) IsTrueColor() bool {
	return id&trueColorFlag != 0
}

// RGB returns the components of a true color id.
func (id ColorID) RGB() (r, g, b uint8) {
	return uint8(id >> 16), uint8(id >> 8), uint8(id)
}

func (id ColorID) String() string {
	switch {
	case id.IsTrueColor():
		r, g, b := id.RGB()
		return fmt.Sprintf("#%02X%02X%02X", r, g, b)
	case id == ColorDefaultFG:
		return "default-fg"
	case id == ColorDefaultBG:
		return "default-bg"
	case id == ColorCursor:
		return "cursor"
	case id == ColorReverseCursor:
		return "reverse-cursor"
	default:
		return fmt.Sprintf("idx(%d)", uint32(id))
	}
}

// Color is a resolved opaque RGB color.
type Color struct {
	R, G, B uint8
}

// ColorFromRGB creates a color from RGB components.
func ColorFromRGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b}
}

// ColorFromHex parses "#rgb" or "#rrggbb".
func ColorFromHex(hex string) (Color, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return Color{}, fmt.Errorf("invalid hex color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return Color{R: r, G: g, B: b}, nil
}

// Equals returns true if two colors are equal.
func (c Color) Equals(other Color) bool {
	return c == other
}

// Invert returns the bitwise complement of each component.
func (c Color) Invert() Color {
	return Color{R: ^c.R, G: ^c.G, B: ^c.B}
}

// Halve returns the color at half intensity.
func (c Color) Halve() Color {
	return Color{R: c.R / 2, G: c.G / 2, B: c.B / 2}
}

// Linear returns the color converted from sRGB to linear light.
func (c Color) Linear() (r, g, b float64) {
	return colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}.LinearRgb()
}

// RGBA returns the color as an image/color value.
func (c Color) RGBA() color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
}

// String returns the hex representation of the color.
func (c Color) String() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// Palette maps color ids to colors.
type Palette [PaletteSize]Color

var baseColors = [16]string{
	"#000000", "#cd0000", "#00cd00", "#cdcd00",
	"#0000ee", "#cd00cd", "#00cdcd", "#e5e5e5",
	"#7f7f7f", "#ff0000", "#00ff00", "#ffff00",
	"#5c5cff", "#ff00ff", "#00ffff", "#ffffff",
}

var cubeLevels = [6]uint8{0x00, 0x5f, 0x87, 0xaf, 0xd7, 0xff}

// DefaultPalette returns the xterm 256-color palette plus default slots.
func DefaultPalette() Palette {
	var p Palette
	for i, hex := range baseColors {
		p[i], _ = ColorFromHex(hex)
	}
	for i := 0; i < 216; i++ {
		p[16+i] = Color{
			R: cubeLevels[(i/36)%6],
			G: cubeLevels[(i/6)%6],
			B: cubeLevels[i%6],
		}
	}
	for i := 0; i < 24; i++ {
		v := uint8(0x08 + 10*i)
		p[232+i] = Color{R: v, G: v, B: v}
	}
	p[ColorDefaultFG] = p[7]
	p[ColorDefaultBG] = p[0]
	p[ColorCursor] = Color{R: 0xcc, G: 0xcc, B: 0xcc}
	p[ColorReverseCursor] = Color{R: 0x55, G: 0x55, B: 0x55}
	return p
}

// Resolve returns the color for id. Unknown ids resolve to the default
// foreground.
func (p *Palette) Resolve(id ColorID) Color {
	if id.IsTrueColor() {
		r, g, b := id.RGB()
		return Color{R: r, G: g, B: b}
	}
	if id < PaletteSize {
		return p[id]
	}
	return p[ColorDefaultFG]
}
