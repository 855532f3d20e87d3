// Package core provides shared types for the renderer subsystem.
// This package breaks import cycles between the terminal model, the font
// resolver, the batcher and the backends.
package core

import "fmt"

// Attribute represents the rendition bits of a cell.
type Attribute uint16

// Cell attribute flags.
const (
	AttrBold      Attribute = 1 << iota
	AttrFaint               // Half intensity
	AttrItalic              // Italic face
	AttrUnderline           // Underlined text
	AttrBlink               // Hidden during the blink-off phase
	AttrReverse             // Swap fg/bg
	AttrInvisible           // Drawn in background color
	AttrStruck              // Strikethrough
	AttrWrap                // Line continues on the next row
	AttrWide                // First column of a double-width glyph
	AttrWDummy              // Second column of a double-width glyph
)

// AttrNone is the empty attribute set.
const AttrNone Attribute = 0

// AttrBoldFaint masks the two intensity bits.
const AttrBoldFaint = AttrBold | AttrFaint

// Has returns true if the attribute set contains the given attribute.
func (a Attribute) Has(attr Attribute) bool {
	return a&attr != 0
}

// With returns a new attribute set with the given attribute added.
func (a Attribute) With(attr Attribute) Attribute {
	return a | attr
}

// Without returns a new attribute set with the given attribute removed.
func (a Attribute) Without(attr Attribute) Attribute {
	return a &^ attr
}

// FontStyle returns the face style these attributes select.
func (a Attribute) FontStyle() FontStyle {
	var s FontStyle
	if a.Has(AttrBold) {
		s |= StyleBold
	}
	if a.Has(AttrItalic) {
		s |= StyleItalic
	}
	return s
}

// FontStyle selects one of the four faces.
type FontStyle uint8

// Face styles.
const (
	StyleRegular    FontStyle = 0
	StyleBold       FontStyle = 1 << 0
	StyleItalic     FontStyle = 1 << 1
	StyleBoldItalic           = StyleBold | StyleItalic
)

// NumStyles is the number of distinct face styles.
const NumStyles = 4

// Bold reports whether the style asks for a bold weight.
func (s FontStyle) Bold() bool { return s&StyleBold != 0 }

// Italic reports whether the style asks for an italic slant.
func (s FontStyle) Italic() bool { return s&StyleItalic != 0 }

func (s FontStyle) String() string {
	switch s {
	case StyleRegular:
		return "regular"
	case StyleBold:
		return "bold"
	case StyleItalic:
		return "italic"
	case StyleBoldItalic:
		return "bold-italic"
	default:
		return fmt.Sprintf("style(%d)", uint8(s))
	}
}

// Cell represents a single terminal cell.
type Cell struct {
	// Rune is the character to display.
	Rune rune

	// Attr holds the rendition bits.
	Attr Attribute

	// FG and BG are palette or true-color ids.
	FG ColorID
	BG ColorID
}

// BlankCell returns an empty cell in default colors.
func BlankCell() Cell {
	return Cell{Rune: ' ', FG: ColorDefaultFG, BG: ColorDefaultBG}
}

// IsPlaceholder reports whether c is the continuation column of a wide glyph.
func (c Cell) IsPlaceholder() bool {
	return c.Attr.Has(AttrWDummy)
}

// SameRendition reports whether two cells can share one attribute run.
func (c Cell) SameRendition(other Cell) bool {
	return c.Attr == other.Attr && c.FG == other.FG && c.BG == other.BG
}

// Rect is a pixel rectangle.
type Rect struct {
	X, Y int
	W, H int
}

// IsEmpty returns true if the rectangle has no area.
func (r Rect) IsEmpty() bool {
	return r.W <= 0 || r.H <= 0
}

// Contains returns true if the point lies inside the rectangle.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Intersection returns the overlapping region of two rectangles.
func (r Rect) Intersection(other Rect) Rect {
	x0 := max(r.X, other.X)
	y0 := max(r.Y, other.Y)
	x1 := min(r.X+r.W, other.X+other.W)
	y1 := min(r.Y+r.H, other.Y+other.H)
	if x1 <= x0 || y1 <= y0 {
		return Rect{}
	}
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}
