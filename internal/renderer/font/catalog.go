package font

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dshills/glyphterm/internal/renderer/core"
)

// Pattern describes the font a face wants.
type Pattern struct {
	// Family is the preferred family name. Empty matches any family.
	Family string

	// Style selects weight and slant.
	Style core.FontStyle

	// Size is the pixel size.
	Size float64
}

// WithStyle returns a copy of p asking for style s.
func (p Pattern) WithStyle(s core.FontStyle) Pattern {
	p.Style = s
	return p
}

func (p Pattern) String() string {
	return fmt.Sprintf("%s:%s:%.1fpx", p.Family, p.Style, p.Size)
}

// Catalog answers queries about installed typefaces.
type Catalog interface {
	// Lookup returns the typeface that best matches p.
	Lookup(p Pattern) (Typeface, error)

	// Sort returns every scalable typeface ranked by closeness to p. It
	// does not filter by coverage; the caller picks the first candidate
	// that has the character it needs, so one sorted list serves every
	// character.
	Sort(p Pattern) ([]Typeface, error)
}

// Collection is an in-memory Catalog.
type Collection struct {
	faces []Typeface
}

// NewCollection creates a catalog over the given typefaces. Earlier
// typefaces rank ahead of later ones with the same score.
func NewCollection(faces ...Typeface) *Collection {
	return &Collection{faces: slices.Clone(faces)}
}

// Add appends typefaces to the collection.
func (c *Collection) Add(faces ...Typeface) {
	c.faces = append(c.faces, faces...)
}

// Merge appends every typeface of other.
func (c *Collection) Merge(other *Collection) {
	if other == nil {
		return
	}
	c.faces = append(c.faces, other.faces...)
}

// Len returns the number of typefaces.
func (c *Collection) Len() int {
	return len(c.faces)
}

// Families returns the distinct family names in catalog order.
func (c *Collection) Families() []string {
	var out []string
	seen := make(map[string]bool)
	for _, f := range c.faces {
		if !seen[f.Family()] {
			seen[f.Family()] = true
			out = append(out, f.Family())
		}
	}
	return out
}

// Lookup returns the best-ranked typeface for p.
func (c *Collection) Lookup(p Pattern) (Typeface, error) {
	sorted, err := c.Sort(p)
	if err != nil {
		return nil, err
	}
	return sorted[0], nil
}

// Sort returns the scalable typefaces ranked by closeness to p.
func (c *Collection) Sort(p Pattern) ([]Typeface, error) {
	type scored struct {
		face  Typeface
		score int
	}

	var list []scored
	for _, f := range c.faces {
		if !f.Scalable() {
			continue
		}
		list = append(list, scored{face: f, score: score(f, p)})
	}
	if len(list) == 0 {
		return nil, ErrNoFonts
	}

	slices.SortStableFunc(list, func(a, b scored) int {
		return a.score - b.score
	})

	out := make([]Typeface, len(list))
	for i, s := range list {
		out[i] = s.face
	}
	return out, nil
}

// score ranks a typeface against a pattern. Lower is better. Family
// dominates, then weight, then slant.
func score(f Typeface, p Pattern) int {
	s := 0
	if p.Family != "" && !strings.EqualFold(f.Family(), p.Family) {
		s += 100
	}
	got := f.Style()
	if got.Bold() != p.Style.Bold() {
		s += 10
	}
	if got.Italic() != p.Style.Italic() {
		s++
	}
	return s
}
