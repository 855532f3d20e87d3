package font

import (
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/dshills/glyphterm/internal/renderer/core"
)

// Embedded family names.
const (
	FamilyGoMono = "Go Mono"
	FamilyGo     = "Go"
)

var embedded = []struct {
	family string
	style  core.FontStyle
	data   []byte
}{
	{FamilyGoMono, core.StyleRegular, gomono.TTF},
	{FamilyGoMono, core.StyleBold, gomonobold.TTF},
	{FamilyGoMono, core.StyleItalic, gomonoitalic.TTF},
	{FamilyGoMono, core.StyleBoldItalic, gomonobolditalic.TTF},
	{FamilyGo, core.StyleRegular, goregular.TTF},
	{FamilyGo, core.StyleBold, gobold.TTF},
	{FamilyGo, core.StyleItalic, goitalic.TTF},
	{FamilyGo, core.StyleBoldItalic, gobolditalic.TTF},
}

// NewEmbeddedCatalog returns a catalog of the Go font family compiled into
// the binary. It is always available, so font loading never depends on the
// host's installed fonts.
func NewEmbeddedCatalog() (*Collection, error) {
	c := NewCollection()
	for _, e := range embedded {
		tf, err := ParseSFNTWithStyle(e.data, e.family, e.style)
		if err != nil {
			return nil, err
		}
		c.Add(tf)
	}
	return c, nil
}
