// Package renderer draws a terminal grid through a pluggable backend.
//
// A frame walks every row of the screen. Each row is turned into glyph
// specs by the batch builder, which asks the font resolver for every
// character and takes the row's dirty bits through the tracker. The specs
// are split into attribute runs, colors are resolved once per run, and
// each run becomes one background rectangle, one glyph call and optional
// decoration rectangles. The cursor is drawn last.
//
// Architecture:
//
//	┌─────────────────────────────────────────┐
//	│           Renderer (Facade)             │
//	├─────────────────────────────────────────┤
//	│  dirty.Tracker │ batch.Builder │ Group  │
//	├─────────────────────────────────────────┤
//	│  font.Resolver + fallback cache         │
//	├─────────────────────────────────────────┤
//	│  backend: Terminal │ Raster │ Recorder  │
//	└─────────────────────────────────────────┘
//
// Usage:
//
//	fonts := font.NewResolver(catalog, font.DefaultConfig())
//	_ = fonts.Load(font.Pattern{Family: "Go Mono", Size: 16})
//	r, _ := renderer.New(term, fonts, backend.NewRaster(), renderer.DefaultOptions())
//	r.Draw()
package renderer
