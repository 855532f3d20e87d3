// Package font resolves characters to glyphs for the cell renderer.
//
// A Resolver owns four faces (regular, bold, italic, bold-italic) loaded from
// a Catalog, and a bounded fallback cache for characters the primary faces do
// not cover.
//
// Resolution order:
//
//	┌──────────────┐  hit   ┌──────────────────────┐
//	│ primary face │───────▶│ (face atlas, glyph)  │
//	└──────┬───────┘        └──────────────────────┘
//	       │ miss
//	┌──────▼───────┐  hit   ┌──────────────────────┐
//	│ fallback ring│───────▶│ (entry atlas, glyph) │
//	└──────┬───────┘        └──────────────────────┘
//	       │ miss
//	┌──────▼───────┐ insert ┌──────────────────────┐
//	│ catalog sort │───────▶│ new ring entry       │
//	└──────────────┘        └──────────────────────┘
//
// A character no installed font covers resolves to glyph 0 (notdef) of the
// primary face. The ring also remembers those misses so the catalog is not
// searched again for the same character and style.
//
// Usage:
//
//	catalog, _ := font.NewEmbeddedCatalog()
//	r := font.NewResolver(catalog, font.DefaultConfig())
//	if err := r.Load(font.Pattern{Family: "Go Mono", Size: 16}); err != nil {
//		return err
//	}
//	atlas, glyph := r.Resolve('λ', core.StyleBold)
package font
