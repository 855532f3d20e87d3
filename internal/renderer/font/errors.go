package font

import "errors"

// Font errors.
var (
	// ErrFontLoad indicates a required face could not be loaded.
	ErrFontLoad = errors.New("font load failed")

	// ErrNoFonts indicates the catalog has no usable typefaces.
	ErrNoFonts = errors.New("no fonts available")

	// ErrNotLoaded indicates the resolver has no faces loaded.
	ErrNotLoaded = errors.New("fonts not loaded")
)
