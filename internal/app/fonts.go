package app

import (
	"github.com/dshills/glyphterm/internal/config"
	"github.com/dshills/glyphterm/internal/renderer/font"
)

// BuildCatalog returns the embedded Go fonts plus every typeface found in
// the configured directories. The embedded fonts come first so a face
// exists for every style even on a host without fonts. A failed scan is
// logged and leaves only the embedded fonts.
func BuildCatalog(cfg config.FontConfig, log *Logger) (*font.Collection, error) {
	c, err := font.NewEmbeddedCatalog()
	if err != nil {
		return nil, err
	}

	dirs := append([]string(nil), cfg.Dirs...)
	if cfg.SystemFonts {
		dirs = append(dirs, font.DefaultFontDirs()...)
	}
	if len(dirs) == 0 {
		return c, nil
	}
	scanned, err := font.ScanDirs(dirs, log)
	if err != nil {
		log.Warn("font scan failed", "error", err)
		return c, nil
	}
	c.Merge(scanned)
	return c, nil
}

// NewFontResolver creates a resolver over catalog and loads the
// configured primary faces. The error wraps font.ErrFontLoad.
func NewFontResolver(catalog font.Catalog, cfg *config.Config, log *Logger) (*font.Resolver, error) {
	r := font.NewResolver(catalog, font.Config{
		FallbackCacheSize: cfg.Font.FallbackCache,
		WidthScale:        cfg.Font.WidthScale,
		HeightScale:       cfg.Font.HeightScale,
		Logger:            log,
	})
	if err := r.Load(fontPattern(cfg)); err != nil {
		return nil, err
	}
	return r, nil
}

func fontPattern(cfg *config.Config) font.Pattern {
	return font.Pattern{Family: cfg.Font.Family, Size: float64(cfg.Font.Size)}
}
