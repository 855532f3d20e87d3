// Package config loads and validates glyphterm's settings.
//
// # Architecture
//
// Settings come from four layers, higher layers overriding lower:
//
//	┌─────────────────────────────┐
//	│  4. Command line flags      │  ← Highest priority
//	├─────────────────────────────┤
//	│  3. Environment variables   │  ← GLYPHTERM_FONT_SIZE=14
//	├─────────────────────────────┤
//	│  2. Config file + includes  │  ← ~/.config/glyphterm/config.toml
//	├─────────────────────────────┤
//	│  1. Built-in defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// Layers 2 to 4 are read into maps, merged with loader.DeepMerge and
// decoded over Default(). Unknown keys and out of range values are
// reported as *ValidationError values.
//
// Colors are hex strings. A JSON theme file named by colors.theme is
// applied under the explicit color settings; see LoadTheme.
//
// # Sub-packages
//
//   - loader: TOML files with includes, environment variables
//   - watcher: change notification for live reload
//
// # Example
//
//	cfg, err := config.Load(config.Options{})
//	if err != nil {
//		return err
//	}
//	palette, err := cfg.Colors.Palette()
package config
