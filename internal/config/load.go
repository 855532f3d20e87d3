package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/glyphterm/internal/config/loader"
)

// ErrFileNotFound is returned when an explicitly named config file is
// missing.
var ErrFileNotFound = errors.New("config file not found")

const maxIncludeDepth = 8

// Options says where Load reads from.
type Options struct {
	// Path is the config file. Empty means DefaultPath(), which may be
	// missing.
	Path string

	// Environ replaces the process environment when not nil.
	Environ []string

	// Overrides are applied last, e.g. from command line flags. Keys are
	// sections holding maps of settings.
	Overrides map[string]any

	// FS reads files. Nil means the OS file system.
	FS loader.FileSystem
}

// Load reads, merges and validates the configuration.
func Load(opts Options) (*Config, error) {
	path := opts.Path
	required := path != ""
	if path == "" {
		path = DefaultPath()
	}
	fsys := opts.FS
	if fsys == nil {
		fsys = loader.DefaultFS()
	}

	merged := make(map[string]any)
	var files []string
	if path != "" {
		tl := loader.NewTOMLLoaderWithFS(fsys, path)
		m, err := tl.LoadWithIncludes(path, maxIncludeDepth)
		if err != nil {
			return nil, err
		}
		if m == nil && required {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		merged = loader.DeepMerge(merged, m)
		files = tl.Files()
	}

	env := loader.NewEnvLoader(loader.EnvPrefix)
	if opts.Environ != nil {
		env.WithEnviron(opts.Environ)
	}
	em, err := env.Load()
	if err != nil {
		return nil, err
	}
	merged = loader.DeepMerge(merged, em)
	merged = loader.DeepMerge(merged, opts.Overrides)

	cfg := Default()
	if err := decode(merged, &cfg); err != nil {
		return nil, err
	}

	if cfg.Colors.Theme != "" {
		cfg.Colors.Theme = resolvePath(path, cfg.Colors.Theme)
		files = append(files, cfg.Colors.Theme)
	}
	cfg.Files = files

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// decode stores m over cfg, turning unknown keys into validation errors.
func decode(m map[string]any, cfg *Config) error {
	err := loader.Decode(m, cfg)
	if err == nil {
		return nil
	}

	var missing *toml.StrictMissingError
	if errors.As(err, &missing) {
		errs := make(ValidationErrors, 0, len(missing.Errors))
		for i := range missing.Errors {
			errs = append(errs, &ValidationError{
				Path:    strings.Join(missing.Errors[i].Key(), "."),
				Message: "unknown setting",
				Code:    ErrCodeUnknownSetting,
			})
		}
		return errs
	}
	return &ValidationError{
		Path:    "config",
		Message: err.Error(),
		Code:    ErrCodeTypeMismatch,
	}
}

// resolvePath makes p absolute relative to the directory of the config
// file.
func resolvePath(configPath, p string) string {
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[2:])
		}
	}
	if filepath.IsAbs(p) || configPath == "" {
		return p
	}
	return filepath.Join(filepath.Dir(configPath), p)
}
