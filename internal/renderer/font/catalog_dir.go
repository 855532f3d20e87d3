package font

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/font/sfnt"
)

// Logger receives diagnostics from the font package.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}

// DefaultFontDirs returns the conventional font directories for the host.
func DefaultFontDirs() []string {
	dirs := []string{
		"/usr/share/fonts",
		"/usr/local/share/fonts",
		"/Library/Fonts",
		"/System/Library/Fonts",
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs,
			filepath.Join(home, ".local", "share", "fonts"),
			filepath.Join(home, ".fonts"),
			filepath.Join(home, "Library", "Fonts"),
		)
	}
	return dirs
}

// ScanDirs walks dirs for .ttf, .otf and .ttc files and returns a catalog of
// every typeface it could parse. Missing directories are skipped; files that
// fail to parse are logged and skipped.
func ScanDirs(dirs []string, log Logger) (*Collection, error) {
	if log == nil {
		log = nopLogger{}
	}

	c := NewCollection()
	for _, dir := range dirs {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
					return fs.SkipDir
				}
				return err
			}
			if d.IsDir() {
				return nil
			}

			faces, err := loadFile(path)
			if err != nil {
				log.Warn("skipping font file", "path", path, "error", err)
				return nil
			}
			c.Add(faces...)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", dir, err)
		}
	}

	log.Debug("font scan complete", "dirs", len(dirs), "typefaces", c.Len())
	return c, nil
}

func loadFile(path string) ([]Typeface, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".ttf", ".otf", ".ttc", ".otc":
	default:
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if ext == ".ttc" || ext == ".otc" {
		coll, err := sfnt.ParseCollection(data)
		if err != nil {
			return nil, err
		}
		var out []Typeface
		for i := 0; i < coll.NumFonts(); i++ {
			f, err := coll.Font(i)
			if err != nil {
				return nil, err
			}
			tf, err := newSFNT(f, path)
			if err != nil {
				return nil, err
			}
			out = append(out, tf)
		}
		return out, nil
	}

	f, err := sfnt.Parse(data)
	if err != nil {
		return nil, err
	}
	tf, err := newSFNT(f, path)
	if err != nil {
		return nil, err
	}
	return []Typeface{tf}, nil
}
