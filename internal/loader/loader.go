// # internal/loader/loader.go
package loader

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// Loader discovers source files under the configured roots, applying the
// exclusion globs. Discovered paths become source handles, relative to their
// root where possible.
type Loader struct {
	excludeDirs  []glob.Glob
	excludeFiles []glob.Glob
}

func New(excludeDirs, excludeFiles []string) (*Loader, error) {
	l := &Loader{}
	for _, pattern := range excludeDirs {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude dir pattern %q: %w", pattern, err)
		}
		l.excludeDirs = append(l.excludeDirs, g)
	}
	for _, pattern := range excludeFiles {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude file pattern %q: %w", pattern, err)
		}
		l.excludeFiles = append(l.excludeFiles, g)
	}
	return l, nil
}

// Discovered is one source file: the handle used in locations and the path on
// disk the handle resolves to.
type Discovered struct {
	Handle string
	Path   string
}

// Scan walks the roots collecting analyzable files.
func (l *Loader) Scan(roots []string) ([]Discovered, error) {
	var out []Discovered
	for _, root := range roots {
		err := filepath.Walk(root, func(path string, info fs.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				if l.matchesAny(l.excludeDirs, path) {
					return filepath.SkipDir
				}
				return nil
			}
			if !strings.HasSuffix(path, ".py") && !strings.HasSuffix(path, ".pyi") {
				return nil
			}
			if l.matchesAny(l.excludeFiles, path) {
				return nil
			}
			handle := path
			if relative, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(relative, "..") {
				handle = relative
			}
			out = append(out, Discovered{Handle: filepath.ToSlash(handle), Path: path})
			return nil
		})
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("scan %s: %w", root, err)
		}
	}
	return out, nil
}

func (l *Loader) matchesAny(globs []glob.Glob, path string) bool {
	base := filepath.Base(path)
	for _, g := range globs {
		if g.Match(path) || g.Match(base) {
			return true
		}
	}
	return false
}
