package generator

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// DefaultIncludes are the source extensions scanned for markers.
var DefaultIncludes = []string{"**/*.h", "**/*.hpp", "**/*.hh", "**/*.cpp", "**/*.cxx", "**/*.cc"}

// DefaultExcludes skip generated files and VCS metadata.
var DefaultExcludes = []string{"**/*_reflection.cpp", ".git/**"}

type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

func compilePatterns(patterns []string) ([]compiledPattern, error) {
	out := make([]compiledPattern, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
		}
		out = append(out, compiledPattern{pattern: p, glob: g})
	}
	return out, nil
}

// matchesAny reports whether relPath matches a pattern. Paths in the root
// directory also match "**/" patterns with the prefix dropped, so "**/*.h"
// covers both "Foo.h" and "gl/Buffer.h".
func matchesAny(relPath string, patterns []compiledPattern) bool {
	for _, cp := range patterns {
		if cp.glob.Match(relPath) {
			return true
		}
	}
	if strings.Contains(relPath, "/") {
		return false
	}
	for _, cp := range patterns {
		if !strings.HasPrefix(cp.pattern, "**/") {
			continue
		}
		if g, err := glob.Compile(strings.TrimPrefix(cp.pattern, "**/"), '/'); err == nil && g.Match(relPath) {
			return true
		}
	}
	return false
}

// DiscoverFiles walks root and returns the files matching include and none
// of exclude, sorted by path. Excluded directories are not descended into.
func DiscoverFiles(root string, include, exclude []string) ([]string, error) {
	inc, err := compilePatterns(include)
	if err != nil {
		return nil, err
	}
	exc, err := compilePatterns(exclude)
	if err != nil {
		return nil, err
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}

		if d.IsDir() {
			if matchesAny(rel+"/**", exc) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if matchesAny(rel, exc) || !matchesAny(rel, inc) {
			return nil
		}
		files = append(files, filepath.ToSlash(path))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	sort.Strings(files)
	return files, nil
}
