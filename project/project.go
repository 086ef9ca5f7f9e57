// Package project enumerates the Java source files a run operates on.
package project

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// Directories never worth descending into: version control and the output
// trees of the common Java build tools.
var skippedDirs = map[string]bool{
	".git":    true,
	".hg":     true,
	"target":  true,
	"build":   true,
	"out":     true,
	".gradle": true,
}

// Project is a set of source roots with exclusion patterns.
type Project struct {
	Roots   []string
	Exclude []string
}

func New(roots []string, exclude []string) *Project {
	if len(roots) == 0 {
		roots = []string{"."}
	}
	return &Project{Roots: roots, Exclude: exclude}
}

// JavaFiles returns every .java file under the project roots, recursively,
// in walk order. Excluded paths and build directories are skipped.
func (p *Project) JavaFiles() ([]string, error) {
	var files []string
	for _, root := range p.Roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && (skippedDirs[d.Name()] || p.excluded(root, path)) {
					return filepath.SkipDir
				}
				return nil
			}
			if !strings.HasSuffix(path, ".java") {
				return nil
			}
			if p.excluded(root, path) {
				return nil
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scan java files in %s: %w", root, err)
		}
	}
	return files, nil
}

// excluded matches the path, relative to its root and slash-separated,
// against the exclusion globs.
func (p *Project) excluded(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range p.Exclude {
		if ok, _ := filepath.Match(pattern, rel); ok {
			return true
		}
		// Also match against the basename so patterns like *Test.java
		// apply at any depth.
		if ok, _ := filepath.Match(pattern, filepath.Base(rel)); ok {
			return true
		}
	}
	return false
}
