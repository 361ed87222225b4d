// Package walk finds project roots by walking up from a file towards a
// boundary directory, stopping at the first directory a Marker accepts.
//
// The walk strictly ascends the tree, so it terminates after at most the
// depth of the starting path. The boundary itself is never tested: reaching
// it means "not found".
package walk

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when no ancestor satisfies the marker.
var ErrNotFound = errors.New("project root not found")

// Marker reports whether dir is a stop point.
type Marker func(dir string) bool

// HasEntry matches a directory containing a file or directory named name.
// name may be a relative path such as "release/env".
func HasEntry(name string) Marker {
	return func(dir string) bool {
		_, err := os.Stat(filepath.Join(dir, name))
		return err == nil
	}
}

// HasDir matches a directory containing a subdirectory named name.
func HasDir(name string) Marker {
	return func(dir string) bool {
		info, err := os.Stat(filepath.Join(dir, name))
		return err == nil && info.IsDir()
	}
}

// HasFile matches a directory containing a regular file named name.
func HasFile(name string) Marker {
	return func(dir string) bool {
		info, err := os.Stat(filepath.Join(dir, name))
		return err == nil && info.Mode().IsRegular()
	}
}

// Any matches when at least one of markers matches.
func Any(markers ...Marker) Marker {
	return func(dir string) bool {
		for _, m := range markers {
			if m(dir) {
				return true
			}
		}
		return false
	}
}

// AnyFile is Any over HasFile for each name.
func AnyFile(names ...string) Marker {
	markers := make([]Marker, len(names))
	for i, n := range names {
		markers[i] = HasFile(n)
	}
	return Any(markers...)
}

// StartAt returns a start path that makes FindProjectRoot and WalkUp begin
// at dir itself rather than at its parent.
func StartAt(dir string) string {
	return filepath.Join(dir, "_")
}

// FindProjectRoot walks from filepath.Dir(start) upward and returns the first
// directory accepted by marker. It returns ErrNotFound when the boundary or
// the filesystem root is reached first.
func FindProjectRoot(start, boundary string, marker Marker) (string, error) {
	var found string
	err := WalkUp(start, boundary, func(dir string) bool {
		if marker(dir) {
			found = dir
			return false
		}
		return true
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", ErrNotFound
	}
	return found, nil
}

// WalkUp calls fn for filepath.Dir(start) and each ancestor until fn returns
// false, the boundary is reached, or the filesystem root has been visited.
// It returns ErrNotFound if the boundary stopped the walk.
func WalkUp(start, boundary string, fn func(dir string) bool) error {
	dir := filepath.Clean(filepath.Dir(start))
	if boundary != "" {
		boundary = filepath.Clean(boundary)
	}

	for {
		if boundary != "" && dir == boundary {
			return ErrNotFound
		}
		if !fn(dir) {
			return nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil
		}
		dir = parent
	}
}

// Within reports whether path is root or lies beneath it.
func Within(path, root string) bool {
	if root == "" {
		return true
	}
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
