// Package includes assembles the ordered, filtered include directory list
// for a C-family source file and renders it as compiler flags.
package includes

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/albertocavalcante/compflags/pkg/util"
)

// LocalDirs walks root and returns every directory whose path relative to
// root contains one of the allow fragments and none of the exclude
// fragments. Subtrees whose relative path contains an exclude fragment are
// not descended into. Results are in walk (lexical) order.
func LocalDirs(root string, allow, exclude []string) ([]string, error) {
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtrees are skipped, not fatal
			if path != root && d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if util.ContainsAny(rel, exclude) {
			return fs.SkipDir
		}
		if util.ContainsAny(rel, allow) {
			dirs = append(dirs, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dirs, nil
}

// Filter drops include directories matching a deny list.
type Filter struct {
	// Deny lists substrings that disqualify a path.
	Deny []string

	// Override is a substring that exempts a path from Deny.
	Override string

	// FoldCase lower-cases the path as well as the deny fragments.
	FoldCase bool
}

// Allowed reports whether path survives the filter. Deny fragments are
// always compared lower-cased; the path is lower-cased only with FoldCase.
func (f Filter) Allowed(path string) bool {
	if f.Override != "" && strings.Contains(path, f.Override) {
		return true
	}
	subject := path
	if f.FoldCase {
		subject = strings.ToLower(path)
	}
	for _, deny := range f.Deny {
		if deny == "" {
			continue
		}
		if strings.Contains(subject, strings.ToLower(deny)) {
			return false
		}
	}
	return true
}

// Apply returns the paths that pass the filter, preserving order.
func (f Filter) Apply(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if f.Allowed(p) {
			out = append(out, p)
		}
	}
	return out
}

// Dedup removes duplicates, keeping the first occurrence of each path.
func Dedup(paths []string) []string {
	return util.Unique(paths)
}

// Assemble concatenates local, explicit and manifest directories in that
// order, drops denied paths and removes duplicates.
func Assemble(local, explicit, manifest []string, f Filter) []string {
	all := make([]string, 0, len(local)+len(explicit)+len(manifest))
	all = append(all, local...)
	all = append(all, explicit...)
	all = append(all, manifest...)
	return Dedup(f.Apply(all))
}

// Flags renders directories as -I flags.
func Flags(dirs []string) []string {
	flags := make([]string, len(dirs))
	for i, d := range dirs {
		flags[i] = "-I" + d
	}
	return flags
}
