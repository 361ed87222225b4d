// Package detect provides language detection for compflags projects.
//
// # Detection Algorithm
//
// Language detection is deterministic: given the same directory contents,
// it always produces the same list of detected languages. The algorithm:
//
//  1. Walk the directory tree, skipping ignored directories
//  2. For each file, check if its extension matches a known language
//  3. Return the deduplicated, sorted list of detected languages
//
// Extension mappings live in langs.Extensions; ignored directories in
// langs.IgnoredDirs.
package detect

import (
	"context"
	"io/fs"
	"path/filepath"
	"slices"

	"github.com/albertocavalcante/compflags/cmd/compflags/internal/langs"
)

// Language returns the language of a single file, judged by extension.
func Language(path string) (string, bool) {
	return langs.ForExtension(filepath.Ext(path))
}

// Languages detects languages used in the given directory.
//
// Returns a sorted slice of language identifiers (e.g., ["cfamily", "python"]).
func Languages(root string) ([]string, error) {
	found := make(map[string]bool)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path != root && langs.IsIgnoredDir(d.Name(), nil) {
				return filepath.SkipDir
			}
			return nil
		}

		if lang, ok := Language(path); ok {
			found[lang] = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := make([]string, 0, len(found))
	for lang := range found {
		result = append(result, lang)
	}
	slices.Sort(result)

	return result, nil
}

// HasLanguage checks if a specific language is detected in the directory.
func HasLanguage(root, lang string) (bool, error) {
	detected, err := Languages(root)
	if err != nil {
		return false, err
	}
	return slices.Contains(detected, lang), nil
}

// Sources lists the files under root whose extension is in exts, in walk
// order, skipping ignored directories.
func Sources(ctx context.Context, root string, exts []string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			return err
		}

		if d.IsDir() {
			if path != root && langs.IsIgnoredDir(d.Name(), nil) {
				return filepath.SkipDir
			}
			return nil
		}

		if slices.Contains(exts, filepath.Ext(path)) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
