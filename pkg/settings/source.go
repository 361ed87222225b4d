package settings

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// IsHeader reports whether filename has one of the header extensions.
func IsHeader(filename string, headerExts []string) bool {
	return slices.Contains(headerExts, filepath.Ext(filename))
}

// FindCorrespondingSourceFile maps a header to its implementation file.
//
// For each source extension in order, each candidate directory (relative to
// the header's directory) is probed in order; the first existing file wins.
// Headers without a match and non-header files are returned unchanged.
func FindCorrespondingSourceFile(filename string, headerExts, sourceExts, dirs []string) string {
	if !IsHeader(filename, headerExts) {
		return filename
	}

	dir := filepath.Dir(filename)
	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))

	for _, ext := range sourceExts {
		for _, rel := range dirs {
			candidate := filepath.Join(dir, rel, stem+ext)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate
			}
		}
	}
	return filename
}
