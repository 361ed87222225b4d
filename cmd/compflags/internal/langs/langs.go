// Package langs provides shared language configuration for compflags.
//
// # Single Source of Truth
//
// This package defines the mapping between language names and file
// extensions used across compflags. The detector, the compilation database
// exporter and the watcher all filter files through it.
//
// Language names match the ones the completion engine sends: "cfamily" for
// C, C++ and their headers, "python" for Python sources.
package langs

import (
	"slices"
	"strings"
)

// Extensions maps language names to their file extensions.
var Extensions = map[string][]string{
	"cfamily": {".c", ".cc", ".cpp", ".cxx", ".h", ".hh", ".hpp", ".hxx"},
	"python":  {".py"},
}

// CompiledExtensions are the C-family extensions that produce an object
// file. Headers are not compiled on their own.
var CompiledExtensions = []string{".c", ".cc", ".cpp", ".cxx"}

// IgnoredDirs contains directory names to skip during scanning/watching.
//
// Names match exactly, except "." which matches every hidden directory.
var IgnoredDirs = []string{
	".",            // Hidden directories (.git, .compflags, ...)
	"node_modules", // Node.js dependencies
	"__pycache__",  // Python cache
	"vendor",       // Vendored deps
	"target",       // Maven/Rust target
	"build",        // Gradle/generic build output
	"out",          // Generic output
	"dist",         // Distribution output
}

// ExtensionSet returns a set of all extensions for the given languages.
//
// If languages is nil or empty, returns all known extensions.
func ExtensionSet(languages []string) map[string]bool {
	extensions := make(map[string]bool)

	if len(languages) == 0 {
		for _, exts := range Extensions {
			for _, ext := range exts {
				extensions[ext] = true
			}
		}
		return extensions
	}

	for _, lang := range languages {
		for _, ext := range Extensions[lang] {
			extensions[ext] = true
		}
	}
	return extensions
}

// ForExtension returns the language owning ext.
func ForExtension(ext string) (string, bool) {
	for lang, exts := range Extensions {
		if slices.Contains(exts, ext) {
			return lang, true
		}
	}
	return "", false
}

// IsIgnoredDir reports whether a directory name is ignored.
func IsIgnoredDir(name string, additional []string) bool {
	for _, ignored := range IgnoredDirs {
		if name == ignored || (ignored == "." && strings.HasPrefix(name, ".")) {
			return true
		}
	}
	return slices.Contains(additional, name)
}
