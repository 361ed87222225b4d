package manifest

import (
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
)

// IncludeSubdir is appended to every resolved version directory.
const IncludeSubdir = "include"

// Resolver maps manifest dependencies onto the dependency repository.
type Resolver struct {
	// RepositoryRoot is the dependency repository root.
	RepositoryRoot string

	// Namespace prefixes dependency directory names; empty means no prefix.
	Namespace string

	// Order ranks matched versions.
	Order VersionOrder

	logger *zap.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithNamespace sets the dependency directory namespace.
func WithNamespace(ns string) Option {
	return func(r *Resolver) {
		r.Namespace = ns
	}
}

// WithOrder sets the version ordering.
func WithOrder(order VersionOrder) Option {
	return func(r *Resolver) {
		r.Order = order
	}
}

// WithLogger sets the logger used to report skipped dependencies.
func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewResolver creates a resolver rooted at repositoryRoot.
func NewResolver(repositoryRoot string, opts ...Option) *Resolver {
	r := &Resolver{
		RepositoryRoot: repositoryRoot,
		Order:          OrderLexical,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DependencyDir returns the repository directory of a dependency.
func (r *Resolver) DependencyDir(name string) string {
	dirName := name
	if r.Namespace != "" {
		dirName = r.Namespace + "." + name
	}
	return filepath.Join(r.RepositoryRoot, dirName)
}

// ResolveVersion expands glob under <dependency dir>/<library> and returns
// the highest matching version directory.
func (r *Resolver) ResolveVersion(name, library, glob string) (string, bool) {
	base := filepath.Join(r.DependencyDir(name), library)

	if !doublestar.ValidatePattern(glob) {
		r.logger.Debug("invalid version glob",
			zap.String("dependency", name), zap.String("glob", glob))
		return "", false
	}

	matches, err := doublestar.Glob(os.DirFS(base), glob)
	if err != nil {
		r.logger.Debug("version glob failed",
			zap.String("dependency", name), zap.String("dir", base), zap.Error(err))
		return "", false
	}

	versions := make([]string, 0, len(matches))
	for _, m := range matches {
		if isDir(filepath.Join(base, filepath.FromSlash(m))) {
			versions = append(versions, m)
		}
	}

	best, ok := Highest(versions, r.Order)
	if !ok {
		r.logger.Debug("no version matches",
			zap.String("dependency", name),
			zap.String("library", library),
			zap.String("glob", glob),
			zap.String("dir", base))
		return "", false
	}
	return filepath.Join(base, filepath.FromSlash(best)), true
}

// IncludeDirs resolves every dependency library of m to its include
// directory, in manifest order. Unresolvable entries are skipped.
func (r *Resolver) IncludeDirs(m *Manifest) []string {
	if m == nil {
		return nil
	}

	var dirs []string
	for _, dep := range m.Dependencies {
		for _, lib := range dep.LibraryNames() {
			dir, ok := r.ResolveVersion(dep.Name, lib, dep.Version)
			if !ok {
				r.logger.Info("skipping unresolved dependency",
					zap.String("dependency", dep.Name), zap.String("library", lib))
				continue
			}
			dirs = append(dirs, filepath.Join(dir, IncludeSubdir))
		}
	}
	return dirs
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
