package settings

import (
	"context"
	"errors"
	"os"
	"slices"

	"github.com/albertocavalcante/compflags/internal/runner"
	"github.com/albertocavalcante/compflags/pkg/config"
	"github.com/albertocavalcante/compflags/pkg/includes"
	"github.com/albertocavalcante/compflags/pkg/manifest"
	"github.com/albertocavalcante/compflags/pkg/walk"
	"go.uber.org/zap"
)

// CFamily resolves compiler flags for C and C++ files.
type CFamily struct {
	cfg       *config.Config
	logger    *zap.Logger
	manifests *manifest.Resolver
	dryRun    *DryRun
}

// NewCFamily creates the C-family resolver.
func NewCFamily(env *Env) *CFamily {
	cfg := env.Config
	logger := env.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := env.Runner
	if r == nil {
		r = runner.New(runner.WithShell(cfg.DryRun.Shell))
	}

	return &CFamily{
		cfg:    cfg,
		logger: logger,
		manifests: manifest.NewResolver(
			os.ExpandEnv(cfg.Manifest.RepositoryRoot),
			manifest.WithNamespace(cfg.Manifest.Namespace),
			manifest.WithOrder(manifest.VersionOrder(cfg.Manifest.VersionOrder)),
			manifest.WithLogger(logger),
		),
		dryRun: NewDryRun(cfg, r, logger),
	}
}

// Enabled reports whether completion is enabled for filename.
func (c *CFamily) Enabled(filename string) bool {
	prefixes := c.cfg.CFamily.EnabledPrefixes
	if len(prefixes) == 0 {
		return true
	}
	for _, p := range prefixes {
		if walk.Within(filename, os.ExpandEnv(p)) {
			return true
		}
	}
	return false
}

// SourceFile returns the implementation file standing in for filename.
func (c *CFamily) SourceFile(filename string) string {
	cf := &c.cfg.CFamily
	return FindCorrespondingSourceFile(filename, cf.HeaderExtensions, cf.SourceExtensions, cf.CorrespondingSourceDirs)
}

// Settings implements Resolver.
func (c *CFamily) Settings(ctx context.Context, filename string) Record {
	if !c.Enabled(filename) {
		c.logger.Debug("completion not enabled for file", zap.String("file", filename))
		return Empty()
	}

	source := c.SourceFile(filename)
	if source != filename {
		c.logger.Debug("using corresponding source file",
			zap.String("file", filename), zap.String("source", source))
	}

	flags := slices.Clone(c.cfg.CFamily.BaseFlags)

	if c.cfg.DryRunEnabled() {
		discovered, err := c.dryRun.Flags(ctx, source)
		if err != nil {
			c.logger.Debug("dry-run flag discovery failed",
				zap.String("file", source), zap.Error(err))
			return Empty()
		}
		flags = append(flags, discovered...)
	}

	flags = append(flags, includes.Flags(c.IncludeDirs(source))...)

	return Record{
		Kind:             KindCFamily,
		Flags:            flags,
		OverrideFilename: source,
	}
}

// Filter returns the deny filter applied to include directories.
func (c *CFamily) Filter() includes.Filter {
	return includes.Filter{
		Deny:     c.cfg.CFamily.DenySubdirs,
		Override: c.cfg.CFamily.SysrootFragment,
		FoldCase: c.cfg.DenyFoldCase(),
	}
}

// IncludeDirs assembles local, explicit and manifest include directories
// for filename.
func (c *CFamily) IncludeDirs(filename string) []string {
	explicit := make([]string, len(c.cfg.CFamily.ExplicitIncludes))
	for i, dir := range c.cfg.CFamily.ExplicitIncludes {
		explicit[i] = os.ExpandEnv(dir)
	}

	return includes.Assemble(
		c.LocalIncludeDirs(filename),
		explicit,
		c.ManifestIncludeDirs(filename),
		c.Filter(),
	)
}

// LocalIncludeDirs returns the allow-listed directories of the project
// holding filename.
func (c *CFamily) LocalIncludeDirs(filename string) []string {
	if !c.cfg.LocalIncludesEnabled() {
		return nil
	}

	cf := &c.cfg.CFamily
	root, err := walk.FindProjectRoot(filename, c.cfg.HomeBoundary, walk.AnyFile(cf.ProjectMarkers...))
	if err != nil {
		c.logger.Debug("no project root for local includes",
			zap.String("file", filename), zap.Error(err))
		return nil
	}

	dirs, err := includes.LocalDirs(root, cf.AllowSubdirs, cf.ExcludeSubdirs)
	if err != nil {
		c.logger.Debug("local include discovery failed",
			zap.String("root", root), zap.Error(err))
		return nil
	}
	for _, d := range dirs {
		c.logger.Debug("found local include", zap.String("dir", d))
	}
	return dirs
}

// ManifestIncludeDirs resolves the dependencies declared by the manifest
// nearest to filename.
func (c *CFamily) ManifestIncludeDirs(filename string) []string {
	m, err := c.Manifest(filename)
	if err != nil {
		if !errors.Is(err, walk.ErrNotFound) {
			c.logger.Debug("manifest unavailable", zap.String("file", filename), zap.Error(err))
		}
		return nil
	}
	if c.manifests.RepositoryRoot == "" {
		c.logger.Debug("no dependency repository configured", zap.String("manifest", m.Path))
		return nil
	}
	return c.manifests.IncludeDirs(m)
}

// Manifest reads the manifest nearest to filename with alternates applied.
func (c *CFamily) Manifest(filename string) (*manifest.Manifest, error) {
	names := c.cfg.Manifest.FileNames
	root, err := walk.FindProjectRoot(filename, c.cfg.HomeBoundary, walk.AnyFile(names...))
	if err != nil {
		return nil, err
	}
	m, err := manifest.Read(root, names)
	if err != nil {
		return nil, err
	}
	m.Dependencies = manifest.WithAlternates(m.Dependencies, c.cfg.Manifest.Alternates)
	return m, nil
}

// Manifests returns the dependency repository resolver.
func (c *CFamily) Manifests() *manifest.Resolver {
	return c.manifests
}
