// Package config provides configuration management for compflags.
// It supports multi-layer configuration with precedence:
//  1. Built-in defaults (lowest priority)
//  2. Global user config (~/.config/compflags/config.toml)
//  3. Project config (.compflags/config.toml or compflags.toml)
//  4. .env file in the working directory
//  5. Environment variables (COMPFLAGS_*)
//  6. CLI flags (highest priority)
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
)

// Version orderings understood by the manifest resolver.
const (
	VersionOrderLexical = "lexical"
	VersionOrderNumeric = "numeric"
)

// Config is the main configuration struct for compflags.
type Config struct {
	// RootBoundary rejects every file outside it. Defaults to the user's home.
	RootBoundary string `toml:"root_boundary"`

	// HomeBoundary stops every upward directory walk. Defaults to the user's home.
	HomeBoundary string `toml:"home_boundary"`

	// CFamily configures C/C++ flag resolution.
	CFamily CFamilyConfig `toml:"cfamily"`

	// Manifest configures manifest-driven dependency includes.
	Manifest ManifestConfig `toml:"manifest"`

	// Python configures interpreter resolution.
	Python PythonConfig `toml:"python"`

	// DryRun configures build-tool flag discovery.
	DryRun DryRunConfig `toml:"dry_run"`
}

// CFamilyConfig holds C-family settings.
type CFamilyConfig struct {
	// EnabledPrefixes restricts C-family completion to these trees (empty = everywhere).
	EnabledPrefixes []string `toml:"enabled_prefixes"`

	// BaseFlags are prepended to every flag list.
	BaseFlags []string `toml:"base_flags"`

	// SourceExtensions are tried, in order, when mapping a header to its source.
	SourceExtensions []string `toml:"source_extensions"`

	// HeaderExtensions identify header files.
	HeaderExtensions []string `toml:"header_extensions"`

	// CorrespondingSourceDirs are directories relative to the header probed for a source file.
	CorrespondingSourceDirs []string `toml:"corresponding_source_dirs"`

	// LocalIncludes enables discovery of project-local include directories.
	LocalIncludes *bool `toml:"local_includes"`

	// ProjectMarkers mark the project root used for local include discovery.
	ProjectMarkers []string `toml:"project_markers"`

	// AllowSubdirs selects local directories containing one of these fragments.
	AllowSubdirs []string `toml:"allow_subdirs"`

	// ExcludeSubdirs prunes local directories containing one of these fragments.
	ExcludeSubdirs []string `toml:"exclude_subdirs"`

	// DenySubdirs drops any include containing one of these fragments.
	DenySubdirs []string `toml:"deny_subdirs"`

	// DenyFoldCase lower-cases include paths before deny matching.
	DenyFoldCase *bool `toml:"deny_fold_case"`

	// SysrootFragment marks includes that bypass the deny list.
	SysrootFragment string `toml:"sysroot_fragment"`

	// ExplicitIncludes are always included. Like every list, a higher layer
	// replaces the whole list.
	ExplicitIncludes []string `toml:"explicit_includes"`
}

// ManifestConfig holds manifest resolution settings.
type ManifestConfig struct {
	// FileNames are the manifest names looked up, in order, in a project root.
	FileNames []string `toml:"file_names"`

	// RepositoryRoot is the on-disk dependency repository.
	RepositoryRoot string `toml:"repository_root"`

	// Namespace prefixes dependency directory names ("<namespace>.<name>").
	Namespace string `toml:"namespace"`

	// VersionOrder is "lexical" or "numeric".
	VersionOrder string `toml:"version_order"`

	// Alternates pairs packaging variants of the same library.
	Alternates map[string]string `toml:"alternates"`
}

// PythonConfig holds Python interpreter settings.
type PythonConfig struct {
	// BuildDir marks the ancestor holding the virtualenv.
	BuildDir string `toml:"build_dir"`

	// InterpreterSubpath is relative to the build-dir ancestor.
	InterpreterSubpath string `toml:"interpreter_subpath"`

	// SitePackagesSubpath is relative to the build-dir ancestor.
	SitePackagesSubpath string `toml:"site_packages_subpath"`
}

// DryRunConfig holds build-tool dry-run discovery settings.
type DryRunConfig struct {
	// Enabled switches C-family flags to dry-run discovery.
	Enabled *bool `toml:"enabled"`

	// EnvScript is the environment script that marks the build root.
	EnvScript string `toml:"env_script"`

	// Makefile is the makefile name searched on the way up.
	Makefile string `toml:"makefile"`

	// SetupCommands run after sourcing EnvScript.
	SetupCommands []string `toml:"setup_commands"`

	// MakeCommand is the build tool invocation ("make -n").
	MakeCommand string `toml:"make_command"`

	// Shell runs the generated script.
	Shell string `toml:"shell"`

	// SkipTokens drops the leading compiler tokens of the captured command.
	SkipTokens *int `toml:"skip_tokens"`

	// TimeoutSeconds bounds the subprocess (0 = no timeout).
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// NewConfig creates a new Config with built-in defaults.
func NewConfig() *Config {
	trueVal := true
	falseVal := false
	skip := 3

	home, _ := os.UserHomeDir()

	return &Config{
		RootBoundary: home,
		HomeBoundary: home,
		CFamily: CFamilyConfig{
			BaseFlags: []string{
				"-x", "c++",
				"-std=c++14",
				"-Wall", "-Wextra",
				"-fPIC",
				"-g",
				"-DUSE_CLANG_COMPLETER",
				"-DYCM_EXPORT=",
			},
			SourceExtensions:        []string{".cc", ".cpp", ".c"},
			HeaderExtensions:        []string{".h", ".hpp", ".hh"},
			CorrespondingSourceDirs: []string{".", "../cpp"},
			LocalIncludes:           &trueVal,
			ProjectMarkers:          []string{"build.gradle"},
			AllowSubdirs:            []string{"include", "src", "cpp"},
			ExcludeSubdirs:          []string{"build"},
			DenySubdirs: []string{
				".git", ".svn", "python", "example", ".deps", "doc", "docs",
				".libs", "build", "release", "config", "test", "perl",
			},
			DenyFoldCase: &falseVal,
		},
		Manifest: ManifestConfig{
			FileNames:    []string{"product-spec.json", "product-spec.yaml"},
			VersionOrder: VersionOrderLexical,
			Alternates:   map[string]string{},
		},
		Python: PythonConfig{
			BuildDir:            "build",
			InterpreterSubpath:  "build/functional_test/venv/bin/python",
			SitePackagesSubpath: "build/functional_test/venv/lib/python3.7/site-packages",
		},
		DryRun: DryRunConfig{
			Enabled:     &falseVal,
			EnvScript:   "release/env",
			Makefile:    "Makefile",
			MakeCommand: "make -n",
			Shell:       "bash",
			SkipTokens:  &skip,
		},
	}
}

// LocalIncludesEnabled reports whether local include discovery is on.
func (c *Config) LocalIncludesEnabled() bool {
	return c.CFamily.LocalIncludes != nil && *c.CFamily.LocalIncludes
}

// DenyFoldCase reports whether deny matching folds case.
func (c *Config) DenyFoldCase() bool {
	return c.CFamily.DenyFoldCase != nil && *c.CFamily.DenyFoldCase
}

// DryRunEnabled reports whether dry-run flag discovery is on.
func (c *Config) DryRunEnabled() bool {
	return c.DryRun.Enabled != nil && *c.DryRun.Enabled
}

// SkipTokens returns the number of leading dry-run tokens to drop.
func (c *Config) SkipTokens() int {
	if c.DryRun.SkipTokens == nil {
		return 0
	}
	return *c.DryRun.SkipTokens
}

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if !slices.Contains([]string{VersionOrderLexical, VersionOrderNumeric}, c.Manifest.VersionOrder) {
		return fmt.Errorf("%w: manifest.version_order must be %q or %q, got %q",
			ErrInvalidConfig, VersionOrderLexical, VersionOrderNumeric, c.Manifest.VersionOrder)
	}
	if c.SkipTokens() < 0 {
		return fmt.Errorf("%w: dry_run.skip_tokens must not be negative", ErrInvalidConfig)
	}
	if c.DryRunEnabled() && c.DryRun.EnvScript == "" {
		return fmt.Errorf("%w: dry_run.env_script is required when dry_run is enabled", ErrInvalidConfig)
	}
	return nil
}

// Merge merges another config into this one (other takes precedence).
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.RootBoundary != "" {
		c.RootBoundary = other.RootBoundary
	}
	if other.HomeBoundary != "" {
		c.HomeBoundary = other.HomeBoundary
	}

	// Merge C-family config
	cf := &other.CFamily
	if len(cf.EnabledPrefixes) > 0 {
		c.CFamily.EnabledPrefixes = cf.EnabledPrefixes
	}
	if len(cf.BaseFlags) > 0 {
		c.CFamily.BaseFlags = cf.BaseFlags
	}
	if len(cf.SourceExtensions) > 0 {
		c.CFamily.SourceExtensions = cf.SourceExtensions
	}
	if len(cf.HeaderExtensions) > 0 {
		c.CFamily.HeaderExtensions = cf.HeaderExtensions
	}
	if len(cf.CorrespondingSourceDirs) > 0 {
		c.CFamily.CorrespondingSourceDirs = cf.CorrespondingSourceDirs
	}
	if cf.LocalIncludes != nil {
		c.CFamily.LocalIncludes = cf.LocalIncludes
	}
	if len(cf.ProjectMarkers) > 0 {
		c.CFamily.ProjectMarkers = cf.ProjectMarkers
	}
	if len(cf.AllowSubdirs) > 0 {
		c.CFamily.AllowSubdirs = cf.AllowSubdirs
	}
	if len(cf.ExcludeSubdirs) > 0 {
		c.CFamily.ExcludeSubdirs = cf.ExcludeSubdirs
	}
	if len(cf.DenySubdirs) > 0 {
		c.CFamily.DenySubdirs = cf.DenySubdirs
	}
	if cf.DenyFoldCase != nil {
		c.CFamily.DenyFoldCase = cf.DenyFoldCase
	}
	if cf.SysrootFragment != "" {
		c.CFamily.SysrootFragment = cf.SysrootFragment
	}
	if len(cf.ExplicitIncludes) > 0 {
		c.CFamily.ExplicitIncludes = cf.ExplicitIncludes
	}

	// Merge manifest config
	m := &other.Manifest
	if len(m.FileNames) > 0 {
		c.Manifest.FileNames = m.FileNames
	}
	if m.RepositoryRoot != "" {
		c.Manifest.RepositoryRoot = m.RepositoryRoot
	}
	if m.Namespace != "" {
		c.Manifest.Namespace = m.Namespace
	}
	if m.VersionOrder != "" {
		c.Manifest.VersionOrder = m.VersionOrder
	}
	if len(m.Alternates) > 0 {
		if c.Manifest.Alternates == nil {
			c.Manifest.Alternates = make(map[string]string, len(m.Alternates))
		}
		for k, v := range m.Alternates {
			c.Manifest.Alternates[k] = v
		}
	}

	// Merge Python config
	if other.Python.BuildDir != "" {
		c.Python.BuildDir = other.Python.BuildDir
	}
	if other.Python.InterpreterSubpath != "" {
		c.Python.InterpreterSubpath = other.Python.InterpreterSubpath
	}
	if other.Python.SitePackagesSubpath != "" {
		c.Python.SitePackagesSubpath = other.Python.SitePackagesSubpath
	}

	// Merge dry-run config
	d := &other.DryRun
	if d.Enabled != nil {
		c.DryRun.Enabled = d.Enabled
	}
	if d.EnvScript != "" {
		c.DryRun.EnvScript = d.EnvScript
	}
	if d.Makefile != "" {
		c.DryRun.Makefile = d.Makefile
	}
	if len(d.SetupCommands) > 0 {
		c.DryRun.SetupCommands = d.SetupCommands
	}
	if d.MakeCommand != "" {
		c.DryRun.MakeCommand = d.MakeCommand
	}
	if d.Shell != "" {
		c.DryRun.Shell = d.Shell
	}
	if d.SkipTokens != nil {
		c.DryRun.SkipTokens = d.SkipTokens
	}
	if d.TimeoutSeconds != 0 {
		c.DryRun.TimeoutSeconds = d.TimeoutSeconds
	}
}
