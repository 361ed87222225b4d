package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewConfig(t *testing.T) {
	cfg := NewConfig()

	if !cfg.LocalIncludesEnabled() {
		t.Error("local includes should be enabled by default")
	}
	if cfg.DryRunEnabled() {
		t.Error("dry-run should be disabled by default")
	}
	if cfg.DenyFoldCase() {
		t.Error("deny matching should be case-sensitive by default")
	}
	if cfg.Manifest.VersionOrder != VersionOrderLexical {
		t.Errorf("version order should be %q, got %q", VersionOrderLexical, cfg.Manifest.VersionOrder)
	}
	if cfg.SkipTokens() != 3 {
		t.Errorf("skip tokens should be 3, got %d", cfg.SkipTokens())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"numeric order", func(c *Config) { c.Manifest.VersionOrder = VersionOrderNumeric }, false},
		{"unknown order", func(c *Config) { c.Manifest.VersionOrder = "semantic" }, true},
		{"negative skip", func(c *Config) { n := -1; c.DryRun.SkipTokens = &n }, true},
		{"dry-run without env script", func(c *Config) {
			on := true
			c.DryRun.Enabled = &on
			c.DryRun.EnvScript = ""
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() error should wrap ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	base := NewConfig()
	base.CFamily.ExplicitIncludes = []string{"/sysroot/usr/include"}

	off := false
	other := &Config{
		RootBoundary: "/work",
		CFamily: CFamilyConfig{
			LocalIncludes:    &off,
			DenySubdirs:      []string{"third_party"},
			ExplicitIncludes: []string{"/opt/include"},
		},
		Manifest: ManifestConfig{
			RepositoryRoot: "/repo",
			Alternates:     map[string]string{"boost": "boost-static"},
		},
	}

	base.Merge(other)

	if base.RootBoundary != "/work" {
		t.Errorf("root boundary should be '/work', got %q", base.RootBoundary)
	}
	if base.LocalIncludesEnabled() {
		t.Error("local includes should be disabled after merge")
	}
	if diff := cmp.Diff([]string{"third_party"}, base.CFamily.DenySubdirs); diff != "" {
		t.Errorf("deny subdirs mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"/opt/include"}, base.CFamily.ExplicitIncludes); diff != "" {
		t.Errorf("explicit includes should be replaced (-want +got):\n%s", diff)
	}
	if base.Manifest.RepositoryRoot != "/repo" {
		t.Errorf("repository root should be '/repo', got %q", base.Manifest.RepositoryRoot)
	}
	if base.Manifest.Alternates["boost"] != "boost-static" {
		t.Errorf("alternates not merged: %v", base.Manifest.Alternates)
	}
	// Untouched fields keep defaults
	if base.Python.BuildDir != "build" {
		t.Errorf("python build dir should stay 'build', got %q", base.Python.BuildDir)
	}
}

func TestMergeKeepsListsNotSet(t *testing.T) {
	base := NewConfig()
	base.CFamily.ExplicitIncludes = []string{"/sysroot/usr/include"}
	deny := base.CFamily.DenySubdirs

	base.Merge(&Config{RootBoundary: "/work"})

	if diff := cmp.Diff([]string{"/sysroot/usr/include"}, base.CFamily.ExplicitIncludes); diff != "" {
		t.Errorf("explicit includes mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(deny, base.CFamily.DenySubdirs); diff != "" {
		t.Errorf("deny subdirs mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeNil(t *testing.T) {
	cfg := NewConfig()
	cfg.Merge(nil)
	if cfg.Python.BuildDir != "build" {
		t.Error("Merge(nil) should be a no-op")
	}
}

func TestLoadConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	configContent := `
root_boundary = "/home/dev"

[cfamily]
enabled_prefixes = ["/home/dev/plugins", "/home/dev/libs"]
sysroot_fragment = "buildfs"
local_includes = false

[manifest]
repository_root = "/home/dev/native-repo"
namespace = "com.example"
version_order = "numeric"

[manifest.alternates]
zlib = "zlib-static"

[dry_run]
enabled = true
skip_tokens = 2
`
	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg := loadConfigFile(configPath)
	if cfg == nil {
		t.Fatal("loadConfigFile returned nil")
	}

	if len(cfg.CFamily.EnabledPrefixes) != 2 {
		t.Errorf("expected 2 enabled prefixes, got %d", len(cfg.CFamily.EnabledPrefixes))
	}
	if cfg.CFamily.SysrootFragment != "buildfs" {
		t.Errorf("sysroot fragment should be 'buildfs', got %q", cfg.CFamily.SysrootFragment)
	}
	if cfg.CFamily.LocalIncludes == nil || *cfg.CFamily.LocalIncludes {
		t.Error("local includes should be explicitly disabled")
	}
	if cfg.Manifest.Namespace != "com.example" {
		t.Errorf("namespace should be 'com.example', got %q", cfg.Manifest.Namespace)
	}
	if cfg.Manifest.Alternates["zlib"] != "zlib-static" {
		t.Errorf("alternates should map zlib, got %v", cfg.Manifest.Alternates)
	}
	if cfg.DryRun.SkipTokens == nil || *cfg.DryRun.SkipTokens != 2 {
		t.Error("skip tokens should be 2")
	}
}

func TestLoadConfigFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")
	if err := os.WriteFile(configPath, []byte("root_boundary = [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}

	if cfg := loadConfigFile(configPath); cfg != nil {
		t.Error("loadConfigFile should return nil for invalid TOML")
	}
	if _, err := LoadFile(configPath); err == nil {
		t.Error("LoadFile should return an error for invalid TOML")
	}
}

func TestLoadFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "compflags.toml")
	if err := os.WriteFile(configPath, []byte("[python]\nbuild_dir = \"out\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Python.BuildDir != "out" {
		t.Errorf("build dir should be 'out', got %q", cfg.Python.BuildDir)
	}
	// Defaults still present
	if len(cfg.CFamily.BaseFlags) == 0 {
		t.Error("base flags should keep defaults")
	}
}

func TestApplyEnvironmentVariables(t *testing.T) {
	cfg := NewConfig()

	t.Setenv("COMPFLAGS_ROOT_BOUNDARY", "/srv/code")
	t.Setenv("COMPFLAGS_ENABLED_PREFIXES", "/srv/code/a, /srv/code/b")
	t.Setenv("COMPFLAGS_LOCAL_INCLUDES", "no")
	t.Setenv("COMPFLAGS_VERSION_ORDER", "NUMERIC")
	t.Setenv("COMPFLAGS_DRY_RUN", "1")

	applyEnvironmentVariables(cfg, envLookup(""))

	if cfg.RootBoundary != "/srv/code" {
		t.Errorf("root boundary should come from env, got %q", cfg.RootBoundary)
	}
	if diff := cmp.Diff([]string{"/srv/code/a", "/srv/code/b"}, cfg.CFamily.EnabledPrefixes); diff != "" {
		t.Errorf("enabled prefixes mismatch (-want +got):\n%s", diff)
	}
	if cfg.LocalIncludesEnabled() {
		t.Error("local includes should be disabled via env var")
	}
	if cfg.Manifest.VersionOrder != VersionOrderNumeric {
		t.Errorf("version order should be lower-cased, got %q", cfg.Manifest.VersionOrder)
	}
	if !cfg.DryRunEnabled() {
		t.Error("dry-run should be enabled via env var")
	}
}

func TestDotEnvLayer(t *testing.T) {
	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, EnvFileName)
	content := "COMPFLAGS_NAMESPACE=com.dotenv\nCOMPFLAGS_REPOSITORY_ROOT=/from/dotenv\n"
	if err := os.WriteFile(envFile, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	// Process environment wins over .env
	t.Setenv("COMPFLAGS_REPOSITORY_ROOT", "/from/env")

	cfg := NewConfig()
	applyEnvironmentVariables(cfg, envLookup(tmpDir))

	if cfg.Manifest.Namespace != "com.dotenv" {
		t.Errorf("namespace should come from .env, got %q", cfg.Manifest.Namespace)
	}
	if cfg.Manifest.RepositoryRoot != "/from/env" {
		t.Errorf("environment should override .env, got %q", cfg.Manifest.RepositoryRoot)
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"a,b,c", []string{"a", "b", "c"}},
		{" a , b , c ", []string{"a", "b", "c"}},
		{"a", []string{"a"}},
		{"", []string{}},
		{" , , ", []string{}},
	}

	for _, tt := range tests {
		result := splitAndTrim(tt.input)
		if diff := cmp.Diff(tt.expected, result); diff != "" {
			t.Errorf("splitAndTrim(%q) mismatch (-want +got):\n%s", tt.input, diff)
		}
	}
}

func TestProjectConfigSearch(t *testing.T) {
	tmpDir := t.TempDir()
	projectDir := filepath.Join(tmpDir, "project", "subdir")
	if err := os.MkdirAll(projectDir, 0o755); err != nil {
		t.Fatalf("failed to create project dir: %v", err)
	}

	// Create .git marker at project root
	gitDir := filepath.Join(tmpDir, "project", ".git")
	if err := os.MkdirAll(gitDir, 0o755); err != nil {
		t.Fatalf("failed to create .git dir: %v", err)
	}

	configPath := filepath.Join(tmpDir, "project", ConfigFileName)
	configContent := `
[manifest]
namespace = "com.project"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg := loadProjectConfigFrom(projectDir)
	if cfg == nil {
		t.Fatal("loadProjectConfigFrom returned nil")
	}
	if cfg.Manifest.Namespace != "com.project" {
		t.Errorf("namespace should be 'com.project', got %q", cfg.Manifest.Namespace)
	}
}

func TestProjectConfigSearchStopsAtRepositoryRoot(t *testing.T) {
	tmpDir := t.TempDir()
	// Config above the repository root must not be picked up
	if err := os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte("root_boundary = \"/x\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	repo := filepath.Join(tmpDir, "repo")
	if err := os.MkdirAll(filepath.Join(repo, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}

	if cfg := loadProjectConfigFrom(repo); cfg != nil {
		t.Errorf("config search should stop at repository root, got %+v", cfg)
	}
}

func TestRepositoryRootDetection(t *testing.T) {
	tmpDir := t.TempDir()
	if isRepositoryRoot(tmpDir) {
		t.Error("empty directory should not be a repository root")
	}

	if err := os.MkdirAll(filepath.Join(tmpDir, ".git"), 0o755); err != nil {
		t.Fatalf("failed to create .git dir: %v", err)
	}
	if !isRepositoryRoot(tmpDir) {
		t.Error("directory with .git should be repository root")
	}

	tmpDir2 := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tmpDir2, ".svn"), 0o755); err != nil {
		t.Fatal(err)
	}
	if !isRepositoryRoot(tmpDir2) {
		t.Error("directory with .svn should be repository root")
	}
}
