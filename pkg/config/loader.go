package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// ConfigFileName is the name of the project-level config file.
const ConfigFileName = "compflags.toml"

// ConfigDirName is the name of the project-level config directory.
const ConfigDirName = ".compflags"

// GlobalConfigDir is the name of the global config directory inside user's config.
const GlobalConfigDir = "compflags"

// EnvFileName is the dotenv file read from the starting directory.
const EnvFileName = ".env"

// EnvPrefix prefixes every environment variable compflags reads.
const EnvPrefix = "COMPFLAGS_"

// Load loads configuration from all layers in order of precedence:
//  1. Built-in defaults
//  2. Global user config (~/.config/compflags/config.toml)
//  3. Project config (.compflags/config.toml or compflags.toml)
//  4. .env in the working directory
//  5. Environment variables (COMPFLAGS_*)
//
// CLI flags are applied separately after Load() returns.
func Load() *Config {
	wd, err := os.Getwd()
	if err != nil {
		wd = ""
	}
	return LoadFrom(wd)
}

// LoadFrom loads configuration starting from a specific directory.
func LoadFrom(dir string) *Config {
	cfg := NewConfig()

	// Layer 2: Global user config
	if globalCfg := loadGlobalConfig(); globalCfg != nil {
		cfg.Merge(globalCfg)
	}

	// Layer 3: Project config from specified directory
	if dir != "" {
		if projectCfg := loadProjectConfigFrom(dir); projectCfg != nil {
			cfg.Merge(projectCfg)
		}
	}

	// Layers 4 and 5: .env and environment variables
	applyEnvironmentVariables(cfg, envLookup(dir))

	return cfg
}

// LoadFile loads defaults overlaid with a single explicit config file,
// then environment variables. Unlike LoadFrom, a broken file is an error.
func LoadFile(path string) (*Config, error) {
	var fileCfg Config
	if _, err := toml.DecodeFile(path, &fileCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg := NewConfig()
	cfg.Merge(&fileCfg)
	applyEnvironmentVariables(cfg, envLookup(filepath.Dir(path)))
	return cfg, nil
}

// loadGlobalConfig loads the global user configuration from ~/.config/compflags/config.toml.
func loadGlobalConfig() *Config {
	path := GetGlobalConfigPath()
	if path == "" {
		return nil
	}
	return loadConfigFile(path)
}

// loadProjectConfigFrom looks for project configuration starting from the given directory.
func loadProjectConfigFrom(dir string) *Config {
	// Search up the directory tree for config files
	current := dir
	for {
		for _, path := range GetProjectConfigPaths(current) {
			if cfg := loadConfigFile(path); cfg != nil {
				return cfg
			}
		}

		// Stop at filesystem root or repository root
		if isRepositoryRoot(current) {
			break
		}

		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}

	return nil
}

// isRepositoryRoot checks if the directory is a VCS root (has .git or .svn).
func isRepositoryRoot(dir string) bool {
	markers := []string{".git", ".svn", ".hg"}
	for _, marker := range markers {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return true
		}
	}
	return false
}

// loadConfigFile loads a configuration from a TOML file.
func loadConfigFile(path string) *Config {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil
	}

	return &cfg
}

// envLookup returns a lookup that prefers the process environment and falls
// back to the .env file in dir.
func envLookup(dir string) func(string) string {
	var dotenv map[string]string
	if dir != "" {
		if m, err := godotenv.Read(filepath.Join(dir, EnvFileName)); err == nil {
			dotenv = m
		}
	}
	return func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
		return dotenv[key]
	}
}

// applyEnvironmentVariables applies COMPFLAGS_* variables to the config.
func applyEnvironmentVariables(cfg *Config, getenv func(string) string) {
	if v := getenv(EnvPrefix + "ROOT_BOUNDARY"); v != "" {
		cfg.RootBoundary = v
	}
	if v := getenv(EnvPrefix + "HOME_BOUNDARY"); v != "" {
		cfg.HomeBoundary = v
	}

	// C-family settings
	if v := getenv(EnvPrefix + "ENABLED_PREFIXES"); v != "" {
		cfg.CFamily.EnabledPrefixes = splitAndTrim(v)
	}
	if v := getenv(EnvPrefix + "EXPLICIT_INCLUDES"); v != "" {
		cfg.CFamily.ExplicitIncludes = splitAndTrim(v)
	}
	if v := getenv(EnvPrefix + "SYSROOT_FRAGMENT"); v != "" {
		cfg.CFamily.SysrootFragment = v
	}
	applyBoolEnv(getenv(EnvPrefix+"LOCAL_INCLUDES"), &cfg.CFamily.LocalIncludes)
	applyBoolEnv(getenv(EnvPrefix+"DENY_FOLD_CASE"), &cfg.CFamily.DenyFoldCase)

	// Manifest settings
	if v := getenv(EnvPrefix + "REPOSITORY_ROOT"); v != "" {
		cfg.Manifest.RepositoryRoot = v
	}
	if v := getenv(EnvPrefix + "NAMESPACE"); v != "" {
		cfg.Manifest.Namespace = v
	}
	if v := getenv(EnvPrefix + "VERSION_ORDER"); v != "" {
		cfg.Manifest.VersionOrder = strings.ToLower(v)
	}

	// Dry-run settings
	applyBoolEnv(getenv(EnvPrefix+"DRY_RUN"), &cfg.DryRun.Enabled)
	if v := getenv(EnvPrefix + "DRY_RUN_SHELL"); v != "" {
		cfg.DryRun.Shell = v
	}
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// applyBoolEnv applies a boolean environment value to a pointer.
func applyBoolEnv(v string, target **bool) {
	if v == "" {
		return
	}
	switch strings.ToLower(v) {
	case "true", "1", "yes":
		t := true
		*target = &t
	case "false", "0", "no":
		f := false
		*target = &f
	}
}

// GetGlobalConfigPath returns the path to the global config file.
func GetGlobalConfigPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(configDir, GlobalConfigDir, "config.toml")
}

// GetProjectConfigPaths returns potential project config paths for a given directory.
func GetProjectConfigPaths(dir string) []string {
	return []string{
		filepath.Join(dir, ConfigDirName, "config.toml"),
		filepath.Join(dir, ConfigFileName),
	}
}
