package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/albertocavalcante/compflags/cmd/compflags/internal/detect"
	"github.com/albertocavalcante/compflags/pkg/config"
	"github.com/albertocavalcante/compflags/pkg/settings"
	"github.com/spf13/cobra"
)

var initFlags struct {
	languages []string
	force     bool
	dryRun    bool
}

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a starter compflags.toml",
	Long: `Writes a starter compflags.toml into a project directory.

The file holds the default settings of each language found in the project
(detected by file extension unless --languages is given), ready to edit.
An existing file is kept unless --force is set.

Use --dry-run to print the file instead of writing it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringSliceVar(&initFlags.languages, "languages", nil,
		"Languages to configure (auto-detected if not specified)")
	initCmd.Flags().BoolVar(&initFlags.force, "force", false,
		"Overwrite an existing config file")
	initCmd.Flags().BoolVar(&initFlags.dryRun, "dry-run", false,
		"Print the config instead of writing it")

	rootCmd.AddCommand(initCmd)
}

// starterConfig is the subset of config.Config written by init. Boundaries
// are left to their per-user defaults.
type starterConfig struct {
	CFamily  *config.CFamilyConfig  `toml:"cfamily,omitempty"`
	Manifest *config.ManifestConfig `toml:"manifest,omitempty"`
	Python   *config.PythonConfig   `toml:"python,omitempty"`
}

const starterHeader = `# compflags configuration.
# Settings here override ~/.config/compflags/config.toml and are overridden
# by COMPFLAGS_* environment variables.

`

// renderStarter encodes the starter configuration for languages.
func renderStarter(languages []string) ([]byte, error) {
	defaults := config.NewConfig()
	var starter starterConfig
	if slices.Contains(languages, settings.LanguageCFamily) {
		starter.CFamily = &defaults.CFamily
		starter.Manifest = &defaults.Manifest
	}
	if slices.Contains(languages, settings.LanguagePython) {
		starter.Python = &defaults.Python
	}

	var buf bytes.Buffer
	buf.WriteString(starterHeader)
	if err := toml.NewEncoder(&buf).Encode(starter); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return buf.Bytes(), nil
}

func runInit(cmd *cobra.Command, args []string) error {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}
	dir, err := absPath(path)
	if err != nil {
		return err
	}

	var languages []string
	if len(initFlags.languages) > 0 {
		for _, lang := range initFlags.languages {
			if !settings.IsAvailable(lang) {
				return fmt.Errorf("unknown language %q (available: %v)", lang, settings.Available())
			}
		}
		languages = initFlags.languages
	} else {
		detected, err := detect.Languages(dir)
		if err != nil {
			return fmt.Errorf("failed to detect languages: %w", err)
		}
		languages = detected
	}

	out := cmd.OutOrStdout()
	if len(languages) == 0 {
		fmt.Fprintln(out, "No languages detected. Use --languages to specify manually.")
		return nil
	}
	fmt.Fprintf(out, "Languages: %s\n", strings.Join(languages, ", "))

	data, err := renderStarter(languages)
	if err != nil {
		return err
	}

	if initFlags.dryRun {
		_, err := out.Write(data)
		return err
	}

	target := filepath.Join(dir, config.ConfigFileName)
	if _, err := os.Stat(target); err == nil && !initFlags.force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", target)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := os.WriteFile(target, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", target, err)
	}
	fmt.Fprintf(out, "Wrote %s\n", target)
	return nil
}
