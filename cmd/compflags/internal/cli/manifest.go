package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/albertocavalcante/compflags/pkg/manifest"
	"github.com/albertocavalcante/compflags/pkg/walk"
	"github.com/spf13/cobra"
)

var manifestFlags struct {
	jsonOutput bool
}

var manifestCmd = &cobra.Command{
	Use:   "manifest [path]",
	Short: "Show manifest dependencies and where they resolve",
	Long: `Finds the manifest governing a file or directory and lists its
dependencies in declaration order, each with the include directory it
resolves to in the dependency repository.

Examples:
  compflags manifest
  compflags manifest src/widget.cc --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runManifest,
}

func init() {
	manifestCmd.Flags().BoolVar(&manifestFlags.jsonOutput, "json", false,
		"Output as JSON")

	rootCmd.AddCommand(manifestCmd)
}

// ManifestOutput is the JSON output format of the manifest command.
type ManifestOutput struct {
	Path         string             `json:"path"`
	Repository   string             `json:"repository"`
	Dependencies []DependencyOutput `json:"dependencies"`
}

// DependencyOutput describes one resolved dependency library.
type DependencyOutput struct {
	Name    string `json:"name"`
	Library string `json:"library"`
	Version string `json:"version"`
	Include string `json:"include,omitempty"`
}

func runManifest(cmd *cobra.Command, args []string) error {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}
	start, err := absPath(path)
	if err != nil {
		return err
	}
	if info, err := os.Stat(start); err == nil && info.IsDir() {
		start = walk.StartAt(start)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cf := newDispatcher(cfg).CFamily()

	m, err := cf.Manifest(start)
	if errors.Is(err, walk.ErrNotFound) {
		return fmt.Errorf("no manifest above %s", filepath.Dir(start))
	}
	if err != nil {
		return err
	}

	output := ManifestOutput{
		Path:         m.Path,
		Repository:   cfg.Manifest.RepositoryRoot,
		Dependencies: []DependencyOutput{},
	}
	resolver := cf.Manifests()
	for _, dep := range m.Dependencies {
		for _, lib := range dep.LibraryNames() {
			entry := DependencyOutput{Name: dep.Name, Library: lib, Version: dep.Version}
			if resolver.RepositoryRoot != "" {
				if dir, ok := resolver.ResolveVersion(dep.Name, lib, dep.Version); ok {
					entry.Include = filepath.Join(dir, manifest.IncludeSubdir)
				}
			}
			output.Dependencies = append(output.Dependencies, entry)
		}
	}

	if manifestFlags.jsonOutput {
		return writeIndentedJSON(cmd.OutOrStdout(), output)
	}
	return outputManifestText(cmd, output)
}

func outputManifestText(cmd *cobra.Command, output ManifestOutput) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Manifest: %s\n", output.Path)
	if output.Repository == "" {
		fmt.Fprintln(out, "Repository: (not configured)")
	} else {
		fmt.Fprintf(out, "Repository: %s\n", output.Repository)
	}

	if len(output.Dependencies) == 0 {
		fmt.Fprintln(out, "No dependencies")
		return nil
	}

	fmt.Fprintln(out, "Dependencies:")
	for _, dep := range output.Dependencies {
		include := dep.Include
		if include == "" {
			include = "(unresolved)"
		}
		fmt.Fprintf(out, "  %s/%s %s -> %s\n", dep.Name, dep.Library, dep.Version, include)
	}
	return nil
}
