package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/albertocavalcante/compflags/pkg/settings"
	"github.com/albertocavalcante/compflags/pkg/walk"
	"github.com/spf13/cobra"
)

var rootFlags struct {
	marker string
}

var findRootCmd = &cobra.Command{
	Use:   "root <file>",
	Short: "Print the project root above a file",
	Long: `Walks up from a file to the nearest directory holding a marker and
prints it. The walk stops at the configured home boundary.

Markers:
  manifest  a manifest file (product-spec.json, product-spec.yaml)
  project   a project marker (build.gradle)
  build     the Python build directory
  env       the build environment script used for dry-run discovery

Examples:
  compflags root src/widget.cc
  compflags root src/widget.cc --marker project`,
	Args: cobra.ExactArgs(1),
	RunE: runFindRoot,
}

func init() {
	findRootCmd.Flags().StringVar(&rootFlags.marker, "marker", settings.MarkerManifest,
		"Marker kind ("+strings.Join(settings.MarkerNames, ", ")+")")

	rootCmd.AddCommand(findRootCmd)
}

func runFindRoot(cmd *cobra.Command, args []string) error {
	filename, err := absPath(args[0])
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	root, err := settings.FindRoot(cfg, filename, rootFlags.marker)
	if errors.Is(err, walk.ErrNotFound) {
		return fmt.Errorf("no %s root above %s (boundary %s)", rootFlags.marker, filename, cfg.HomeBoundary)
	}
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), root)
	return err
}
