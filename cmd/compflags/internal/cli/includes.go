package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var includesFlags struct {
	flags bool
}

var includesCmd = &cobra.Command{
	Use:   "includes <file>",
	Short: "Print the include directories assembled for a file",
	Long: `Prints the include directories of a C-family file, one per line, in
the order they appear in its flags: project-local directories, explicit
directories, then manifest dependencies, filtered and deduplicated.

A header is answered for its corresponding source file, as settings does.
Files outside the root boundary or the enabled prefixes are an error.

Examples:
  compflags includes src/widget.cc
  compflags includes src/widget.cc --flags`,
	Args: cobra.ExactArgs(1),
	RunE: runIncludes,
}

func init() {
	includesCmd.Flags().BoolVar(&includesFlags.flags, "flags", false,
		"Print as -I flags")

	rootCmd.AddCommand(includesCmd)
}

func runIncludes(cmd *cobra.Command, args []string) error {
	filename, err := absPath(args[0])
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dirs, err := newDispatcher(cfg).IncludeDirs(filename)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, dir := range dirs {
		if includesFlags.flags {
			dir = "-I" + dir
		}
		if _, err := fmt.Fprintln(out, dir); err != nil {
			return err
		}
	}
	return nil
}
