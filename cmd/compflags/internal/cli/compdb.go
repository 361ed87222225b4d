package cli

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/albertocavalcante/compflags/cmd/compflags/internal/detect"
	"github.com/albertocavalcante/compflags/cmd/compflags/internal/langs"
	"github.com/albertocavalcante/compflags/internal/log"
	"github.com/albertocavalcante/compflags/pkg/compdb"
	"github.com/spf13/cobra"
)

var compdbFlags struct {
	output string
	jobs   int
	stdout bool
}

var compdbCmd = &cobra.Command{
	Use:   "compdb [dir]",
	Short: "Write a compile_commands.json for a source tree",
	Long: `Resolves the flags of every C-family source file below a directory and
writes them as a JSON compilation database, for tools that read
compile_commands.json instead of asking per file.

Headers are not listed; ignored directories (hidden, build output, vendored
code) are skipped. Files that resolve to no settings are left out.

Examples:
  compflags compdb
  compflags compdb src -o build/compile_commands.json --jobs 8
  compflags compdb --stdout`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCompdb,
}

func init() {
	compdbCmd.Flags().StringVarP(&compdbFlags.output, "output", "o", "",
		"Output file (default: <dir>/"+compdb.FileName+")")
	compdbCmd.Flags().IntVarP(&compdbFlags.jobs, "jobs", "j", runtime.NumCPU(),
		"Number of files resolved concurrently")
	compdbCmd.Flags().BoolVar(&compdbFlags.stdout, "stdout", false,
		"Write the database to stdout instead of a file")

	rootCmd.AddCommand(compdbCmd)
}

func runCompdb(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	root, err := absPath(dir)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	files, err := detect.Sources(ctx, root, langs.CompiledExtensions)
	if err != nil {
		return fmt.Errorf("failed to list sources in %s: %w", root, err)
	}
	log.Info("resolving sources", "root", root, "files", len(files), "jobs", compdbFlags.jobs)

	entries, err := compdb.Build(ctx, newDispatcher(cfg), files, compdbFlags.jobs,
		log.Component("compdb").Desugar())
	if err != nil {
		return err
	}

	log.V(log.VerbosityDebug).Infow("resolved sources",
		"resolved", len(entries), "skipped", len(files)-len(entries))

	if compdbFlags.stdout {
		return compdb.Encode(cmd.OutOrStdout(), entries)
	}

	output := compdbFlags.output
	if output == "" {
		output = filepath.Join(root, compdb.FileName)
	}
	if err := compdb.WriteFile(output, entries); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d entries to %s\n", len(entries), output)
	return nil
}
