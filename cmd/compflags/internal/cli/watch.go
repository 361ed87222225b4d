package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/albertocavalcante/compflags/cmd/compflags/internal/detect"
	"github.com/albertocavalcante/compflags/cmd/compflags/internal/watch"
	"github.com/albertocavalcante/compflags/pkg/config"
	"github.com/albertocavalcante/compflags/pkg/settings"
	"github.com/spf13/cobra"
)

var watchFlags struct {
	language string
	root     string
	debounce int
	verbose  bool
	json     bool
	noColor  bool
}

var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Re-resolve a file's settings whenever its project changes",
	Long: `Watches the project tree around a file and prints its settings record
every time it changes: a new include directory, an edited manifest, a moved
header. Saves that leave the record unchanged print nothing.

The watched tree is the project root (see 'compflags root --marker project'),
falling back to the manifest root and then to the file's directory.

Example output:

  $ compflags watch src/widget.cc

  compflags: watching 12 directories in /home/me/ws/widget
  compflags: resolving /home/me/ws/widget/src/widget.cc
  [14:32:15] ✓ settings 1c9f2e6a03b4d8f7
  {
    "flags": [...],
    "override_filename": "/home/me/ws/widget/src/widget.cc"
  }

Press Ctrl+C to stop watching.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchFlags.language, "language", "l", "",
		"Language of the file (detected if empty)")
	watchCmd.Flags().StringVar(&watchFlags.root, "root", "",
		"Directory to watch (default: the file's project root)")
	watchCmd.Flags().IntVar(&watchFlags.debounce, "debounce", int(watch.DefaultDebounce/time.Millisecond),
		"Debounce window in milliseconds")
	watchCmd.Flags().BoolVar(&watchFlags.verbose, "verbose", false,
		"Show file-level changes")
	watchCmd.Flags().BoolVar(&watchFlags.json, "json", false,
		"Stream JSON events (for tooling integration)")
	watchCmd.Flags().BoolVar(&watchFlags.noColor, "no-color", false,
		"Disable colored output")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	filename, err := absPath(args[0])
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	lang := watchFlags.language
	if lang == "" {
		lang, _ = detect.Language(filename)
	}

	root := watchFlags.root
	if root == "" {
		root = watchRoot(cfg, filename)
	} else if root, err = absPath(root); err != nil {
		return err
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return fmt.Errorf("invalid watch root %s", root)
	}

	// Include SIGHUP to handle terminal hangup
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	w, err := watch.New(watch.Config{
		File:       filename,
		Language:   lang,
		Root:       root,
		Dispatcher: newDispatcher(cfg),
		Debounce:   time.Duration(watchFlags.debounce) * time.Millisecond,
		Writer:     cmd.OutOrStdout(),
		Verbose:    watchFlags.verbose,
		NoColor:    watchFlags.noColor,
		JSON:       watchFlags.json,
	})
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	return w.Run(ctx)
}

// watchRoot picks the tree to watch for filename.
func watchRoot(cfg *config.Config, filename string) string {
	for _, marker := range []string{settings.MarkerProject, settings.MarkerManifest} {
		if root, err := settings.FindRoot(cfg, filename, marker); err == nil {
			return root
		}
	}
	return filepath.Dir(filename)
}
