package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/albertocavalcante/compflags/cmd/compflags/internal/daemon"
	"github.com/albertocavalcante/compflags/cmd/compflags/internal/detect"
	"github.com/albertocavalcante/compflags/internal/log"
	"github.com/albertocavalcante/compflags/pkg/settings"
	"github.com/spf13/cobra"
)

// daemonCallTimeout bounds one settings round trip to the daemon.
const daemonCallTimeout = 10 * time.Second

var settingsFlags struct {
	language    string
	useDaemon   bool
	socket      string
	fingerprint bool
}

var settingsCmd = &cobra.Command{
	Use:   "settings <file>",
	Short: "Print the settings record for a file",
	Long: `Prints the JSON settings record a completion engine needs for one file.

C-family files yield {"flags": [...], "override_filename": "..."}; headers
are answered with the flags of their corresponding source file. Python files
yield {"interpreter_path": "...", "sys_path": [...]}. Files outside the root
boundary, and files of unknown language, yield {}.

The language is detected from the file extension unless --language is set.
With --daemon the record is resolved by a running 'compflags daemon'; if no
daemon answers, it is resolved in-process.

Examples:
  compflags settings src/widget.cc
  compflags settings include/widget.h --language cfamily
  compflags settings tools/gen.py --daemon`,
	Args: cobra.ExactArgs(1),
	RunE: runSettings,
}

func init() {
	settingsCmd.Flags().StringVarP(&settingsFlags.language, "language", "l", "",
		"Language of the file (cfamily, python; detected if empty)")
	settingsCmd.Flags().BoolVar(&settingsFlags.useDaemon, "daemon", false,
		"Resolve through the running daemon")
	settingsCmd.Flags().StringVar(&settingsFlags.socket, "socket", "",
		"Custom daemon socket path")
	settingsCmd.Flags().BoolVar(&settingsFlags.fingerprint, "fingerprint", false,
		"Print only the record fingerprint")

	rootCmd.AddCommand(settingsCmd)
}

func runSettings(cmd *cobra.Command, args []string) error {
	filename, err := absPath(args[0])
	if err != nil {
		return err
	}

	lang := settingsFlags.language
	if lang == "" {
		lang, _ = detect.Language(filename)
	} else if !settings.IsAvailable(lang) {
		return fmt.Errorf("unknown language %q (available: %v)", lang, settings.Available())
	}

	log.With("file", filename, "language", lang).Debugw("resolving settings",
		"daemon", settingsFlags.useDaemon)
	rec, err := resolveSettings(cmd.Context(), filename, lang)
	if err != nil {
		return err
	}

	if settingsFlags.fingerprint {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), rec.Fingerprint())
		return err
	}
	return writeJSON(cmd.OutOrStdout(), rec)
}

// resolveSettings asks the daemon when requested and reachable, and
// resolves in-process otherwise.
func resolveSettings(ctx context.Context, filename, lang string) (settings.Record, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if settingsFlags.useDaemon {
		rec, err := settingsFromDaemon(ctx, filename, lang)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, daemon.ErrDaemonNotRunning) {
			return settings.Record{}, err
		}
		log.Info("daemon not running, resolving in-process", "socket", settingsFlags.socket)
	}

	cfg, err := loadConfig()
	if err != nil {
		return settings.Record{}, err
	}
	return newDispatcher(cfg).Settings(ctx, settings.Request{Filename: filename, Language: lang}), nil
}

func settingsFromDaemon(ctx context.Context, filename, lang string) (settings.Record, error) {
	paths, err := daemon.ResolvePaths(settingsFlags.socket)
	if err != nil {
		return settings.Record{}, err
	}

	client, err := daemon.Connect(paths.Socket)
	if err != nil {
		return settings.Record{}, err
	}
	defer func() { _ = client.Close() }()

	ctx, cancel := context.WithTimeout(ctx, daemonCallTimeout)
	defer cancel()

	result, err := client.Settings(ctx, &daemon.SettingsGetParams{Filename: filename, Language: lang})
	if err != nil {
		return settings.Record{}, fmt.Errorf("daemon request failed: %w", err)
	}
	return result.Record, nil
}
