package cli

import (
	"github.com/albertocavalcante/compflags/cmd/compflags/internal/daemon"
	"github.com/spf13/cobra"
)

// daemonCmd is the parent command for daemon operations.
var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Manage the compflags daemon",
	Long: `Manage the compflags background daemon process.

The daemon answers settings requests over a Unix socket, so an editor
integration pays the process start-up and config loading cost once.
Every request is still resolved against the current state of the
filesystem.

Commands:
  start   - Start the daemon process
  stop    - Stop the running daemon
  status  - Show daemon status
  restart - Restart the daemon

Examples:
  compflags daemon start              # Start daemon in background
  compflags daemon start --foreground # Run daemon in foreground (for debugging)
  compflags daemon status             # Check if daemon is running
  compflags settings a.cc --daemon    # Resolve through the daemon
  compflags daemon stop               # Stop the daemon`,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

func init() {
	rootCmd.AddCommand(daemonCmd)
}

// daemonPaths returns the daemon file paths for a --socket value.
func daemonPaths(socket string) (*daemon.Paths, error) {
	return daemon.ResolvePaths(socket)
}
