package cli

import (
	"time"

	"github.com/spf13/cobra"
)

var daemonRestartFlags struct {
	force  bool
	socket string
}

var daemonRestartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Restart the daemon",
	Long: `Restart the compflags daemon, for example after editing the config.

This is equivalent to running 'compflags daemon stop' followed by
'compflags daemon start'.

Examples:
  compflags daemon restart         # Restart the daemon
  compflags daemon restart --force # Force restart if graceful stop fails`,
	RunE: runDaemonRestart,
}

func init() {
	daemonRestartCmd.Flags().BoolVar(&daemonRestartFlags.force, "force", false,
		"Force kill if graceful shutdown fails")
	daemonRestartCmd.Flags().StringVar(&daemonRestartFlags.socket, "socket", "",
		"Custom socket path")

	daemonCmd.AddCommand(daemonRestartCmd)
}

func runDaemonRestart(cmd *cobra.Command, args []string) error {
	paths, err := daemonPaths(daemonRestartFlags.socket)
	if err != nil {
		return err
	}

	if err := stopDaemon(cmd.Context(), cmd.OutOrStdout(), paths, daemonRestartFlags.force); err != nil {
		return err
	}

	// Let the old process release the socket
	time.Sleep(200 * time.Millisecond)

	daemonStartFlags.socket = daemonRestartFlags.socket
	daemonStartFlags.foreground = false
	return runDaemonStart(cmd, args)
}
