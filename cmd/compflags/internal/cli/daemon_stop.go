package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"
	"time"

	"github.com/albertocavalcante/compflags/cmd/compflags/internal/daemon"
	"github.com/spf13/cobra"
)

// Graceful and forced stop timeouts.
const (
	gracefulStopTimeout = 5 * time.Second
	forcedStopTimeout   = 2 * time.Second
)

var daemonStopFlags struct {
	force  bool
	socket string
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	Long: `Stop the compflags daemon process.

By default, sends a graceful shutdown request via the socket.
If the daemon doesn't exit within 5 seconds, use --force to
send SIGKILL.

Examples:
  compflags daemon stop         # Graceful shutdown
  compflags daemon stop --force # Force kill if graceful fails`,
	RunE: runDaemonStop,
}

func init() {
	daemonStopCmd.Flags().BoolVar(&daemonStopFlags.force, "force", false,
		"Force kill if graceful shutdown fails")
	daemonStopCmd.Flags().StringVar(&daemonStopFlags.socket, "socket", "",
		"Custom socket path")

	daemonCmd.AddCommand(daemonStopCmd)
}

func runDaemonStop(cmd *cobra.Command, args []string) error {
	paths, err := daemonPaths(daemonStopFlags.socket)
	if err != nil {
		return err
	}
	return stopDaemon(cmd.Context(), cmd.OutOrStdout(), paths, daemonStopFlags.force)
}

// stopDaemon asks the daemon at paths to shut down, escalating to SIGKILL
// when force is set.
func stopDaemon(ctx context.Context, out io.Writer, paths *daemon.Paths, force bool) error {
	status := paths.Status()

	if status.State == daemon.StateStale {
		fmt.Fprintln(out, "Daemon not running (cleaning up stale files)")
		_ = paths.Cleanup()
		return nil
	}
	if !status.Running() {
		fmt.Fprintln(out, "Daemon not running")
		return nil
	}

	fmt.Fprintf(out, "Stopping daemon (PID: %d)...\n", status.PID)

	if err := tryGracefulShutdown(ctx, paths); err == nil {
		if daemon.WaitForExit(status.PID, gracefulStopTimeout) {
			fmt.Fprintln(out, "Daemon stopped")
			return nil
		}
	} else if !force {
		// No socket answer: fall back to SIGTERM, which the server handles
		_ = daemon.Signal(status.PID, syscall.SIGTERM)
		if daemon.WaitForExit(status.PID, gracefulStopTimeout) {
			fmt.Fprintln(out, "Daemon stopped")
			return nil
		}
	}

	if !force {
		fmt.Fprintln(out, "Graceful shutdown timed out. Use --force to kill.")
		return errors.New("shutdown timed out")
	}

	fmt.Fprintln(out, "Forcing shutdown...")
	if err := daemon.Signal(status.PID, os.Kill); err != nil && daemon.IsProcessRunning(status.PID) {
		return fmt.Errorf("failed to kill daemon: %w", err)
	}

	if daemon.WaitForExit(status.PID, forcedStopTimeout) {
		fmt.Fprintln(out, "Daemon stopped (forced)")
		// A killed daemon cannot remove its own files
		_ = paths.Cleanup()
		return nil
	}
	return errors.New("failed to stop daemon")
}

// tryGracefulShutdown attempts to stop the daemon via RPC.
func tryGracefulShutdown(ctx context.Context, paths *daemon.Paths) error {
	client, err := daemon.Connect(paths.Socket)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	ctx, cancel := context.WithTimeout(ctx, gracefulStopTimeout)
	defer cancel()
	_, err = client.Shutdown(ctx)
	return err
}
