package cli

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/albertocavalcante/compflags/cmd/compflags/internal/daemon"
	"github.com/albertocavalcante/compflags/internal/log"
	"github.com/spf13/cobra"
)

// startupWait is how long a background start waits for the PID file.
const startupWait = 2 * time.Second

var daemonStartFlags struct {
	foreground bool
	socket     string
	logFile    string
}

var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the daemon process",
	Long: `Start the compflags daemon process.

By default, the daemon runs in the background. Use --foreground to run
in the foreground for debugging.

The daemon loads its configuration once, at start-up, from the directory
it is started in (or from --config). Restart it after editing the config.

Examples:
  compflags daemon start              # Start in background
  compflags daemon start --foreground # Run in foreground (Ctrl+C to stop)
  compflags daemon start --socket /custom/path.sock`,
	RunE: runDaemonStart,
}

func init() {
	daemonStartCmd.Flags().BoolVar(&daemonStartFlags.foreground, "foreground", false,
		"Run in foreground (don't daemonize)")
	daemonStartCmd.Flags().StringVar(&daemonStartFlags.socket, "socket", "",
		"Custom socket path (default: ~/.compflags/daemon.sock)")
	daemonStartCmd.Flags().StringVar(&daemonStartFlags.logFile, "log", "",
		"Log file path (default: ~/.compflags/daemon.log)")

	daemonCmd.AddCommand(daemonStartCmd)
}

func runDaemonStart(cmd *cobra.Command, args []string) error {
	paths, err := daemonPaths(daemonStartFlags.socket)
	if err != nil {
		return err
	}

	status := paths.Status()
	if status.Running() {
		fmt.Fprintf(cmd.OutOrStdout(), "Daemon already running (PID: %d)\n", status.PID)
		return nil
	}

	if status.State == daemon.StateStale {
		if _, err := paths.RemoveStale(); err != nil {
			log.Warn("failed to clean up stale files", "error", err)
		}
	}

	if daemonStartFlags.foreground {
		return runDaemonForeground(cmd, paths)
	}
	return runDaemonBackground(cmd, paths)
}

// runDaemonForeground runs the daemon in the foreground.
func runDaemonForeground(cmd *cobra.Command, paths *daemon.Paths) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Starting daemon in foreground (PID: %d)\n", os.Getpid())
	fmt.Fprintf(out, "Socket: %s\n", paths.Socket)
	fmt.Fprintln(out, "Press Ctrl+C to stop")
	fmt.Fprintln(out)

	server := daemon.NewServer(daemon.ServerConfig{
		Paths:   paths,
		Version: Version,
		Handler: daemon.NewHandler(newDispatcher(cfg)),
	})

	// Blocks until shutdown
	return server.Start(cmd.Context())
}

// runDaemonBackground re-executes compflags in foreground mode, detached.
func runDaemonBackground(cmd *cobra.Command, paths *daemon.Paths) error {
	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}

	args := []string{
		"daemon", "start", "--foreground",
		"--verbosity", strconv.Itoa(globalFlags.verbosity),
		"--log-format", globalFlags.logFormat,
	}
	if daemonStartFlags.socket != "" {
		args = append(args, "--socket", daemonStartFlags.socket)
	}
	if globalFlags.configPath != "" {
		configPath, err := filepath.Abs(globalFlags.configPath)
		if err != nil {
			return err
		}
		args = append(args, "--config", configPath)
	}

	if err := paths.EnsureDir(); err != nil {
		return fmt.Errorf("failed to create daemon directory: %w", err)
	}

	logPath := paths.Log
	if daemonStartFlags.logFile != "" {
		logPath = daemonStartFlags.logFile
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	child := exec.Command(executable, args...)
	child.Stdout = logFile
	child.Stderr = logFile
	child.Stdin = nil
	child.SysProcAttr = daemonSysProcAttr()

	if err := child.Start(); err != nil {
		_ = logFile.Close()
		return fmt.Errorf("failed to start daemon: %w", err)
	}
	// The child keeps its own handle
	_ = logFile.Close()
	_ = child.Process.Release()

	deadline := time.Now().Add(startupWait)
	status := paths.Status()
	for !status.Running() && time.Now().Before(deadline) {
		time.Sleep(100 * time.Millisecond)
		status = paths.Status()
	}
	if !status.Running() {
		return fmt.Errorf("daemon failed to start (check %s for details)", logPath)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Daemon started (PID: %d)\n", status.PID)
	fmt.Fprintf(out, "Socket: %s\n", paths.Socket)
	fmt.Fprintf(out, "Log: %s\n", logPath)
	return nil
}
