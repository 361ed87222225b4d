package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/albertocavalcante/compflags/cmd/compflags/internal/daemon"
	"github.com/spf13/cobra"
)

// statusTimeout bounds the status round trips to the daemon.
const statusTimeout = 5 * time.Second

var daemonStatusFlags struct {
	jsonOutput bool
	socket     string
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	Long: `Show the status of the compflags daemon.

Displays whether the daemon is running, its PID, socket path,
uptime and the number of requests it has served.

Examples:
  compflags daemon status        # Show status as text
  compflags daemon status --json # Show status as JSON`,
	RunE: runDaemonStatus,
}

func init() {
	daemonStatusCmd.Flags().BoolVar(&daemonStatusFlags.jsonOutput, "json", false,
		"Output as JSON")
	daemonStatusCmd.Flags().StringVar(&daemonStatusFlags.socket, "socket", "",
		"Custom socket path")

	daemonCmd.AddCommand(daemonStatusCmd)
}

// DaemonStatusOutput is the JSON output format for daemon status.
type DaemonStatusOutput struct {
	Running          bool   `json:"running"`
	PID              int    `json:"pid,omitempty"`
	SocketPath       string `json:"socket_path"`
	Version          string `json:"version,omitempty"`
	Uptime           string `json:"uptime,omitempty"`
	StartTime        string `json:"start_time,omitempty"`
	Requests         int64  `json:"requests,omitempty"`
	ConnectedClients int    `json:"connected_clients,omitempty"`
	Error            string `json:"error,omitempty"`
}

func runDaemonStatus(cmd *cobra.Command, args []string) error {
	paths, err := daemonPaths(daemonStatusFlags.socket)
	if err != nil {
		return err
	}

	status := paths.Status()
	output := DaemonStatusOutput{
		Running:    status.Running(),
		PID:        status.PID,
		SocketPath: paths.Socket,
	}

	if status.Running() {
		if err := enrichStatusFromDaemon(cmd.Context(), paths, &output); err != nil {
			output.Error = err.Error()
		}
	} else if status.State == daemon.StateStale {
		output.Error = "stale PID file (daemon crashed)"
	}

	if daemonStatusFlags.jsonOutput {
		return writeIndentedJSON(cmd.OutOrStdout(), output)
	}
	outputDaemonStatusText(cmd, output, status)
	return nil
}

// enrichStatusFromDaemon connects to the daemon to get detailed status.
func enrichStatusFromDaemon(ctx context.Context, paths *daemon.Paths, output *DaemonStatusOutput) error {
	client, err := daemon.Connect(paths.Socket)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer func() { _ = client.Close() }()

	ctx, cancel := context.WithTimeout(ctx, statusTimeout)
	defer cancel()

	ping, err := client.Ping(ctx)
	if err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	output.Version = ping.Version
	output.Uptime = ping.Uptime
	output.StartTime = ping.StartTime

	stats, err := client.Status(ctx)
	if err != nil {
		return fmt.Errorf("status failed: %w", err)
	}
	output.Requests = stats.Requests
	// Exclude this connection
	output.ConnectedClients = stats.ClientCount - 1

	return nil
}

// outputDaemonStatusText outputs status as human-readable text.
func outputDaemonStatusText(cmd *cobra.Command, output DaemonStatusOutput, status *daemon.Status) {
	out := cmd.OutOrStdout()
	if !output.Running {
		fmt.Fprintln(out, "Daemon: not running")
		if status.State == daemon.StateStale {
			fmt.Fprintf(out, "  (stale PID file found for PID %d)\n", status.PID)
			fmt.Fprintln(out, "  Run 'compflags daemon start' to start the daemon")
		}
		return
	}

	fmt.Fprintf(out, "Daemon: running (PID: %d)\n", output.PID)
	fmt.Fprintf(out, "Socket: %s\n", output.SocketPath)
	if output.Version != "" {
		fmt.Fprintf(out, "Version: %s\n", output.Version)
	}
	if output.Uptime != "" {
		fmt.Fprintf(out, "Uptime: %s\n", formatUptime(output.Uptime))
	}
	fmt.Fprintf(out, "Requests: %d\n", output.Requests)
	fmt.Fprintf(out, "Clients: %d\n", output.ConnectedClients)

	if output.Error != "" {
		fmt.Fprintf(out, "Warning: %s\n", output.Error)
	}
}

// formatUptime formats the uptime string for display.
func formatUptime(uptime string) string {
	d, err := time.ParseDuration(uptime)
	if err != nil {
		return uptime
	}

	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	return fmt.Sprintf("%dd %dh", days, hours)
}
