package daemon

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// Daemon file names. DirName lives under the user's home directory.
const (
	DirName    = ".compflags"
	SocketName = "daemon.sock"
	PIDName    = "daemon.pid"
	LogName    = "daemon.log"
)

// exitPollInterval is how often WaitForExit probes the process.
const exitPollInterval = 100 * time.Millisecond

// Paths locates the files of one daemon instance.
type Paths struct {
	Dir    string
	Socket string
	PID    string
	Log    string
}

// DefaultPaths returns the paths under ~/.compflags.
func DefaultPaths() (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("locating home directory: %w", err)
	}
	return PathsIn(filepath.Join(home, DirName)), nil
}

// PathsIn returns the standard file names inside dir.
func PathsIn(dir string) *Paths {
	return &Paths{
		Dir:    dir,
		Socket: filepath.Join(dir, SocketName),
		PID:    filepath.Join(dir, PIDName),
		Log:    filepath.Join(dir, LogName),
	}
}

// PathsForSocket names the PID and log files after a custom socket.
func PathsForSocket(socket string) *Paths {
	return &Paths{
		Dir:    filepath.Dir(socket),
		Socket: socket,
		PID:    socket + ".pid",
		Log:    socket + ".log",
	}
}

// ResolvePaths returns PathsForSocket(socket), or DefaultPaths when socket
// is empty.
func ResolvePaths(socket string) (*Paths, error) {
	if socket == "" {
		return DefaultPaths()
	}
	return PathsForSocket(socket), nil
}

// EnsureDir creates the daemon directory, private to the user.
func (p *Paths) EnsureDir() error {
	return os.MkdirAll(p.Dir, 0o700)
}

// WritePID records the current process as the daemon.
func (p *Paths) WritePID() error {
	if err := p.EnsureDir(); err != nil {
		return err
	}
	pid := strconv.AppendInt(nil, int64(os.Getpid()), 10)
	return os.WriteFile(p.PID, pid, 0o600)
}

// ReadPID returns the process recorded in the PID file.
func (p *Paths) ReadPID() (int, error) {
	data, err := os.ReadFile(p.PID)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("%s: malformed pid %q", p.PID, data)
	}
	return pid, nil
}

// Cleanup removes the PID file and the socket. Missing files are fine.
func (p *Paths) Cleanup() error {
	return errors.Join(removeIfExists(p.PID), removeIfExists(p.Socket))
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// State is what the daemon files say about the daemon.
type State int

const (
	// StateStopped means there is no readable PID file.
	StateStopped State = iota
	// StateRunning means the recorded process is alive.
	StateRunning
	// StateStale means the recorded process is gone.
	StateStale
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateStale:
		return "stale"
	default:
		return "stopped"
	}
}

// Status is a snapshot of the daemon files.
type Status struct {
	State      State
	PID        int
	SocketPath string
}

// Running reports whether the recorded process is alive.
func (s *Status) Running() bool { return s.State == StateRunning }

// Status reads the PID file and probes the process it names.
func (p *Paths) Status() *Status {
	st := &Status{SocketPath: p.Socket}
	pid, err := p.ReadPID()
	if err != nil {
		return st
	}
	st.PID = pid
	if IsProcessRunning(pid) {
		st.State = StateRunning
	} else {
		st.State = StateStale
	}
	return st
}

// RemoveStale deletes files left behind by a daemon that is gone, including
// a socket without a PID file. It reports whether anything was removed.
func (p *Paths) RemoveStale() (bool, error) {
	switch p.Status().State {
	case StateRunning:
		return false, nil
	case StateStale:
		if err := p.Cleanup(); err != nil {
			return false, err
		}
		return true, nil
	}

	err := os.Remove(p.Socket)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	}
	return false, fmt.Errorf("removing orphan socket: %w", err)
}

// IsProcessRunning probes pid with signal 0.
func IsProcessRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	return err == nil && proc.Signal(syscall.Signal(0)) == nil
}

// Signal delivers sig to pid.
func Signal(pid int, sig os.Signal) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("finding process %d: %w", pid, err)
	}
	return proc.Signal(sig)
}

// WaitForExit polls pid until it is gone or timeout elapses.
func WaitForExit(pid int, timeout time.Duration) bool {
	tick := time.NewTicker(exitPollInterval)
	defer tick.Stop()
	deadline := time.After(timeout)

	for IsProcessRunning(pid) {
		select {
		case <-deadline:
			return false
		case <-tick.C:
		}
	}
	return true
}
