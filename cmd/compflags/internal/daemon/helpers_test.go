package daemon

import (
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/albertocavalcante/compflags/pkg/config"
	"github.com/albertocavalcante/compflags/pkg/settings"
	"github.com/stretchr/testify/require"
)

// shortTempDir creates a short temp directory for Unix socket tests.
// Unix sockets have a path length limit (~104 chars on macOS).
func shortTempDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("/tmp", "cf")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	return dir
}

// waitForSocketReady waits for a Unix socket to accept connections.
func waitForSocketReady(socketPath string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("unix", socketPath, 100*time.Millisecond)
		if err == nil {
			_ = conn.Close()
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return false
}

// workspace lays out a small C++ project with a manifest under a temp home
// and returns the home and a dispatcher bounded to it.
func workspace(t *testing.T) (string, *settings.Dispatcher) {
	t.Helper()
	home, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	createFile(t, filepath.Join(home, "proj", "product-spec.json"), `{"product": {}}`)
	createFile(t, filepath.Join(home, "proj", "build.gradle"), "")
	createFile(t, filepath.Join(home, "proj", "include", "widget.h"), "")
	createFile(t, filepath.Join(home, "proj", "src", "widget.cc"), "")

	cfg := config.NewConfig()
	cfg.RootBoundary = home
	cfg.HomeBoundary = home
	cfg.CFamily.DenySubdirs = []string{".git"}
	return home, settings.New(cfg)
}

func createFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
