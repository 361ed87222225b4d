package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/albertocavalcante/compflags/pkg/config"
)

// testConfig returns defaults bounded to home, with a deny list that cannot
// collide with temporary directory names.
func testConfig(home string) *config.Config {
	cfg := config.NewConfig()
	cfg.RootBoundary = home
	cfg.HomeBoundary = home
	cfg.CFamily.DenySubdirs = []string{"docs", ".git"}
	return cfg
}

// createFile creates a file (and its parents) with the given content.
func createFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func mkdirAll(t *testing.T, paths ...string) {
	t.Helper()
	for _, p := range paths {
		if err := os.MkdirAll(p, 0o755); err != nil {
			t.Fatal(err)
		}
	}
}

// evalHome returns a temp dir with symlinks resolved so that paths built
// from it compare equal to walked paths.
func evalHome(t *testing.T) string {
	t.Helper()
	home, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return home
}
