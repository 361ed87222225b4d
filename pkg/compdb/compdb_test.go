package compdb

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/albertocavalcante/compflags/pkg/config"
	"github.com/albertocavalcante/compflags/pkg/settings"
)

func TestNewEntry(t *testing.T) {
	got := NewEntry("/p/src/a.cc", []string{"-x", "c++", "-I/p/include"})
	want := Entry{
		Directory: "/p/src",
		Arguments: []string{"clang", "-x", "c++", "-I/p/include", "/p/src/a.cc"},
		File:      "/p/src/a.cc",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("NewEntry() mismatch (-want +got):\n%s", diff)
	}
}

func TestEncode(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, nil))
	require.Equal(t, "[]", strings.TrimSpace(buf.String()))

	buf.Reset()
	require.NoError(t, Encode(&buf, []Entry{NewEntry("/a.c", nil)}))
	require.Contains(t, buf.String(), `"directory": "/"`)
	require.Contains(t, buf.String(), `"file": "/a.c"`)
}

func TestWriteFileAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	entries := []Entry{NewEntry("/p/a.cc", []string{"-g"}), NewEntry("/p/b.cc", nil)}

	require.NoError(t, WriteFile(path, entries))
	got, err := Read(path)
	require.NoError(t, err)
	if diff := cmp.Diff(entries, got); diff != "" {
		t.Errorf("Read() mismatch (-want +got):\n%s", diff)
	}

	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(path), ".compdb-*"))
	require.NoError(t, err)
	require.Empty(t, leftovers)
}

func TestBuild(t *testing.T) {
	home, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	var files []string
	for _, name := range []string{"c.cc", "a.cc", "b.cc"} {
		f := filepath.Join(home, "proj", name)
		require.NoError(t, os.MkdirAll(filepath.Dir(f), 0o755))
		require.NoError(t, os.WriteFile(f, nil, 0o644))
		files = append(files, f)
	}
	// Outside the root boundary: skipped
	files = append(files, filepath.Join(filepath.Dir(home), "elsewhere.cc"))

	cfg := config.NewConfig()
	cfg.RootBoundary = home
	cfg.HomeBoundary = home
	d := settings.New(cfg)

	entries, err := Build(context.Background(), d, files, 2, nil)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, filepath.Join(home, "proj", "a.cc"), entries[0].File)
	require.Equal(t, filepath.Join(home, "proj", "c.cc"), entries[2].File)
	require.Equal(t, Compiler, entries[0].Arguments[0])
	require.Equal(t, cfg.CFamily.BaseFlags, entries[0].Arguments[1:len(entries[0].Arguments)-1])
}

func TestBuildCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Build(ctx, settings.New(config.NewConfig()), []string{"/a.cc"}, 1, nil)
	require.ErrorIs(t, err, context.Canceled)
}
