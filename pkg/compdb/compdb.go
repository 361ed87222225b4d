// Package compdb renders resolved C-family settings as a JSON compilation
// database (compile_commands.json).
package compdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/albertocavalcante/compflags/pkg/settings"
)

// FileName is the conventional name of a compilation database.
const FileName = "compile_commands.json"

// Compiler is argv[0] of every entry.
const Compiler = "clang"

// Entry is one compilation database record.
type Entry struct {
	Directory string   `json:"directory"`
	Arguments []string `json:"arguments"`
	File      string   `json:"file"`
}

// NewEntry creates the entry compiling file with flags.
func NewEntry(file string, flags []string) Entry {
	args := make([]string, 0, len(flags)+2)
	args = append(args, Compiler)
	args = append(args, flags...)
	args = append(args, file)
	return Entry{
		Directory: filepath.Dir(file),
		Arguments: args,
		File:      file,
	}
}

// Build resolves every file through d with at most jobs concurrent
// resolutions. Files resolving to the empty record are skipped. Entries are
// sorted by file.
func Build(ctx context.Context, d *settings.Dispatcher, files []string, jobs int, logger *zap.Logger) ([]Entry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	results := make([]*Entry, len(files))

	g, ctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for i, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rec := d.Settings(ctx, settings.Request{Filename: file, Language: settings.LanguageCFamily})
			if rec.Kind != settings.KindCFamily {
				logger.Debug("no settings for file, skipping", zap.String("file", file))
				return nil
			}
			e := NewEntry(file, rec.Flags)
			results[i] = &e
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(results))
	for _, e := range results {
		if e != nil {
			entries = append(entries, *e)
		}
	}
	slices.SortFunc(entries, func(a, b Entry) int {
		return strings.Compare(a.File, b.File)
	})
	return entries, nil
}

// Encode writes entries as an indented JSON array.
func Encode(w io.Writer, entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

// WriteFile writes entries to path, replacing it atomically.
func WriteFile(path string, entries []Entry) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".compdb-*.json")
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := Encode(tmp, entries); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Read decodes a compilation database from path.
func Read(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return entries, nil
}
