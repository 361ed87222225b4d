package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/albertocavalcante/compflags/cmd/compflags/internal/langs"
	"github.com/albertocavalcante/compflags/pkg/settings"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the debounce window used when Config.Debounce is unset.
const DefaultDebounce = 300 * time.Millisecond

// ErrWatchLimitReached is returned when the OS watch limit is exceeded.
var ErrWatchLimitReached = errors.New("filesystem watch limit reached")

// Config configures the watcher.
type Config struct {
	File       string // file whose settings are reported
	Language   string
	Root       string // tree whose changes trigger re-resolution
	Dispatcher *settings.Dispatcher
	Debounce   time.Duration
	IgnoreDirs []string // extra directory names to skip
	Writer     io.Writer
	Verbose    bool
	NoColor    bool
	JSON       bool
}

// Watcher watches a project tree and re-resolves one file's settings on
// every batch of changes.
type Watcher struct {
	config    Config
	fsWatcher *fsnotify.Watcher
	debouncer *Debouncer
	logger    *Logger
	dirCount  int

	// resolveMu serializes resolutions and guards last
	resolveMu sync.Mutex
	last      string
}

// New creates a new watcher with the given configuration.
func New(cfg Config) (*Watcher, error) {
	if cfg.File == "" {
		return nil, errors.New("watch: no file to resolve")
	}
	if cfg.Dispatcher == nil {
		return nil, errors.New("watch: no settings dispatcher")
	}
	if cfg.Root == "" {
		cfg.Root = filepath.Dir(cfg.File)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &Watcher{
		config:    cfg,
		fsWatcher: fsWatcher,
		logger: NewLogger(LoggerConfig{
			Writer:  cfg.Writer,
			Verbose: cfg.Verbose,
			NoColor: cfg.NoColor,
			JSON:    cfg.JSON,
		}),
	}, nil
}

// Run resolves the file once, then on every debounced batch of changes.
// It blocks until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	window := w.config.Debounce
	if window <= 0 {
		window = DefaultDebounce
	}
	w.debouncer = NewDebouncer(window, func([]string) { w.resolve(ctx) })

	if err := w.addRecursive(w.config.Root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.config.Root, err)
	}
	w.logger.Ready(w.config.File, w.config.Root, w.dirCount)
	w.resolve(ctx)

	defer func() {
		w.debouncer.Stop()
		// Wait out a resolution already running on the timer goroutine
		w.resolveMu.Lock()
		w.resolveMu.Unlock()
		w.logger.Shutdown()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error(err)
		}
	}
}

// resolve re-runs the dispatcher and reports the record when its
// fingerprint changed.
func (w *Watcher) resolve(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	w.resolveMu.Lock()
	defer w.resolveMu.Unlock()

	rec := w.config.Dispatcher.Settings(ctx, settings.Request{
		Filename: w.config.File,
		Language: w.config.Language,
	})
	fingerprint := rec.Fingerprint()
	if fingerprint == w.last {
		w.logger.Unchanged(fingerprint)
		return
	}
	w.last = fingerprint
	w.logger.Record(rec, fingerprint)
}

// addRecursive adds a directory and all non-ignored subdirectories.
func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			if !os.IsPermission(err) || w.config.Verbose {
				w.logger.Error(fmt.Errorf("walk error at %s: %w", path, err))
			}
			return nil
		}

		if !d.IsDir() {
			return nil
		}
		if path != root && langs.IsIgnoredDir(d.Name(), w.config.IgnoreDirs) {
			return filepath.SkipDir
		}

		if err := w.fsWatcher.Add(path); err != nil {
			if isWatchLimitError(err) {
				return fmt.Errorf("%w at %s: %v\n"+
					"Increase limit with: sudo sysctl fs.inotify.max_user_watches=524288",
					ErrWatchLimitReached, path, err)
			}
			if w.config.Verbose {
				w.logger.Error(fmt.Errorf("failed to watch %s: %w", path, err))
			}
			return nil
		}
		w.dirCount++
		return nil
	})
}

// isWatchLimitError checks if an error is due to inotify watch limits.
func isWatchLimitError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "no space left on device") ||
		strings.Contains(msg, "too many open files")
}

// isScratchFile reports editor swap and backup files, which never affect
// resolution.
func isScratchFile(name string) bool {
	return strings.HasPrefix(name, ".") ||
		strings.HasSuffix(name, "~") ||
		strings.HasSuffix(name, ".swp")
}

// handleEvent processes a single filesystem event.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name
	name := filepath.Base(path)

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if langs.IsIgnoredDir(name, w.config.IgnoreDirs) {
				return
			}
			if err := w.addRecursive(path); err != nil {
				w.logger.Error(fmt.Errorf("failed to watch new directory %s: %w", path, err))
			}
			// A new directory can add a local include dir
			w.logger.FileChanged(path, ChangeAdded)
			w.debouncer.Add(filepath.Dir(path))
			return
		}
	}

	if isScratchFile(name) {
		return
	}

	var change ChangeType
	switch {
	case event.Has(fsnotify.Create):
		change = ChangeAdded
	case event.Has(fsnotify.Write):
		change = ChangeModified
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		change = ChangeDeleted
	default:
		return // chmod
	}

	w.logger.FileChanged(path, change)
	w.debouncer.Add(filepath.Dir(path))
}

// Close closes the watcher and releases resources.
func (w *Watcher) Close() error {
	if w.fsWatcher != nil {
		return w.fsWatcher.Close()
	}
	return nil
}
