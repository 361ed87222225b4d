package watch

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/albertocavalcante/compflags/pkg/settings"
	"golang.org/x/term"
)

// ChangeType is the one-character mark shown for a filesystem change.
type ChangeType string

const (
	ChangeAdded    ChangeType = "+"
	ChangeModified ChangeType = "~"
	ChangeDeleted  ChangeType = "-"
)

var changeColors = map[ChangeType]string{
	ChangeAdded:    "\033[32m",
	ChangeModified: "\033[33m",
	ChangeDeleted:  "\033[31m",
}

const colorReset = "\033[0m"

// Stats counts what happened during a watch session.
type Stats struct {
	Resolutions int
	Changes     int
	Errors      int
	StartTime   time.Time
}

// LoggerConfig configures NewLogger. A nil Writer means stdout.
type LoggerConfig struct {
	Writer  io.Writer
	Verbose bool
	NoColor bool
	JSON    bool
}

// Logger renders watch events, for a person or as JSON lines.
type Logger struct {
	out     io.Writer
	color   bool
	verbose bool
	jsonOut bool

	mu    sync.Mutex
	stats Stats
}

// event is one JSON line. Unset fields are omitted.
type event struct {
	Event       string           `json:"event"`
	File        string           `json:"file,omitempty"`
	Root        string           `json:"root,omitempty"`
	Dirs        int              `json:"dirs,omitempty"`
	Path        string           `json:"path,omitempty"`
	Change      ChangeType       `json:"change,omitempty"`
	Record      *settings.Record `json:"record,omitempty"`
	Fingerprint string           `json:"fingerprint,omitempty"`
	Error       string           `json:"error,omitempty"`
	Resolutions *int             `json:"resolutions,omitempty"`
	Changes     *int             `json:"changes,omitempty"`
	Errors      *int             `json:"errors,omitempty"`
	Duration    string           `json:"duration,omitempty"`
	Time        string           `json:"time,omitempty"`
}

// NewLogger creates a logger. Colour is used only on a terminal.
func NewLogger(cfg LoggerConfig) *Logger {
	out := cfg.Writer
	if out == nil {
		out = os.Stdout
	}

	tty := false
	if f, ok := out.(*os.File); ok {
		tty = term.IsTerminal(int(f.Fd()))
	}

	return &Logger{
		out:     out,
		color:   tty && !cfg.NoColor,
		verbose: cfg.Verbose,
		jsonOut: cfg.JSON,
		stats:   Stats{StartTime: time.Now()},
	}
}

// Ready announces the watched tree.
func (l *Logger) Ready(file, root string, dirCount int) {
	if l.jsonOut {
		l.emit(event{Event: "ready", File: file, Root: root, Dirs: dirCount})
		return
	}
	l.printf("compflags: watching %d directories in %s\n", dirCount, root)
	l.printf("compflags: resolving %s\n", file)
}

// FileChanged reports a filesystem event. People see it in verbose mode only.
func (l *Logger) FileChanged(path string, change ChangeType) {
	if l.jsonOut {
		l.emit(event{Event: "file_changed", Path: path, Change: change, Time: now()})
		return
	}
	if l.verbose {
		l.printf("[%s] %s %s\n", clock(), l.paint(string(change), change), path)
	}
}

// Record prints a settings record that differs from the previous one.
func (l *Logger) Record(rec settings.Record, fingerprint string) {
	l.count(func(s *Stats) {
		s.Resolutions++
		s.Changes++
	})

	if l.jsonOut {
		l.emit(event{Event: "settings", Record: &rec, Fingerprint: fingerprint, Time: now()})
		return
	}

	body, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		l.Error(err)
		return
	}
	l.printf("[%s] %s settings %s\n%s\n", clock(), l.paint("✓", ChangeAdded), fingerprint, body)
}

// Unchanged reports a re-resolution that produced the same record.
func (l *Logger) Unchanged(fingerprint string) {
	l.count(func(s *Stats) { s.Resolutions++ })

	if l.jsonOut {
		l.emit(event{Event: "unchanged", Fingerprint: fingerprint, Time: now()})
		return
	}
	if l.verbose {
		l.printf("[%s] settings unchanged (%s)\n", clock(), fingerprint)
	}
}

// Error reports a failure that does not stop the watch.
func (l *Logger) Error(err error) {
	l.count(func(s *Stats) { s.Errors++ })

	if l.jsonOut {
		l.emit(event{Event: "error", Error: err.Error(), Time: now()})
		return
	}
	l.printf("[%s] %s error: %v\n", clock(), l.paint("✗", ChangeDeleted), err)
}

// Shutdown prints the session summary.
func (l *Logger) Shutdown() {
	s := l.Stats()

	if l.jsonOut {
		l.emit(event{
			Event:       "shutdown",
			Resolutions: &s.Resolutions,
			Changes:     &s.Changes,
			Errors:      &s.Errors,
			Duration:    time.Since(s.StartTime).Round(time.Millisecond).String(),
		})
		return
	}
	l.printf("\ncompflags: shutting down (%d resolutions, %d changes, %d errors)\n",
		s.Resolutions, s.Changes, s.Errors)
}

// Stats returns a copy of the session counters.
func (l *Logger) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

func (l *Logger) count(update func(*Stats)) {
	l.mu.Lock()
	update(&l.stats)
	l.mu.Unlock()
}

func (l *Logger) paint(s string, change ChangeType) string {
	code, ok := changeColors[change]
	if !l.color || !ok {
		return s
	}
	return code + s + colorReset
}

func (l *Logger) emit(ev event) {
	line, err := json.Marshal(ev)
	if err != nil {
		line = []byte(`{"event":"error","error":"encoding event failed"}`)
	}
	l.printf("%s\n", line)
}

// printf ignores write errors; there is nowhere left to report them.
func (l *Logger) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(l.out, format, args...)
}

func clock() string { return time.Now().Format("15:04:05") }

func now() string { return time.Now().Format(time.RFC3339) }
