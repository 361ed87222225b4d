package watch

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/albertocavalcante/compflags/pkg/settings"
)

func TestLoggerJSONEvents(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(LoggerConfig{Writer: &buf, JSON: true})

	rec := settings.Record{Kind: settings.KindCFamily, Flags: []string{"-Iinc"}, OverrideFilename: "/w/a.cc"}
	l.Record(rec, rec.Fingerprint())
	l.Unchanged(rec.Fingerprint())
	l.Error(errors.New("boom"))
	l.Shutdown()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4:\n%s", len(lines), buf.String())
	}

	var first struct {
		Event  string          `json:"event"`
		Record settings.Record `json:"record"`
	}
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatal(err)
	}
	if first.Event != "settings" || first.Record.OverrideFilename != "/w/a.cc" {
		t.Errorf("unexpected first event: %s", lines[0])
	}

	for i, want := range []string{"unchanged", "error", "shutdown"} {
		var ev map[string]any
		if err := json.Unmarshal([]byte(lines[i+1]), &ev); err != nil {
			t.Fatal(err)
		}
		if ev["event"] != want {
			t.Errorf("line %d event = %v, want %s", i+1, ev["event"], want)
		}
	}

	stats := l.Stats()
	if stats.Resolutions != 2 || stats.Changes != 1 || stats.Errors != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestLoggerHumanOutput(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(LoggerConfig{Writer: &buf})

	l.FileChanged("/w/a.cc", ChangeModified)
	l.Unchanged("abc")
	if buf.Len() != 0 {
		t.Errorf("non-verbose logger printed %q", buf.String())
	}

	l.Record(settings.Record{Kind: settings.KindPython, InterpreterPath: "/venv/bin/python"}, "f00")
	out := buf.String()
	if !strings.Contains(out, "settings f00") || !strings.Contains(out, `"interpreter_path": "/venv/bin/python"`) {
		t.Errorf("unexpected output:\n%s", out)
	}
	// Buffers are never terminals, so no color codes.
	if strings.Contains(out, "\033[") {
		t.Errorf("output contains ANSI codes: %q", out)
	}
}

func TestLoggerVerbose(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(LoggerConfig{Writer: &buf, Verbose: true})

	l.FileChanged("/w/a.cc", ChangeDeleted)
	if !strings.Contains(buf.String(), "- /w/a.cc") {
		t.Errorf("unexpected output: %q", buf.String())
	}
}
