package log

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestVerbosityToLevel(t *testing.T) {
	tests := []struct {
		verbosity int
		expected  zapcore.Level
	}{
		{0, zapcore.ErrorLevel},
		{-1, zapcore.ErrorLevel},
		{1, zapcore.WarnLevel},
		{2, zapcore.InfoLevel},
		{3, zapcore.DebugLevel},
		{4, LevelTrace},
		{5, LevelTrace},
	}

	for _, tt := range tests {
		got := VerbosityToLevel(tt.verbosity)
		if got != tt.expected {
			t.Errorf("VerbosityToLevel(%d) = %v, want %v", tt.verbosity, got, tt.expected)
		}
	}
}

func TestLevelName(t *testing.T) {
	tests := []struct {
		level    zapcore.Level
		expected string
	}{
		{LevelTrace, "TRACE"},
		{zapcore.DebugLevel, "DEBUG"},
		{zapcore.InfoLevel, "INFO"},
		{zapcore.WarnLevel, "WARN"},
		{zapcore.ErrorLevel, "ERROR"},
	}

	for _, tt := range tests {
		got := LevelName(tt.level)
		if got != tt.expected {
			t.Errorf("LevelName(%v) = %q, want %q", tt.level, got, tt.expected)
		}
	}
}

func TestInit(t *testing.T) {
	var buf bytes.Buffer
	InitWithOutput(2, "text", &buf)
	if Verbosity() != 2 {
		t.Errorf("Verbosity() = %d, want 2", Verbosity())
	}

	Info("loaded config", "path", "compflags.toml")
	if !strings.Contains(buf.String(), "loaded config") {
		t.Errorf("Info should log at verbosity 2, got: %s", buf.String())
	}
}

func TestSetVerbosity(t *testing.T) {
	var buf bytes.Buffer
	InitWithOutput(1, "text", &buf)

	SetVerbosity(3)
	if Verbosity() != 3 {
		t.Errorf("Verbosity() = %d, want 3", Verbosity())
	}
	Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("Debug should log at verbosity 3, got: %s", buf.String())
	}

	SetVerbosity(0)
	if Verbosity() != 0 {
		t.Errorf("Verbosity() = %d, want 0", Verbosity())
	}
	buf.Reset()
	Warn("hidden")
	if buf.Len() != 0 {
		t.Errorf("Warn should not log at verbosity 0, got: %s", buf.String())
	}
}

func TestV(t *testing.T) {
	var buf bytes.Buffer
	InitWithOutput(2, "text", &buf)

	V(2).Infow("should appear", "key", "value")
	if !strings.Contains(buf.String(), "should appear") {
		t.Errorf("V(2) should log when verbosity is 2, got: %s", buf.String())
	}

	buf.Reset()

	V(3).Infow("should not appear", "key", "value")
	if strings.Contains(buf.String(), "should not appear") {
		t.Errorf("V(3) should not log when verbosity is 2, got: %s", buf.String())
	}
}

func TestTrace(t *testing.T) {
	var buf bytes.Buffer
	InitWithOutput(4, "text", &buf)

	Trace("walking", "dir", "/src")
	out := buf.String()
	if !strings.Contains(out, "TRACE") || !strings.Contains(out, "walking") {
		t.Errorf("Trace should log with TRACE level name, got: %s", out)
	}

	buf.Reset()
	SetVerbosity(3)
	Trace("silent")
	if buf.Len() != 0 {
		t.Errorf("Trace should not log at verbosity 3, got: %s", buf.String())
	}
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	InitWithOutput(2, "json", &buf)

	Component("resolve").Infow("test message")

	if !strings.Contains(buf.String(), `"component":"resolve"`) {
		t.Errorf("Component should add component context, got: %s", buf.String())
	}
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	InitWithOutput(2, "json", &buf)

	With("file", "a.cc").Infow("resolved")

	if !strings.Contains(buf.String(), `"file":"a.cc"`) {
		t.Errorf("With should add context, got: %s", buf.String())
	}
}

func TestNewCore_DefaultOutput(t *testing.T) {
	core := NewCore(CoreOptions{Format: "text"})
	if core == nil {
		t.Fatal("NewCore should not return nil")
	}
	if core.Enabled(zapcore.InfoLevel) {
		t.Error("default level should be warn")
	}
}
