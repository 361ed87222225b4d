// Package log is the compflags logger: zap underneath, kubectl-style -v
// verbosity on top. Logs always go to stderr; stdout carries records.
package log

import "go.uber.org/zap/zapcore"

// LevelTrace sits one step below zap's Debug level.
const LevelTrace = zapcore.DebugLevel - 1

// Verbosity levels accepted by -v.
const (
	VerbosityError = 0 // errors only
	VerbosityWarn  = 1 // + unusable config, unreadable manifests
	VerbosityInfo  = 2 // + skipped dependencies, daemon lifecycle
	VerbosityDebug = 3 // + why a file resolved to {}
	VerbosityTrace = 4 // + every request and record
)

// levels is indexed by verbosity.
var levels = [...]zapcore.Level{
	VerbosityError: zapcore.ErrorLevel,
	VerbosityWarn:  zapcore.WarnLevel,
	VerbosityInfo:  zapcore.InfoLevel,
	VerbosityDebug: zapcore.DebugLevel,
	VerbosityTrace: LevelTrace,
}

// VerbosityToLevel maps -v=N to a zap level, clamping N to the known range.
func VerbosityToLevel(v int) zapcore.Level {
	return levels[min(max(v, VerbosityError), VerbosityTrace)]
}

// LevelName returns the display name of l, TRACE included.
func LevelName(l zapcore.Level) string {
	if l == LevelTrace {
		return "TRACE"
	}
	return l.CapitalString()
}
