package log

import (
	"io"
	"os"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger    atomic.Pointer[zap.Logger]
	level     = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	verbosity atomic.Int32
)

func init() {
	// Warnings only until Init is called
	verbosity.Store(VerbosityWarn)
	logger.Store(newLogger("text", os.Stderr))
}

func newLogger(format string, w io.Writer) *zap.Logger {
	return zap.New(NewCore(CoreOptions{
		Level:  level,
		Format: format,
		Output: w,
	}))
}

// Init initializes the global logger (call once at startup).
func Init(v int, format string) {
	InitWithOutput(v, format, os.Stderr)
}

// InitWithOutput is Init with an explicit destination.
func InitWithOutput(v int, format string, w io.Writer) {
	SetVerbosity(v)
	l := newLogger(format, w)
	logger.Store(l)
	zap.ReplaceGlobals(l)
}

// SetVerbosity changes verbosity at runtime.
func SetVerbosity(v int) {
	verbosity.Store(int32(v))
	level.SetLevel(VerbosityToLevel(v))
}

// Verbosity returns the current verbosity level.
func Verbosity() int {
	return int(verbosity.Load())
}

// Logger returns the current logger instance.
func Logger() *zap.Logger {
	return logger.Load()
}

// Error logs at error level (v=0).
func Error(msg string, args ...any) {
	logger.Load().Sugar().Errorw(msg, args...)
}

// Warn logs at warn level (v=1).
func Warn(msg string, args ...any) {
	logger.Load().Sugar().Warnw(msg, args...)
}

// Info logs at info level (v=2).
func Info(msg string, args ...any) {
	logger.Load().Sugar().Infow(msg, args...)
}

// Debug logs at debug level (v=3).
func Debug(msg string, args ...any) {
	logger.Load().Sugar().Debugw(msg, args...)
}

// Trace logs at trace level (v=4).
func Trace(msg string, args ...any) {
	l := logger.Load()
	if len(args) > 0 {
		l = l.Sugar().With(args...).Desugar()
	}
	if ce := l.Check(LevelTrace, msg); ce != nil {
		ce.Write()
	}
}

// V returns a logger that only logs if verbosity >= level.
// Usage: log.V(3).Infow("detailed", "key", value)
func V(v int) *zap.SugaredLogger {
	if int(verbosity.Load()) >= v {
		return logger.Load().Sugar()
	}
	return zap.NewNop().Sugar()
}

// With returns a logger with additional context.
func With(args ...any) *zap.SugaredLogger {
	return logger.Load().Sugar().With(args...)
}

// Component returns a logger tagged with component name.
func Component(name string) *zap.SugaredLogger {
	return logger.Load().Sugar().With("component", name)
}
