// Package runner locates external tools and runs shell scripts through them.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// ErrToolNotFound is returned when a tool cannot be located.
var ErrToolNotFound = errors.New("tool not found")

// ErrStderr is returned when a script wrote to stderr.
var ErrStderr = errors.New("script wrote to stderr")

// DefaultShell is used when no shell is configured.
const DefaultShell = "bash"

// waitDelay bounds how long Run waits for orphaned children to release
// the output pipes after the shell was killed.
const waitDelay = 500 * time.Millisecond

// Runner finds and executes a shell.
type Runner struct {
	shell          string   // Shell name or path
	executablePath string   // Path to compflags executable (for finding siblings)
	env            []string // Extra environment, appended to os.Environ()
	lookPath       func(string) (string, error)
}

// Option configures a Runner.
type Option func(*Runner)

// WithShell sets the shell used by Run. A value containing a path separator
// is used as is; otherwise it is searched for.
func WithShell(shell string) Option {
	return func(r *Runner) {
		if shell != "" {
			r.shell = shell
		}
	}
}

// WithExecutablePath sets the path to the compflags executable.
// Used primarily for testing.
func WithExecutablePath(path string) Option {
	return func(r *Runner) {
		r.executablePath = path
	}
}

// WithEnv appends KEY=VALUE pairs to the script environment.
func WithEnv(env ...string) Option {
	return func(r *Runner) {
		r.env = append(r.env, env...)
	}
}

// New creates a new Runner with the given options.
func New(opts ...Option) *Runner {
	r := &Runner{
		shell:    DefaultShell,
		lookPath: exec.LookPath,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FindTool locates name using the following search order:
// 1. name itself, when it is a path
// 2. Sibling binary next to the compflags executable
// 3. PATH lookup
func (r *Runner) FindTool(name string) (string, error) {
	if strings.ContainsRune(name, filepath.Separator) {
		if fileExists(name) {
			return name, nil
		}
		return "", fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}

	if path := r.findSibling(name); path != "" {
		return path, nil
	}

	if path, err := r.lookPath(name); err == nil {
		return path, nil
	}

	return "", fmt.Errorf("%w: %s", ErrToolNotFound, name)
}

// findSibling looks for name next to the compflags binary.
func (r *Runner) findSibling(name string) string {
	exe := r.executablePath
	if exe == "" {
		return ""
	}
	sibling := filepath.Join(filepath.Dir(exe), name)
	if fileExists(sibling) {
		return sibling
	}
	return ""
}

// Result holds the captured output of a script.
type Result struct {
	Stdout []byte
	Stderr []byte
}

// Run executes script with the configured shell and captures stdout and
// stderr separately. It returns ErrStderr when the script wrote anything to
// stderr, even if it exited successfully; the Result is still returned.
func (r *Runner) Run(ctx context.Context, script string) (*Result, error) {
	shellPath, err := r.FindTool(r.shell)
	if err != nil {
		return nil, err
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, shellPath, "-c", script)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Env = append(os.Environ(), r.env...)
	cmd.WaitDelay = waitDelay

	runErr := cmd.Run()
	res := &Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, ctxErr
	}
	if len(res.Stderr) > 0 {
		return res, fmt.Errorf("%w: %s", ErrStderr, strings.TrimSpace(string(res.Stderr)))
	}
	if runErr != nil {
		return res, fmt.Errorf("failed to run %s: %w", r.shell, runErr)
	}
	return res, nil
}

// Script joins commands into a single shell script line.
func Script(cmds ...string) string {
	return strings.Join(cmds, "; ")
}

// Quote returns s as a single-quoted shell word.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
