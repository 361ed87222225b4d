package settings

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/albertocavalcante/compflags/internal/runner"
	"github.com/albertocavalcante/compflags/pkg/config"
	"github.com/albertocavalcante/compflags/pkg/walk"
	"go.uber.org/zap"
)

// ErrNoBuildEnv is returned when no ancestor holds the environment script.
var ErrNoBuildEnv = errors.New("build environment script not found")

// ErrNoMakefile is returned when no makefile lies between the source file
// and the environment script.
var ErrNoMakefile = errors.New("makefile not found")

// DryRun discovers compiler flags by asking the build tool how it would
// compile a file's object without building it.
type DryRun struct {
	cfg      config.DryRunConfig
	skip     int
	boundary string
	runner   *runner.Runner
	logger   *zap.Logger
}

// NewDryRun creates a dry-run flag discoverer.
func NewDryRun(cfg *config.Config, r *runner.Runner, logger *zap.Logger) *DryRun {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DryRun{
		cfg:      cfg.DryRun,
		skip:     cfg.SkipTokens(),
		boundary: cfg.HomeBoundary,
		runner:   r,
		logger:   logger,
	}
}

// Locate walks up from source to the directory holding the environment
// script. makeDir is the highest directory on the way (source directory
// and environment directory included) that holds a makefile.
func (d *DryRun) Locate(source string) (envDir, makeDir string, err error) {
	hasEnv := walk.HasEntry(d.cfg.EnvScript)
	hasMakefile := walk.HasFile(d.cfg.Makefile)

	err = walk.WalkUp(source, d.boundary, func(dir string) bool {
		if hasMakefile(dir) {
			makeDir = dir
		}
		if hasEnv(dir) {
			envDir = dir
			return false
		}
		return true
	})
	if err != nil && !errors.Is(err, walk.ErrNotFound) {
		return "", "", err
	}
	if envDir == "" {
		return "", "", ErrNoBuildEnv
	}
	if makeDir == "" {
		return "", "", ErrNoMakefile
	}
	return envDir, makeDir, nil
}

// Script builds the shell script that prints the build commands for
// object inside makeDir.
func (d *DryRun) Script(envDir, makeDir, object string) string {
	cmds := []string{
		"cd " + runner.Quote(envDir),
		"source " + runner.Quote("./"+filepath.ToSlash(d.cfg.EnvScript)),
	}
	cmds = append(cmds, d.cfg.SetupCommands...)
	cmds = append(cmds,
		"cd "+runner.Quote(makeDir),
		d.cfg.MakeCommand+" "+runner.Quote(object),
	)
	return runner.Script(cmds...)
}

// Flags runs the dry-run for source and returns the discovered flags.
// Any output on stderr fails the discovery.
func (d *DryRun) Flags(ctx context.Context, source string) ([]string, error) {
	envDir, makeDir, err := d.Locate(source)
	if err != nil {
		return nil, err
	}

	object := ObjectName(source)
	script := d.Script(envDir, makeDir, object)
	d.logger.Debug("running dry-run", zap.String("script", script))

	if d.cfg.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(d.cfg.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	res, err := d.runner.Run(ctx, script)
	if err != nil {
		return nil, fmt.Errorf("dry-run for %s: %w", object, err)
	}
	d.logger.Debug("dry-run output", zap.ByteString("stdout", res.Stdout))

	flags, err := ParseFlags(res.Stdout, object, d.skip)
	if err != nil {
		return nil, fmt.Errorf("dry-run output for %s: %w", object, err)
	}
	return flags, nil
}

// ObjectName returns the object file name built from source.
func ObjectName(source string) string {
	base := filepath.Base(source)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".o"
}

// maxDryRunLine bounds a single line of dry-run output.
const maxDryRunLine = 1024 * 1024

// ParseFlags extracts the compiler flags from dry-run output: the
// whitespace-separated fields of every line naming object, with the first
// skip fields (compiler and output arguments) dropped. A line names object
// when one of its fields is object or ends in "/"+object. Output that cannot
// be read completely, such as a line longer than maxDryRunLine, is an error.
func ParseFlags(output []byte, object string, skip int) ([]string, error) {
	var fields []string
	scanner := bufio.NewScanner(bytes.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), maxDryRunLine)
	for scanner.Scan() {
		lineFields := strings.Fields(scanner.Text())
		if slices.ContainsFunc(lineFields, func(f string) bool {
			return f == object || strings.HasSuffix(f, "/"+object)
		}) {
			fields = append(fields, lineFields...)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if skip < 0 {
		skip = 0
	}
	if skip >= len(fields) {
		return []string{}, nil
	}
	return fields[skip:], nil
}
