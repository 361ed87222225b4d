// Package settings answers, for one source file, which compiler flags or
// interpreter paths a completion engine should use.
//
// Every query is resolved from scratch against the filesystem; nothing is
// cached between calls. Failures never surface as errors: they degrade to
// the empty record and are logged.
package settings

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/albertocavalcante/compflags/internal/runner"
	"github.com/albertocavalcante/compflags/pkg/config"
	"github.com/albertocavalcante/compflags/pkg/walk"
	"go.uber.org/zap"
)

// Errors returned by Dispatcher.IncludeDirs.
var (
	ErrOutsideBoundary = errors.New("file outside root boundary")
	ErrNotEnabled      = errors.New("completion not enabled for file")
	ErrNoCFamily       = errors.New("no built-in C-family resolver")
)

// Request is one settings query.
type Request struct {
	// Filename is the absolute path of the file being edited.
	Filename string `json:"filename"`

	// Language is "cfamily" or "python".
	Language string `json:"language"`
}

// Resolver computes the record for a file of one language.
type Resolver interface {
	Settings(ctx context.Context, filename string) Record
}

// Dispatcher routes requests to language resolvers.
type Dispatcher struct {
	cfg       *config.Config
	logger    *zap.Logger
	resolvers map[string]Resolver
}

type options struct {
	logger    *zap.Logger
	runner    *runner.Runner
	overrides map[string]Resolver
}

// Option configures a Dispatcher.
type Option func(*options)

// WithLogger sets the logger shared by the dispatcher and its resolvers.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithRunner sets the runner used for dry-run flag discovery.
func WithRunner(r *runner.Runner) Option {
	return func(o *options) {
		o.runner = r
	}
}

// WithResolver replaces the resolver for a language.
func WithResolver(language string, r Resolver) Option {
	return func(o *options) {
		if o.overrides == nil {
			o.overrides = make(map[string]Resolver)
		}
		o.overrides[language] = r
	}
}

// New creates a dispatcher with a resolver for every registered language.
func New(cfg *config.Config, opts ...Option) *Dispatcher {
	o := &options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	if cfg == nil {
		cfg = config.NewConfig()
	}

	env := &Env{Config: cfg, Logger: o.logger, Runner: o.runner}
	resolvers := load(env)
	for name, r := range o.overrides {
		resolvers[name] = r
	}

	return &Dispatcher{
		cfg:       cfg,
		logger:    o.logger,
		resolvers: resolvers,
	}
}

// Settings resolves req. Files outside the root boundary and unknown
// languages yield the empty record.
func (d *Dispatcher) Settings(ctx context.Context, req Request) Record {
	filename, err := filepath.Abs(req.Filename)
	if err != nil {
		d.logger.Debug("invalid filename", zap.String("file", req.Filename), zap.Error(err))
		return Empty()
	}

	if !walk.Within(filename, d.cfg.RootBoundary) {
		d.logger.Debug("file outside root boundary, ignoring",
			zap.String("file", filename), zap.String("boundary", d.cfg.RootBoundary))
		return Empty()
	}

	r, ok := d.resolvers[req.Language]
	if !ok {
		d.logger.Debug("no resolver for language",
			zap.String("file", filename), zap.String("language", req.Language))
		return Empty()
	}

	rec := r.Settings(ctx, filename)
	d.logger.Debug("resolved settings",
		zap.String("file", filename),
		zap.String("language", req.Language),
		zap.Stringer("kind", rec.Kind))
	return rec
}

// IncludeDirs returns the include directories carried by the C-family
// record of filename. The same checks as Settings apply, and a header is
// answered for its corresponding source file.
func (d *Dispatcher) IncludeDirs(filename string) ([]string, error) {
	filename, err := filepath.Abs(filename)
	if err != nil {
		return nil, err
	}
	if !walk.Within(filename, d.cfg.RootBoundary) {
		return nil, fmt.Errorf("%s: %w %s", filename, ErrOutsideBoundary, d.cfg.RootBoundary)
	}

	c := d.CFamily()
	if c == nil {
		return nil, ErrNoCFamily
	}
	if !c.Enabled(filename) {
		return nil, fmt.Errorf("%s: %w", filename, ErrNotEnabled)
	}

	source := c.SourceFile(filename)
	if source != filename {
		d.logger.Debug("using corresponding source file",
			zap.String("file", filename), zap.String("source", source))
	}
	return c.IncludeDirs(source), nil
}

// Resolver returns the resolver registered for language.
func (d *Dispatcher) Resolver(language string) (Resolver, bool) {
	r, ok := d.resolvers[language]
	return r, ok
}

// CFamily returns the C-family resolver, or nil if it was replaced by a
// different implementation.
func (d *Dispatcher) CFamily() *CFamily {
	c, _ := d.resolvers[LanguageCFamily].(*CFamily)
	return c
}

// Config returns the configuration the dispatcher was built with.
func (d *Dispatcher) Config() *config.Config {
	return d.cfg
}
