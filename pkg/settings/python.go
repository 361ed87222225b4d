package settings

import (
	"context"
	"os"
	"path/filepath"

	"github.com/albertocavalcante/compflags/pkg/config"
	"github.com/albertocavalcante/compflags/pkg/walk"
	"go.uber.org/zap"
)

// Python resolves the interpreter and site-packages of the virtualenv
// under the nearest build directory.
type Python struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewPython creates the Python resolver.
func NewPython(env *Env) *Python {
	logger := env.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Python{cfg: env.Config, logger: logger}
}

// Settings implements Resolver. Missing paths are left empty so the engine
// falls back to its own defaults.
func (p *Python) Settings(_ context.Context, filename string) Record {
	rec := Record{Kind: KindPython, SysPath: []string{}}

	root, err := walk.FindProjectRoot(filename, p.cfg.HomeBoundary, walk.HasEntry(p.cfg.Python.BuildDir))
	if err != nil {
		p.logger.Debug("no build directory found", zap.String("file", filename), zap.Error(err))
		return rec
	}

	interpreter := filepath.Join(root, p.cfg.Python.InterpreterSubpath)
	if exists(interpreter) {
		rec.InterpreterPath = interpreter
	}
	sitePackages := filepath.Join(root, p.cfg.Python.SitePackagesSubpath)
	if exists(sitePackages) {
		rec.SysPath = append(rec.SysPath, sitePackages)
	}
	return rec
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
