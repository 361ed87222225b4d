package settings

import (
	"errors"
	"fmt"

	"github.com/albertocavalcante/compflags/pkg/config"
	"github.com/albertocavalcante/compflags/pkg/walk"
)

// Marker names accepted by RootMarker.
const (
	MarkerManifest = "manifest"
	MarkerProject  = "project"
	MarkerBuild    = "build"
	MarkerEnv      = "env"
)

// MarkerNames lists the names accepted by RootMarker.
var MarkerNames = []string{MarkerManifest, MarkerProject, MarkerBuild, MarkerEnv}

// ErrUnknownMarker is returned for a marker name RootMarker does not know.
var ErrUnknownMarker = errors.New("unknown marker")

// RootMarker returns the walk marker behind a named kind of project root.
func RootMarker(cfg *config.Config, name string) (walk.Marker, error) {
	switch name {
	case MarkerManifest:
		return walk.AnyFile(cfg.Manifest.FileNames...), nil
	case MarkerProject:
		return walk.AnyFile(cfg.CFamily.ProjectMarkers...), nil
	case MarkerBuild:
		return walk.HasEntry(cfg.Python.BuildDir), nil
	case MarkerEnv:
		return walk.HasEntry(cfg.DryRun.EnvScript), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMarker, name)
	}
}

// FindRoot walks up from filename to the nearest root of the named kind,
// bounded by the configured home boundary.
func FindRoot(cfg *config.Config, filename, marker string) (string, error) {
	m, err := RootMarker(cfg, marker)
	if err != nil {
		return "", err
	}
	return walk.FindProjectRoot(filename, cfg.HomeBoundary, m)
}
