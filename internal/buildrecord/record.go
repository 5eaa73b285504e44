package buildrecord

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/renameio/v2"
	"github.com/specialistvlad/fgdeps/internal/ctxlog"
	"gopkg.in/yaml.v3"
)

// FormatVersion is the version of the record file layout.
const FormatVersion = 1

// ErrUnusable is returned when the record cannot be trusted for an
// incremental build.
var ErrUnusable = errors.New("build record unusable")

// Status is what the driver decided about an input in the recorded build.
type Status string

const (
	UpToDate               Status = "upToDate"
	NeedsCascadingBuild    Status = "needsCascadingBuild"
	NeedsNonCascadingBuild Status = "needsNonCascadingBuild"
	NewlyAdded             Status = "newlyAdded"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case UpToDate, NeedsCascadingBuild, NeedsNonCascadingBuild, NewlyAdded:
		return true
	default:
		return false
	}
}

// InputInfo is the recorded state of one input.
type InputInfo struct {
	Status  Status    `yaml:"status"`
	ModTime time.Time `yaml:"mtime"`
	// Summary is the input's dependency summary path at the time of the
	// build, empty when it had none.
	Summary string `yaml:"summary,omitempty"`
}

// Record is the build record file.
type Record struct {
	Version         int                  `yaml:"version"`
	CompilerVersion string               `yaml:"compiler_version"`
	BuildTime       time.Time            `yaml:"build_time"`
	GraphValid      bool                 `yaml:"graph_valid"`
	Inputs          map[string]InputInfo `yaml:"inputs"`
}

// New returns an empty record for compilerVersion.
func New(compilerVersion string) *Record {
	return &Record{
		Version:         FormatVersion,
		CompilerVersion: compilerVersion,
		Inputs:          make(map[string]InputInfo),
	}
}

// Paths returns the recorded input paths, sorted.
func (r *Record) Paths() []string {
	paths := make([]string, 0, len(r.Inputs))
	for p := range r.Inputs {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Load reads the record at path. A missing file, an unknown layout, or a
// record of an incompatible compiler all return an error wrapping
// ErrUnusable. A record of an earlier patch release of the same compiler is
// accepted.
func Load(ctx context.Context, path, compilerVersion string) (*Record, error) {
	logger := ctxlog.FromContext(ctx)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnusable, err)
	}
	var r Record
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnusable, path, err)
	}
	if r.Version != FormatVersion {
		return nil, fmt.Errorf("%w: %s has version %d", ErrUnusable, path, r.Version)
	}
	if !CompatibleCompilers(r.CompilerVersion, compilerVersion) {
		return nil, fmt.Errorf("%w: recorded by %q, running %q", ErrUnusable, r.CompilerVersion, compilerVersion)
	}
	for p, info := range r.Inputs {
		if !info.Status.Valid() {
			return nil, fmt.Errorf("%w: %s has unknown status %q", ErrUnusable, p, info.Status)
		}
	}
	if r.Inputs == nil {
		r.Inputs = make(map[string]InputInfo)
	}

	logger.Debug("Loaded build record.", "path", path, "inputs", len(r.Inputs), "graph_valid", r.GraphValid)
	return &r, nil
}

// Save atomically writes r to path.
func Save(ctx context.Context, path string, r *Record) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding build record: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating build state directory: %w", err)
	}
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing build record %s: %w", path, err)
	}
	ctxlog.FromContext(ctx).Debug("Saved build record.", "path", path, "graph_valid", r.GraphValid)
	return nil
}
