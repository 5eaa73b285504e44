package config

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/specialistvlad/fgdeps/internal/unit"
)

// DefaultBuildDir is used when a module does not set build_dir.
const DefaultBuildDir = ".build"

// ErrInvalid wraps every validation failure of a model.
var ErrInvalid = errors.New("invalid configuration")

// Model is the unified, format-agnostic representation of the driver
// configuration.
type Model struct {
	Module *Module
	Inputs []*Input
}

// Module describes the module being compiled.
type Module struct {
	Name            string
	BuildDir        string
	StateDir        string
	CompilerVersion string
	// VerifyAfterEveryImport checks graph consistency after each
	// integration; a failure is a fatal internal error.
	VerifyAfterEveryImport bool
	// EmitDotAfterEveryImport writes a DOT file of the graph into BuildDir
	// after each integration.
	EmitDotAfterEveryImport bool
}

// Input is one source file of the module.
type Input struct {
	Path string
	Type string
	// Summary is where the compiler writes the file's dependency summary.
	// Empty means the input has no summary location.
	Summary string
}

// Unit returns the typed input.
func (in *Input) Unit() unit.Input {
	typ := unit.FileType(in.Type)
	if typ == "" {
		typ = unit.Source
	}
	return unit.Input{File: filepath.Clean(in.Path), Type: typ}
}

// UnitInputs returns the typed inputs in declaration order.
func (m *Model) UnitInputs() []unit.Input {
	inputs := make([]unit.Input, 0, len(m.Inputs))
	for _, in := range m.Inputs {
		inputs = append(inputs, in.Unit())
	}
	return inputs
}

// OutputFileMap maps every input with a summary location to it.
func (m *Model) OutputFileMap() unit.OutputFileMap {
	out := make(unit.OutputFileMap, len(m.Inputs))
	for _, in := range m.Inputs {
		if in.Summary != "" {
			out[in.Unit()] = filepath.Clean(in.Summary)
		}
	}
	return out
}

// StatePath returns the path of a file named after the module in the
// build-state directory, e.g. StatePath(".priors").
func (m *Model) StatePath(suffix string) string {
	return filepath.Join(m.Module.StateDir, m.Module.Name+suffix)
}

// ApplyDefaults fills in defaults for unset module fields.
func (m *Model) ApplyDefaults() {
	if m.Module == nil {
		return
	}
	if m.Module.BuildDir == "" {
		m.Module.BuildDir = DefaultBuildDir
	}
	if m.Module.StateDir == "" {
		m.Module.StateDir = m.Module.BuildDir
	}
}

// Validate checks that the model names exactly one module and that inputs
// are unique.
func (m *Model) Validate() error {
	if m.Module == nil {
		return fmt.Errorf("%w: no module block", ErrInvalid)
	}
	if m.Module.Name == "" {
		return fmt.Errorf("%w: module name cannot be empty", ErrInvalid)
	}
	if m.Module.CompilerVersion == "" {
		return fmt.Errorf("%w: module %q has no compiler_version", ErrInvalid, m.Module.Name)
	}

	seen := make(map[unit.Input]struct{}, len(m.Inputs))
	summaries := make(map[string]string, len(m.Inputs))
	for _, in := range m.Inputs {
		if in.Path == "" {
			return fmt.Errorf("%w: input path cannot be empty", ErrInvalid)
		}
		u := in.Unit()
		if _, dup := seen[u]; dup {
			return fmt.Errorf("%w: input %s declared twice", ErrInvalid, u)
		}
		seen[u] = struct{}{}
		if in.Summary == "" {
			continue
		}
		s := filepath.Clean(in.Summary)
		if other, dup := summaries[s]; dup {
			return fmt.Errorf("%w: inputs %s and %s share summary %s", ErrInvalid, other, u, s)
		}
		summaries[s] = u.File
	}
	return nil
}
