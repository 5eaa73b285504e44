// internal/unit/types.go
package unit

import (
	"fmt"
	"path/filepath"
	"strings"
)

// FileType is the type of an input file, derived from its extension.
type FileType string

const (
	// Source is a source file of the language being compiled.
	Source FileType = "swift"
	// Summary is a per-unit dependency summary.
	Summary FileType = "swiftdeps"
)

// Input is a typed path to one source file of the module.
type Input struct {
	File string
	Type FileType
}

// NewInput returns a source Input for path, cleaned.
func NewInput(path string) Input {
	return Input{File: filepath.Clean(path), Type: Source}
}

func (in Input) String() string {
	return in.File
}

// Basename returns the last element of the input's path.
func (in Input) Basename() string {
	return filepath.Base(in.File)
}

// ParseInput parses `path` or `path:type`. Without an explicit type, the
// type is the file extension, defaulting to Source.
func ParseInput(raw string) (Input, error) {
	if strings.TrimSpace(raw) == "" {
		return Input{}, fmt.Errorf("input path cannot be empty")
	}

	path, typ := raw, ""
	if i := strings.LastIndex(raw, ":"); i > 0 && !strings.ContainsAny(raw[i+1:], `/\`) {
		path, typ = raw[:i], raw[i+1:]
		if path == "" {
			return Input{}, fmt.Errorf("input path cannot be empty in %q", raw)
		}
	}
	if typ == "" {
		typ = strings.TrimPrefix(filepath.Ext(path), ".")
	}
	if typ == "" {
		typ = string(Source)
	}
	return Input{File: filepath.Clean(path), Type: FileType(typ)}, nil
}

// Handle is the opaque identity of a compiled unit, named after the unit's
// dependency summary file. The zero Handle means "no owner".
type Handle struct {
	file string
}

// NewHandle returns the handle of the unit whose summary lives at path.
func NewHandle(path string) Handle {
	if path == "" {
		return Handle{}
	}
	return Handle{file: filepath.Clean(path)}
}

// File returns the summary path naming the unit.
func (h Handle) File() string { return h.file }

// IsZero reports whether h is the "no owner" handle.
func (h Handle) IsZero() bool { return h.file == "" }

func (h Handle) String() string {
	if h.file == "" {
		return "<none>"
	}
	return h.file
}

// OutputFileMap maps each input to the path of its dependency summary.
type OutputFileMap map[Input]string

// SummaryPath returns the summary path recorded for in.
func (m OutputFileMap) SummaryPath(in Input) (string, bool) {
	p, ok := m[in]
	if !ok || p == "" {
		return "", false
	}
	return p, true
}
