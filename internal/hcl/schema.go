package hcl

import "github.com/hashicorp/hcl/v2"

// fileRoot decodes all top-level blocks of a single file.
type fileRoot struct {
	Modules []*ModuleBlock `hcl:"module,block"`
	Inputs  []*InputBlock  `hcl:"input,block"`
	Remain  hcl.Body       `hcl:",remain"`
}

// ModuleBlock is the HCL shape of the `module "<name>" {}` block.
type ModuleBlock struct {
	Name                    string  `hcl:"name,label"`
	CompilerVersion         string  `hcl:"compiler_version"`
	BuildDir                *string `hcl:"build_dir,optional"`
	StateDir                *string `hcl:"state_dir,optional"`
	VerifyAfterEveryImport  *bool   `hcl:"verify_after_every_import,optional"`
	EmitDotAfterEveryImport *bool   `hcl:"emit_dot_after_every_import,optional"`
}

// InputBlock is the HCL shape of the `input "<path>" {}` block. Summary is
// kept as an expression because it may refer to module settings.
type InputBlock struct {
	Path    string         `hcl:"path,label"`
	Type    *string        `hcl:"type,optional"`
	Summary hcl.Expression `hcl:"summary,optional"`
}
