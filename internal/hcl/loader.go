package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/fgdeps/internal/config"
	"github.com/specialistvlad/fgdeps/internal/ctxlog"
	"github.com/specialistvlad/fgdeps/internal/fsutil"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

var _ config.Loader = (*Loader)(nil)

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .hcl file under paths and translates the blocks into a
// validated model. Blocks may be spread over any number of files, but
// exactly one module block must exist in total.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := fsutil.CollectFiles(paths, ".hcl")
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no .hcl files found in %v", config.ErrInvalid, paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	var modules []*ModuleBlock
	var inputs []*InputBlock

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}
		modules = append(modules, root.Modules...)
		inputs = append(inputs, root.Inputs...)
	}

	if len(modules) != 1 {
		return nil, fmt.Errorf("%w: expected exactly one module block, found %d", config.ErrInvalid, len(modules))
	}

	model := &config.Model{Module: translateModule(modules[0])}
	model.ApplyDefaults()

	for _, in := range inputs {
		input, err := l.translateInput(ctx, model.Module, in)
		if err != nil {
			return nil, err
		}
		model.Inputs = append(model.Inputs, input)
	}

	if err := model.Validate(); err != nil {
		return nil, err
	}
	logger.Debug("HCL loading complete.", "module", model.Module.Name, "inputs", len(model.Inputs))
	return model, nil
}

func translateModule(b *ModuleBlock) *config.Module {
	m := &config.Module{
		Name:            b.Name,
		CompilerVersion: b.CompilerVersion,
	}
	if b.BuildDir != nil {
		m.BuildDir = *b.BuildDir
	}
	if b.StateDir != nil {
		m.StateDir = *b.StateDir
	}
	if b.VerifyAfterEveryImport != nil {
		m.VerifyAfterEveryImport = *b.VerifyAfterEveryImport
	}
	if b.EmitDotAfterEveryImport != nil {
		m.EmitDotAfterEveryImport = *b.EmitDotAfterEveryImport
	}
	return m
}

func (l *Loader) translateInput(ctx context.Context, module *config.Module, b *InputBlock) (*config.Input, error) {
	in := &config.Input{Path: b.Path}
	if b.Type != nil {
		in.Type = *b.Type
	}
	if !isExprDefined(ctx, b.Summary, "summary") {
		return in, nil
	}

	var summary string
	diags := gohcl.DecodeExpression(b.Summary, inputEvalContext(module, b.Path), &summary)
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid summary for input %q: %w", b.Path, diags)
	}
	in.Summary = summary
	return in, nil
}
