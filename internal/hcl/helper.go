package hcl

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/fgdeps/internal/config"
	"github.com/specialistvlad/fgdeps/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// isExprDefined checks if an HCL expression was actually present in the
// source. The decoder populates omitted optional expression fields with
// zero-width placeholder expressions, so a nil check is not enough.
func isExprDefined(ctx context.Context, expr hcl.Expression, attrName string) bool {
	logger := ctxlog.FromContext(ctx)

	if expr == nil {
		return false
	}

	exprRange := expr.Range()
	isDefined := exprRange.End.Byte > exprRange.Start.Byte

	logger.Debug("Checking if HCL attribute was explicitly defined.",
		"attribute", attrName,
		"hcl_range", exprRange.String(),
		"is_defined", isDefined,
	)
	return isDefined
}

// inputEvalContext exposes the module settings and the input's own path to
// summary expressions.
func inputEvalContext(module *config.Module, path string) *hcl.EvalContext {
	base := filepath.Base(path)
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"module_name": cty.StringVal(module.Name),
			"build_dir":   cty.StringVal(module.BuildDir),
			"state_dir":   cty.StringVal(module.StateDir),
			"input":       cty.StringVal(path),
			"stem":        cty.StringVal(strings.TrimSuffix(base, filepath.Ext(base))),
		},
	}
}
