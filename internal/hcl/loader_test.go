package hcl

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/fgdeps/internal/config"
	"github.com/specialistvlad/fgdeps/internal/unit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoader_Load(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	writeFile(t, dir, "module.hcl", `
module "Demo" {
  compiler_version          = "fgdeps 1.2.0"
  build_dir                 = "out"
  verify_after_every_import = true
}
`)
	writeFile(t, dir, "inputs/sources.hcl", `
input "src/main.swift" {
  summary = "${build_dir}/${module_name}-${stem}.swiftdeps.yaml"
}

input "src/util.swift" {
  type = "swift"
}
`)

	// Act
	model, err := NewLoader().Load(context.Background(), dir)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "Demo", model.Module.Name)
	assert.Equal(t, "fgdeps 1.2.0", model.Module.CompilerVersion)
	assert.Equal(t, "out", model.Module.BuildDir)
	assert.Equal(t, "out", model.Module.StateDir, "state dir defaults to build dir")
	assert.True(t, model.Module.VerifyAfterEveryImport)
	assert.False(t, model.Module.EmitDotAfterEveryImport)

	require.Len(t, model.Inputs, 2)
	assert.Equal(t, "out/Demo-main.swiftdeps.yaml", model.Inputs[0].Summary)
	assert.Empty(t, model.Inputs[1].Summary, "omitted summary stays empty")

	path, ok := model.OutputFileMap().SummaryPath(unit.NewInput("src/main.swift"))
	require.True(t, ok)
	assert.Equal(t, "out/Demo-main.swiftdeps.yaml", path)
}

func TestLoader_Load_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		files   map[string]string
		wantErr error
	}{
		{
			name:    "no files",
			files:   map[string]string{"readme.txt": "nothing"},
			wantErr: config.ErrInvalid,
		},
		{
			name:    "no module",
			files:   map[string]string{"a.hcl": `input "a.swift" {}`},
			wantErr: config.ErrInvalid,
		},
		{
			name: "two modules",
			files: map[string]string{
				"a.hcl": `module "A" { compiler_version = "1" }`,
				"b.hcl": `module "B" { compiler_version = "1" }`,
			},
			wantErr: config.ErrInvalid,
		},
		{
			name: "duplicate input",
			files: map[string]string{"a.hcl": `
module "A" { compiler_version = "1" }
input "a.swift" {}
input "./a.swift" {}
`},
			wantErr: config.ErrInvalid,
		},
		{
			name:  "syntax error",
			files: map[string]string{"a.hcl": `module "A" {`},
		},
		{
			name: "unknown variable in summary",
			files: map[string]string{"a.hcl": `
module "A" { compiler_version = "1" }
input "a.swift" { summary = "${nope}/a.yaml" }
`},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			for name, content := range tc.files {
				writeFile(t, dir, name, content)
			}

			_, err := NewLoader().Load(context.Background(), dir)

			require.Error(t, err)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}

func TestIsExprDefined(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.hcl", `
module "A" { compiler_version = "1" }
input "with.swift" { summary = "s.yaml" }
input "without.swift" {}
`)
	model, err := NewLoader().Load(context.Background(), filepath.Join(dir, "a.hcl"))

	require.NoError(t, err)
	assert.Equal(t, "s.yaml", model.Inputs[0].Summary)
	assert.Equal(t, "", model.Inputs[1].Summary)
}
