package config

import (
	"testing"

	"github.com/specialistvlad/fgdeps/internal/unit"
	"github.com/stretchr/testify/assert"
)

func validModel() *Model {
	return &Model{
		Module: &Module{Name: "Demo", CompilerVersion: "fgdeps 1.0.0"},
		Inputs: []*Input{
			{Path: "src/a.swift", Summary: ".build/a.swiftdeps.yaml"},
			{Path: "src/b.swift", Type: "swift"},
		},
	}
}

func TestOutputFileMap(t *testing.T) {
	m := validModel()

	out := m.OutputFileMap()

	path, ok := out.SummaryPath(unit.NewInput("src/a.swift"))
	assert.True(t, ok)
	assert.Equal(t, ".build/a.swiftdeps.yaml", path)
	_, ok = out.SummaryPath(unit.NewInput("src/b.swift"))
	assert.False(t, ok, "an input without summary has no location")
}

func TestApplyDefaults(t *testing.T) {
	m := validModel()
	m.ApplyDefaults()

	assert.Equal(t, DefaultBuildDir, m.Module.BuildDir)
	assert.Equal(t, DefaultBuildDir, m.Module.StateDir)
	assert.Equal(t, ".build/Demo.priors", m.StatePath(".priors"))
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(m *Model)
		wantErr bool
	}{
		{name: "valid", mutate: func(m *Model) {}},
		{name: "no module", mutate: func(m *Model) { m.Module = nil }, wantErr: true},
		{name: "no name", mutate: func(m *Model) { m.Module.Name = "" }, wantErr: true},
		{name: "no compiler version", mutate: func(m *Model) { m.Module.CompilerVersion = "" }, wantErr: true},
		{name: "empty path", mutate: func(m *Model) { m.Inputs[0].Path = "" }, wantErr: true},
		{name: "duplicate input", mutate: func(m *Model) { m.Inputs[1].Path = "src/./a.swift" }, wantErr: true},
		{name: "shared summary", mutate: func(m *Model) { m.Inputs[1].Summary = ".build/a.swiftdeps.yaml" }, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := validModel()
			tc.mutate(m)

			err := m.Validate()
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalid)
				return
			}
			assert.NoError(t, err)
		})
	}
}
