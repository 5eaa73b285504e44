package testutil

import (
	"github.com/specialistvlad/fgdeps/internal/summary"
	"github.com/stretchr/testify/require"
)

// WriteModule writes a module configuration listing sources, and an empty
// file for each source.
func (p *Project) WriteModule(name string, sources ...string) {
	p.t.Helper()
	p.WriteFile(ConfigDir+"/module.hcl", ModuleHCL(p.Dir, name, sources...))
	for _, src := range sources {
		p.WriteFile(src, "// "+src+"\n")
	}
}

// WriteSummary writes the dependency summary of source, as the compiler
// would after compiling it.
func (p *Project) WriteSummary(source string, facts ...summary.Fact) {
	p.t.Helper()
	data, err := summary.Encode(summary.New(facts...))
	require.NoError(p.t, err)
	p.WriteFile(SummaryName(source), string(data))
}
