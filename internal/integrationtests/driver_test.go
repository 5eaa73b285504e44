package integrationtests

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/specialistvlad/fgdeps/internal/app"
	"github.com/specialistvlad/fgdeps/internal/depkey"
	"github.com/specialistvlad/fgdeps/internal/node"
	"github.com/specialistvlad/fgdeps/internal/summary"
	"github.com/specialistvlad/fgdeps/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	ifaceF = depkey.NewKey(depkey.Interface, depkey.TopLevelName("f"))
	ifaceG = depkey.NewKey(depkey.Interface, depkey.TopLevelName("g"))
	implG  = depkey.NewKey(depkey.Implementation, depkey.TopLevelName("g"))
	sdk    = depkey.NewExternalDependency("/sdk/Foundation.swiftmodule")
)

// chainProject is a module of three files: a defines f; b uses f and
// defines g; c uses g and imports Foundation. It has been built once.
func chainProject(t *testing.T) *testutil.Project {
	t.Helper()
	p := testutil.NewProject(t, nil)
	p.WriteModule("Demo", "a.swift", "b.swift", "c.swift")
	p.WriteSummary("a.swift", summary.Def(ifaceF, node.NewFingerprint("1")))
	p.WriteSummary("b.swift",
		summary.UseOf(ifaceF),
		summary.Def(ifaceG, node.NewFingerprint("1")),
		summary.Def(implG, node.NewFingerprint("1")),
	)
	p.WriteSummary("c.swift", summary.UseOf(ifaceG), summary.UseOf(depkey.InterfaceOf(sdk)))

	result := p.Run(app.CommandIntegrate, p.Path("a.swift"), p.Path("b.swift"), p.Path("c.swift"))
	require.NoError(t, result.Err)
	require.Empty(t, result.Lines())
	return p
}

func TestDriver_FirstBuildSchedulesEverything(t *testing.T) {
	p := testutil.NewProject(t, nil)
	p.WriteModule("Demo", "a.swift", "b.swift")

	result := p.Run(app.CommandPlan)

	require.NoError(t, result.Err)
	assert.Equal(t, []string{p.Path("a.swift"), p.Path("b.swift")}, result.Lines())
}

func TestDriver_NothingChanged(t *testing.T) {
	p := chainProject(t)

	result := p.Run(app.CommandPlan)

	require.NoError(t, result.Err)
	assert.Empty(t, result.Lines())
}

func TestDriver_ChangedFileSchedulesDirectUsers(t *testing.T) {
	p := chainProject(t)
	p.Touch("a.swift", time.Hour)

	result := p.Run(app.CommandPlan)

	require.NoError(t, result.Err)
	assert.Equal(t, []string{p.Path("a.swift"), p.Path("b.swift")}, result.Lines(), "c only uses b's g")
}

func TestDriver_InterfaceChangeCascadesInSecondWave(t *testing.T) {
	p := chainProject(t)
	p.Touch("a.swift", time.Hour)
	p.WriteSummary("b.swift",
		summary.UseOf(ifaceF),
		summary.Def(ifaceG, node.NewFingerprint("2")),
		summary.Def(implG, node.NewFingerprint("1")),
	)

	result := p.Run(app.CommandIntegrate, p.Path("a.swift"), p.Path("b.swift"))

	require.NoError(t, result.Err)
	assert.Equal(t, []string{p.Path("c.swift")}, result.Lines())
}

func TestDriver_ImplementationChangeDoesNotCascade(t *testing.T) {
	p := chainProject(t)
	p.Touch("a.swift", time.Hour)
	p.WriteSummary("b.swift",
		summary.UseOf(ifaceF),
		summary.Def(ifaceG, node.NewFingerprint("1")),
		summary.Def(implG, node.NewFingerprint("2")),
	)

	result := p.Run(app.CommandIntegrate, p.Path("a.swift"), p.Path("b.swift"))

	require.NoError(t, result.Err)
	assert.Empty(t, result.Lines())
}

func TestDriver_RemovedInputSchedulesItsUsers(t *testing.T) {
	p := chainProject(t)
	p.WriteFile(testutil.ConfigDir+"/module.hcl", testutil.ModuleHCL(p.Dir, "Demo", "a.swift", "c.swift"))

	result := p.Run(app.CommandPlan)

	require.NoError(t, result.Err)
	assert.Equal(t, []string{p.Path("c.swift")}, result.Lines())

	verify := p.Run(app.CommandVerify)
	require.NoError(t, verify.Err)
	assert.True(t, strings.HasPrefix(verify.Output, "ok: "))
}

func TestDriver_ExternalDependencyChanged(t *testing.T) {
	p := chainProject(t)

	result := p.Run(app.CommandExternal, sdk.Path)

	require.NoError(t, result.Err)
	assert.Equal(t, []string{p.Path("c.swift")}, result.Lines())
}

func TestDriver_CorruptGraphIsRebuiltFromSummaries(t *testing.T) {
	p := chainProject(t)
	p.WriteFile(filepath.Join("build", "Demo.priors"), "garbage")

	result := p.Run(app.CommandPlan)

	require.NoError(t, result.Err)
	assert.Empty(t, result.Lines())
	assert.Contains(t, result.LogOutput, "could not read driver dependency graph")
}

func TestDriver_MalformedSummaryRebuildsTheRest(t *testing.T) {
	p := chainProject(t)
	p.Touch("c.swift", time.Hour)
	p.WriteFile(testutil.SummaryName("c.swift"), "facts: {")

	result := p.Run(app.CommandIntegrate, p.Path("c.swift"))

	require.NoError(t, result.Err)
	assert.Equal(t, []string{p.Path("a.swift"), p.Path("b.swift")}, result.Lines())
	assert.Contains(t, result.LogOutput, "malformed dependency summary")
}

func TestDriver_MissingRecordFallsBackToFullBuild(t *testing.T) {
	p := chainProject(t)
	p.Remove(filepath.Join("build", "Demo.record.yaml"))

	result := p.Run(app.CommandPlan)

	require.NoError(t, result.Err)
	assert.Len(t, result.Lines(), 3)
}

func TestDriver_InvalidConfiguration(t *testing.T) {
	p := testutil.NewProject(t, map[string]string{
		testutil.ConfigDir + "/module.hcl": `module "Demo" {`,
	})

	result := p.Run(app.CommandPlan)

	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "application startup panicked")
	assert.Nil(t, result.App)
}
