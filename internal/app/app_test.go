package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/specialistvlad/fgdeps/internal/depkey"
	"github.com/specialistvlad/fgdeps/internal/node"
	"github.com/specialistvlad/fgdeps/internal/summary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	keyF       = depkey.NewKey(depkey.Interface, depkey.TopLevelName("f"))
	foundation = depkey.NewExternalDependency("/sdk/Foundation.swiftmodule")
)

// project is a two-file module on disk: a defines f, b uses f and imports
// Foundation.
type project struct {
	dir string
}

func newProject(t *testing.T) *project {
	t.Helper()
	p := &project{dir: t.TempDir()}

	config := fmt.Sprintf(`
module "Demo" {
  compiler_version = "fgdeps 1.0.0"
  build_dir        = %q
}

input %q {
  summary = "${build_dir}/${stem}.swiftdeps.yaml"
}

input %q {
  summary = "${build_dir}/${stem}.swiftdeps.yaml"
}
`, filepath.Join(p.dir, "build"), p.source("a"), p.source("b"))
	require.NoError(t, os.WriteFile(p.configPath(), []byte(config), 0o644))

	for _, name := range []string{"a", "b"} {
		require.NoError(t, os.WriteFile(p.source(name), []byte("// "+name), 0o644))
	}
	p.writeSummary(t, "a", summary.Def(keyF, node.NewFingerprint("1")))
	p.writeSummary(t, "b", summary.UseOf(keyF), summary.UseOf(depkey.InterfaceOf(foundation)))
	return p
}

func (p *project) configPath() string { return filepath.Join(p.dir, "fgdeps.hcl") }

func (p *project) source(name string) string { return filepath.Join(p.dir, name+".swift") }

func (p *project) writeSummary(t *testing.T, name string, facts ...summary.Fact) {
	t.Helper()
	data, err := summary.Encode(summary.New(facts...))
	require.NoError(t, err)
	path := filepath.Join(p.dir, "build", name+".swiftdeps.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

// run executes one command in a fresh App and returns its output lines.
func (p *project) run(t *testing.T, command string, args ...string) []string {
	t.Helper()
	cfg, err := NewConfig(Config{ConfigPath: p.configPath(), Command: command, Args: args})
	require.NoError(t, err)
	testApp, out, _ := SetupAppTest(t, cfg)

	require.NoError(t, testApp.Run(context.Background(), cfg))
	return lines(out.String())
}

func lines(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func TestNewConfig(t *testing.T) {
	testCases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "plan", cfg: Config{ConfigPath: "fgdeps.hcl", Command: CommandPlan}},
		{name: "integrate", cfg: Config{ConfigPath: "fgdeps.hcl", Command: CommandIntegrate, Args: []string{"a.swift"}}},
		{name: "no config", cfg: Config{Command: CommandPlan}, wantErr: true},
		{name: "unknown command", cfg: Config{ConfigPath: "fgdeps.hcl", Command: "build"}, wantErr: true},
		{name: "integrate without paths", cfg: Config{ConfigPath: "fgdeps.hcl", Command: CommandIntegrate}, wantErr: true},
		{name: "plan with paths", cfg: Config{ConfigPath: "fgdeps.hcl", Command: CommandPlan, Args: []string{"x"}}, wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := NewConfig(tc.cfg)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.cfg.Command, cfg.Command)
		})
	}
}

func TestRun_IncrementalCycle(t *testing.T) {
	p := newProject(t)
	a, b := p.source("a"), p.source("b")

	// No prior build: everything is planned, and stays pending until compiled.
	assert.Equal(t, []string{a, b}, p.run(t, CommandPlan))
	assert.Equal(t, []string{a, b}, p.run(t, CommandPlan))

	// Compiling both leaves nothing to do.
	assert.Empty(t, p.run(t, CommandIntegrate, a, b))
	assert.Empty(t, p.run(t, CommandPlan))

	// Touching a schedules b, which uses f.
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(a, later, later))
	assert.Equal(t, []string{a, b}, p.run(t, CommandPlan))
}

func TestRun_IntegrateReportsInvalidatedInputs(t *testing.T) {
	p := newProject(t)
	a, b := p.source("a"), p.source("b")
	p.run(t, CommandIntegrate, a, b)

	// a's source changed but only a is recompiled; its new summary changes f.
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(a, later, later))
	p.writeSummary(t, "a", summary.Def(keyF, node.NewFingerprint("2")))

	assert.Empty(t, p.run(t, CommandIntegrate, a), "b was already in the first wave")
	assert.Empty(t, p.run(t, CommandIntegrate, b))
	assert.Empty(t, p.run(t, CommandPlan))
}

func TestRun_IntegrateAcceptsTypedPaths(t *testing.T) {
	p := newProject(t)

	assert.Empty(t, p.run(t, CommandIntegrate, p.source("a")+":swift", p.source("b")))
	assert.Empty(t, p.run(t, CommandPlan), "both inputs were recorded as compiled")
}

func TestRun_External(t *testing.T) {
	p := newProject(t)
	p.run(t, CommandIntegrate, p.source("a"), p.source("b"))

	assert.Equal(t, []string{p.source("b")}, p.run(t, CommandExternal, foundation.Path))
}

func TestRun_InspectionCommands(t *testing.T) {
	p := newProject(t)
	p.run(t, CommandIntegrate, p.source("a"), p.source("b"))

	verify := p.run(t, CommandVerify)
	require.Len(t, verify, 1)
	assert.True(t, strings.HasPrefix(verify[0], "ok: "))

	dot := strings.Join(p.run(t, CommandDot), "\n")
	assert.Contains(t, dot, "digraph")

	dump := strings.Join(p.run(t, CommandDump), "\n")
	assert.Contains(t, dump, "top-level name 'f'")
	assert.Contains(t, dump, "used by")
}

func TestRun_UnknownIntegrateInput(t *testing.T) {
	p := newProject(t)
	cfg, err := NewConfig(Config{ConfigPath: p.configPath(), Command: CommandIntegrate, Args: []string{"nope.swift"}})
	require.NoError(t, err)
	testApp, _, _ := SetupAppTest(t, cfg)

	err = testApp.Run(context.Background(), cfg)

	assert.ErrorContains(t, err, "is not an input of module Demo")
}

func TestNewApp_StateDirOverride(t *testing.T) {
	p := newProject(t)
	stateDir := filepath.Join(p.dir, "state")
	cfg, err := NewConfig(Config{ConfigPath: p.configPath(), StateDir: stateDir, Command: CommandPlan})
	require.NoError(t, err)
	testApp, _, _ := SetupAppTest(t, cfg)

	require.NoError(t, testApp.Run(context.Background(), cfg))

	assert.Equal(t, stateDir, testApp.Model().Module.StateDir)
	assert.FileExists(t, filepath.Join(stateDir, "Demo.record.yaml"))
}

func TestNewApp_PanicsOnBadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fgdeps.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`module "A" {`), 0o644))
	cfg := &Config{ConfigPath: path, Command: CommandPlan}

	assert.Panics(t, func() { SetupAppTest(t, cfg) })
}
