package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/specialistvlad/fgdeps/internal/app"
	"github.com/specialistvlad/fgdeps/internal/hcl"
	"github.com/stretchr/testify/require"
)

// HarnessResult holds the outcome of one driver invocation.
type HarnessResult struct {
	Output    string
	LogOutput string
	Err       error
	App       *app.App
}

// Lines returns the non-empty output lines.
func (r *HarnessResult) Lines() []string {
	var lines []string
	for _, line := range strings.Split(r.Output, "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Project is a module laid out in a temporary directory: a driver
// configuration, source files and their dependency summaries.
type Project struct {
	t   *testing.T
	Dir string
}

// NewProject writes files (paths relative to a fresh temporary directory)
// and returns the project rooted there.
func NewProject(t *testing.T, files map[string]string) *Project {
	t.Helper()
	p := &Project{t: t, Dir: t.TempDir()}
	for name, content := range files {
		p.WriteFile(name, content)
	}
	return p
}

// Path returns the absolute path of a project-relative name.
func (p *Project) Path(name string) string {
	return filepath.Join(p.Dir, name)
}

// WriteFile writes content to the project-relative name.
func (p *Project) WriteFile(name, content string) {
	p.t.Helper()
	path := p.Path(name)
	require.NoError(p.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(p.t, os.WriteFile(path, []byte(content), 0o644))
}

// Touch moves the modification time of a source file forward by offset.
func (p *Project) Touch(name string, offset time.Duration) {
	p.t.Helper()
	when := time.Now().Add(offset)
	require.NoError(p.t, os.Chtimes(p.Path(name), when, when))
}

// Remove deletes a project-relative file.
func (p *Project) Remove(name string) {
	p.t.Helper()
	require.NoError(p.t, os.Remove(p.Path(name)))
}

// Run invokes the driver on the project's configuration directory with
// command and args, the way the CLI does.
func (p *Project) Run(command string, args ...string) *HarnessResult {
	p.t.Helper()
	return RunIntegrationTestWithContext(context.Background(), p.t, &app.Config{
		ConfigPath: p.Path(ConfigDir),
		Command:    command,
		Args:       args,
	})
}

// RunIntegrationTestWithContext runs one driver invocation with cfg, turning
// a startup panic into an error.
func RunIntegrationTestWithContext(ctx context.Context, t *testing.T, cfg *app.Config) *HarnessResult {
	t.Helper()

	cfg, err := app.NewConfig(*cfg)
	if err != nil {
		return &HarnessResult{Err: err}
	}
	cfg.LogLevel = "debug"
	cfg.LogFormat = "text"

	outBuffer := &app.SafeBuffer{}
	logBuffer := &app.SafeBuffer{}

	var testApp *app.App
	var panicErr any
	func() {
		defer func() {
			if r := recover(); r != nil {
				panicErr = r
			}
		}()
		testApp = app.NewApp(outBuffer, logBuffer, cfg, hcl.NewLoader())
	}()
	if panicErr != nil {
		return &HarnessResult{
			LogOutput: logBuffer.String(),
			Err:       fmt.Errorf("application startup panicked | %v", panicErr),
		}
	}

	runErr := testApp.Run(ctx, cfg)

	if os.Getenv("FGDEPS_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
	}

	return &HarnessResult{
		Output:    outBuffer.String(),
		LogOutput: logBuffer.String(),
		Err:       runErr,
		App:       testApp,
	}
}
