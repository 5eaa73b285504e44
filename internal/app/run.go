package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/fgdeps/internal/ctxlog"
	"github.com/specialistvlad/fgdeps/internal/depkey"
	"github.com/specialistvlad/fgdeps/internal/dotexport"
	"github.com/specialistvlad/fgdeps/internal/fsutil"
	"github.com/specialistvlad/fgdeps/internal/incremental"
	"github.com/specialistvlad/fgdeps/internal/node"
	"github.com/specialistvlad/fgdeps/internal/unit"
)

// ErrVerifyFailed is returned by the verify command when the graph is
// inconsistent.
var ErrVerifyFailed = errors.New("driver dependency graph failed verification")

// Run executes the configured command against the module's incremental state.
func (a *App) Run(ctx context.Context, appConfig *Config) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.", "command", appConfig.Command)

	state, err := incremental.Load(ctx, a.model, incremental.WithDiagnostics(a.sink()))
	if err != nil {
		return fmt.Errorf("failed to load incremental state: %w", err)
	}
	defer func() {
		if err := state.Close(); err != nil {
			a.logger.Warn("Could not release build state lock.", "error", err)
		}
	}()

	switch appConfig.Command {
	case CommandPlan:
		err = a.plan(ctx, state)
	case CommandIntegrate:
		err = a.integrate(ctx, state, appConfig.Args)
	case CommandExternal:
		err = a.external(ctx, state, appConfig.Args)
	case CommandVerify:
		err = a.verify(state)
	case CommandDot:
		err = a.dot(state)
	case CommandDump:
		err = a.dump(state)
	default:
		err = fmt.Errorf("unknown command %q", appConfig.Command)
	}

	a.logger.Debug("App.Run method finished.", "error", err)
	return err
}

func (a *App) firstWave(ctx context.Context, state *incremental.State) ([]unit.Input, error) {
	inputs := state.Inputs()
	paths := make([]string, len(inputs))
	for i, in := range inputs {
		paths[i] = in.File
	}
	mtimes, err := fsutil.ModTimes(paths)
	if err != nil {
		return nil, err
	}
	return state.FirstWave(ctx, mtimes), nil
}

// plan prints the first wave and records it as pending.
func (a *App) plan(ctx context.Context, state *incremental.State) error {
	wave, err := a.firstWave(ctx, state)
	if err != nil {
		return err
	}
	a.printInputs(wave)
	a.logger.Info("Planned build.", "scheduled", len(wave), "inputs", len(state.Inputs()), "full_build", state.FullBuild())
	return state.Persist(ctx)
}

// integrate reports the given inputs as compiled and prints the inputs their
// fresh summaries invalidate beyond the first wave.
func (a *App) integrate(ctx context.Context, state *incremental.State, paths []string) error {
	if _, err := a.firstWave(ctx, state); err != nil {
		return err
	}
	for _, p := range paths {
		in, err := a.lookupInput(state, p)
		if err != nil {
			return err
		}
		invalidated, err := state.AfterCompiling(ctx, in)
		if err != nil {
			return err
		}
		a.printInputs(invalidated)
	}
	return state.Persist(ctx)
}

// external prints the inputs that use any of the changed external
// dependencies and were not already scheduled.
func (a *App) external(ctx context.Context, state *incremental.State, paths []string) error {
	if _, err := a.firstWave(ctx, state); err != nil {
		return err
	}
	for _, p := range paths {
		a.printInputs(state.ExternalChanged(ctx, depkey.NewExternalDependency(p)))
	}
	return state.Persist(ctx)
}

func (a *App) verify(state *incremental.State) error {
	g := state.Graph()
	if g == nil {
		fmt.Fprintln(a.outW, "no dependency graph: full build")
		return nil
	}
	if !g.Verify() {
		return ErrVerifyFailed
	}
	graphFile, recordFile := incremental.StateFiles(a.model)
	a.logger.Info("Verified driver dependency graph.", "graph_file", graphFile, "record_file", recordFile, "nodes", g.Len())
	fmt.Fprintf(a.outW, "ok: %d nodes, %d inputs\n", g.Len(), len(g.Inputs()))
	return nil
}

func (a *App) dot(state *incremental.State) error {
	g := state.Graph()
	if g == nil {
		return errors.New("no dependency graph to render")
	}
	return dotexport.Write(a.outW, g)
}

// dump prints every node followed by its users.
func (a *App) dump(state *incremental.State) error {
	g := state.Graph()
	if g == nil {
		return errors.New("no dependency graph to dump")
	}
	g.ForEachNode(func(n node.Node) {
		fmt.Fprintln(a.outW, n.String())
		for _, user := range g.OrderedUses(n.Key) {
			fmt.Fprintf(a.outW, "\tused by %s\n", user)
		}
	})
	return nil
}

// lookupInput maps a command argument, `path` or `path:type`, to the
// module input with that path.
func (a *App) lookupInput(state *incremental.State, arg string) (unit.Input, error) {
	want, err := unit.ParseInput(arg)
	if err != nil {
		return unit.Input{}, err
	}
	for _, in := range state.Inputs() {
		if in.File == want.File {
			return in, nil
		}
	}
	return unit.Input{}, fmt.Errorf("%s is not an input of module %s", want.File, a.model.Module.Name)
}

func (a *App) printInputs(inputs []unit.Input) {
	for _, in := range inputs {
		fmt.Fprintln(a.outW, in.File)
	}
}
