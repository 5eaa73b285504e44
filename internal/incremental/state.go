package incremental

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/specialistvlad/fgdeps/internal/buildrecord"
	"github.com/specialistvlad/fgdeps/internal/config"
	"github.com/specialistvlad/fgdeps/internal/ctxlog"
	"github.com/specialistvlad/fgdeps/internal/ddep"
	"github.com/specialistvlad/fgdeps/internal/depkey"
	"github.com/specialistvlad/fgdeps/internal/diag"
	"github.com/specialistvlad/fgdeps/internal/graph"
	"github.com/specialistvlad/fgdeps/internal/node"
	"github.com/specialistvlad/fgdeps/internal/summary"
	"github.com/specialistvlad/fgdeps/internal/unit"
)

const (
	// GraphSuffix names the persisted graph file in the build-state directory.
	GraphSuffix = ".priors"
	// RecordSuffix names the build record file in the build-state directory.
	RecordSuffix = ".record.yaml"
)

// ErrPersistFailed is returned by Persist when the graph could not be
// written. The build record was still saved, marked so that the next build
// does not trust the stale graph file.
var ErrPersistFailed = errors.New("could not persist driver dependency graph")

// reason says why an input was scheduled.
type reason uint8

const (
	unscheduled reason = iota
	// changed inputs cascade: their dependents are scheduled too.
	changed
	added
	// dependent inputs are scheduled because something they use changed.
	dependent
)

// Option configures Load.
type Option func(*State)

// WithReader sets the summary reader. Defaults to summary.FileReader.
func WithReader(r summary.Reader) Option {
	return func(s *State) {
		if r != nil {
			s.reader = r
		}
	}
}

// WithDiagnostics sets the diagnostics sink.
func WithDiagnostics(sink diag.Sink) Option {
	return func(s *State) {
		if sink != nil {
			s.diags = sink
		}
	}
}

// WithClock overrides the build timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *State) {
		if now != nil {
			s.now = now
		}
	}
}

// State is the incremental state of one driver invocation.
type State struct {
	model  *config.Model
	reader summary.Reader
	diags  diag.Sink
	now    func() time.Time
	logger *slog.Logger

	lock   *buildrecord.Lock
	prior  *buildrecord.Record
	graph  graph.Graph
	full   bool
	inputs []unit.Input

	scheduled map[unit.Input]reason
	compiled  map[unit.Input]bool
	mtimes    map[string]time.Time
}

// Load prepares the incremental state for model. It holds the build-state
// directory lock until Close.
func Load(ctx context.Context, model *config.Model, opts ...Option) (*State, error) {
	logger := ctxlog.MustFromContext(ctx)
	s := &State{
		model:     model,
		reader:    summary.FileReader{},
		diags:     diag.Discard,
		now:       time.Now,
		logger:    logger,
		inputs:    model.UnitInputs(),
		scheduled: make(map[unit.Input]reason),
		compiled:  make(map[unit.Input]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	unit.SortInputs(s.inputs)

	lock, err := buildrecord.LockDir(model.Module.StateDir)
	if err != nil {
		return nil, err
	}
	s.lock = lock

	if err := s.load(ctx); err != nil {
		_ = lock.Unlock()
		return nil, err
	}
	logger.Info("Loaded incremental state.",
		"module", model.Module.Name,
		"inputs", len(s.inputs),
		"full_build", s.full,
		"nodes", s.nodeCount(),
	)
	return s, nil
}

func (s *State) load(ctx context.Context) error {
	compiler := s.model.Module.CompilerVersion

	prior, err := buildrecord.Load(ctx, s.recordPath(), compiler)
	if err != nil {
		s.logger.Info("No usable build record; scheduling a full build.", "reason", err)
		s.full = true
		return s.buildGraph(ctx, nil)
	}
	s.prior = prior
	s.logDeparted()

	if prior.GraphValid {
		g, ok := s.readGraph(ctx)
		if ok {
			s.graph = g
			return s.mapUnits()
		}
	}

	previous := make(map[unit.Input]bool, len(prior.Inputs))
	for _, in := range s.inputs {
		if info, ok := prior.Inputs[in.File]; ok && info.Status != buildrecord.NewlyAdded {
			previous[in] = true
		}
	}
	return s.buildGraph(ctx, previous)
}

// logDeparted logs the recorded inputs that are no longer in the module.
func (s *State) logDeparted() {
	current := make(map[string]bool, len(s.inputs))
	for _, in := range s.inputs {
		current[in.File] = true
	}
	for _, p := range s.prior.Paths() {
		if !current[p] {
			s.logger.Debug("Input left the module.", "path", p)
		}
	}
}

// readGraph reads the persisted graph. Any failure is reported and makes
// the caller rebuild from summaries. A file that decodes into an
// inconsistent graph is reported as an error and treated the same way.
func (s *State) readGraph(ctx context.Context) (g graph.Graph, ok bool) {
	path := s.graphPath()
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		var inv *graph.InvariantError
		if err, isErr := r.(error); !isErr || !errors.As(err, &inv) {
			panic(r)
		}
		s.diags.Emit(diag.Errorf(path, "driver dependency graph %s is inconsistent: %v", path, inv))
		g, ok = nil, false
	}()

	g, meta, err := ddep.Read(ctx, path, s.graphOptions()...)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("No prior driver dependency graph.", "path", path)
		} else {
			s.diags.Emit(diag.Remarkf(path, "could not read driver dependency graph %s: %v", path, err))
		}
		return nil, false
	}
	if !buildrecord.CompatibleCompilers(meta.CompilerVersion, s.model.Module.CompilerVersion) {
		s.diags.Emit(diag.Remarkf(path, "driver dependency graph %s was written by %q; rebuilding it for %q",
			path, meta.CompilerVersion, s.model.Module.CompilerVersion))
		return nil, false
	}
	return g, true
}

// buildGraph builds the graph from the summaries of previous inputs. An
// input without a summary location makes the whole build a full build with
// no graph.
func (s *State) buildGraph(ctx context.Context, previous map[unit.Input]bool) error {
	g, malformed, err := graph.BuildInitialGraph(ctx, graph.InitialBuild{
		Inputs:      s.inputs,
		Previous:    previous,
		Outputs:     s.model.OutputFileMap(),
		Reader:      s.reader,
		Diagnostics: s.diags,
	}, s.graphOptions()...)
	if errors.Is(err, graph.ErrNoSummaryLocation) {
		s.full = true
		return nil
	}
	if err != nil {
		return err
	}
	s.graph = g
	for _, m := range malformed {
		s.scheduled[m.Input] = changed
	}
	return nil
}

// mapUnits maps the configured inputs onto a graph read from disk and
// forgets the units that left the module.
func (s *State) mapUnits() error {
	outputs := s.model.OutputFileMap()
	for _, in := range s.inputs {
		path, ok := outputs.SummaryPath(in)
		if !ok {
			s.diags.Emit(diag.Remarkf(in.File, "%s has no dependency summary file", in.Basename()))
			s.graph = nil
			s.full = true
			return nil
		}
		if err := s.graph.AddUnit(in, unit.NewHandle(path)); err != nil {
			return err
		}
	}

	var gone []unit.Handle
	seen := make(map[unit.Handle]bool)
	s.graph.ForEachNode(func(n node.Node) {
		if n.IsExpat() || seen[n.Owner] {
			return
		}
		seen[n.Owner] = true
		if _, mapped := s.graph.Input(n.Owner); !mapped {
			gone = append(gone, n.Owner)
		}
	})
	for _, h := range gone {
		affected := s.graph.ForgetUnit(h)
		s.logger.Debug("Forgot removed unit.", "unit", h.String(), "affected", len(affected))
		for _, in := range affected {
			s.schedule(in, dependent)
		}
	}
	return nil
}

func (s *State) graphOptions() []graph.Option {
	opts := []graph.Option{
		graph.WithLogger(s.logger),
		graph.WithDiagnostics(s.diags),
		graph.WithVerifyAfterEveryImport(s.model.Module.VerifyAfterEveryImport),
	}
	if s.model.Module.EmitDotAfterEveryImport {
		opts = append(opts, graph.WithDotAfterEveryImport(s.model.Module.BuildDir))
	}
	return opts
}

// FirstWave schedules the inputs that must be compiled before any summary
// of this build is seen. mtimes holds the current modification time of each
// input path; an input missing from it is treated as changed.
func (s *State) FirstWave(ctx context.Context, mtimes map[string]time.Time) []unit.Input {
	s.mtimes = mtimes
	if s.full || s.graph == nil {
		for _, in := range s.inputs {
			s.schedule(in, changed)
		}
		return s.Scheduled()
	}

	outputs := s.model.OutputFileMap()
	for _, in := range s.inputs {
		info, known := s.prior.Inputs[in.File]
		mtime, exists := mtimes[in.File]
		summaryPath, _ := outputs.SummaryPath(in)
		switch {
		case !known, info.Status == buildrecord.NewlyAdded:
			s.schedule(in, added)
		case info.Status == buildrecord.NeedsCascadingBuild,
			!exists, !mtime.Equal(info.ModTime), info.Summary != summaryPath:
			s.schedule(in, changed)
		case info.Status == buildrecord.NeedsNonCascadingBuild:
			s.schedule(in, dependent)
		}
	}

	for _, in := range s.inputs {
		if s.scheduled[in] != changed {
			continue
		}
		for _, dep := range s.graph.FindDependentSourceUnits(in) {
			s.schedule(dep, dependent)
		}
	}

	wave := s.Scheduled()
	ctxlog.MustFromContext(ctx).Info("Computed first wave.", "scheduled", len(wave), "inputs", len(s.inputs))
	return wave
}

// AfterCompiling integrates the fresh summary of in and returns the inputs
// that became invalid and were not scheduled before. An unreadable summary
// schedules every remaining input.
func (s *State) AfterCompiling(ctx context.Context, in unit.Input) ([]unit.Input, error) {
	if !s.isInput(in) {
		return nil, fmt.Errorf("%s is not an input of module %s", in, s.model.Module.Name)
	}
	s.compiled[in] = true
	s.schedule(in, changed)
	if s.graph == nil {
		return nil, nil
	}

	invalidated, err := s.graph.FindSourcesToCompileAfterCompiling(ctx, in, s.reader)
	if err != nil {
		ctxlog.MustFromContext(ctx).Warn("Summary unreadable; scheduling the remaining inputs.", "input", in.File, "error", err)
		invalidated = s.inputs
	}
	return s.scheduleNew(invalidated), nil
}

// ExternalChanged schedules the not yet scheduled users of dep.
func (s *State) ExternalChanged(ctx context.Context, dep depkey.ExternalDependency) []unit.Input {
	if s.graph == nil {
		return nil
	}
	users := s.graph.UntracedDependentsOfExternal(dep)
	owners := s.graph.FindUnitsToRecompileWhenNodesChange(users)
	inputs := make([]unit.Input, 0, len(owners))
	for _, h := range owners {
		if in, ok := s.graph.Input(h); ok {
			inputs = append(inputs, in)
		}
	}
	fresh := s.scheduleNew(inputs)
	ctxlog.MustFromContext(ctx).Debug("External dependency changed.", "dependency", dep.Path, "users", len(users), "scheduled", len(fresh))
	return fresh
}

func (s *State) scheduleNew(inputs []unit.Input) []unit.Input {
	var fresh []unit.Input
	for _, in := range inputs {
		if s.scheduled[in] == unscheduled {
			s.schedule(in, dependent)
			fresh = append(fresh, in)
		}
	}
	unit.SortInputs(fresh)
	return fresh
}

func (s *State) schedule(in unit.Input, r reason) {
	if cur := s.scheduled[in]; cur == unscheduled || r < cur {
		s.scheduled[in] = r
	}
}

// Scheduled returns every input scheduled so far, sorted.
func (s *State) Scheduled() []unit.Input {
	out := make([]unit.Input, 0, len(s.scheduled))
	for in, r := range s.scheduled {
		if r != unscheduled {
			out = append(out, in)
		}
	}
	unit.SortInputs(out)
	return out
}

// Persist writes the graph and the build record.
func (s *State) Persist(ctx context.Context) error {
	var writeErr error
	if s.graph != nil {
		writeErr = ddep.Write(ctx, s.graphPath(), s.graph, s.model.Module.CompilerVersion, s.diags)
		if writeErr == nil {
			s.graph.MarkPersisted()
		}
	}

	record := s.record()
	record.GraphValid = s.graph != nil && writeErr == nil
	if err := buildrecord.Save(ctx, s.recordPath(), record); err != nil {
		return errors.Join(err, writeErr)
	}
	if writeErr != nil {
		ctxlog.MustFromContext(ctx).Error("Could not persist driver dependency graph.", "path", s.graphPath(), "error", writeErr)
		return fmt.Errorf("%w: %w", ErrPersistFailed, writeErr)
	}
	return nil
}

func (s *State) record() *buildrecord.Record {
	r := buildrecord.New(s.model.Module.CompilerVersion)
	r.BuildTime = s.now().UTC()
	outputs := s.model.OutputFileMap()

	for _, in := range s.inputs {
		info := buildrecord.InputInfo{Status: buildrecord.UpToDate}
		info.Summary, _ = outputs.SummaryPath(in)
		if s.prior != nil {
			info.ModTime = s.prior.Inputs[in.File].ModTime
		}
		if mtime, ok := s.mtimes[in.File]; ok {
			info.ModTime = mtime
		}
		if !s.compiled[in] {
			switch s.scheduled[in] {
			case changed:
				info.Status = buildrecord.NeedsCascadingBuild
			case added:
				info.Status = buildrecord.NewlyAdded
			case dependent:
				info.Status = buildrecord.NeedsNonCascadingBuild
			}
		}
		r.Inputs[in.File] = info
	}
	return r
}

// Close ends the graph's lifecycle and releases the directory lock.
func (s *State) Close() error {
	if s.graph != nil {
		s.graph.Close()
	}
	return s.lock.Unlock()
}

// Graph returns the module dependency graph, or nil for a full build
// without summary locations.
func (s *State) Graph() graph.Graph {
	return s.graph
}

// FullBuild reports whether every input must be compiled.
func (s *State) FullBuild() bool {
	return s.full
}

// Inputs returns the module's inputs, sorted.
func (s *State) Inputs() []unit.Input {
	return append([]unit.Input(nil), s.inputs...)
}

func (s *State) isInput(in unit.Input) bool {
	for _, known := range s.inputs {
		if known == in {
			return true
		}
	}
	return false
}

func (s *State) nodeCount() int {
	if s.graph == nil {
		return 0
	}
	return s.graph.Len()
}

func (s *State) graphPath() string {
	graphFile, _ := StateFiles(s.model)
	return graphFile
}

func (s *State) recordPath() string {
	_, recordFile := StateFiles(s.model)
	return recordFile
}

// StateFiles returns the paths of the graph file and the build record of
// model, for tooling that inspects them.
func StateFiles(model *config.Model) (graphFile, recordFile string) {
	return model.StatePath(GraphSuffix), model.StatePath(RecordSuffix)
}
