package graph

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/specialistvlad/fgdeps/internal/ctxlog"
	"github.com/specialistvlad/fgdeps/internal/depkey"
	"github.com/specialistvlad/fgdeps/internal/diag"
	"github.com/specialistvlad/fgdeps/internal/dotexport"
	"github.com/specialistvlad/fgdeps/internal/integrator"
	"github.com/specialistvlad/fgdeps/internal/node"
	"github.com/specialistvlad/fgdeps/internal/nodestore"
	"github.com/specialistvlad/fgdeps/internal/summary"
	"github.com/specialistvlad/fgdeps/internal/topologystore"
	"github.com/specialistvlad/fgdeps/internal/tracer"
	"github.com/specialistvlad/fgdeps/internal/unit"
)

// Manager implements Graph by composing a topology store and a traced set.
type Manager struct {
	topology topologystore.Store
	traced   nodestore.Store

	integrator *integrator.Integrator
	tracer     *tracer.Tracer

	units     *unit.Map
	externals map[depkey.ExternalDependency]struct{}
	state     State

	logger         *slog.Logger
	diags          diag.Sink
	verifyOnImport bool
	dotDir         string
	dotSequence    int
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for per-node debug reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithDiagnostics sets the diagnostics sink.
func WithDiagnostics(sink diag.Sink) Option {
	return func(m *Manager) {
		if sink != nil {
			m.diags = sink
		}
	}
}

// WithVerifyAfterEveryImport makes every integration end with Verify; a
// failure panics with an *InvariantError.
func WithVerifyAfterEveryImport(on bool) Option {
	return func(m *Manager) { m.verifyOnImport = on }
}

// WithDotAfterEveryImport writes a DOT rendering of the graph into dir after
// every integration. An empty dir disables it.
func WithDotAfterEveryImport(dir string) Option {
	return func(m *Manager) { m.dotDir = dir }
}

// New creates an empty graph over the given stores.
func New(ts topologystore.Store, ns nodestore.Store, opts ...Option) Graph {
	m := &Manager{
		topology:  ts,
		traced:    ns,
		units:     unit.NewMap(),
		externals: make(map[depkey.ExternalDependency]struct{}),
		logger:    ctxlog.Discard(),
		diags:     diag.Discard,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.integrator = integrator.New(ts, m.logger)
	m.tracer = tracer.New(ts, ns, m.logger)
	return m
}

func (m *Manager) AddUnit(in unit.Input, h unit.Handle) error {
	return m.units.Set(in, h)
}

func (m *Manager) Handle(in unit.Input) (unit.Handle, bool) {
	return m.units.Handle(in)
}

func (m *Manager) Input(h unit.Handle) (unit.Input, bool) {
	return m.units.Input(h)
}

func (m *Manager) Inputs() []unit.Input {
	return m.units.Inputs()
}

// Integrate merges src as h's new summary, clears the trace marks of every
// changed node so the next trace re-walks from them, and records the
// external dependencies src uses.
func (m *Manager) Integrate(h unit.Handle, src summary.Source) integrator.Result {
	m.enterIntegrating()
	m.logger.Debug("Integrating changes.", "unit", h.String())

	result := m.integrator.Integrate(h, src)
	m.afterImport(h, result)
	return result
}

// ForgetUnit removes h and everything it owned.
func (m *Manager) ForgetUnit(h unit.Handle) []unit.Input {
	m.enterIntegrating()
	result := m.integrator.Forget(h)
	m.afterImport(h, result)
	affected := m.inputsOf(m.FindUnitsToRecompileWhenNodesChange(result.Changed))
	if in, ok := m.units.Input(h); ok {
		affected = without(affected, in)
		m.units.Delete(in)
	}
	return affected
}

func (m *Manager) afterImport(h unit.Handle, result integrator.Result) {
	for _, n := range result.Changed {
		m.traced.Untrace(n.Identity())
	}
	for _, dep := range result.ExternalDependencies {
		m.externals[dep] = struct{}{}
	}

	if m.verifyOnImport && !m.Verify() {
		invariant("verification failed after integrating %s", h)
	}
	if m.dotDir != "" {
		m.emitDot(h)
	}
}

func (m *Manager) emitDot(h unit.Handle) {
	m.dotSequence++
	path := filepath.Join(m.dotDir, fmt.Sprintf("%s.%d.dot", filepath.Base(h.File()), m.dotSequence))
	if err := os.MkdirAll(m.dotDir, 0o755); err != nil {
		m.diags.Emit(diag.Warningf(path, "could not write dependency dot file %s: %v", path, err))
		return
	}
	f, err := os.Create(path)
	if err != nil {
		m.diags.Emit(diag.Warningf(path, "could not write dependency dot file %s: %v", path, err))
		return
	}
	defer f.Close()
	if err := dotexport.Write(f, m); err != nil {
		m.diags.Emit(diag.Warningf(path, "could not write dependency dot file %s: %v", path, err))
	}
}

func (m *Manager) enterIntegrating() {
	switch m.state {
	case Persisted, Done:
		invariant("integration requested in state %s", m.state)
	case Loaded:
		m.state = Integrating
	}
}

// FindDependentSourceUnits returns in itself, when it owns nodes, together
// with every input whose nodes use any of them.
func (m *Manager) FindDependentSourceUnits(in unit.Input) []unit.Input {
	h, ok := m.units.Handle(in)
	if !ok {
		return nil
	}
	dependents := m.inputsOf(m.FindUnitsToRecompileWhenWholeUnitChanges(h))
	for _, dep := range dependents {
		if dep != in {
			m.logger.Debug("Found dependent.", "of", in.Basename(), "dependent", dep.File)
		}
	}
	return dependents
}

func (m *Manager) FindUnitsToRecompileWhenWholeUnitChanges(h unit.Handle) []unit.Handle {
	owned := m.topology.FindNodes(h)
	if len(owned) == 0 {
		return nil
	}
	nodes := make([]node.Node, 0, len(owned))
	for _, n := range owned {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Less(nodes[j]) })

	owners := m.FindUnitsToRecompileWhenNodesChange(nodes)
	for _, o := range owners {
		if o == h {
			return owners
		}
	}
	owners = append(owners, h)
	unit.SortHandles(owners)
	return owners
}

func (m *Manager) FindUnitsToRecompileAfterIntegrating(in unit.Input, src summary.Source) []unit.Input {
	h, ok := m.units.Handle(in)
	if !ok {
		invariant("integrating unmapped input %s", in)
	}
	result := m.Integrate(h, src)
	return m.inputsOf(m.FindUnitsToRecompileWhenNodesChange(result.Changed))
}

// FindSourcesToCompileAfterCompiling reads the summary of the just-compiled
// in. A read failure is returned as is; the caller treats the unit, and the
// rest of the build, as dirty.
func (m *Manager) FindSourcesToCompileAfterCompiling(ctx context.Context, in unit.Input, reader summary.Reader) ([]unit.Input, error) {
	h, ok := m.units.Handle(in)
	if !ok {
		return nil, fmt.Errorf("%s: %w", in, ErrNoSummaryLocation)
	}
	s, err := reader.Read(ctx, h)
	if err != nil {
		m.diags.Emit(diag.Warningf(h.File(), "malformed dependency summary %s: %v", h.File(), err))
		return nil, err
	}
	return m.FindUnitsToRecompileAfterIntegrating(in, s), nil
}

func (m *Manager) FindUnitsToRecompileWhenNodesChange(nodes []node.Node) []unit.Handle {
	return m.tracer.Collect(nodes).Owners()
}

func (m *Manager) UntracedDependentsOfExternal(dep depkey.ExternalDependency) []node.Node {
	return m.tracer.UntracedUsesOf(depkey.InterfaceOf(dep))
}

func (m *Manager) ExternalDependencies() []depkey.ExternalDependency {
	deps := make([]depkey.ExternalDependency, 0, len(m.externals))
	for dep := range m.externals {
		deps = append(deps, dep)
	}
	sort.Slice(deps, func(i, j int) bool { return deps[i].Path < deps[j].Path })
	return deps
}

func (m *Manager) IsTraced(n node.Node) bool {
	return m.traced.IsTraced(n.Identity())
}

func (m *Manager) HaveAnyNodesBeenTraversed(h unit.Handle) bool {
	if fileNode, ok := m.topology.FindFileInterfaceNode(h); ok && m.IsTraced(fileNode) {
		return true
	}
	for _, n := range m.topology.FindNodes(h) {
		if m.IsTraced(n) {
			return true
		}
	}
	return false
}

func (m *Manager) InsertDecoded(n node.Node) {
	if previous, replaced := m.topology.Insert(n); replaced {
		invariant("integrated the same node twice: %s, %s", previous, n)
	}
	if dep, ok := n.Key.Designator.External(); ok {
		m.externals[dep] = struct{}{}
	}
}

func (m *Manager) RecordDecodedUse(def depkey.Key, use node.Identity) {
	m.topology.RecordUse(def, use)
}

func (m *Manager) ForEachNode(visit func(node.Node)) {
	m.topology.ForEachNode(visit)
}

func (m *Manager) OrderedUses(def depkey.Key) []node.Node {
	return m.topology.OrderedUses(def)
}

func (m *Manager) Len() int {
	return m.topology.Len()
}

// Verify checks the index and that every owned node belongs to a mapped unit.
func (m *Manager) Verify() bool {
	if !m.topology.Verify() {
		return false
	}
	ok := true
	m.topology.ForEachNode(func(n node.Node) {
		if n.IsExpat() {
			return
		}
		if _, mapped := m.units.Input(n.Owner); !mapped {
			ok = false
		}
	})
	return ok
}

func (m *Manager) State() State {
	return m.state
}

func (m *Manager) MarkLoaded() {
	if m.state == Empty {
		m.state = Loaded
	}
}

func (m *Manager) MarkPersisted() {
	if m.state == Done {
		invariant("persisting a closed graph")
	}
	m.state = Persisted
}

func (m *Manager) Close() {
	m.state = Done
}

func (m *Manager) inputsOf(handles []unit.Handle) []unit.Input {
	inputs := make([]unit.Input, 0, len(handles))
	for _, h := range handles {
		if in, ok := m.units.Input(h); ok {
			inputs = append(inputs, in)
		}
	}
	unit.SortInputs(inputs)
	return inputs
}

func without(inputs []unit.Input, drop unit.Input) []unit.Input {
	kept := inputs[:0]
	for _, in := range inputs {
		if in != drop {
			kept = append(kept, in)
		}
	}
	return kept
}
