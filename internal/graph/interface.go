package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/fgdeps/internal/depkey"
	"github.com/specialistvlad/fgdeps/internal/integrator"
	"github.com/specialistvlad/fgdeps/internal/node"
	"github.com/specialistvlad/fgdeps/internal/summary"
	"github.com/specialistvlad/fgdeps/internal/unit"
)

// ErrNoSummaryLocation is returned by BuildInitialGraph when an input has no
// dependency summary path configured.
var ErrNoSummaryLocation = errors.New("input has no dependency summary location")

// InvariantError reports a bug in the graph engine itself, as opposed to bad
// input. It is only ever raised with panic.
type InvariantError struct {
	Message string
}

func (e *InvariantError) Error() string {
	return "dependency graph invariant violated: " + e.Message
}

func invariant(format string, args ...any) {
	panic(&InvariantError{Message: fmt.Sprintf(format, args...)})
}

// State is the lifecycle stage of a graph.
type State int

const (
	Empty State = iota
	Loaded
	Integrating
	Persisted
	Done
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Loaded:
		return "loaded"
	case Integrating:
		return "integrating"
	case Persisted:
		return "persisted"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Graph is the driver-facing surface of the module dependency graph.
type Graph interface {
	// AddUnit maps a source input to the unit handle its summary names.
	AddUnit(in unit.Input, h unit.Handle) error
	// Handle returns the unit handle of a source input.
	Handle(in unit.Input) (unit.Handle, bool)
	// Input returns the source input of a unit handle.
	Input(h unit.Handle) (unit.Input, bool)
	// Inputs returns every mapped input, sorted.
	Inputs() []unit.Input

	// Integrate merges a unit's summary and untraces the nodes it changed.
	Integrate(h unit.Handle, src summary.Source) integrator.Result
	// ForgetUnit drops a unit that left the module and returns the inputs
	// affected by its removal.
	ForgetUnit(h unit.Handle) []unit.Input

	// FindDependentSourceUnits is the first-wave query. The result includes
	// in itself when its unit owns any node.
	FindDependentSourceUnits(in unit.Input) []unit.Input
	// FindUnitsToRecompileWhenWholeUnitChanges traces every node h owns.
	FindUnitsToRecompileWhenWholeUnitChanges(h unit.Handle) []unit.Handle
	// FindUnitsToRecompileAfterIntegrating is the second-wave query.
	FindUnitsToRecompileAfterIntegrating(in unit.Input, src summary.Source) []unit.Input
	// FindSourcesToCompileAfterCompiling reads in's fresh summary with
	// reader and runs the second-wave query on it.
	FindSourcesToCompileAfterCompiling(ctx context.Context, in unit.Input, reader summary.Reader) ([]unit.Input, error)
	// FindUnitsToRecompileWhenNodesChange traces nodes and returns the owners
	// of everything newly traced.
	FindUnitsToRecompileWhenNodesChange(nodes []node.Node) []unit.Handle
	// UntracedDependentsOfExternal returns the untraced users of the
	// interface of dep.
	UntracedDependentsOfExternal(dep depkey.ExternalDependency) []node.Node

	// ExternalDependencies returns every external dependency seen, sorted.
	ExternalDependencies() []depkey.ExternalDependency
	// IsTraced reports whether n has been traced this build.
	IsTraced(n node.Node) bool
	// HaveAnyNodesBeenTraversed reports whether any node h owns is traced.
	HaveAnyNodesBeenTraversed(h unit.Handle) bool

	// InsertDecoded adds a node read back from a persisted graph. A
	// duplicate identity panics with an *InvariantError.
	InsertDecoded(n node.Node)
	// RecordDecodedUse adds a use edge read back from a persisted graph.
	RecordDecodedUse(def depkey.Key, use node.Identity)

	// ForEachNode visits every node in a deterministic order.
	ForEachNode(visit func(node.Node))
	// OrderedUses returns the users of def in first-recorded order.
	OrderedUses(def depkey.Key) []node.Node
	// Len returns the number of nodes.
	Len() int
	// Verify checks the index and that every owner is a mapped unit.
	Verify() bool

	// State returns the lifecycle stage.
	State() State
	// MarkLoaded ends construction.
	MarkLoaded()
	// MarkPersisted records a successful write.
	MarkPersisted()
	// Close ends the graph's lifecycle.
	Close()
}
