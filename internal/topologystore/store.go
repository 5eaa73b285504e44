// Package topologystore defines the interface for storing and querying the
// structure of the fine-grained dependency graph: its nodes and the
// definition -> use edges between them.
//
// # Why Topology Store Exists
//
// The topology store keeps the graph's structure apart from the per-build
// trace state managed by nodestore. The integrator writes structure, the
// tracer reads it, and the codec walks it; none of them touch trace state
// through this interface.
//
// # Lookup Shapes
//
// Nodes are found three ways:
//   - **By identity** `(key, owner)`: unique within a store
//   - **By owner**: all nodes one unit contributed, keyed by dependency key
//   - **By key**: all nodes sharing a dependency key, one per owner
//
// Use edges are recorded against a definition *key*, not a node, so a use can
// be recorded before anybody defines the key and it survives the defining
// node being replaced.
//
// # Concurrency
//
// Implementations are not safe for concurrent use. The driver serializes all
// graph mutations on one goroutine.
package topologystore

import (
	"github.com/specialistvlad/fgdeps/internal/depkey"
	"github.com/specialistvlad/fgdeps/internal/node"
	"github.com/specialistvlad/fgdeps/internal/unit"
)

// Store is the node index of the dependency graph.
type Store interface {
	// Insert adds n, replacing the node with the same identity if there is
	// one. It returns the replaced node and true in that case; whether that
	// is an error is the caller's decision.
	Insert(n node.Node) (previous node.Node, replaced bool)

	// Remove deletes the node with the given identity together with every
	// use edge it is the user of. Edges recorded against its key stay.
	Remove(id node.Identity) (node.Node, bool)

	// Find returns the node with the given identity.
	Find(id node.Identity) (node.Node, bool)

	// FindNodes returns all nodes owned by owner, keyed by dependency key.
	// The map is a copy.
	FindNodes(owner unit.Handle) map[depkey.Key]node.Node

	// FindNodesForKey returns all nodes with the given key, keyed by owner.
	// The map is a copy.
	FindNodesForKey(key depkey.Key) map[unit.Handle]node.Node

	// FindFileInterfaceNode returns the owner's interface sourceFileProvide
	// node, the fast-path existence check for a unit.
	FindFileInterfaceNode(owner unit.Handle) (node.Node, bool)

	// RecordUse records that the node identified by use depends on def. It
	// reports whether the edge is new.
	RecordUse(def depkey.Key, use node.Identity) bool

	// ClearUsesBy drops every edge whose user is use and returns the
	// definition keys it pointed at.
	ClearUsesBy(use node.Identity) []depkey.Key

	// OrderedUses returns the nodes recorded as using def, in the order the
	// edges were first recorded.
	OrderedUses(def depkey.Key) []node.Node

	// HasUses reports whether any edge is recorded against def.
	HasUses(def depkey.Key) bool

	// ForEachNode visits every node in a deterministic order (by owner, then key).
	ForEachNode(visit func(node.Node))

	// Len returns the number of nodes.
	Len() int

	// Verify checks internal consistency. It returns false, and never
	// panics, when it finds a problem.
	Verify() bool
}
