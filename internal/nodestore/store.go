// Package nodestore defines the interface for the per-build trace state of
// the dependency graph's nodes.
//
// # Why Node Store Exists
//
// Whether a node has already been traced is not part of the graph's
// structure: it is never persisted and only lives for one build. Keeping it
// here, apart from topologystore, lets the tracer mark nodes without mutating
// the index, and lets the integrator clear marks on exactly the nodes it
// changed.
//
// # Lifecycle
//
//  1. **Created** empty with the graph; a freshly loaded graph has nothing traced
//  2. **Marked** by the tracer as it walks from changed nodes to their users
//  3. **Untraced** by the graph for every node an integration changes
//  4. **Discarded** with the graph
//
// Entries are keyed by node identity, so replacing a node's fingerprint in
// place keeps its mark and removing a node is followed by an explicit Untrace.
package nodestore

import "github.com/specialistvlad/fgdeps/internal/node"

// Store tracks which nodes have been traced during the current build.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// IsTraced reports whether the node has been traced.
	IsTraced(id node.Identity) bool

	// MarkTraced marks the node as traced. It reports whether the node was
	// untraced before the call.
	MarkTraced(id node.Identity) bool

	// Untrace clears the node's mark so a later trace can reach it again.
	Untrace(id node.Identity)

	// Len returns the number of traced nodes.
	Len() int
}
