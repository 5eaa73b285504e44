// Package node defines the vertex of the fine-grained dependency graph.
package node

import (
	"fmt"

	"github.com/specialistvlad/fgdeps/internal/depkey"
	"github.com/specialistvlad/fgdeps/internal/unit"
)

// ID is the arena slot of a node inside an index. It is only meaningful for
// the index that handed it out.
type ID int

// Fingerprint is an optional content hash used to skip no-op re-integration.
// The zero value is "no fingerprint", which is distinct from an empty one.
type Fingerprint struct {
	value string
	set   bool
}

// NewFingerprint returns a present fingerprint with the given value.
func NewFingerprint(value string) Fingerprint {
	return Fingerprint{value: value, set: true}
}

// Value returns the fingerprint and whether one is present.
func (f Fingerprint) Value() (string, bool) {
	return f.value, f.set
}

// IsSet reports whether a fingerprint is present.
func (f Fingerprint) IsSet() bool {
	return f.set
}

func (f Fingerprint) String() string {
	if !f.set {
		return "<none>"
	}
	return f.value
}

// Identity is what makes two nodes the same node: the key and the owner.
type Identity struct {
	Key   depkey.Key
	Owner unit.Handle
}

func (id Identity) String() string {
	return fmt.Sprintf("%s in %s", id.Key, id.Owner)
}

// Node is a single vertex in the dependency graph. It is a small value; the
// index stores it in an arena slot and callers refer to it by Identity.
type Node struct {
	// Key is the fact this node stands for.
	Key depkey.Key
	// Fingerprint is metadata and does not take part in identity.
	Fingerprint Fingerprint
	// Owner is the unit whose summary produced the node. The zero Handle
	// marks an expat: a placeholder definition nobody has provided yet, or a
	// query-only node.
	Owner unit.Handle
}

// New returns a node.
func New(key depkey.Key, fingerprint Fingerprint, owner unit.Handle) Node {
	return Node{Key: key, Fingerprint: fingerprint, Owner: owner}
}

// Identity returns the node's identity.
func (n Node) Identity() Identity {
	return Identity{Key: n.Key, Owner: n.Owner}
}

// IsExpat reports whether the node has no owner.
func (n Node) IsExpat() bool {
	return n.Owner.IsZero()
}

func (n Node) String() string {
	if n.Fingerprint.IsSet() {
		return fmt.Sprintf("%s in %s (fingerprint %s)", n.Key, n.Owner, n.Fingerprint)
	}
	return fmt.Sprintf("%s in %s", n.Key, n.Owner)
}

// Less orders nodes by owner, then key. It is the order in which an index
// visits its nodes.
func (n Node) Less(other Node) bool {
	if n.Owner != other.Owner {
		return n.Owner.File() < other.Owner.File()
	}
	return n.Key.Less(other.Key)
}
