// Package inmemorystore provides an ephemeral, thread-safe, in-memory
// implementation of the nodestore.Store interface.
//
// # Characteristics
//
//   - **Ephemeral:** Created fresh with each graph, never persisted
//   - **Thread-Safe:** Uses sync.Map; marks on distinct nodes never contend
//   - **Fast Lookups:** O(1) average case for mark checks
package inmemorystore

import (
	"sync"
	"sync/atomic"

	"github.com/specialistvlad/fgdeps/internal/node"
	"github.com/specialistvlad/fgdeps/internal/nodestore"
)

// Store is an in-memory implementation of nodestore.Store.
type Store struct {
	traced sync.Map // Key: node.Identity, Value: struct{}
	count  atomic.Int64
}

// New creates a new, empty in-memory trace store.
func New() nodestore.Store {
	return &Store{}
}

// IsTraced reports whether the node has been marked.
func (s *Store) IsTraced(id node.Identity) bool {
	_, ok := s.traced.Load(id)
	return ok
}

// MarkTraced marks the node and reports whether it was unmarked before.
func (s *Store) MarkTraced(id node.Identity) bool {
	if _, loaded := s.traced.LoadOrStore(id, struct{}{}); loaded {
		return false
	}
	s.count.Add(1)
	return true
}

// Untrace clears the node's mark.
func (s *Store) Untrace(id node.Identity) {
	if _, loaded := s.traced.LoadAndDelete(id); loaded {
		s.count.Add(-1)
	}
}

// Len returns the number of marked nodes.
func (s *Store) Len() int {
	return int(s.count.Load())
}
