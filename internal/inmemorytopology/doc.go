// Package inmemorytopology provides an in-memory implementation of the
// topologystore.Store interface.
//
// Nodes live in an arena: a slice of slots addressed by node.ID, with freed
// slots recycled. Every lookup structure refers to slots by ID, so replacing
// or removing a node never leaves a dangling pointer behind, and the
// persisted form never depends on memory layout.
package inmemorytopology
