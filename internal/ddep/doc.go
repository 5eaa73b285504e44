/*
Package ddep reads and writes the persisted module dependency graph.

# Container

A file is the four-byte signature "DDEP" followed by a sequence of msgpack
values:

	block info   [0, 8, "RECORD_BLOCK", [[1, "METADATA"], [2, "MODULE_DEP_GRAPH_NODE"],
	             [3, "FINGERPRINT_NODE"], [4, "IDENTIFIER_NODE"], [5, "USE_NODE"]]]
	data block   [8, recordCount]
	records      recordCount arrays, each starting with its record ID

Records:

	metadata     [1, major, minor, compilerVersion]    exactly once, (1, 0) only
	identifier   [4, string]                           string table, codes 1, 2, ...
	node         [2, kind, aspect, contextID, nameID, hasOwner, ownerID]
	fingerprint  [3, string]                           follows the node it annotates
	use          [5, userSequence]                     the node above is used by the
	                                                   node-th record at userSequence

Identifier 0 is the empty string and is never written. Every identifier a node
refers to is written before the first node record.

# Failure

Any structural problem fails the whole read with a *ReadError; no partially
populated graph is ever returned. errors.Is(err, ErrStructural) holds for all
of them, errors.Is(err, ErrVersionMismatch) only for an unsupported version.
Either way the caller discards the file and falls back to a full build.

Write replaces the file atomically, so a crash mid-write leaves the previous
file in place.
*/
package ddep
