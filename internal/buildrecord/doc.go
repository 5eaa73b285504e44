// Package buildrecord persists what the driver knew about each input at the
// end of a build, and guards the build-state directory with a file lock.
//
// A record whose graph_valid flag is false tells the next build not to trust
// the persisted dependency graph, which is how a failed graph write forces a
// full rebuild instead of a silently wrong incremental one.
package buildrecord
