// Package graph is the module dependency graph the driver consults to decide
// which source units to recompile.
//
// # Architecture: The Facade Pattern
//
// The graph is a thin facade over two specialized stores and the two
// algorithms that work on them:
//
//	┌──────────────────────────────────────┐
//	│             Graph Facade             │
//	│   (scheduling queries for the        │
//	│    driver, integration, lifecycle)   │
//	└───────┬──────────────────┬───────────┘
//	        │                  │
//	        ▼                  ▼
//	 ┌────────────┐     ┌────────────┐
//	 │  Topology  │     │   Traced   │
//	 │   Store    │     │    Set     │
//	 │  (nodes,   │     │ (nodestore)│
//	 │   uses)    │     │            │
//	 └────────────┘     └────────────┘
//
// **Integrator** (internal/integrator) writes the topology store from unit
// summaries and reports changed nodes.
//
// **Tracer** (internal/tracer) walks use edges from changed nodes, marking
// the traced set, and reports the owning units.
//
// # Waves
//
// The driver asks two kinds of question:
//   - **First wave:** a source file's timestamp changed but it has not been
//     recompiled yet. FindDependentSourceUnits traces every node the unit
//     already owns and speculatively schedules their users.
//   - **Second wave:** a unit was recompiled and its fresh summary is on
//     disk. FindUnitsToRecompileAfterIntegrating merges it and traces only
//     what actually changed.
//
// # Lifecycle
//
//	Empty → Loaded → Integrating* → Persisted → Done
//
// A graph is built once per driver invocation, either by BuildInitialGraph or
// by the ddep reader. Integrating after the graph was persisted is a defect
// and panics with an *InvariantError.
//
// # Concurrency
//
// A Graph has no internal locking. All integration, tracing and
// serialization happen on the driver's own goroutine.
package graph
