/*
Package incremental holds the driver's incremental state for one build: the
prior module dependency graph, the build record, and the set of inputs
scheduled so far.

A build goes through the following steps:

 1. Load locks the build-state directory, reads the build record and the
    persisted graph. When the graph cannot be used, it is rebuilt from the
    previous build's summaries; when that is impossible too, the build is a
    full build.
 2. FirstWave schedules the inputs that changed since the recorded build,
    together with everything that may depend on them.
 3. AfterCompiling integrates the fresh summary of each compiled input and
    schedules the inputs that its changes invalidate.
 4. ExternalChanged schedules the users of a changed external dependency.
 5. Persist writes the graph and the build record. A failed graph write
    leaves a record that forces the next build to rebuild the graph.
 6. Close releases the lock.

A State is not safe for concurrent use.
*/
package incremental
