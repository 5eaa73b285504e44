// internal/unit/doc.go

/*
Package unit names the independently compiled inputs of a module and the
dependency summaries they produce.

An Input is a typed path to a source file as the driver sees it. A Handle is
the opaque identity of the compiled unit that owns graph nodes; it is named
after the unit's dependency summary file. Map keeps the two in a bidirectional
correspondence so the graph can answer in terms of inputs ("recompile this
file") while storing handles.
*/
package unit
