/*
Package depkey defines the vocabulary of the fine-grained dependency graph:
what a single dependency fact is about.

A Key pairs an Aspect (the interface or the implementation of a declaration)
with a Designator, a closed tagged union over eight kinds of facts:

	topLevel(name)                       top-level declaration
	nominal(context)                     a nominal type
	potentialMember(context)             "some member" of a nominal type
	member(context, name)                a named member of a nominal type
	dynamicLookup(name)                  a dynamically looked-up member
	externalDepend(path)                 an external dependency (e.g. a module)
	sourceFileProvide(name)              the file-level node of a source unit
	incrementalExternalDependency(path)  an external dependency tracked incrementally

Each kind fixes which of its context and name fields may be non-empty. The
rule is checked by New, which is what both the summary reader and the binary
codec go through, so a Key built by this package is always well-formed.

Keys and Designators are comparable values and can be used as map keys.
*/
package depkey
