/*
Package summary models a source unit's dependency summary: the flat list of
definition and use facts the compiler emits after semantic analysis.

The integrator consumes a summary through the Source interface and never
assumes an encoding. FileReader reads the YAML rendition the driver keeps next
to each unit's object file:

	facts:
	  - role: def
	    kind: topLevel
	    name: f
	    fingerprint: 8a1c
	  - role: use
	    kind: member
	    context: S
	    name: x
	    by: {aspect: implementation, kind: topLevel, name: f}

Omitted aspects are interface. A use without "by" is attributed to the unit's
implementation sourceFileProvide node.
*/
package summary
