/*
Package integrator merges one source unit's freshly read dependency summary
into the node index, replacing whatever that unit contributed before.

Integration is scoped to the unit: it only creates, replaces and removes nodes
the unit owns, plus ownerless placeholder definitions for keys the unit uses
that nobody defines yet. A failed or partial read of one unit's summary
therefore never disturbs nodes owned by other units.

The result lists every node whose meaning changed:
  - defined for the first time, or with a different fingerprint
  - previously owned by the unit and now absent from its summary

Use edges are recorded against definition keys, so removing a definition
leaves the edges of its users in place. The tracer walks them from the removed
node to find every unit that referenced it.
*/
package integrator
