package tracer

import (
	"testing"

	"github.com/specialistvlad/fgdeps/internal/depkey"
	"github.com/specialistvlad/fgdeps/internal/inmemorystore"
	"github.com/specialistvlad/fgdeps/internal/inmemorytopology"
	"github.com/specialistvlad/fgdeps/internal/node"
	"github.com/specialistvlad/fgdeps/internal/nodestore"
	"github.com/specialistvlad/fgdeps/internal/topologystore"
	"github.com/specialistvlad/fgdeps/internal/unit"
	"github.com/stretchr/testify/assert"
)

var (
	unitA = unit.NewHandle("a.swiftdeps")
	unitB = unit.NewHandle("b.swiftdeps")
	unitC = unit.NewHandle("c.swiftdeps")
)

func topLevel(aspect depkey.Aspect, name string) depkey.Key {
	return depkey.NewKey(aspect, depkey.TopLevelName(name))
}

// chain builds: A defines f; B's interface of g uses f; C's implementation
// of h uses g; B's implementation of g uses nothing.
func chain(t *testing.T) (topologystore.Store, nodestore.Store, map[string]node.Node) {
	t.Helper()
	index := inmemorytopology.New()
	nodes := map[string]node.Node{
		"f":      node.New(topLevel(depkey.Interface, "f"), node.NewFingerprint("1"), unitA),
		"g":      node.New(topLevel(depkey.Interface, "g"), node.Fingerprint{}, unitB),
		"h.impl": node.New(topLevel(depkey.Implementation, "h"), node.Fingerprint{}, unitC),
	}
	for _, n := range nodes {
		index.Insert(n)
	}
	index.RecordUse(nodes["f"].Key, nodes["g"].Identity())
	index.RecordUse(nodes["g"].Key, nodes["h.impl"].Identity())
	return index, inmemorystore.New(), nodes
}

func TestCollect_Transitive(t *testing.T) {
	index, traced, nodes := chain(t)
	tr := New(index, traced, nil)

	trace := tr.Collect([]node.Node{nodes["f"]})

	assert.Equal(t, []node.Node{nodes["f"], nodes["g"], nodes["h.impl"]}, trace.Uses)
	assert.Equal(t, []unit.Handle{unitA, unitB, unitC}, trace.Owners())
}

func TestCollect_ImplementationUseDoesNotPropagate(t *testing.T) {
	index, traced, nodes := chain(t)
	d := node.New(topLevel(depkey.Implementation, "d"), node.Fingerprint{}, unit.NewHandle("d.swiftdeps"))
	index.Insert(d)
	// Somebody using the implementation of h is only reachable if h.impl
	// were expanded.
	index.RecordUse(nodes["h.impl"].Key, d.Identity())
	tr := New(index, traced, nil)

	trace := tr.Collect([]node.Node{nodes["f"]})

	assert.NotContains(t, trace.Uses, d)
}

func TestCollect_Idempotent(t *testing.T) {
	index, traced, nodes := chain(t)
	tr := New(index, traced, nil)
	tr.Collect([]node.Node{nodes["f"]})

	again := tr.Collect([]node.Node{nodes["f"]})

	assert.Empty(t, again.Uses)
	assert.Empty(t, again.Owners())
}

func TestCollect_UntracedSeedPropagatesAgain(t *testing.T) {
	index, traced, nodes := chain(t)
	tr := New(index, traced, nil)
	tr.Collect([]node.Node{nodes["f"]})

	traced.Untrace(nodes["g"].Identity())
	again := tr.Collect([]node.Node{nodes["f"]})

	assert.Equal(t, []node.Node{nodes["g"]}, again.Uses)
}

func TestCollect_TerminatesOnCycle(t *testing.T) {
	index := inmemorytopology.New()
	f := node.New(topLevel(depkey.Interface, "f"), node.Fingerprint{}, unitA)
	g := node.New(topLevel(depkey.Interface, "g"), node.Fingerprint{}, unitB)
	index.Insert(f)
	index.Insert(g)
	index.RecordUse(f.Key, g.Identity())
	index.RecordUse(g.Key, f.Identity())
	tr := New(index, inmemorystore.New(), nil)

	trace := tr.Collect([]node.Node{f})

	assert.Equal(t, []node.Node{f, g}, trace.Uses)
}

func TestCollect_PlaceholderOwnerSkipped(t *testing.T) {
	index := inmemorytopology.New()
	placeholder := node.New(topLevel(depkey.Interface, "f"), node.Fingerprint{}, unit.Handle{})
	user := node.New(topLevel(depkey.Implementation, "u"), node.Fingerprint{}, unitB)
	index.Insert(placeholder)
	index.Insert(user)
	index.RecordUse(placeholder.Key, user.Identity())
	tr := New(index, inmemorystore.New(), nil)

	trace := tr.Collect([]node.Node{placeholder})

	assert.Len(t, trace.Uses, 2)
	assert.Equal(t, []unit.Handle{unitB}, trace.Owners())
}

func TestUntracedUsesOf(t *testing.T) {
	index, traced, nodes := chain(t)
	tr := New(index, traced, nil)

	assert.Equal(t, []node.Node{nodes["g"]}, tr.UntracedUsesOf(nodes["f"].Key))
	assert.False(t, traced.IsTraced(nodes["g"].Identity()), "lookup does not mark")

	traced.MarkTraced(nodes["g"].Identity())
	assert.Empty(t, tr.UntracedUsesOf(nodes["f"].Key))
}
