// Package tracer computes the transitive set of nodes affected by a set of
// changed nodes, marking each one traced so that it is reported at most once
// per build.
package tracer

import (
	"log/slog"
	"sort"

	"github.com/specialistvlad/fgdeps/internal/ctxlog"
	"github.com/specialistvlad/fgdeps/internal/depkey"
	"github.com/specialistvlad/fgdeps/internal/node"
	"github.com/specialistvlad/fgdeps/internal/nodestore"
	"github.com/specialistvlad/fgdeps/internal/topologystore"
	"github.com/specialistvlad/fgdeps/internal/unit"
)

// Trace is the outcome of one traversal.
type Trace struct {
	// Uses holds the nodes newly traced by this traversal, in visit order.
	Uses []node.Node
}

// Owners returns the distinct owners of the traced nodes, sorted. Ownerless
// placeholders are skipped.
func (t Trace) Owners() []unit.Handle {
	seen := make(map[unit.Handle]struct{})
	var owners []unit.Handle
	for _, n := range t.Uses {
		if n.IsExpat() {
			continue
		}
		if _, ok := seen[n.Owner]; ok {
			continue
		}
		seen[n.Owner] = struct{}{}
		owners = append(owners, n.Owner)
	}
	unit.SortHandles(owners)
	return owners
}

// Tracer walks use edges of a topology store.
type Tracer struct {
	index  topologystore.Store
	traced nodestore.Store
	logger *slog.Logger
}

// New returns a tracer over index recording marks in traced. A nil logger
// discards.
func New(index topologystore.Store, traced nodestore.Store, logger *slog.Logger) *Tracer {
	if logger == nil {
		logger = ctxlog.Discard()
	}
	return &Tracer{index: index, traced: traced, logger: logger}
}

// Collect traces breadth-first from seeds.
//
// Every seed is expanded, traced or not, so a seed whose mark was cleared
// after re-integration propagates again. A use reached from an expanded node
// is reported when it was untraced and is expanded in turn only through its
// interface aspect: a change that reaches just the implementation of a
// declaration stops at its owner.
func (t *Tracer) Collect(seeds []node.Node) Trace {
	var result Trace
	queue := make([]node.Node, 0, len(seeds))
	expanded := make(map[node.Identity]struct{})

	for _, seed := range seeds {
		if t.traced.MarkTraced(seed.Identity()) {
			result.Uses = append(result.Uses, seed)
		}
		queue = append(queue, seed)
	}

	for len(queue) > 0 {
		def := queue[0]
		queue = queue[1:]
		if _, ok := expanded[def.Identity()]; ok {
			continue
		}
		expanded[def.Identity()] = struct{}{}

		for _, user := range t.index.OrderedUses(def.Key) {
			if !t.traced.MarkTraced(user.Identity()) {
				continue
			}
			result.Uses = append(result.Uses, user)
			t.logger.Debug("Found dependent.", "definition", def.String(), "dependent", user.String())
			if user.Key.Aspect == depkey.Interface {
				queue = append(queue, user)
			}
		}
	}
	return result
}

// UntracedUsesOf returns the untraced users of key without marking them.
func (t *Tracer) UntracedUsesOf(key depkey.Key) []node.Node {
	var untraced []node.Node
	for _, user := range t.index.OrderedUses(key) {
		if !t.traced.IsTraced(user.Identity()) {
			untraced = append(untraced, user)
		}
	}
	sort.SliceStable(untraced, func(i, j int) bool { return untraced[i].Less(untraced[j]) })
	return untraced
}
