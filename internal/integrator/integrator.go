package integrator

import (
	"log/slog"
	"sort"

	"github.com/specialistvlad/fgdeps/internal/ctxlog"
	"github.com/specialistvlad/fgdeps/internal/depkey"
	"github.com/specialistvlad/fgdeps/internal/node"
	"github.com/specialistvlad/fgdeps/internal/summary"
	"github.com/specialistvlad/fgdeps/internal/topologystore"
	"github.com/specialistvlad/fgdeps/internal/unit"
)

// Result is what one integration changed.
type Result struct {
	// Changed holds the nodes whose meaning changed, in discovery order.
	// Removed nodes appear with the value they had before removal.
	Changed []node.Node
	// ExternalDependencies lists the external dependencies the summary uses,
	// in first-use order.
	ExternalDependencies []depkey.ExternalDependency
}

// Integrator merges summaries into a topology store.
type Integrator struct {
	index  topologystore.Store
	logger *slog.Logger
}

// New returns an integrator writing into index. A nil logger discards.
func New(index topologystore.Store, logger *slog.Logger) *Integrator {
	if logger == nil {
		logger = ctxlog.Discard()
	}
	return &Integrator{index: index, logger: logger}
}

// FileProvideKeys returns the interface and implementation keys of the
// file-level node of the unit owned by owner.
func FileProvideKeys(owner unit.Handle) (depkey.Key, depkey.Key) {
	d := depkey.SourceFileProvideName(owner.File())
	iface := depkey.NewKey(depkey.Interface, d)
	return iface, iface.Correspondent()
}

type use struct {
	def depkey.Key
	by  depkey.Key
}

// plan is a summary flattened into what the unit should own afterwards.
type plan struct {
	order []depkey.Key
	defs  map[depkey.Key]node.Fingerprint
	uses  []use
}

func (p *plan) define(key depkey.Key, fp node.Fingerprint, explicit bool) {
	if _, ok := p.defs[key]; !ok {
		p.order = append(p.order, key)
		p.defs[key] = fp
		return
	}
	if explicit {
		p.defs[key] = fp
	}
}

func newPlan(owner unit.Handle, src summary.Source) *plan {
	p := &plan{defs: make(map[depkey.Key]node.Fingerprint)}
	fileInterface, fileImplementation := FileProvideKeys(owner)
	p.define(fileInterface, node.Fingerprint{}, false)
	p.define(fileImplementation, node.Fingerprint{}, false)

	src.ForEachFact(func(f summary.Fact) {
		switch f.Role {
		case summary.Definition:
			p.define(f.Key, f.Fingerprint, true)
		case summary.Use:
			by := fileImplementation
			if f.By != nil {
				by = *f.By
			}
			p.define(by, node.Fingerprint{}, false)
			p.uses = append(p.uses, use{def: f.Key, by: by})
		}
	})
	return p
}

// Integrate replaces owner's contribution to the index with src.
func (i *Integrator) Integrate(owner unit.Handle, src summary.Source) Result {
	var result Result
	p := newPlan(owner, src)
	previous := i.index.FindNodes(owner)

	for _, key := range p.order {
		fp := p.defs[key]
		if old, ok := previous[key]; ok && old.Fingerprint == fp {
			continue
		}
		n := node.New(key, fp, owner)
		i.index.Insert(n)
		i.removePlaceholder(key)
		result.Changed = append(result.Changed, n)
		i.logger.Debug("Node changed.", "node", n.String())
	}

	var dropped []node.Node
	for key, old := range previous {
		if _, ok := p.defs[key]; !ok {
			dropped = append(dropped, old)
		}
	}
	sort.Slice(dropped, func(a, b int) bool { return dropped[a].Less(dropped[b]) })
	var released []depkey.Key
	for _, old := range dropped {
		released = append(released, i.index.ClearUsesBy(old.Identity())...)
		released = append(released, old.Key)
		i.index.Remove(old.Identity())
		i.ensureDefined(old.Key)
		result.Changed = append(result.Changed, old)
		i.logger.Debug("Node removed.", "node", old.String())
	}

	result.ExternalDependencies = i.rewireUses(owner, p, released)
	return result
}

// rewireUses replaces every use edge whose user the unit owns.
// Keys in released may have lost their last use and have their placeholder
// dropped.
func (i *Integrator) rewireUses(owner unit.Handle, p *plan, released []depkey.Key) []depkey.ExternalDependency {
	for _, key := range p.order {
		released = append(released, i.index.ClearUsesBy(node.Identity{Key: key, Owner: owner})...)
	}

	var externals []depkey.ExternalDependency
	seen := make(map[depkey.ExternalDependency]struct{})
	for _, u := range p.uses {
		i.index.RecordUse(u.def, node.Identity{Key: u.by, Owner: owner})
		i.ensureDefined(u.def)
		if dep, ok := u.def.Designator.External(); ok {
			if _, dup := seen[dep]; !dup {
				seen[dep] = struct{}{}
				externals = append(externals, dep)
			}
		}
	}

	for _, key := range released {
		if !i.index.HasUses(key) {
			i.removePlaceholder(key)
		}
	}
	return externals
}

// ensureDefined inserts an ownerless placeholder for key when no node has
// that key but something still uses it.
func (i *Integrator) ensureDefined(key depkey.Key) {
	if len(i.index.FindNodesForKey(key)) > 0 {
		return
	}
	if !i.index.HasUses(key) {
		return
	}
	i.index.Insert(node.New(key, node.Fingerprint{}, unit.Handle{}))
	i.logger.Debug("Placeholder created.", "key", key.String())
}

// removePlaceholder drops the ownerless node for key once an owner defines
// it or nothing uses it any more.
func (i *Integrator) removePlaceholder(key depkey.Key) {
	nodes := i.index.FindNodesForKey(key)
	placeholder, ok := nodes[unit.Handle{}]
	if !ok {
		return
	}
	if len(nodes) > 1 || !i.index.HasUses(key) {
		i.index.Remove(placeholder.Identity())
	}
}

// Forget removes every node owner contributed, as when its source file left
// the module. The removed nodes are reported as changed so that their users
// get recompiled.
func (i *Integrator) Forget(owner unit.Handle) Result {
	var result Result
	var released []depkey.Key
	for _, old := range sortedNodes(i.index.FindNodes(owner)) {
		released = append(released, i.index.ClearUsesBy(old.Identity())...)
		i.index.Remove(old.Identity())
		i.ensureDefined(old.Key)
		result.Changed = append(result.Changed, old)
	}
	for _, key := range released {
		if !i.index.HasUses(key) {
			i.removePlaceholder(key)
		}
	}
	i.logger.Debug("Unit forgotten.", "owner", owner.String(), "removed", len(result.Changed))
	return result
}

func sortedNodes(nodes map[depkey.Key]node.Node) []node.Node {
	sorted := make([]node.Node, 0, len(nodes))
	for _, n := range nodes {
		sorted = append(sorted, n)
	}
	sort.Slice(sorted, func(a, b int) bool { return sorted[a].Less(sorted[b]) })
	return sorted
}
