package inmemorytopology

import (
	"sort"

	"github.com/specialistvlad/fgdeps/internal/depkey"
	"github.com/specialistvlad/fgdeps/internal/node"
	"github.com/specialistvlad/fgdeps/internal/topologystore"
	"github.com/specialistvlad/fgdeps/internal/unit"
)

type slot struct {
	node node.Node
	live bool
}

// useSet is an insertion-ordered set of user identities.
type useSet struct {
	order []node.Identity
	pos   map[node.Identity]struct{}
}

func (u *useSet) add(id node.Identity) bool {
	if _, ok := u.pos[id]; ok {
		return false
	}
	u.pos[id] = struct{}{}
	u.order = append(u.order, id)
	return true
}

func (u *useSet) remove(id node.Identity) {
	if _, ok := u.pos[id]; !ok {
		return
	}
	delete(u.pos, id)
	kept := u.order[:0]
	for _, o := range u.order {
		if o != id {
			kept = append(kept, o)
		}
	}
	u.order = kept
}

// Store implements topologystore.Store over an arena of node slots.
type Store struct {
	slots []slot
	free  []node.ID

	byIdentity map[node.Identity]node.ID
	byOwner    map[unit.Handle]map[depkey.Key]node.ID
	byKey      map[depkey.Key]map[unit.Handle]node.ID

	usesByDef map[depkey.Key]*useSet
	defsByUse map[node.Identity]map[depkey.Key]struct{}
}

// New creates a new, empty in-memory topology store.
func New() topologystore.Store {
	return &Store{
		byIdentity: make(map[node.Identity]node.ID),
		byOwner:    make(map[unit.Handle]map[depkey.Key]node.ID),
		byKey:      make(map[depkey.Key]map[unit.Handle]node.ID),
		usesByDef:  make(map[depkey.Key]*useSet),
		defsByUse:  make(map[node.Identity]map[depkey.Key]struct{}),
	}
}

// Insert adds n, replacing the node with the same identity in place.
func (s *Store) Insert(n node.Node) (node.Node, bool) {
	id := n.Identity()
	if slotID, ok := s.byIdentity[id]; ok {
		previous := s.slots[slotID].node
		s.slots[slotID].node = n
		return previous, true
	}

	slotID := s.allocate(n)
	s.byIdentity[id] = slotID

	if s.byOwner[n.Owner] == nil {
		s.byOwner[n.Owner] = make(map[depkey.Key]node.ID)
	}
	s.byOwner[n.Owner][n.Key] = slotID

	if s.byKey[n.Key] == nil {
		s.byKey[n.Key] = make(map[unit.Handle]node.ID)
	}
	s.byKey[n.Key][n.Owner] = slotID
	return node.Node{}, false
}

func (s *Store) allocate(n node.Node) node.ID {
	if last := len(s.free) - 1; last >= 0 {
		slotID := s.free[last]
		s.free = s.free[:last]
		s.slots[slotID] = slot{node: n, live: true}
		return slotID
	}
	s.slots = append(s.slots, slot{node: n, live: true})
	return node.ID(len(s.slots) - 1)
}

// Remove deletes the node and the edges it is the user of.
func (s *Store) Remove(id node.Identity) (node.Node, bool) {
	slotID, ok := s.byIdentity[id]
	if !ok {
		return node.Node{}, false
	}
	removed := s.slots[slotID].node
	s.slots[slotID] = slot{}
	s.free = append(s.free, slotID)
	delete(s.byIdentity, id)

	if owned := s.byOwner[id.Owner]; owned != nil {
		delete(owned, id.Key)
		if len(owned) == 0 {
			delete(s.byOwner, id.Owner)
		}
	}
	if keyed := s.byKey[id.Key]; keyed != nil {
		delete(keyed, id.Owner)
		if len(keyed) == 0 {
			delete(s.byKey, id.Key)
		}
	}

	s.ClearUsesBy(id)
	return removed, true
}

// Find returns the node with the given identity.
func (s *Store) Find(id node.Identity) (node.Node, bool) {
	slotID, ok := s.byIdentity[id]
	if !ok {
		return node.Node{}, false
	}
	return s.slots[slotID].node, true
}

// FindNodes returns a copy of the owner's nodes keyed by dependency key.
func (s *Store) FindNodes(owner unit.Handle) map[depkey.Key]node.Node {
	owned := s.byOwner[owner]
	nodes := make(map[depkey.Key]node.Node, len(owned))
	for key, slotID := range owned {
		nodes[key] = s.slots[slotID].node
	}
	return nodes
}

// FindNodesForKey returns a copy of the nodes with the given key, keyed by owner.
func (s *Store) FindNodesForKey(key depkey.Key) map[unit.Handle]node.Node {
	keyed := s.byKey[key]
	nodes := make(map[unit.Handle]node.Node, len(keyed))
	for owner, slotID := range keyed {
		nodes[owner] = s.slots[slotID].node
	}
	return nodes
}

// FindFileInterfaceNode returns the owner's interface sourceFileProvide node.
func (s *Store) FindFileInterfaceNode(owner unit.Handle) (node.Node, bool) {
	for key, slotID := range s.byOwner[owner] {
		if key.Aspect == depkey.Interface && key.Designator.Kind() == depkey.SourceFileProvide {
			return s.slots[slotID].node, true
		}
	}
	return node.Node{}, false
}

// RecordUse records a def -> use edge.
func (s *Store) RecordUse(def depkey.Key, use node.Identity) bool {
	uses := s.usesByDef[def]
	if uses == nil {
		uses = &useSet{pos: make(map[node.Identity]struct{})}
		s.usesByDef[def] = uses
	}
	if !uses.add(use) {
		return false
	}
	if s.defsByUse[use] == nil {
		s.defsByUse[use] = make(map[depkey.Key]struct{})
	}
	s.defsByUse[use][def] = struct{}{}
	return true
}

// ClearUsesBy drops every edge whose user is use.
func (s *Store) ClearUsesBy(use node.Identity) []depkey.Key {
	defs := s.defsByUse[use]
	if len(defs) == 0 {
		return nil
	}
	delete(s.defsByUse, use)

	cleared := make([]depkey.Key, 0, len(defs))
	for def := range defs {
		cleared = append(cleared, def)
		uses := s.usesByDef[def]
		if uses == nil {
			continue
		}
		uses.remove(use)
		if len(uses.order) == 0 {
			delete(s.usesByDef, def)
		}
	}
	sort.Slice(cleared, func(i, j int) bool { return cleared[i].Less(cleared[j]) })
	return cleared
}

// OrderedUses returns the users of def in first-recorded order.
func (s *Store) OrderedUses(def depkey.Key) []node.Node {
	uses := s.usesByDef[def]
	if uses == nil {
		return nil
	}
	nodes := make([]node.Node, 0, len(uses.order))
	for _, id := range uses.order {
		if n, ok := s.Find(id); ok {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// HasUses reports whether any edge is recorded against def.
func (s *Store) HasUses(def depkey.Key) bool {
	return s.usesByDef[def] != nil
}

// ForEachNode visits live nodes ordered by owner, then key.
func (s *Store) ForEachNode(visit func(node.Node)) {
	nodes := make([]node.Node, 0, len(s.byIdentity))
	for _, sl := range s.slots {
		if sl.live {
			nodes = append(nodes, sl.node)
		}
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Less(nodes[j]) })
	for _, n := range nodes {
		visit(n)
	}
}

// Len returns the number of live nodes.
func (s *Store) Len() int {
	return len(s.byIdentity)
}

// Verify checks that the lookup structures agree with the arena and that
// every use edge joins an existing user to a key somebody defines.
func (s *Store) Verify() bool {
	live := 0
	for slotID, sl := range s.slots {
		if !sl.live {
			continue
		}
		live++
		if got, ok := s.byIdentity[sl.node.Identity()]; !ok || got != node.ID(slotID) {
			return false
		}
	}
	if live != len(s.byIdentity) {
		return false
	}

	owned := 0
	for owner, byKey := range s.byOwner {
		for key, slotID := range byKey {
			owned++
			if !s.isLiveAt(slotID, node.Identity{Key: key, Owner: owner}) {
				return false
			}
		}
	}
	keyed := 0
	for key, byOwner := range s.byKey {
		for owner, slotID := range byOwner {
			keyed++
			if !s.isLiveAt(slotID, node.Identity{Key: key, Owner: owner}) {
				return false
			}
		}
	}
	if owned != live || keyed != live {
		return false
	}

	edges := 0
	for def, uses := range s.usesByDef {
		if len(s.byKey[def]) == 0 || len(uses.order) != len(uses.pos) {
			return false
		}
		for _, use := range uses.order {
			edges++
			if _, ok := s.byIdentity[use]; !ok {
				return false
			}
			if _, ok := s.defsByUse[use][def]; !ok {
				return false
			}
		}
	}
	reverse := 0
	for _, defs := range s.defsByUse {
		reverse += len(defs)
	}
	return edges == reverse
}

func (s *Store) isLiveAt(slotID node.ID, id node.Identity) bool {
	if int(slotID) < 0 || int(slotID) >= len(s.slots) {
		return false
	}
	sl := s.slots[slotID]
	return sl.live && sl.node.Identity() == id
}
