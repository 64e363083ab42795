package bayestree

import (
	"github.com/katalvlaran/isam/ordering"
)

// Tree is a directed clique tree addressed by a "nodes" map Index -> Clique,
// where nodes[i] is the clique whose frontal set contains i.
type Tree struct {
	root  *Clique
	nodes map[ordering.Index]*Clique
}

// NewTree returns an empty Tree.
func NewTree() *Tree {
	return &Tree{nodes: make(map[ordering.Index]*Clique)}
}

// Root returns the tree's root clique, or nil if empty.
func (t *Tree) Root() *Clique { return t.root }

// CliqueFor returns the clique whose frontal set contains idx, or nil.
func (t *Tree) CliqueFor(idx ordering.Index) *Clique { return t.nodes[idx] }

// Attach links clique under parent (parent == nil means clique becomes, or
// replaces, the root) and registers every one of clique's frontals in the
// nodes map.
func (t *Tree) Attach(clique *Clique, parent *Clique) {
	clique.Parent = parent
	if parent == nil {
		t.root = clique
	} else {
		parent.Children = append(parent.Children, clique)
	}
	for _, idx := range clique.Frontals() {
		t.nodes[idx] = clique
	}
}

// Detach severs clique from its parent (removing it from the parent's
// Children slice) and removes every nodes[] entry for clique's entire
// sub-tree (clique plus all descendants), returning that sub-tree as a
// flat slice in pre-order (clique first).
func (t *Tree) Detach(clique *Clique) []*Clique {
	if clique.Parent != nil {
		siblings := clique.Parent.Children
		for i, ch := range siblings {
			if ch == clique {
				clique.Parent.Children = append(siblings[:i], siblings[i+1:]...)
				break
			}
		}
	} else if t.root == clique {
		t.root = nil
	}
	clique.Parent = nil

	var subtree []*Clique
	var walk func(c *Clique)
	walk = func(c *Clique) {
		subtree = append(subtree, c)
		for _, idx := range c.Frontals() {
			delete(t.nodes, idx)
		}
		for _, ch := range c.Children {
			walk(ch)
		}
	}
	walk(clique)

	return subtree
}

// DetachSet removes every clique in set from the tree: their nodes[] entries
// are deleted and they are unlinked from any parent outside the set. Any
// child of a clique in set that is itself not in set survives with its
// Parent pointer cleared — the "fringe" that the caller must re-attach onto
// the cliques rebuilt from re-elimination (spec §4.5 step 7). set must be
// closed under "ancestor of a member is also a member", as produced by
// FindAll; DetachSet does not verify this.
//
// The returned restore closure undoes the detach exactly (parent links,
// nodes[] entries, and root), for callers that must roll the tree back to
// its pre-detach state on a later failure (spec §7: IndefiniteSystem and
// InconsistentDims must leave the tree exactly as it was before
// re-elimination began). Calling restore after any further tree mutation is
// not supported.
func (t *Tree) DetachSet(set map[*Clique]struct{}) (fringe []*Clique, restore func()) {
	origParent := make(map[*Clique]*Clique, len(set))
	wasRoot := make(map[*Clique]bool, len(set))
	for c := range set {
		origParent[c] = c.Parent
		wasRoot[c] = t.root == c
	}
	fringeOrigParent := make(map[*Clique]*Clique)

	for c := range set {
		for _, idx := range c.Frontals() {
			delete(t.nodes, idx)
		}
		if c.Parent != nil {
			if _, parentRemoved := set[c.Parent]; !parentRemoved {
				siblings := c.Parent.Children
				for i, ch := range siblings {
					if ch == c {
						c.Parent.Children = append(siblings[:i], siblings[i+1:]...)
						break
					}
				}
			}
		} else if t.root == c {
			t.root = nil
		}
		for _, ch := range c.Children {
			if _, childRemoved := set[ch]; !childRemoved {
				fringeOrigParent[ch] = ch.Parent
				ch.Parent = nil
				fringe = append(fringe, ch)
			}
		}
	}

	restore = func() {
		for c, p := range origParent {
			c.Parent = p
			for _, idx := range c.Frontals() {
				t.nodes[idx] = c
			}
			if wasRoot[c] {
				t.root = c
			}
			if p != nil {
				if _, stillRemoved := set[p]; !stillRemoved {
					p.Children = append(p.Children, c)
				}
			}
		}
		for ch, p := range fringeOrigParent {
			ch.Parent = p
		}
	}

	return fringe, restore
}

// AttachChain splices a freshly eliminated chain (as produced by
// EliminateChain) into the tree: root is the chain's top clique (Parent ==
// nil), already linked to its descendants. AttachChain only registers
// nodes[] entries for the whole chain and sets it as the tree root; it does
// not touch Parent/Children, which EliminateChain has already wired.
func (t *Tree) AttachChain(root *Clique) {
	var walk func(c *Clique)
	walk = func(c *Clique) {
		for _, idx := range c.Frontals() {
			t.nodes[idx] = c
		}
		for _, ch := range c.Children {
			walk(ch)
		}
	}
	walk(root)
	t.root = root
}

// FindAll returns the union of cliques whose frontal set intersects
// indices, plus every ancestor clique on the path to the root from any such
// clique — the affected sub-tree (spec §4.4).
func (t *Tree) FindAll(indices []ordering.Index) map[*Clique]struct{} {
	out := make(map[*Clique]struct{})
	for _, idx := range indices {
		c := t.nodes[idx]
		for c != nil {
			if _, seen := out[c]; seen {
				break // ancestors of c are already in the set
			}
			out[c] = struct{}{}
			c = c.Parent
		}
	}

	return out
}

// PermuteWithInverse walks the tree top-down and rewrites every Index in
// every conditional's Frontals/Separator. Index labels stored in a
// conditional identify "the variable that used to be at old position p";
// Ordering.PermuteInPlace defines perm as new-position -> old-position (so
// it can rebuild its indexToKey slice by reading old content at perm[new]).
// Relabeling an existing old-position identifier into its new position is
// therefore the *inverse* lookup — hence this method's name. Structure
// (parent/child pointers) is preserved; only Index labels change. Cached
// separator factors are keyed by values.Key and are therefore already
// invariant under a relabeling of indices.
func (t *Tree) PermuteWithInverse(perm ordering.Permutation) {
	if t.root == nil {
		return
	}
	inv := perm.Invert()
	newNodes := make(map[ordering.Index]*Clique, len(t.nodes))
	var walk func(c *Clique)
	walk = func(c *Clique) {
		gc := c.Conditional
		for i, idx := range gc.Frontals {
			gc.Frontals[i] = inv.Apply(idx)
		}
		for i, idx := range gc.Separator {
			gc.Separator[i] = inv.Apply(idx)
		}
		for _, idx := range gc.Frontals {
			newNodes[idx] = c
		}
		for _, ch := range c.Children {
			walk(ch)
		}
	}
	walk(t.root)
	t.nodes = newNodes
}

// Nodes returns every clique in the tree via a pre-order walk from the root.
func (t *Tree) Nodes() []*Clique {
	var out []*Clique
	if t.root == nil {
		return out
	}
	var walk func(c *Clique)
	walk = func(c *Clique) {
		out = append(out, c)
		for _, ch := range c.Children {
			walk(ch)
		}
	}
	walk(t.root)

	return out
}

// Clone returns a deep copy of the tree: the walk is top-down so each new
// clique's parent pointer can be set to the already-constructed copy before
// recursing into children (spec §9: never model clique<->parent with
// symmetric ownership).
func (t *Tree) Clone() *Tree {
	out := NewTree()
	if t.root == nil {
		return out
	}
	var walk func(src, parent *Clique) *Clique
	walk = func(src, parent *Clique) *Clique {
		dst := &Clique{
			Conditional:     cloneConditional(src.Conditional),
			CachedSeparator: src.CachedSeparator, // HessianFactor is immutable once produced
			Gradient:        append([]float64(nil), src.Gradient...),
			FactorSlots:     append(src.FactorSlots[:0:0], src.FactorSlots...),
			Parent:          parent,
		}
		for _, idx := range dst.Conditional.Frontals {
			out.nodes[idx] = dst
		}
		for _, ch := range src.Children {
			dst.Children = append(dst.Children, walk(ch, dst))
		}

		return dst
	}
	out.root = walk(t.root, nil)

	return out
}
