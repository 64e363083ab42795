// Package bayestree implements the directed clique tree (Bayes tree)
// produced by variable elimination: each Clique holds a Gaussian
// conditional p(frontals | separator) and a cached separator factor
// summarizing its descendants.
//
// Attach/Detach/FindAll generalize the teacher library's non-owning/owning
// tree-building idiom: prim_kruskal/kruskal.go builds a spanning tree with
// an explicit union-find "whose component is this in" map, which this
// package's nodes index (Index -> owning Clique) plays the same role for;
// FindAll's affected-subtree walk generalizes core/view.go's
// InducedSubgraph (build a fresh structure restricted to a vertex subset,
// without mutating the source) to "restricted to every ancestor of a
// touched clique" instead of "restricted to an explicit vertex set". Deep
// copy (Clone) follows the parent-is-non-owning / children-are-owned
// top-down walk documented in spec.md §9 and demonstrated by the teacher's
// core/methods_clone.go.
//
// EliminateChain (elimination.go) performs the actual variable elimination
// that produces a fresh run of cliques: it is grounded on the same
// iterative, one-step-at-a-time construction the teacher's
// prim_kruskal/kruskal.go uses to grow a spanning structure edge by edge,
// here growing a clique chain key by key instead.
package bayestree
