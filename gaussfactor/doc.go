// Package gaussfactor stores the active nonlinear Factors, their current
// linear (Gaussian) approximations, and the cached marginal "separator"
// factor produced at each Bayes-tree clique boundary.
//
// The inverted index (Key -> set of Slots touching it) is grounded on the
// teacher library's core/adjacency_list.go, which keeps exactly this shape
// of map-of-sets for Vertex adjacency; FactorCache.Add/Remove/
// FactorsTouching follow the same "mutate two maps together, never let them
// drift" discipline as core's AddEdge/RemoveEdge (see core/methods_edges.go).
package gaussfactor
