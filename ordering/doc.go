// Package ordering maps variable Keys to dense elimination Indices and back,
// and supports in-place reindexing via Permutation.
//
// This file layout mirrors the teacher library's core package: sentinel
// errors up top, a dual hashed index for O(1) expected Key<->Index lookups
// (github.com/katalvlaran/lvlath core/types.go uses the same map-both-ways
// shape for Vertex IDs), and a non-mutating "view" concept (lvlath's
// core/view.go UnweightedView/InducedSubgraph) generalized here into
// PermutedView so that reorderings are O(N) metadata updates rather than
// O(N*dim) data moves (see DESIGN.md).
package ordering
