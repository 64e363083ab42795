package bayestree

// DiagnosticGraph is a trimmed, directed re-expression of the teacher
// library's core.Graph/Vertex/Edge shape, specialized to clique parent ->
// child links for diagnostics and tests (spec §6's `nodes() -> iterable
// <Clique*>` is the read-only walk; this supplements it with an exportable
// structural view, the way the teacher ships
// examples/matrix_spectral_analysis.go over a core.Graph).
type DiagnosticGraph struct {
	// CliqueIDs maps each clique (by pre-order position) to its frontal
	// Indices, for labeling.
	CliqueIDs [][]int
	// Edges lists parent -> child links as (parentID, childID) pairs.
	Edges [][2]int
}

// ToDiagnosticGraph walks the tree pre-order, assigning each clique an ID
// equal to its position in that walk, and records parent->child edges.
func (t *Tree) ToDiagnosticGraph() DiagnosticGraph {
	nodes := t.Nodes()
	idOf := make(map[*Clique]int, len(nodes))
	for i, c := range nodes {
		idOf[c] = i
	}

	out := DiagnosticGraph{CliqueIDs: make([][]int, len(nodes))}
	for i, c := range nodes {
		frontalInts := make([]int, len(c.Frontals()))
		for j, idx := range c.Frontals() {
			frontalInts[j] = int(idx)
		}
		out.CliqueIDs[i] = frontalInts
		for _, ch := range c.Children {
			out.Edges = append(out.Edges, [2]int{i, idOf[ch]})
		}
	}

	return out
}

// Width returns the size of the largest separator in the tree, a cheap
// diagnostic proxy for elimination fill-in (teacher-style cheap Stringer/
// summary helper, see core.Graph's own small diagnostic accessors).
func (t *Tree) Width() int {
	width := 0
	for _, c := range t.Nodes() {
		if n := len(c.Separator()); n > width {
			width = n
		}
	}

	return width
}
