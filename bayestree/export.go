package bayestree

import (
	"fmt"
	"strings"

	"github.com/katalvlaran/isam/diagview"
	"github.com/katalvlaran/isam/ordering"
	"github.com/katalvlaran/isam/values"
)

// ToGraph renders the tree as a diagview.Graph, one vertex per clique
// labeled with its frontal/separator keys (via fmt, the current Ordering's
// KeyOf) and one edge per parent->child link. Complements
// ToDiagnosticGraph's bare-Index summary with the human-readable export
// SPEC_FULL's diagnostic tooling calls for.
func (t *Tree) ToGraph(o *ordering.Ordering, formatter values.KeyFormatter) *diagview.Graph {
	g := diagview.NewGraph()
	nodes := t.Nodes()
	idOf := make(map[*Clique]string, len(nodes))

	keyLabel := func(idx ordering.Index) string {
		k, err := o.KeyOf(idx)
		if err != nil {
			return fmt.Sprintf("#%d", idx)
		}

		return formatter(k)
	}

	for i, c := range nodes {
		id := fmt.Sprintf("clique%d", i)
		idOf[c] = id

		frontalLabels := make([]string, len(c.Frontals()))
		for j, idx := range c.Frontals() {
			frontalLabels[j] = keyLabel(idx)
		}
		sepLabels := make([]string, len(c.Separator()))
		for j, idx := range c.Separator() {
			sepLabels[j] = keyLabel(idx)
		}

		label := strings.Join(frontalLabels, ",")
		if len(sepLabels) > 0 {
			label += " | " + strings.Join(sepLabels, ",")
		}
		g.AddVertex(&diagview.Vertex{ID: id, Label: label, Frontals: len(c.Frontals())})
	}
	for _, c := range nodes {
		for _, ch := range c.Children {
			g.AddEdge(idOf[c], idOf[ch])
		}
	}

	return g
}
