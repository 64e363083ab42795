package stepper

import (
	"github.com/katalvlaran/isam/bayestree"
)

// ScatterGradient writes every clique's cached Gradient contribution into
// store at its frontal indices, then adds each clique's separator part,
// −R_FSᵀ·D, at its separator indices. The result is the global
// gradient-at-zero vector (spec §8's "Global gradient" property): the
// gradient of the full stacked Jacobian's quadratic cost at the origin.
func ScatterGradient(tree *bayestree.Tree, store RowStore) {
	nodes := tree.Nodes()
	for _, c := range nodes {
		scatterRows(store, c.Frontals(), c.Gradient)
	}
	for _, c := range nodes {
		if c.Conditional.RFS == nil {
			continue
		}
		gS := gatherRows(store, c.Separator())
		for j := range gS {
			for i, d := range c.Conditional.D {
				r, _ := c.Conditional.RFS.At(i, j)
				gS[j] -= r * d
			}
		}
		scatterRows(store, c.Separator(), gS)
	}
}

// QuadraticForm computes ||J*v||^2 where J is the stacked Jacobian implied
// by the tree's elimination (every clique's R_FF/R_FS rows), without ever
// assembling J or the global R explicitly. R is block upper triangular in
// elimination order; stacking each clique's local R_FF/R_FS rows at its
// frontal/separator columns reproduces R exactly, so the squared norm
// decomposes into one independent contribution per clique.
func QuadraticForm(tree *bayestree.Tree, v RowStore) float64 {
	total := 0.0
	for _, c := range tree.Nodes() {
		vF := gatherRows(v, c.Frontals())
		n := len(vF)
		local := make([]float64, n)
		for i := 0; i < n; i++ {
			sum := 0.0
			for j := 0; j < n; j++ {
				r, _ := c.Conditional.RFF.At(i, j)
				sum += r * vF[j]
			}
			local[i] = sum
		}
		if c.Conditional.RFS != nil {
			vS := gatherRows(v, c.Separator())
			sepDim := len(vS)
			for i := 0; i < n; i++ {
				sum := 0.0
				for j := 0; j < sepDim; j++ {
					r, _ := c.Conditional.RFS.At(i, j)
					sum += r * vS[j]
				}
				local[i] += sum
			}
		}
		for _, x := range local {
			total += x * x
		}
	}

	return total
}
