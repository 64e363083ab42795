package bayestree

import (
	"fmt"
	"sort"

	"github.com/katalvlaran/isam/gaussfactor"
	"github.com/katalvlaran/isam/linalg"
	"github.com/katalvlaran/isam/ordering"
	"github.com/katalvlaran/isam/values"
)

// EliminateChain eliminates frontalOrder, one key per clique, out of the
// factors supplied in active. At each step it gathers every active factor
// touching the next key, stacks them, and runs linalg.Eliminate with that
// key as the sole frontal and every other key those factors touch as the
// separator; the resulting separator marginal is folded back in as a
// pseudo-factor so later eliminations see its fill-in (spec §4.5 step 7).
//
// This produces a chain of single-frontal cliques rather than the maximally
// merged cliques a symbolic elimination-game implementation would produce
// (see DESIGN.md); every Bayes-tree invariant in spec §3 still holds,
// because a single-frontal clique is the special case |F| == 1.
//
// keyIndex gives each key's current elimination-order Index (used only to
// label the resulting conditionals); slotsOf records, for bookkeeping, which
// original factor-cache slots first contributed to each key's elimination
// step. EliminateChain returns the new cliques in elimination order
// (frontalOrder[0]'s clique first) with Parent/Children already linked
// among themselves; roots (empty separator) are the entries with Parent ==
// nil, normally exactly one when frontalOrder empties the whole local graph.
func EliminateChain(
	mode linalg.Factorization,
	frontalOrder []values.Key,
	keyDims map[values.Key]int,
	keyIndex map[values.Key]ordering.Index,
	active []*gaussfactor.JacobianFactor,
	slotsOf map[values.Key][]gaussfactor.Slot,
) ([]*Clique, error) {
	remaining := make(map[values.Key]struct{}, len(frontalOrder))
	position := make(map[values.Key]int, len(frontalOrder))
	for i, k := range frontalOrder {
		remaining[k] = struct{}{}
		position[k] = i
	}

	cliqueOf := make(map[values.Key]*Clique, len(frontalOrder))
	deferredParent := make(map[values.Key]values.Key, len(frontalOrder))
	out := make([]*Clique, 0, len(frontalOrder))

	for _, v := range frontalOrder {
		var touching []*gaussfactor.JacobianFactor
		var rest []*gaussfactor.JacobianFactor
		sepSet := make(map[values.Key]struct{})
		for _, f := range active {
			touches := false
			for _, k := range f.Keys() {
				if k == v {
					touches = true
					continue
				}
				sepSet[k] = struct{}{}
			}
			if touches {
				touching = append(touching, f)
			} else {
				rest = append(rest, f)
			}
		}

		sepKeys := make([]values.Key, 0, len(sepSet))
		for k := range sepSet {
			if _, ok := remaining[k]; !ok {
				continue // already eliminated; stale factor should not occur
			}
			sepKeys = append(sepKeys, k)
		}
		sort.Slice(sepKeys, func(i, j int) bool {
			return position[sepKeys[i]] < position[sepKeys[j]]
		})

		orderedKeys := append([]values.Key{v}, sepKeys...)
		graph := &gaussfactor.JacobianFactorGraph{Factors: touching}
		a, b, err := graph.Stack(orderedKeys, keyDims)
		if err != nil {
			return nil, fmt.Errorf("bayestree.EliminateChain: stacking key %s: %w", v, err)
		}

		frontalDim := keyDims[v]
		separatorDim := 0
		for _, k := range sepKeys {
			separatorDim += keyDims[k]
		}

		result, err := linalg.Eliminate(mode, frontalDim, separatorDim, a, b)
		if err != nil {
			return nil, fmt.Errorf("bayestree.EliminateChain: eliminating key %s: %w", v, err)
		}

		sepIndices := make([]ordering.Index, len(sepKeys))
		for i, k := range sepKeys {
			sepIndices[i] = keyIndex[k]
		}
		gc := &GaussianConditional{
			Frontals:  []ordering.Index{keyIndex[v]},
			Separator: sepIndices,
			RFF:       result.RFF,
			RFS:       result.RFS,
			D:         result.D,
			Sigma:     result.Sigma,
		}

		clique := &Clique{
			Conditional: gc,
			Gradient:    frontalGradient(result),
			FactorSlots: slotsOf[v],
		}

		if result.Separator != nil {
			hf := gaussfactor.NewHessianFactor(sepKeys, result.Separator)
			clique.CachedSeparator = hf
			pseudo, err := hf.AsJacobianFactor(keyDims)
			if err != nil {
				return nil, fmt.Errorf("bayestree.EliminateChain: folding marginal for key %s: %w", v, err)
			}
			rest = append(rest, pseudo)

			parentKey := sepKeys[0] // sorted by position ascending above
			for _, k := range sepKeys {
				if position[k] < position[parentKey] {
					parentKey = k
				}
			}
			// parent clique does not exist yet until parentKey is eliminated;
			// link is fixed up once we reach it below.
			cliqueOf[v] = clique
			clique.Parent = nil // fixed up when parentKey is processed, see below
			deferredParent[v] = parentKey
		} else {
			cliqueOf[v] = clique
		}

		active = rest
		delete(remaining, v)
		out = append(out, clique)
	}

	// Second pass: wire parent/child links now that every clique exists.
	for _, v := range frontalOrder {
		parentKey, ok := deferredParent[v]
		if !ok {
			continue
		}
		parent := cliqueOf[parentKey]
		child := cliqueOf[v]
		child.Parent = parent
		parent.Children = append(parent.Children, child)
	}

	return out, nil
}

// frontalGradient computes −R_FFᵀ·D, the local gradient of this clique's
// quadratic piece with respect to its frontal variables evaluated at zero
// delta.
func frontalGradient(r *linalg.EliminationResult) []float64 {
	n := len(r.D)
	out := make([]float64, n)
	for j := 0; j < n; j++ {
		sum := 0.0
		for i := 0; i < n; i++ {
			v, _ := r.RFF.At(i, j)
			sum += v * r.D[i]
		}
		out[j] = -sum
	}

	return out
}

// MinIndex returns the smallest element of indices. Used to locate the
// clique that should re-parent a fringe child after re-elimination: the
// parent is the clique of the child's earliest-eliminated separator key,
// the same rule EliminateChain uses to link its own cliques.
func MinIndex(indices []ordering.Index) ordering.Index {
	min := indices[0]
	for _, idx := range indices[1:] {
		if idx < min {
			min = idx
		}
	}

	return min
}
