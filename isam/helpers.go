package isam

import (
	"math"
	"sort"

	"github.com/katalvlaran/isam/gaussfactor"
	"github.com/katalvlaran/isam/ordering"
	"github.com/katalvlaran/isam/values"
)

// linfNorm returns the L-infinity norm of row, the relinearization trigger
// metric (spec §4.5 step 4).
func linfNorm(row []float64) float64 {
	max := 0.0
	for _, v := range row {
		if a := math.Abs(v); a > max {
			max = a
		}
	}

	return max
}

// isZero reports whether every entry of row is exactly zero, used to skip a
// no-op retract/commit for variables untouched by the current step.
func isZero(row []float64) bool {
	for _, v := range row {
		if v != 0 {
			return false
		}
	}

	return true
}

// constrainedPermutation builds the Ordering.PermuteInPlace permutation that
// pushes every key named in groups to the tail of the ordering, grouped by
// ascending group number, while leaving unconstrained keys in their existing
// relative order. Within a group, ties break by current Index (the
// insertion-order proxy; see DESIGN.md's open-question resolution). The
// result is new-position -> old-index, matching Ordering.PermuteInPlace's
// convention.
func constrainedPermutation(o *ordering.Ordering, groups map[values.Key]int) ordering.Permutation {
	n := o.Len()
	type item struct {
		idx         ordering.Index
		group       int
		constrained bool
	}
	items := make([]item, n)
	for i := 0; i < n; i++ {
		idx := ordering.Index(i)
		key, _ := o.KeyOf(idx)
		g, isC := groups[key]
		items[i] = item{idx: idx, group: g, constrained: isC}
	}
	sort.SliceStable(items, func(a, b int) bool {
		ca, cb := items[a].constrained, items[b].constrained
		if ca != cb {
			return !ca // unconstrained first
		}
		if ca && items[a].group != items[b].group {
			return items[a].group < items[b].group
		}

		return items[a].idx < items[b].idx
	})

	perm := make(ordering.Permutation, n)
	for i, it := range items {
		perm[i] = it.idx
	}

	return perm
}

// attributeSlots assigns each slot in involvedSlots to the key in
// reElimKeys its factor touches with the smallest current Index, purely for
// Clique.FactorSlots bookkeeping (spec §4.5 step 6's "involvedSlots" used at
// the next removal/relinearization round). A slot touching no key in
// reElimKeys (shouldn't occur: every touched key of a selected slot is, by
// construction, either newly affected or already a frontal of the detached
// sub-tree) is skipped.
func attributeSlots(involvedSlots map[gaussfactor.Slot]struct{}, cache *gaussfactor.FactorCache, keyIndex map[values.Key]ordering.Index) map[values.Key][]gaussfactor.Slot {
	out := make(map[values.Key][]gaussfactor.Slot)
	for slot := range involvedSlots {
		f, ok := cache.Get(slot)
		if !ok {
			continue
		}
		var owner values.Key
		found := false
		for _, k := range f.Keys() {
			idx, inChain := keyIndex[k]
			if !inChain {
				continue
			}
			if !found || idx < keyIndex[owner] {
				owner = k
				found = true
			}
		}
		if found {
			out[owner] = append(out[owner], slot)
		}
	}

	return out
}
