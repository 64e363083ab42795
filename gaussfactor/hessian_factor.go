package gaussfactor

import (
	"github.com/katalvlaran/isam/linalg"
	"github.com/katalvlaran/isam/values"
)

// HessianFactor is a Gaussian factor stored in xᵀGx − 2gᵀx + c form, used
// for the cached separator factor at each clique boundary (spec §3). It
// pairs a linalg.HessianMarginal with the ordered keys its rows/columns
// correspond to.
type HessianFactor struct {
	keys []values.Key
	marg *linalg.HessianMarginal
}

// NewHessianFactor pairs keys (in column order) with marg.
func NewHessianFactor(keys []values.Key, marg *linalg.HessianMarginal) *HessianFactor {
	keysCopy := make([]values.Key, len(keys))
	copy(keysCopy, keys)

	return &HessianFactor{keys: keysCopy, marg: marg}
}

// Keys returns the ordered keys this Hessian's G/g are indexed by.
func (h *HessianFactor) Keys() []values.Key { return h.keys }

// Marginal returns the underlying quadratic form.
func (h *HessianFactor) Marginal() *linalg.HessianMarginal { return h.marg }

// AsJacobianFactor converts this cached marginal back into an equivalent
// JacobianFactor over its keys, suitable for stacking into a
// JacobianFactorGraph ahead of re-elimination (spec §4.5 step 7). keyDims
// gives each key's tangent dimension (used to slice the pseudo-Jacobian's
// columns back into per-key blocks).
func (h *HessianFactor) AsJacobianFactor(keyDims map[values.Key]int) (*JacobianFactor, error) {
	a, b, err := linalg.HessianToJacobian(h.marg)
	if err != nil {
		return nil, err
	}

	blocks := make(map[values.Key]*linalg.Dense, len(h.keys))
	offset := 0
	for _, k := range h.keys {
		dim := keyDims[k]
		blk, err := a.Block(0, offset, a.Rows(), dim)
		if err != nil {
			return nil, err
		}
		blocks[k] = blk
		offset += dim
	}

	return NewJacobianFactor(h.keys, blocks, b)
}
