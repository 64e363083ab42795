package gaussfactor

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/isam/linalg"
	"github.com/katalvlaran/isam/values"
)

// ErrInconsistentDims indicates a linearized factor's block width disagrees
// with a variable's dim (spec §7, fatal and surfaced; caller sees the tree
// left consistent).
var ErrInconsistentDims = errors.New("gaussfactor: inconsistent variable dimension")

// Factor is a nonlinear residual over an ordered tuple of Keys. Factors are
// immutable once inserted into a FactorCache. Concrete factor types (priors,
// odometry, bearing-range, ...) are the engine's external collaborators; see
// package slam2d for a worked 2-D SLAM example.
type Factor interface {
	// Keys returns this factor's argument variables, in a fixed order.
	Keys() []values.Key

	// Dim returns the residual dimension of this factor.
	Dim() int

	// Linearize returns the Gaussian (Jacobian) approximation of this factor
	// at est. It must fail with ErrInconsistentDims if a block's width does
	// not match the corresponding variable's Value.Dim().
	Linearize(est *values.Estimate) (*JacobianFactor, error)

	// Error returns the nonnegative whitened squared error of this factor at
	// est (‖whiten(residual)‖²).
	Error(est *values.Estimate) (float64, error)
}

// JacobianFactor is a linear (Gaussian) factor: ‖A·x − b‖² represented as
// per-key blocks of a block matrix [A_1 ... A_k | b], already whitened by
// the originating factor's NoiseModel.
type JacobianFactor struct {
	keys   []values.Key
	blocks map[values.Key]*linalg.Dense
	b      []float64
}

// NewJacobianFactor validates and constructs a JacobianFactor. All blocks
// must share the same row count (the factor's residual dimension), which
// must equal len(b).
func NewJacobianFactor(keys []values.Key, blocks map[values.Key]*linalg.Dense, b []float64) (*JacobianFactor, error) {
	dim := len(b)
	for _, k := range keys {
		blk, ok := blocks[k]
		if !ok {
			return nil, fmt.Errorf("gaussfactor.NewJacobianFactor: missing block for key %s: %w", k, ErrInconsistentDims)
		}
		if blk.Rows() != dim {
			return nil, fmt.Errorf("gaussfactor.NewJacobianFactor: key %s block has %d rows, want %d: %w", k, blk.Rows(), dim, ErrInconsistentDims)
		}
	}
	keysCopy := make([]values.Key, len(keys))
	copy(keysCopy, keys)
	bCopy := make([]float64, len(b))
	copy(bCopy, b)

	return &JacobianFactor{keys: keysCopy, blocks: blocks, b: bCopy}, nil
}

// Keys returns this factor's argument variables, in fixed order.
func (f *JacobianFactor) Keys() []values.Key { return f.keys }

// Dim returns the residual dimension.
func (f *JacobianFactor) Dim() int { return len(f.b) }

// Block returns the column block for key, or nil if this factor does not
// touch it.
func (f *JacobianFactor) Block(key values.Key) *linalg.Dense { return f.blocks[key] }

// B returns the right-hand side residual vector (defensive copy).
func (f *JacobianFactor) B() []float64 {
	out := make([]float64, len(f.b))
	copy(out, f.b)

	return out
}

// KeyDim returns the column width of key's block (the variable's tangent
// dimension as seen by this factor), or 0 if absent.
func (f *JacobianFactor) KeyDim(key values.Key) int {
	if blk, ok := f.blocks[key]; ok {
		return blk.Cols()
	}

	return 0
}
