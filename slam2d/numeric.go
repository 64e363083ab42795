package slam2d

import (
	"github.com/katalvlaran/isam/gaussfactor"
	"github.com/katalvlaran/isam/linalg"
	"github.com/katalvlaran/isam/values"
)

// numericStep is the central-difference step size used to differentiate
// every factor's residual through each key's Retract. Small enough for the
// roughly unit-scale quantities (meters, radians) this package's factors
// work with, large enough to stay well clear of float64 cancellation.
const numericStep = 1e-6

// residualFunc computes a factor's whitened-free residual given the current
// Value for each of its keys, in Keys() order.
type residualFunc func(vals []values.Value) []float64

// linearizeNumeric builds a JacobianFactor for a factor with the given keys
// by central-differencing residual through each key's Retract at est, then
// whitening rows with noise. Grounded on the spec's "engine never
// interprets Value contents beyond {dim, retract, localCoordinates}"
// invariant (§3): differentiation never needs the concrete Value type,
// only those three capabilities, so one helper serves every factor below.
func linearizeNumeric(keys []values.Key, est *values.Estimate, noise *gaussfactor.NoiseModel, residual residualFunc) (*gaussfactor.JacobianFactor, error) {
	vals := make([]values.Value, len(keys))
	for i, k := range keys {
		v, err := est.At(k)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}

	r0 := residual(vals)
	dim := len(r0)

	blocks := make(map[values.Key]*linalg.Dense, len(keys))
	for i, k := range keys {
		d := vals[i].Dim()
		blk, err := linalg.NewDense(dim, d)
		if err != nil {
			return nil, err
		}
		for j := 0; j < d; j++ {
			plus := make([]float64, d)
			minus := make([]float64, d)
			plus[j] = numericStep
			minus[j] = -numericStep

			permuted := append([]values.Value(nil), vals...)
			permuted[i] = vals[i].Retract(plus)
			rPlus := residual(permuted)

			permuted[i] = vals[i].Retract(minus)
			rMinus := residual(permuted)

			for r := 0; r < dim; r++ {
				if err := blk.Set(r, j, (rPlus[r]-rMinus[r])/(2*numericStep)); err != nil {
					return nil, err
				}
			}
		}
		blocks[k] = blk
	}

	b := make([]float64, dim)
	for i := range b {
		b[i] = -r0[i]
	}

	// Whiten every row of every block plus b by the noise model's per-row
	// sigma (spec §4.2's "already whitened by the originating factor's
	// NoiseModel" requirement on JacobianFactor). b[i] is scaled exactly
	// once; each key's block row is scaled independently by the same
	// factor since WhitenRow only knows about one contiguous row at a time.
	for i := 0; i < dim; i++ {
		inv := 1.0 / noise.Sigmas[i]
		b[i] *= inv
		for _, k := range keys {
			blk := blocks[k]
			cols := blk.Cols()
			for c := 0; c < cols; c++ {
				v, _ := blk.At(i, c)
				_ = blk.Set(i, c, v*inv)
			}
		}
	}

	return gaussfactor.NewJacobianFactor(keys, blocks, b)
}

// whitenedError returns noise's whitened squared error for residual r.
func whitenedError(noise *gaussfactor.NoiseModel, r []float64) float64 {
	total := 0.0
	for i, v := range r {
		w := v / noise.Sigmas[i]
		total += w * w
	}

	return total
}
