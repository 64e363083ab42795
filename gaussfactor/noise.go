package gaussfactor

import (
	"errors"
	"fmt"
	"math"
)

// ErrBadNoiseModel indicates a NoiseModel was constructed with a non-positive
// or non-finite sigma. A dimension mismatch against a factor is reported by
// the factor's constructor, not with this error.
var ErrBadNoiseModel = errors.New("gaussfactor: invalid noise model")

// NoiseModel is a diagonal Gaussian noise model: independent sigmas per
// residual row. Robust noise models (the user-supplied outlier-rejection
// mechanism the spec's Non-goals keep in scope for the *caller*, not the
// engine) compose with this by returning a re-scaled NoiseModel from a
// caller-side wrapper; this package only needs the diagonal case.
type NoiseModel struct {
	Sigmas []float64
}

// NewDiagonalNoise validates and returns a diagonal NoiseModel.
func NewDiagonalNoise(sigmas []float64) (*NoiseModel, error) {
	for i, s := range sigmas {
		if s <= 0 || math.IsNaN(s) || math.IsInf(s, 0) {
			return nil, fmt.Errorf("gaussfactor.NewDiagonalNoise: sigma[%d]=%v: %w", i, s, ErrBadNoiseModel)
		}
	}
	cp := make([]float64, len(sigmas))
	copy(cp, sigmas)

	return &NoiseModel{Sigmas: cp}, nil
}

// Dim returns the residual dimension this model whitens.
func (n *NoiseModel) Dim() int { return len(n.Sigmas) }

// WhitenRow scales row i of a Jacobian/residual by 1/sigma_i in place.
func (n *NoiseModel) WhitenRow(i int, row []float64, residual *float64) {
	inv := 1.0 / n.Sigmas[i]
	for j := range row {
		row[j] *= inv
	}
	*residual *= inv
}
