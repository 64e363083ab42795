package slam2d

import "errors"

// ErrDimensionMismatch indicates a NoiseModel's Sigma length disagrees with
// the factor's residual dimension.
var ErrDimensionMismatch = errors.New("slam2d: noise dimension mismatch")
