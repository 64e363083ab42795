package linalg

import "errors"

// Sentinel errors for the linalg package. Callers MUST use errors.Is to
// branch on semantics (teacher convention, see matrix/errors.go).
var (
	// ErrIndefiniteSystem is returned when a Cholesky pivot is <= 0; the
	// caller must retry elimination with QR.
	ErrIndefiniteSystem = errors.New("linalg: indefinite system (non-positive pivot)")

	// ErrDimensionMismatch indicates incompatible operand shapes.
	ErrDimensionMismatch = errors.New("linalg: dimension mismatch")

	// ErrInvalidDimensions indicates a requested matrix/vector size was <= 0.
	ErrInvalidDimensions = errors.New("linalg: dimensions must be > 0")

	// ErrOutOfRange indicates an index outside valid bounds.
	ErrOutOfRange = errors.New("linalg: index out of range")
)
