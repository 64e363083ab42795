package linalg

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Dense is a row-major matrix of float64 values, the concrete Matrix this
// package works with. It wraps a *mat.Dense rather than a hand-rolled flat
// slice (contrast the teacher's matrix/dense.go, which hand-rolls its own
// backing store) so that the heavy factorizations in elimination.go can
// call straight into gonum without a copy.
type Dense struct {
	raw *mat.Dense
}

// denseErrorf wraps an underlying error with Dense method context, matching
// the teacher's matrix/dense.go denseErrorf helper.
func denseErrorf(method string, row, col int, err error) error {
	return fmt.Errorf("Dense.%s(%d,%d): %w", method, row, col, err)
}

// NewDense creates an r x c Dense matrix initialized to zeros.
func NewDense(rows, cols int) (*Dense, error) {
	if rows <= 0 || cols <= 0 {
		return nil, ErrInvalidDimensions
	}

	return &Dense{raw: mat.NewDense(rows, cols, nil)}, nil
}

// WrapGonum adapts an existing *mat.Dense without copying.
func WrapGonum(raw *mat.Dense) *Dense { return &Dense{raw: raw} }

// Raw exposes the underlying *mat.Dense for packages that need to call
// gonum routines directly (elimination.go, stepper's dogleg gradient math).
func (m *Dense) Raw() *mat.Dense { return m.raw }

// Rows returns the number of rows.
func (m *Dense) Rows() int { return m.raw.RawMatrix().Rows }

// Cols returns the number of columns.
func (m *Dense) Cols() int { return m.raw.RawMatrix().Cols }

// At retrieves the element at (row, col).
func (m *Dense) At(row, col int) (float64, error) {
	if row < 0 || row >= m.Rows() || col < 0 || col >= m.Cols() {
		return 0, denseErrorf("At", row, col, ErrOutOfRange)
	}

	return m.raw.At(row, col), nil
}

// Set assigns value v at (row, col).
func (m *Dense) Set(row, col int, v float64) error {
	if row < 0 || row >= m.Rows() || col < 0 || col >= m.Cols() {
		return denseErrorf("Set", row, col, ErrOutOfRange)
	}
	m.raw.Set(row, col, v)

	return nil
}

// Clone returns a deep copy.
func (m *Dense) Clone() Matrix {
	cloned := mat.NewDense(m.Rows(), m.Cols(), nil)
	cloned.Copy(m.raw)

	return &Dense{raw: cloned}
}

// String implements fmt.Stringer for debugging, matching the teacher's
// bracketed-row rendering in matrix/dense.go.
func (m *Dense) String() string {
	s := ""
	r, c := m.Rows(), m.Cols()
	for i := 0; i < r; i++ {
		s += "["
		for j := 0; j < c; j++ {
			s += fmt.Sprintf("%g", m.raw.At(i, j))
			if j < c-1 {
				s += ", "
			}
		}
		s += "]\n"
	}

	return s
}

// Block extracts the sub-matrix [rowStart:rowStart+rows, colStart:colStart+cols].
func (m *Dense) Block(rowStart, colStart, rows, cols int) (*Dense, error) {
	if rowStart < 0 || colStart < 0 || rows <= 0 || cols <= 0 ||
		rowStart+rows > m.Rows() || colStart+cols > m.Cols() {
		return nil, fmt.Errorf("Dense.Block(%d,%d,%d,%d): %w", rowStart, colStart, rows, cols, ErrOutOfRange)
	}
	var sub mat.Dense
	sub.CloneFrom(m.raw.Slice(rowStart, rowStart+rows, colStart, colStart+cols))

	return &Dense{raw: &sub}, nil
}
