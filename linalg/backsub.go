package linalg

import "fmt"

// BackSubstitute solves R_FF * xF = dF - R_FS * xS for xF, where R_FF is
// upper triangular. xS may be nil/empty when separatorDim == 0. This is the
// per-clique step of the Gauss-Newton back-substitution walked top-down over
// the Bayes tree by the stepper package.
//
// Stage 1 (Validate): shapes agree.
// Stage 2 (Execute): compute the effective right-hand side, then solve the
// triangular system bottom row to top row (classic back substitution).
// Complexity: O(frontalDim^2 + frontalDim*separatorDim).
func BackSubstitute(rff *Dense, rfs *Dense, dF []float64, xS []float64) ([]float64, error) {
	n := rff.Rows()
	if rff.Cols() != n {
		return nil, fmt.Errorf("linalg.BackSubstitute: R_FF not square: %w", ErrDimensionMismatch)
	}
	if len(dF) != n {
		return nil, fmt.Errorf("linalg.BackSubstitute: d_F length %d, want %d: %w", len(dF), n, ErrDimensionMismatch)
	}

	rhs := make([]float64, n)
	copy(rhs, dF)

	if rfs != nil {
		sepDim := rfs.Cols()
		if rfs.Rows() != n {
			return nil, fmt.Errorf("linalg.BackSubstitute: R_FS rows %d, want %d: %w", rfs.Rows(), n, ErrDimensionMismatch)
		}
		if len(xS) != sepDim {
			return nil, fmt.Errorf("linalg.BackSubstitute: x_S length %d, want %d: %w", len(xS), sepDim, ErrDimensionMismatch)
		}
		for i := 0; i < n; i++ {
			sum := 0.0
			for j := 0; j < sepDim; j++ {
				v, _ := rfs.At(i, j)
				sum += v * xS[j]
			}
			rhs[i] -= sum
		}
	}

	xF := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := rhs[i]
		for j := i + 1; j < n; j++ {
			v, _ := rff.At(i, j)
			sum -= v * xF[j]
		}
		pivot, _ := rff.At(i, i)
		if pivot == 0 {
			return nil, fmt.Errorf("linalg.BackSubstitute: zero pivot at row %d: %w", i, ErrIndefiniteSystem)
		}
		xF[i] = sum / pivot
	}

	return xF, nil
}
