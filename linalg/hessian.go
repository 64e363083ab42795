package linalg

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// HessianToJacobian returns a (possibly non-unique) square-root Jacobian
// factor A, b such that ||A x - b||^2 == x^T G x - 2 g^T x + const for any
// x, where G/g come from h. This lets a cached separator HessianMarginal be
// folded back into a stacked Jacobian system ahead of re-elimination (spec
// §4.5 step 7: "Add the cached separator factors of the children... before
// running variable elimination"), so Eliminate only ever has to know about
// one representation.
//
// A is produced via Cholesky of G (A^T A = G); b solves the lower-triangular
// system A^T b = g by forward substitution. The constant term dropped here
// never affects the resulting linear system, only error-accounting, which
// callers can reconstruct from h.C directly.
func HessianToJacobian(h *HessianMarginal) (*Dense, []float64, error) {
	n := h.G.Rows()
	if h.G.Cols() != n {
		return nil, nil, fmt.Errorf("linalg.HessianToJacobian: G not square: %w", ErrDimensionMismatch)
	}
	if len(h.G1) != n {
		return nil, nil, fmt.Errorf("linalg.HessianToJacobian: g length %d, want %d: %w", len(h.G1), n, ErrDimensionMismatch)
	}

	gSym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v, _ := h.G.At(i, j)
			gSym.SetSym(i, j, v)
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(gSym); !ok {
		return nil, nil, ErrIndefiniteSystem
	}
	var u mat.TriDense
	chol.UTo(&u)
	a := mat.NewDense(n, n, nil)
	a.Copy(&u)

	// Forward-substitute A^T b = g: A^T is lower triangular.
	b := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := h.G1[i]
		for j := 0; j < i; j++ {
			sum -= a.At(j, i) * b[j]
		}
		pivot := a.At(i, i)
		if pivot == 0 {
			return nil, nil, ErrIndefiniteSystem
		}
		b[i] = sum / pivot
	}

	return &Dense{raw: a}, b, nil
}
