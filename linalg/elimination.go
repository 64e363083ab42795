// elimination.go implements the two factorization modes of the Linear
// Algebra Kernel (spec C2): Cholesky (default) forms the information matrix
// and factors it in place, failing with ErrIndefiniteSystem on a
// non-positive pivot; QR runs Householder QR directly on the stacked
// Jacobian, avoiding the squared condition number. Both paths are expressed
// as gonum.org/v1/gonum/mat calls (see doc.go) behind one shared block
// extraction so higher layers (gaussfactor, bayestree) never branch on
// factorization mode themselves.
package linalg

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Factorization selects the elimination kernel used at engine construction.
type Factorization int

const (
	// CholeskyFactorization forms J = [A|b]^T[A|b], factors its A^T A block
	// and recovers d from the b column by forward substitution.
	CholeskyFactorization Factorization = iota
	// QRFactorization runs Householder QR on [A|b] directly.
	QRFactorization
)

// String renders the Factorization for logging.
func (f Factorization) String() string {
	switch f {
	case CholeskyFactorization:
		return "Cholesky"
	case QRFactorization:
		return "QR"
	default:
		return "Unknown"
	}
}

// HessianMarginal is the Schur-complement marginal on a clique's separator,
// cached at the clique boundary: xᵀGx - 2gᵀx + c.
type HessianMarginal struct {
	G *Dense    // separatorDim x separatorDim, symmetric
	G1 []float64 // g, length separatorDim
	C  float64   // constant term (squared residual-to-go)
}

// EliminationResult is the tuple produced by eliminating a frontal block out
// of a stacked [A_F | A_S | b] system: the per-frontal conditional
// [R_FF R_FS | d_F] plus the Schur-complement marginal on the separator.
type EliminationResult struct {
	RFF   *Dense           // frontalDim x frontalDim, upper triangular
	RFS   *Dense           // frontalDim x separatorDim, nil if separatorDim == 0
	D     []float64        // length frontalDim
	Sigma []float64        // length frontalDim, per-frontal noise scaling
	Separator *HessianMarginal // nil if separatorDim == 0 (root clique)
}

// Eliminate factors the augmented system [A | b] (A is m x (frontalDim+
// separatorDim), columns ordered frontal-then-separator) using the
// requested Factorization, producing the frontal conditional and the
// separator marginal. Columns are eliminated in the order given; column
// permutation is the caller's responsibility (row permutation inside a
// single factorization is allowed and is gonum's own concern).
func Eliminate(mode Factorization, frontalDim, separatorDim int, A *Dense, b []float64) (*EliminationResult, error) {
	n := frontalDim + separatorDim
	if frontalDim <= 0 {
		return nil, fmt.Errorf("linalg.Eliminate: %w", ErrInvalidDimensions)
	}
	if A.Cols() != n {
		return nil, fmt.Errorf("linalg.Eliminate: A has %d cols, want %d: %w", A.Cols(), n, ErrDimensionMismatch)
	}
	m := A.Rows()
	if len(b) != m {
		return nil, fmt.Errorf("linalg.Eliminate: b has %d rows, want %d: %w", len(b), m, ErrDimensionMismatch)
	}

	// Build the augmented [A | b], shape m x (n+1).
	ab := mat.NewDense(m, n+1, nil)
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			ab.Set(i, j, A.raw.At(i, j))
		}
		ab.Set(i, n, b[i])
	}

	r, err := factorToR(mode, ab, n)
	if err != nil {
		return nil, err
	}

	return blocksFromR(r, frontalDim, separatorDim), nil
}

// factorToR runs the requested factorization on ab (m x (n+1)) and returns
// the (n+1) x (n+1) upper-triangular R such that, up to orthogonal/
// congruence transforms that do not change the least-squares solution,
// ab = Q R.
func factorToR(mode Factorization, ab *mat.Dense, n int) (*mat.Dense, error) {
	switch mode {
	case CholeskyFactorization:
		var info mat.SymDense
		info.SymOuterK(1, ab.T())
		// Only the leading n x n block (AᵀA) is factored: the trailing pivot
		// of the augmented matrix is the residual norm, zero whenever the
		// local system is consistent, and is not a variable pivot.
		var chol mat.Cholesky
		if ok := chol.Factorize(info.SliceSym(0, n)); !ok {
			return nil, ErrIndefiniteSystem
		}
		var u mat.TriDense
		chol.UTo(&u)
		r := mat.NewDense(n+1, n+1, nil)
		r.Slice(0, n, 0, n).(*mat.Dense).Copy(&u)
		// Column n holds d, solving Rᵀd = Aᵀb by forward substitution.
		for i := 0; i < n; i++ {
			sum := info.At(i, n)
			for j := 0; j < i; j++ {
				sum -= r.At(j, i) * r.At(j, n)
			}
			r.Set(i, n, sum/r.At(i, i))
		}
		if err := checkPositivePivots(r, n); err != nil {
			return nil, err
		}

		return r, nil
	case QRFactorization:
		var qr mat.QR
		qr.Factorize(ab)
		var rFull mat.Dense
		qr.RTo(&rFull)
		rows, _ := rFull.Dims()
		top := n + 1
		if rows < top {
			top = rows
		}
		r := mat.NewDense(n+1, n+1, nil)
		for i := 0; i < top; i++ {
			for j := 0; j < n+1; j++ {
				r.Set(i, j, rFull.At(i, j))
			}
		}

		return r, nil
	default:
		return nil, fmt.Errorf("linalg.factorToR: unknown factorization mode %d", mode)
	}
}

// checkPositivePivots enforces the spec's "pivot <= 0 -> IndefiniteSystem"
// rule explicitly on the Cholesky path's diagonal (gonum's Factorize already
// refuses non-PD input, but a near-singular augmented column — e.g. a
// factor graph slice with no information on a variable — can still produce
// a numerically non-positive diagonal entry that slips through).
func checkPositivePivots(r *mat.Dense, n int) error {
	for i := 0; i < n; i++ {
		if r.At(i, i) <= 0 {
			return ErrIndefiniteSystem
		}
	}

	return nil
}

// blocksFromR partitions R into the frontal conditional and separator
// marginal shared by both factorization modes.
func blocksFromR(r *mat.Dense, frontalDim, separatorDim int) *EliminationResult {
	rff := mat.NewDense(frontalDim, frontalDim, nil)
	for i := 0; i < frontalDim; i++ {
		for j := 0; j < frontalDim; j++ {
			rff.Set(i, j, r.At(i, j))
		}
	}
	dF := make([]float64, frontalDim)
	n := frontalDim + separatorDim
	for i := 0; i < frontalDim; i++ {
		dF[i] = r.At(i, n)
	}
	sigma := make([]float64, frontalDim)
	for i := range sigma {
		sigma[i] = 1.0 // post-whitening unit noise
	}

	res := &EliminationResult{
		RFF:   &Dense{raw: rff},
		D:     dF,
		Sigma: sigma,
	}

	if separatorDim == 0 {
		return res
	}

	rfs := mat.NewDense(frontalDim, separatorDim, nil)
	for i := 0; i < frontalDim; i++ {
		for j := 0; j < separatorDim; j++ {
			rfs.Set(i, j, r.At(i, frontalDim+j))
		}
	}
	res.RFS = &Dense{raw: rfs}

	rss := mat.NewDense(separatorDim, separatorDim, nil)
	for i := 0; i < separatorDim; i++ {
		for j := 0; j < separatorDim; j++ {
			rss.Set(i, j, r.At(frontalDim+i, frontalDim+j))
		}
	}
	dS := make([]float64, separatorDim)
	for i := 0; i < separatorDim; i++ {
		dS[i] = r.At(frontalDim+i, n)
	}

	var g mat.Dense
	g.Mul(rss.T(), rss)
	gvec := make([]float64, separatorDim)
	var gv mat.VecDense
	gv.MulVec(rss.T(), mat.NewVecDense(separatorDim, dS))
	for i := 0; i < separatorDim; i++ {
		gvec[i] = gv.AtVec(i)
	}
	c := 0.0
	for i := 0; i < separatorDim; i++ {
		c += dS[i] * dS[i]
	}

	res.Separator = &HessianMarginal{G: &Dense{raw: &g}, G1: gvec, C: c}

	return res
}
