package gaussfactor

import (
	"fmt"

	"github.com/katalvlaran/isam/linalg"
	"github.com/katalvlaran/isam/values"
)

// JacobianFactorGraph is an ordered collection of JacobianFactors sharing a
// common variable ordering, ready to be stacked into one dense system for
// elimination.
type JacobianFactorGraph struct {
	Factors []*JacobianFactor
}

// Stack builds the combined block system A, b for this graph over
// orderedKeys (columns, in the given order, each key occupying keyDims[key]
// contiguous columns). Factors are stacked row-wise in Factors order; a
// factor's blocks are placed at the columns of the keys it touches and left
// zero elsewhere.
func (g *JacobianFactorGraph) Stack(orderedKeys []values.Key, keyDims map[values.Key]int) (*linalg.Dense, []float64, error) {
	colOffset := make(map[values.Key]int, len(orderedKeys))
	totalCols := 0
	for _, k := range orderedKeys {
		dim, ok := keyDims[k]
		if !ok {
			return nil, nil, fmt.Errorf("gaussfactor.Stack: key %s missing dimension: %w", k, ErrInconsistentDims)
		}
		colOffset[k] = totalCols
		totalCols += dim
	}

	totalRows := 0
	for _, f := range g.Factors {
		totalRows += f.Dim()
	}
	if totalRows == 0 || totalCols == 0 {
		return nil, nil, fmt.Errorf("gaussfactor.Stack: empty system: %w", ErrInconsistentDims)
	}

	a, err := linalg.NewDense(totalRows, totalCols)
	if err != nil {
		return nil, nil, fmt.Errorf("gaussfactor.Stack: %w", err)
	}
	b := make([]float64, totalRows)

	rowOffset := 0
	for _, f := range g.Factors {
		for _, k := range f.Keys() {
			off, ok := colOffset[k]
			if !ok {
				return nil, nil, fmt.Errorf("gaussfactor.Stack: factor touches key %s outside ordering: %w", k, ErrInconsistentDims)
			}
			blk := f.Block(k)
			if blk.Cols() != keyDims[k] {
				return nil, nil, fmt.Errorf("gaussfactor.Stack: key %s block width %d, ordering says %d: %w", k, blk.Cols(), keyDims[k], ErrInconsistentDims)
			}
			for r := 0; r < blk.Rows(); r++ {
				for c := 0; c < blk.Cols(); c++ {
					v, _ := blk.At(r, c)
					if v == 0 {
						continue
					}
					if err := a.Set(rowOffset+r, off+c, v); err != nil {
						return nil, nil, fmt.Errorf("gaussfactor.Stack: %w", err)
					}
				}
			}
		}
		fb := f.B()
		copy(b[rowOffset:rowOffset+f.Dim()], fb)
		rowOffset += f.Dim()
	}

	return a, b, nil
}
