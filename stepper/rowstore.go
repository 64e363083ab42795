package stepper

import "github.com/katalvlaran/isam/ordering"

// RowStore is the narrow capability the stepper needs from a per-variable
// running delta: read/write a variable-dimensioned row addressed by a
// current elimination-order Index. *ordering.PermutedView satisfies this
// directly.
type RowStore interface {
	At(idx ordering.Index) []float64
	Set(idx ordering.Index, row []float64)
}

// mapRowStore is a minimal RowStore over a plain slice of rows, used for
// ephemeral vectors (the gradient-at-zero, a trial blended step) that do not
// need the engine's permuted-view bookkeeping.
type mapRowStore struct {
	rows [][]float64
}

// NewRowStore returns an ephemeral RowStore with one zero row per entry of
// dims, indexed 0..len(dims)-1.
func NewRowStore(dims []int) RowStore {
	rows := make([][]float64, len(dims))
	for i, d := range dims {
		rows[i] = make([]float64, d)
	}

	return &mapRowStore{rows: rows}
}

func (m *mapRowStore) At(idx ordering.Index) []float64 { return m.rows[idx] }

func (m *mapRowStore) Set(idx ordering.Index, row []float64) { m.rows[idx] = row }

// DimsFrom reads the row length at every index in [0, n) from store, for
// constructing a fresh ephemeral RowStore with matching per-variable
// dimensions.
func DimsFrom(store RowStore, n int) []int {
	dims := make([]int, n)
	for i := 0; i < n; i++ {
		dims[i] = len(store.At(ordering.Index(i)))
	}

	return dims
}

// gatherRows concatenates the rows at indices, in order.
func gatherRows(store RowStore, indices []ordering.Index) []float64 {
	var out []float64
	for _, idx := range indices {
		out = append(out, store.At(idx)...)
	}

	return out
}

// scatterRows splits flat across indices, using each index's existing row
// length in store as that variable's dimension, and writes the pieces back.
func scatterRows(store RowStore, indices []ordering.Index, flat []float64) {
	offset := 0
	for _, idx := range indices {
		dim := len(store.At(idx))
		row := make([]float64, dim)
		copy(row, flat[offset:offset+dim])
		store.Set(idx, row)
		offset += dim
	}
}

// Flatten concatenates the rows at indices 0..n-1 into one vector.
func Flatten(store RowStore, n int) []float64 {
	var out []float64
	for i := 0; i < n; i++ {
		out = append(out, store.At(ordering.Index(i))...)
	}

	return out
}

// Unflatten splits flat back across indices 0..n-1, using each index's
// existing row length in store as its dimension.
func Unflatten(store RowStore, n int, flat []float64) {
	offset := 0
	for i := 0; i < n; i++ {
		idx := ordering.Index(i)
		dim := len(store.At(idx))
		row := make([]float64, dim)
		copy(row, flat[offset:offset+dim])
		store.Set(idx, row)
		offset += dim
	}
}
