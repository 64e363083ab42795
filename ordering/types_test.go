package ordering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/isam/values"
)

func TestOrderingInsertAndLookup(t *testing.T) {
	o := NewOrdering()

	idx0, err := o.Insert(values.Symbol('x', 0))
	require.NoError(t, err)
	assert.Equal(t, Index(0), idx0)

	idx1, err := o.Insert(values.Symbol('x', 1))
	require.NoError(t, err)
	assert.Equal(t, Index(1), idx1)

	got, err := o.At(values.Symbol('x', 0))
	require.NoError(t, err)
	assert.Equal(t, idx0, got)

	key, err := o.KeyOf(idx1)
	require.NoError(t, err)
	assert.Equal(t, values.Symbol('x', 1), key)

	assert.Equal(t, 2, o.Len())
	assert.True(t, o.Has(values.Symbol('x', 0)))
	assert.False(t, o.Has(values.Symbol('x', 99)))
}

func TestOrderingDuplicateKeyFails(t *testing.T) {
	o := NewOrdering()
	_, err := o.Insert(values.Symbol('x', 0))
	require.NoError(t, err)

	_, err = o.Insert(values.Symbol('x', 0))
	assert.ErrorIs(t, err, ErrDuplicateKey)
}

func TestOrderingUnknownKeyFails(t *testing.T) {
	o := NewOrdering()
	_, err := o.At(values.Symbol('x', 0))
	assert.ErrorIs(t, err, ErrUnknownKey)

	_, err = o.KeyOf(5)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestPermutationApplyAndInvert(t *testing.T) {
	perm := Permutation{2, 0, 1}
	assert.Equal(t, Index(2), perm.Apply(0))
	assert.Equal(t, Index(0), perm.Apply(1))
	assert.Equal(t, Index(1), perm.Apply(2))
	// extension: identity beyond len(perm)
	assert.Equal(t, Index(5), perm.Apply(5))

	inv := perm.Invert()
	for i := 0; i < len(perm); i++ {
		assert.Equal(t, Index(i), inv.Apply(perm.Apply(Index(i))))
	}
}

func TestOrderingPermuteInPlaceReadsByOldIndex(t *testing.T) {
	o := NewOrdering()
	keys := []values.Key{values.Symbol('x', 0), values.Symbol('x', 1), values.Symbol('x', 2)}
	for _, k := range keys {
		_, err := o.Insert(k)
		require.NoError(t, err)
	}

	// new position i reads old position perm[i].
	perm := Permutation{2, 0, 1}
	require.NoError(t, o.PermuteInPlace(perm))

	for i, oldIdx := range perm {
		k, err := o.KeyOf(Index(i))
		require.NoError(t, err)
		assert.Equal(t, keys[oldIdx], k)
	}
}

func TestOrderingPermuteRoundTrip(t *testing.T) {
	o := NewOrdering()
	keys := []values.Key{values.Symbol('x', 0), values.Symbol('x', 1), values.Symbol('x', 2), values.Symbol('L', 100)}
	for _, k := range keys {
		_, err := o.Insert(k)
		require.NoError(t, err)
	}

	perm := Permutation{3, 1, 0, 2}
	require.NoError(t, o.PermuteInPlace(perm))
	require.NoError(t, o.PermuteInPlace(perm.Invert()))

	for i, k := range keys {
		got, err := o.KeyOf(Index(i))
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
}

func TestOrderingCloneIsolated(t *testing.T) {
	o := NewOrdering()
	_, err := o.Insert(values.Symbol('x', 0))
	require.NoError(t, err)

	clone := o.Clone()
	_, err = o.Insert(values.Symbol('x', 1))
	require.NoError(t, err)

	assert.Equal(t, 2, o.Len())
	assert.Equal(t, 1, clone.Len())
}

func TestPermutedViewExtensionLaw(t *testing.T) {
	o := NewOrdering()
	view := NewPermutedView(o)

	k0 := values.Symbol('x', 0)
	_, err := o.Insert(k0)
	require.NoError(t, err)
	view.Append(make([]float64, 3))

	k1 := values.Symbol('x', 1)
	_, err = o.Insert(k1)
	require.NoError(t, err)
	view.Append([]float64{0, 0})

	assert.Equal(t, 2, view.Len())
	assert.Equal(t, []float64{0, 0, 0}, view.At(0))
	assert.Equal(t, []float64{0, 0}, view.At(1))
}

func TestPermutedViewPermuteInPlace(t *testing.T) {
	o := NewOrdering()
	view := NewPermutedView(o)
	for i := 0; i < 3; i++ {
		_, err := o.Insert(values.Symbol('x', uint64(i)))
		require.NoError(t, err)
		view.Append([]float64{float64(i)})
	}

	perm := Permutation{2, 0, 1}
	require.NoError(t, o.PermuteInPlace(perm))

	assert.Equal(t, []float64{2}, view.At(0))
	assert.Equal(t, []float64{0}, view.At(1))
	assert.Equal(t, []float64{1}, view.At(2))
}

func TestPermutedViewCompactIsNoOp(t *testing.T) {
	o := NewOrdering()
	view := NewPermutedView(o)
	for i := 0; i < 3; i++ {
		_, err := o.Insert(values.Symbol('x', uint64(i)))
		require.NoError(t, err)
		view.Append([]float64{float64(i)})
	}
	perm := Permutation{2, 0, 1}
	require.NoError(t, o.PermuteInPlace(perm))

	before := make([][]float64, 3)
	for i := range before {
		before[i] = append([]float64(nil), view.At(Index(i))...)
	}
	view.Compact()
	for i := range before {
		assert.Equal(t, before[i], view.At(Index(i)))
	}
}
