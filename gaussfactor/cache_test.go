package gaussfactor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/isam/linalg"
	"github.com/katalvlaran/isam/values"
)

// stubFactor is a trivial Factor over a single key, residual = x - target.
type stubFactor struct {
	key    values.Key
	target float64
	noise  *NoiseModel
}

func (f *stubFactor) Keys() []values.Key { return []values.Key{f.key} }
func (f *stubFactor) Dim() int           { return 1 }

func (f *stubFactor) Linearize(est *values.Estimate) (*JacobianFactor, error) {
	v, err := est.At(f.key)
	if err != nil {
		return nil, err
	}
	x := v.(stubValue)
	a, err := linalg.NewDense(1, 1)
	if err != nil {
		return nil, err
	}
	if err := a.Set(0, 0, 1.0/f.noise.Sigmas[0]); err != nil {
		return nil, err
	}
	b := (f.target - x.v) / f.noise.Sigmas[0]

	return NewJacobianFactor(f.Keys(), map[values.Key]*linalg.Dense{f.key: a}, []float64{b})
}

func (f *stubFactor) Error(est *values.Estimate) (float64, error) {
	v, err := est.At(f.key)
	if err != nil {
		return 0, err
	}
	x := v.(stubValue)
	r := (x.v - f.target) / f.noise.Sigmas[0]

	return r * r, nil
}

type stubValue struct{ v float64 }

func (s stubValue) Dim() int                                { return 1 }
func (s stubValue) Retract(delta []float64) values.Value    { return stubValue{v: s.v + delta[0]} }
func (s stubValue) LocalCoordinates(o values.Value) []float64 {
	return []float64{o.(stubValue).v - s.v}
}

func TestFactorCacheAddRemove(t *testing.T) {
	c := NewFactorCache()
	noise, err := NewDiagonalNoise([]float64{1})
	require.NoError(t, err)

	k := values.Symbol('x', 0)
	slot := c.Add(&stubFactor{key: k, target: 1, noise: noise})
	assert.True(t, c.Live(slot))
	assert.Equal(t, 1, c.Len())

	touching := c.FactorsTouching([]values.Key{k})
	assert.Contains(t, touching, slot)

	require.NoError(t, c.Remove(slot))
	assert.False(t, c.Live(slot))
	assert.Equal(t, 0, c.Len())
}

func TestFactorCacheRemoveUnknownSlotFails(t *testing.T) {
	c := NewFactorCache()
	err := c.Remove(42)
	assert.ErrorIs(t, err, ErrUnknownSlot)
}

func TestFactorCacheLinearizeAtAndTotalError(t *testing.T) {
	c := NewFactorCache()
	noise, err := NewDiagonalNoise([]float64{1})
	require.NoError(t, err)

	k := values.Symbol('x', 0)
	slot := c.Add(&stubFactor{key: k, target: 5, noise: noise})

	est := values.NewEstimate()
	require.NoError(t, est.Insert(k, stubValue{v: 2}))

	graph, err := c.LinearizeAt(map[Slot]struct{}{slot: {}}, est)
	require.NoError(t, err)
	require.Len(t, graph.Factors, 1)

	total, err := c.TotalError(est)
	require.NoError(t, err)
	assert.InDelta(t, 9.0, total, 1e-9) // (2-5)^2
}

func TestFactorCacheCloneIsolated(t *testing.T) {
	c := NewFactorCache()
	noise, err := NewDiagonalNoise([]float64{1})
	require.NoError(t, err)
	k := values.Symbol('x', 0)
	slot := c.Add(&stubFactor{key: k, target: 1, noise: noise})

	clone := c.Clone()
	require.NoError(t, c.Remove(slot))

	assert.False(t, c.Live(slot))
	assert.True(t, clone.Live(slot))
}

func TestNewDiagonalNoiseRejectsBadSigma(t *testing.T) {
	_, err := NewDiagonalNoise([]float64{0})
	assert.ErrorIs(t, err, ErrBadNoiseModel)

	_, err = NewDiagonalNoise([]float64{-1})
	assert.ErrorIs(t, err, ErrBadNoiseModel)
}

func TestJacobianFactorGraphStack(t *testing.T) {
	k0 := values.Symbol('x', 0)
	k1 := values.Symbol('x', 1)

	a0, err := linalg.NewDense(1, 1)
	require.NoError(t, err)
	require.NoError(t, a0.Set(0, 0, 1))
	f0, err := NewJacobianFactor([]values.Key{k0}, map[values.Key]*linalg.Dense{k0: a0}, []float64{1})
	require.NoError(t, err)

	a1, err := linalg.NewDense(1, 1)
	require.NoError(t, err)
	require.NoError(t, a1.Set(0, 0, 1))
	f1, err := NewJacobianFactor([]values.Key{k1}, map[values.Key]*linalg.Dense{k1: a1}, []float64{2})
	require.NoError(t, err)

	graph := &JacobianFactorGraph{Factors: []*JacobianFactor{f0, f1}}
	a, b, err := graph.Stack([]values.Key{k0, k1}, map[values.Key]int{k0: 1, k1: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, a.Rows())
	assert.Equal(t, 2, a.Cols())
	assert.Equal(t, []float64{1, 2}, b)
}
