package slam2d

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/isam/gaussfactor"
	"github.com/katalvlaran/isam/values"
)

func mustNoise(t *testing.T, sigmas ...float64) *gaussfactor.NoiseModel {
	t.Helper()
	n, err := gaussfactor.NewDiagonalNoise(sigmas)
	require.NoError(t, err)

	return n
}

func TestPose2RetractLocalCoordinatesRoundTrip(t *testing.T) {
	p := Pose2{X: 1, Y: 2, Theta: 0.3}
	delta := []float64{0.1, -0.2, 0.05}
	q := p.Retract(delta).(Pose2)

	back := p.LocalCoordinates(q)
	assert.InDelta(t, delta[0], back[0], 1e-9)
	assert.InDelta(t, delta[1], back[1], 1e-9)
	assert.InDelta(t, delta[2], back[2], 1e-9)
}

func TestBetweenPose2IdentityComposition(t *testing.T) {
	a := Pose2{X: 1, Y: 1, Theta: math.Pi / 4}
	b := betweenPose2(a, a)
	assert.InDelta(t, 0, b.X, 1e-9)
	assert.InDelta(t, 0, b.Y, 1e-9)
	assert.InDelta(t, 0, b.Theta, 1e-9)
}

func TestPoint2RetractLocalCoordinates(t *testing.T) {
	p := Point2{X: 1, Y: 2}
	q := p.Retract([]float64{0.5, -0.5}).(Point2)
	assert.Equal(t, 1.5, q.X)
	assert.Equal(t, 1.5, q.Y)

	back := p.LocalCoordinates(q)
	assert.InDelta(t, 0.5, back[0], 1e-9)
	assert.InDelta(t, -0.5, back[1], 1e-9)
}

func TestPriorFactorErrorZeroAtPrior(t *testing.T) {
	k := values.Symbol('x', 0)
	prior := Pose2{X: 0, Y: 0, Theta: 0}
	noise := mustNoise(t, 0.1, 0.1, 0.05)
	f, err := NewPriorFactor(k, prior, noise)
	require.NoError(t, err)

	est := values.NewEstimate()
	require.NoError(t, est.Insert(k, prior))
	e, err := f.Error(est)
	require.NoError(t, err)
	assert.InDelta(t, 0, e, 1e-12)

	est2 := values.NewEstimate()
	require.NoError(t, est2.Insert(k, Pose2{X: 0.1, Y: 0, Theta: 0}))
	e2, err := f.Error(est2)
	require.NoError(t, err)
	assert.Greater(t, e2, 0.0)
}

func TestPriorFactorLinearizeShape(t *testing.T) {
	k := values.Symbol('x', 0)
	prior := Pose2{X: 0, Y: 0, Theta: 0}
	noise := mustNoise(t, 0.1, 0.1, 0.05)
	f, err := NewPriorFactor(k, prior, noise)
	require.NoError(t, err)

	est := values.NewEstimate()
	require.NoError(t, est.Insert(k, Pose2{X: 0.01, Y: -0.02, Theta: 0.01}))

	jf, err := f.Linearize(est)
	require.NoError(t, err)
	assert.Equal(t, 3, jf.Dim())
	blk := jf.Block(k)
	require.NotNil(t, blk)
	assert.Equal(t, 3, blk.Rows())
	assert.Equal(t, 3, blk.Cols())

	// Jacobian of an additive-parameterization prior residual w.r.t. its own
	// key is (approximately) I/sigma: perturbing x by +eps moves the
	// residual by +eps, so d(residual)/d(x) = +I, and whitened by 1/sigma.
	v00, err := blk.At(0, 0)
	require.NoError(t, err)
	assert.InDelta(t, 1.0/0.1, v00, 1e-4)
}

func TestOdometryFactorZeroAtMeasurement(t *testing.T) {
	kFrom := values.Symbol('x', 0)
	kTo := values.Symbol('x', 1)
	measured := Pose2{X: 1, Y: 0, Theta: 0}
	noise := mustNoise(t, 0.1, 0.1, 0.05)
	f, err := NewOdometryFactor(kFrom, kTo, measured, noise)
	require.NoError(t, err)

	est := values.NewEstimate()
	require.NoError(t, est.Insert(kFrom, Pose2{X: 0, Y: 0, Theta: 0}))
	require.NoError(t, est.Insert(kTo, Pose2{X: 1, Y: 0, Theta: 0}))

	e, err := f.Error(est)
	require.NoError(t, err)
	assert.InDelta(t, 0, e, 1e-12)
}

func TestOdometryFactorLinearizeBothBlocksPresent(t *testing.T) {
	kFrom := values.Symbol('x', 0)
	kTo := values.Symbol('x', 1)
	measured := Pose2{X: 1, Y: 0, Theta: 0}
	noise := mustNoise(t, 0.1, 0.1, 0.05)
	f, err := NewOdometryFactor(kFrom, kTo, measured, noise)
	require.NoError(t, err)

	est := values.NewEstimate()
	require.NoError(t, est.Insert(kFrom, Pose2{X: 0, Y: 0, Theta: 0}))
	require.NoError(t, est.Insert(kTo, Pose2{X: 1.01, Y: 0, Theta: 0}))

	jf, err := f.Linearize(est)
	require.NoError(t, err)
	assert.NotNil(t, jf.Block(kFrom))
	assert.NotNil(t, jf.Block(kTo))
}

func TestBearingRangeFactorZeroAtMeasurement(t *testing.T) {
	poseKey := values.Symbol('x', 0)
	pointKey := values.Symbol('L', 100)
	noise := mustNoise(t, math.Pi/100, 0.1)

	pose := Pose2{X: 0, Y: 0, Theta: 0}
	point := Point2{X: 5, Y: 5}
	bearing := wrapAngle(math.Atan2(5, 5) - pose.Theta)
	rng := math.Hypot(5, 5)

	f, err := NewBearingRangeFactor(poseKey, pointKey, bearing, rng, noise)
	require.NoError(t, err)

	est := values.NewEstimate()
	require.NoError(t, est.Insert(poseKey, pose))
	require.NoError(t, est.Insert(pointKey, point))

	e, err := f.Error(est)
	require.NoError(t, err)
	assert.InDelta(t, 0, e, 1e-9)
}

func TestNewFactorRejectsNoiseDimensionMismatch(t *testing.T) {
	noise1 := mustNoise(t, 0.1)
	_, err := NewPriorFactor(values.Symbol('x', 0), Pose2{}, noise1)
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = NewBearingRangeFactor(values.Symbol('x', 0), values.Symbol('L', 0), 0, 1, noise1)
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	noise2 := mustNoise(t, 0.1, 0.1)
	_, err = NewBearingRangeFactor(values.Symbol('x', 0), values.Symbol('L', 0), 0, 1, noise2)
	assert.NoError(t, err)
}
