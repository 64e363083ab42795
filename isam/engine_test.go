package isam

import (
	"math"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/isam/gaussfactor"
	"github.com/katalvlaran/isam/linalg"
	"github.com/katalvlaran/isam/slam2d"
	"github.com/katalvlaran/isam/stepper"
	"github.com/katalvlaran/isam/values"
)

// smallTrajectory builds a tiny, internally-consistent 2-D SLAM problem:
// a prior at x0, two odometry steps x0->x1->x2, and one bearing-range
// sighting of landmark L0 from x1. Measurements are derived from the true
// trajectory/landmark so the optimum sits at (approximately) the true
// values; initial guesses are perturbed away from it. Returns the ordered
// list of (factors, initial guess) "rounds" an incremental caller would
// feed one at a time.
type round struct {
	factors []gaussfactor.Factor
	values  map[values.Key]values.Value
}

func smallTrajectoryRounds(t *testing.T) []round {
	t.Helper()

	x0 := values.Symbol('x', 0)
	x1 := values.Symbol('x', 1)
	x2 := values.Symbol('x', 2)
	l0 := values.Symbol('L', 0)

	odomNoise, err := gaussfactor.NewDiagonalNoise([]float64{0.1, 0.1, math.Pi / 100})
	require.NoError(t, err)
	priorNoise, err := gaussfactor.NewDiagonalNoise([]float64{0.1, 0.1, math.Pi / 100})
	require.NoError(t, err)
	brNoise, err := gaussfactor.NewDiagonalNoise([]float64{math.Pi / 100, 0.1})
	require.NoError(t, err)

	truePoses := []slam2d.Pose2{
		{X: 0, Y: 0, Theta: 0},
		{X: 1, Y: 0, Theta: 0},
		{X: 2, Y: 0, Theta: 0},
	}
	trueLandmark := slam2d.Point2{X: 2, Y: 1}

	bearing := wrapAngleForTest(math.Atan2(trueLandmark.Y-truePoses[1].Y, trueLandmark.X-truePoses[1].X) - truePoses[1].Theta)
	rng := math.Hypot(trueLandmark.X-truePoses[1].X, trueLandmark.Y-truePoses[1].Y)

	prior, err := slam2d.NewPriorFactor(x0, truePoses[0], priorNoise)
	require.NoError(t, err)
	odom01, err := slam2d.NewOdometryFactor(x0, x1, slam2d.Pose2{X: 1, Y: 0, Theta: 0}, odomNoise)
	require.NoError(t, err)
	odom12, err := slam2d.NewOdometryFactor(x1, x2, slam2d.Pose2{X: 1, Y: 0, Theta: 0}, odomNoise)
	require.NoError(t, err)
	br, err := slam2d.NewBearingRangeFactor(x1, l0, bearing, rng, brNoise)
	require.NoError(t, err)

	guess := func(p slam2d.Pose2, dx, dy, dth float64) slam2d.Pose2 {
		return slam2d.Pose2{X: p.X + dx, Y: p.Y + dy, Theta: p.Theta + dth}
	}

	return []round{
		{
			factors: []gaussfactor.Factor{prior},
			values:  map[values.Key]values.Value{x0: guess(truePoses[0], 0.02, -0.01, 0.005)},
		},
		{
			factors: []gaussfactor.Factor{odom01},
			values:  map[values.Key]values.Value{x1: guess(truePoses[1], -0.05, 0.03, -0.01)},
		},
		{
			factors: []gaussfactor.Factor{odom12, br},
			values: map[values.Key]values.Value{
				x2: guess(truePoses[2], 0.04, 0.02, 0.01),
				l0: slam2d.Point2{X: trueLandmark.X + 0.1, Y: trueLandmark.Y - 0.15},
			},
		},
	}
}

func wrapAngleForTest(theta float64) float64 {
	theta = math.Mod(theta+math.Pi, 2*math.Pi)
	if theta < 0 {
		theta += 2 * math.Pi
	}

	return theta - math.Pi
}

func settle(e *Engine, iters int) {
	for i := 0; i < iters; i++ {
		_, _ = e.Update(nil, nil, nil, nil)
	}
}

func estimateMap(t *testing.T, e *Engine) map[values.Key]values.Value {
	t.Helper()
	est := e.CalculateEstimate()
	out := make(map[values.Key]values.Value)
	for _, k := range est.Keys() {
		v, err := est.At(k)
		require.NoError(t, err)
		out[k] = v
	}

	return out
}

func assertPosesClose(t *testing.T, want, got map[values.Key]values.Value) {
	t.Helper()
	for k, wv := range want {
		gv, ok := got[k]
		require.True(t, ok, "missing key %s", k)
		switch w := wv.(type) {
		case slam2d.Pose2:
			g := gv.(slam2d.Pose2)
			assert.InDelta(t, w.X, g.X, 1e-3, "key %s X", k)
			assert.InDelta(t, w.Y, g.Y, 1e-3, "key %s Y", k)
			assert.InDelta(t, w.Theta, g.Theta, 1e-3, "key %s Theta", k)
		case slam2d.Point2:
			g := gv.(slam2d.Point2)
			assert.InDelta(t, w.X, g.X, 1e-3, "key %s X", k)
			assert.InDelta(t, w.Y, g.Y, 1e-3, "key %s Y", k)
		}
	}
}

// TestIncrementalMatchesSingleBatch exercises the spec's central "Bayes-
// tree/elimination equivalence" property (§8): feeding the same factor
// graph incrementally (one small Update per round) or in a single batch
// Update must converge to the same estimate, because the affected-subtree
// re-elimination the incremental path performs is required to be
// equivalent to eliminating the full linearized graph in one shot.
func TestIncrementalMatchesSingleBatch(t *testing.T) {
	rounds := smallTrajectoryRounds(t)

	incremental := NewEngine(NewConfig(WithRelinearizeThreshold(1e-7)))
	for _, r := range rounds {
		_, err := incremental.Update(r.factors, r.values, nil, nil)
		require.NoError(t, err)
	}
	settle(incremental, 15)

	batch := NewEngine(NewConfig(WithRelinearizeThreshold(1e-7)))
	var allFactors []gaussfactor.Factor
	allValues := make(map[values.Key]values.Value)
	for _, r := range rounds {
		allFactors = append(allFactors, r.factors...)
		for k, v := range r.values {
			allValues[k] = v
		}
	}
	_, err := batch.Update(allFactors, allValues, nil, nil)
	require.NoError(t, err)
	settle(batch, 15)

	assertPosesClose(t, estimateMap(t, batch), estimateMap(t, incremental))
}

// TestDoglegMatchesGaussNewton checks the same equivalence holds when the
// dogleg step controller is configured instead of plain Gauss-Newton
// (spec §8 scenario 2).
func TestDoglegMatchesGaussNewton(t *testing.T) {
	rounds := smallTrajectoryRounds(t)

	gn := NewEngine(NewConfig(WithRelinearizeThreshold(1e-7)))
	for _, r := range rounds {
		_, err := gn.Update(r.factors, r.values, nil, nil)
		require.NoError(t, err)
	}
	settle(gn, 15)

	dl := NewEngine(NewConfig(
		WithDogleg(stepper.DoglegConfig{InitialTrustRadius: 1.0, AdaptationMode: stepper.SearchEachIteration}),
		WithRelinearizeThreshold(1e-7),
	))
	for _, r := range smallTrajectoryRounds(t) {
		_, err := dl.Update(r.factors, r.values, nil, nil)
		require.NoError(t, err)
	}
	settle(dl, 30)

	assertPosesClose(t, estimateMap(t, gn), estimateMap(t, dl))
}

// TestQRMatchesCholesky checks the same equivalence under the QR
// factorization kernel (spec §8 scenario 3).
func TestQRMatchesCholesky(t *testing.T) {
	rounds := smallTrajectoryRounds(t)

	chol := NewEngine(NewConfig(WithRelinearizeThreshold(1e-7)))
	for _, r := range rounds {
		_, err := chol.Update(r.factors, r.values, nil, nil)
		require.NoError(t, err)
	}
	settle(chol, 15)

	qr := NewEngine(NewConfig(
		WithFactorization(linalg.QRFactorization),
		WithRelinearizeThreshold(1e-7),
	))
	for _, r := range smallTrajectoryRounds(t) {
		_, err := qr.Update(r.factors, r.values, nil, nil)
		require.NoError(t, err)
	}
	settle(qr, 15)

	assertPosesClose(t, estimateMap(t, chol), estimateMap(t, qr))
}

func TestEmptyUpdateIsNoOp(t *testing.T) {
	e := NewEngine(NewConfig())
	before := e.CalculateEstimate()
	result, err := e.Update(nil, nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.VariablesReeliminated)
	assert.Equal(t, 0, before.Len())
	assert.Equal(t, 0, e.CalculateEstimate().Len())
}

func TestRemoveFactorTriggersReelimination(t *testing.T) {
	rounds := smallTrajectoryRounds(t)
	e := NewEngine(NewConfig(WithRelinearizeThreshold(1e-7)))

	var lastSlot gaussfactor.Slot
	for i, r := range rounds {
		res, err := e.Update(r.factors, r.values, nil, nil)
		require.NoError(t, err)
		if i == len(rounds)-1 {
			lastSlot = res.NewFactorsIndices[len(res.NewFactorsIndices)-1] // the bearing-range factor
		}
	}
	settle(e, 15)

	// A second sighting of L0, from x2, keeps L0 observed once the first
	// sighting is removed below.
	x2 := values.Symbol('x', 2)
	l0 := values.Symbol('L', 0)
	brNoise, err := gaussfactor.NewDiagonalNoise([]float64{math.Pi / 100, 0.1})
	require.NoError(t, err)
	br2, err := slam2d.NewBearingRangeFactor(x2, l0, math.Pi/2, 1, brNoise)
	require.NoError(t, err)
	_, err = e.Update([]gaussfactor.Factor{br2}, nil, nil, nil)
	require.NoError(t, err)

	result, err := e.Update(nil, nil, []gaussfactor.Slot{lastSlot}, nil)
	require.NoError(t, err)
	assert.Greater(t, result.VariablesReeliminated, 0)

	_, ok := e.GetFactorsUnsafe()[lastSlot]
	assert.False(t, ok)
}

func TestRemoveUnknownSlotFails(t *testing.T) {
	e := NewEngine(NewConfig())
	_, err := e.Update(nil, nil, []gaussfactor.Slot{99}, nil)
	assert.ErrorIs(t, err, ErrUnknownSlot)
}

func TestConstrainedLastKeysPlacedAtTail(t *testing.T) {
	rounds := smallTrajectoryRounds(t)
	e := NewEngine(NewConfig(WithRelinearizeThreshold(1e-7)))

	x0 := values.Symbol('x', 0)
	x1 := values.Symbol('x', 1)

	for i, r := range rounds {
		var constraints map[values.Key]int
		if i >= 1 {
			constraints = map[values.Key]int{x0: 1, x1: 2}
		}
		_, err := e.Update(r.factors, r.values, nil, constraints)
		require.NoError(t, err)
	}

	n := e.GetOrdering().Len()
	idx0, err := e.GetOrdering().At(x0)
	require.NoError(t, err)
	idx1, err := e.GetOrdering().At(x1)
	require.NoError(t, err)

	assert.Equal(t, n-2, int(idx0))
	assert.Equal(t, n-1, int(idx1))
}

func TestConstrainedLastKeysUnknownKeyFails(t *testing.T) {
	e := NewEngine(NewConfig())
	_, err := e.Update(nil, nil, nil, map[values.Key]int{values.Symbol('x', 99): 1})
	assert.ErrorIs(t, err, ErrDuplicateKey)
}

func sortedKeys(keys []values.Key) []values.Key {
	out := append([]values.Key(nil), keys...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

// TestCloneIsolation checks that mutating an Engine after Clone never
// touches the clone's ordering or estimate: the clone must read
// exactly as a fresh Engine built from the same first round would.
func TestCloneIsolation(t *testing.T) {
	rounds := smallTrajectoryRounds(t)
	e := NewEngine(NewConfig())
	_, err := e.Update(rounds[0].factors, rounds[0].values, nil, nil)
	require.NoError(t, err)

	clone := e.Clone()

	_, err = e.Update(rounds[1].factors, rounds[1].values, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, clone.GetOrdering().Len())
	assert.Equal(t, 2, e.GetOrdering().Len())

	freshEngine := NewEngine(NewConfig())
	_, err = freshEngine.Update(rounds[0].factors, rounds[0].values, nil, nil)
	require.NoError(t, err)

	if diff := cmp.Diff(sortedKeys(freshEngine.GetOrdering().Keys()), sortedKeys(clone.GetOrdering().Keys())); diff != "" {
		t.Fatalf("clone ordering diverged from a fresh engine built the same way (-fresh +clone):\n%s", diff)
	}
	assertPosesClose(t, estimateMap(t, freshEngine), estimateMap(t, clone))
}

func TestDefaultClonedEngineEqualsDefaultEngine(t *testing.T) {
	e := NewEngine(NewConfig())
	clone := e.Clone()
	assert.Equal(t, 0, clone.GetOrdering().Len())
	assert.Equal(t, 0, clone.CalculateEstimate().Len())
}
