package slam2d

import (
	"math"

	"github.com/katalvlaran/isam/gaussfactor"
	"github.com/katalvlaran/isam/values"
)

// PriorFactor anchors a single Pose2 key to a measured value, the factor a
// SLAM front end attaches to the very first pose to fix the gauge freedom a
// pure relative-measurement graph would otherwise leave undetermined.
type PriorFactor struct {
	Key   values.Key
	Prior Pose2
	Noise *gaussfactor.NoiseModel
}

// NewPriorFactor validates noise against Pose2's dimension and returns a
// PriorFactor.
func NewPriorFactor(key values.Key, prior Pose2, noise *gaussfactor.NoiseModel) (*PriorFactor, error) {
	if noise.Dim() != prior.Dim() {
		return nil, ErrDimensionMismatch
	}

	return &PriorFactor{Key: key, Prior: prior, Noise: noise}, nil
}

// Keys returns the single anchored key.
func (f *PriorFactor) Keys() []values.Key { return []values.Key{f.Key} }

// Dim returns 3.
func (f *PriorFactor) Dim() int { return f.Prior.Dim() }

func (f *PriorFactor) residual(vals []values.Value) []float64 {
	x := vals[0].(Pose2)

	return f.Prior.LocalCoordinates(x)
}

// Linearize differentiates the prior residual numerically at est.
func (f *PriorFactor) Linearize(est *values.Estimate) (*gaussfactor.JacobianFactor, error) {
	return linearizeNumeric(f.Keys(), est, f.Noise, f.residual)
}

// Error returns the whitened squared prior residual at est.
func (f *PriorFactor) Error(est *values.Estimate) (float64, error) {
	v, err := est.At(f.Key)
	if err != nil {
		return 0, err
	}

	return whitenedError(f.Noise, f.residual([]values.Value{v})), nil
}

// OdometryFactor is a relative-pose ("between") measurement linking two
// consecutive trajectory poses.
type OdometryFactor struct {
	From, To values.Key
	Measured Pose2
	Noise    *gaussfactor.NoiseModel
}

// NewOdometryFactor validates noise against Pose2's dimension and returns an
// OdometryFactor.
func NewOdometryFactor(from, to values.Key, measured Pose2, noise *gaussfactor.NoiseModel) (*OdometryFactor, error) {
	if noise.Dim() != measured.Dim() {
		return nil, ErrDimensionMismatch
	}

	return &OdometryFactor{From: from, To: to, Measured: measured, Noise: noise}, nil
}

// Keys returns (From, To).
func (f *OdometryFactor) Keys() []values.Key { return []values.Key{f.From, f.To} }

// Dim returns 3.
func (f *OdometryFactor) Dim() int { return f.Measured.Dim() }

func (f *OdometryFactor) residual(vals []values.Value) []float64 {
	x1, x2 := vals[0].(Pose2), vals[1].(Pose2)
	predicted := betweenPose2(x1, x2)

	return f.Measured.LocalCoordinates(predicted)
}

// Linearize differentiates the between-pose residual numerically at est.
func (f *OdometryFactor) Linearize(est *values.Estimate) (*gaussfactor.JacobianFactor, error) {
	return linearizeNumeric(f.Keys(), est, f.Noise, f.residual)
}

// Error returns the whitened squared odometry residual at est.
func (f *OdometryFactor) Error(est *values.Estimate) (float64, error) {
	x1, err := est.At(f.From)
	if err != nil {
		return 0, err
	}
	x2, err := est.At(f.To)
	if err != nil {
		return 0, err
	}

	return whitenedError(f.Noise, f.residual([]values.Value{x1, x2})), nil
}

// BearingRangeFactor is a single observation of a Point2 landmark from a
// Pose2 sighting location, the measurement type a range/bearing sensor
// (sonar, laser, or a vision front end's detections) produces.
type BearingRangeFactor struct {
	PoseKey, PointKey values.Key
	Bearing           float64 // radians, relative to the pose's heading
	Range             float64
	Noise             *gaussfactor.NoiseModel
}

// NewBearingRangeFactor validates noise against the (bearing, range)
// residual's dimension and returns a BearingRangeFactor.
func NewBearingRangeFactor(poseKey, pointKey values.Key, bearing, rng float64, noise *gaussfactor.NoiseModel) (*BearingRangeFactor, error) {
	if noise.Dim() != 2 {
		return nil, ErrDimensionMismatch
	}

	return &BearingRangeFactor{PoseKey: poseKey, PointKey: pointKey, Bearing: bearing, Range: rng, Noise: noise}, nil
}

// Keys returns (PoseKey, PointKey).
func (f *BearingRangeFactor) Keys() []values.Key { return []values.Key{f.PoseKey, f.PointKey} }

// Dim returns 2.
func (f *BearingRangeFactor) Dim() int { return 2 }

func (f *BearingRangeFactor) residual(vals []values.Value) []float64 {
	pose := vals[0].(Pose2)
	point := vals[1].(Point2)

	dx, dy := point.X-pose.X, point.Y-pose.Y
	predictedBearing := wrapAngle(math.Atan2(dy, dx) - pose.Theta)
	predictedRange := math.Hypot(dx, dy)

	return []float64{wrapAngle(predictedBearing - f.Bearing), predictedRange - f.Range}
}

// Linearize differentiates the bearing-range residual numerically at est.
func (f *BearingRangeFactor) Linearize(est *values.Estimate) (*gaussfactor.JacobianFactor, error) {
	return linearizeNumeric(f.Keys(), est, f.Noise, f.residual)
}

// Error returns the whitened squared bearing-range residual at est.
func (f *BearingRangeFactor) Error(est *values.Estimate) (float64, error) {
	pose, err := est.At(f.PoseKey)
	if err != nil {
		return 0, err
	}
	point, err := est.At(f.PointKey)
	if err != nil {
		return 0, err
	}

	return whitenedError(f.Noise, f.residual([]values.Value{pose, point})), nil
}

// compile-time assertions that every factor in this package satisfies
// gaussfactor.Factor.
var (
	_ gaussfactor.Factor = (*PriorFactor)(nil)
	_ gaussfactor.Factor = (*OdometryFactor)(nil)
	_ gaussfactor.Factor = (*BearingRangeFactor)(nil)
)
