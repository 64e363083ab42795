package slam2d

import (
	"fmt"
	"math"

	"github.com/katalvlaran/isam/values"
)

// Pose2 is a planar pose (x, y, heading in radians). Retract/LocalCoordinates
// use a plain additive parameterization of the tangent space rather than the
// true SE(2) exponential map: simpler to get right by hand, and every factor
// in this package differentiates through it numerically, so the choice of
// parameterization never needs to agree with a separately hand-derived
// Jacobian.
type Pose2 struct {
	X, Y, Theta float64
}

// Dim returns 3: (dx, dy, dtheta).
func (p Pose2) Dim() int { return 3 }

// Retract moves p by delta, wrapping the resulting heading to [-pi, pi).
func (p Pose2) Retract(delta []float64) values.Value {
	return Pose2{X: p.X + delta[0], Y: p.Y + delta[1], Theta: wrapAngle(p.Theta + delta[2])}
}

// LocalCoordinates returns the additive delta Retract would need to move
// from p to other.
func (p Pose2) LocalCoordinates(other values.Value) []float64 {
	o := other.(Pose2)

	return []float64{o.X - p.X, o.Y - p.Y, wrapAngle(o.Theta - p.Theta)}
}

// String renders the pose for diagnostics.
func (p Pose2) String() string {
	return fmt.Sprintf("Pose2(%.4f, %.4f, %.4f)", p.X, p.Y, p.Theta)
}

// wrapAngle normalizes theta to [-pi, pi).
func wrapAngle(theta float64) float64 {
	theta = math.Mod(theta+math.Pi, 2*math.Pi)
	if theta < 0 {
		theta += 2 * math.Pi
	}

	return theta - math.Pi
}

// composePose2 returns the SE(2) composition a*b: b expressed in a's frame,
// then placed in the world frame. This is independent of the Retract
// parameterization above; it is the actual rigid-body composition a between
// factor's predicted measurement needs.
func composePose2(a, b Pose2) Pose2 {
	cos, sin := math.Cos(a.Theta), math.Sin(a.Theta)

	return Pose2{
		X:     a.X + cos*b.X - sin*b.Y,
		Y:     a.Y + sin*b.X + cos*b.Y,
		Theta: wrapAngle(a.Theta + b.Theta),
	}
}

// inversePose2 returns the SE(2) inverse of a.
func inversePose2(a Pose2) Pose2 {
	cos, sin := math.Cos(a.Theta), math.Sin(a.Theta)

	return Pose2{
		X:     -(cos*a.X + sin*a.Y),
		Y:     -(-sin*a.X + cos*a.Y),
		Theta: wrapAngle(-a.Theta),
	}
}

// betweenPose2 returns the relative pose of b as seen from a:
// inverse(a) composed with b.
func betweenPose2(a, b Pose2) Pose2 {
	return composePose2(inversePose2(a), b)
}
