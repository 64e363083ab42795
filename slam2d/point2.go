package slam2d

import (
	"fmt"

	"github.com/katalvlaran/isam/values"
)

// Point2 is a 2-D landmark position. Its tangent space is plain R^2, so
// Retract/LocalCoordinates are ordinary vector addition/subtraction.
type Point2 struct {
	X, Y float64
}

// Dim returns 2.
func (p Point2) Dim() int { return 2 }

// Retract moves p by delta.
func (p Point2) Retract(delta []float64) values.Value {
	return Point2{X: p.X + delta[0], Y: p.Y + delta[1]}
}

// LocalCoordinates returns the delta Retract would need to move from p to
// other.
func (p Point2) LocalCoordinates(other values.Value) []float64 {
	o := other.(Point2)

	return []float64{o.X - p.X, o.Y - p.Y}
}

// String renders the point for diagnostics.
func (p Point2) String() string {
	return fmt.Sprintf("Point2(%.4f, %.4f)", p.X, p.Y)
}
