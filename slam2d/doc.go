// Package slam2d is a worked domain package for the engine: planar pose and
// landmark Values plus the three factor types a minimal 2-D SLAM front end
// needs (prior, odometry, bearing-range). Every factor differentiates its
// residual numerically (central differences through each key's Retract)
// rather than by hand-derived analytic Jacobians, a deliberate
// simplification documented in DESIGN.md: it trades a small amount of
// per-factor CPU for a residual function that is the only thing that can be
// wrong, instead of a residual plus an independently-derived Jacobian that
// must agree with it.
package slam2d
