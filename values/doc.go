// Package values defines the Key/Value/Estimate data model shared by every
// other package in this module: an opaque, totally ordered, hashable Key
// identifying a variable, a manifold-valued Value polymorphic over
// {Dim, Retract, LocalCoordinates}, and an Estimate mapping Keys to Values.
//
// The package never interprets Value contents beyond the capability set
// below; concrete manifolds (2-D poses, points, rotations, ...) live in
// downstream packages such as slam2d.
package values
