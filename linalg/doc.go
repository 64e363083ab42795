// Package linalg factors small dense blocks (Cholesky or QR) and performs
// back-substitution, the two elimination primitives the Bayes tree is built
// from.
//
// The public Matrix/Dense shape and sentinel-error/functional-option style
// are carried over from the teacher library's matrix package
// (katalvlaran-lvlath/matrix/{matrix,dense,errors}.go); the actual
// factorizations are delegated to gonum.org/v1/gonum/mat (see
// other_examples/manifests/gonum-gonum's go.mod and the retrieved
// gonum lapack/optimize snippets) rather than hand-rolled, since gonum is a
// real, well-tested dense linear algebra library and the teacher's own
// hand-rolled LU/QR (matrix/impl_linear_algebra.go) is exactly the kind of
// stdlib-only numerical code this exercise prefers sourcing from the
// ecosystem instead.
package linalg
