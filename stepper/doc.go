// Package stepper implements the Nonlinear Step Controller (spec C6): given
// a freshly re-eliminated Bayes tree, it computes a Gauss-Newton or Powell's
// dogleg step and reports whether the caller should retract its estimate
// along it.
//
// The wildfire-aware back-substitution walk (SolveGaussNewton) generalizes
// the teacher library's iterative, state-carrying traversal style seen in
// its worklist-based graph searches (reviewed from
// _examples/katalvlaran-lvlath/tsp/two_opt.go's "only recompute what the
// last move actually touched" loop), here propagating a boolean
// "recompute forced" flag down the Bayes tree instead of across a tour.
// DoglegConfig/GaussNewtonConfig follow the teacher's functional-options
// idiom in spirit (see _examples/katalvlaran-lvlath/builder/config.go);
// since both configs are small, fixed, value-level structs supplied once at
// engine construction, they are exposed as plain struct literals rather
// than an Option chain — see DESIGN.md.
package stepper
