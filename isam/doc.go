// Package isam implements the incremental smoothing engine: the component
// that wires ordering, the linear algebra kernel, the factor cache, and the
// Bayes tree together behind a single Update call, following the affected-
// subtree re-elimination scheme of incremental smoothing and mapping.
//
// An Engine owns one Ordering, one FactorCache, one Bayes Tree, one running
// Estimate, and the delta bookkeeping its configured step controller (Gauss-
// Newton or dogleg) needs across calls. Update adds new variables and
// factors, removes retracted factors, determines which part of the tree is
// affected, re-eliminates exactly that part, and runs one nonlinear step.
package isam
