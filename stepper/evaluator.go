package stepper

// Evaluator lets a step controller retract a trial step and measure its
// nonlinear error without the stepper package depending on the estimate or
// factor types directly (spec §9: "Factors and Values are polymorphic over
// small capability sets ... a narrow interface abstraction").
type Evaluator interface {
	// CurrentError returns the nonlinear error at the current estimate.
	CurrentError() float64
	// TryRetract applies delta (by Index, via each variable's Retract) to a
	// scratch copy of the estimate and returns its nonlinear error, without
	// mutating the real estimate.
	TryRetract(delta RowStore) (float64, error)
	// Commit permanently applies delta to the real estimate.
	Commit(delta RowStore) error
}

// StepResult summarizes one controller invocation.
type StepResult struct {
	Accepted      bool
	Rho           float64
	TrustRadius   float64 // dogleg only; zero for Gauss-Newton
	CliquesWalked int
	CliquesReused int
}
