package isam

import "github.com/katalvlaran/isam/gaussfactor"

// Result summarizes one Update call.
type Result struct {
	// NewFactorsIndices are the slots assigned to this call's newFactors, in
	// the order they were supplied.
	NewFactorsIndices []gaussfactor.Slot
	// VariablesReeliminated is the number of variables eliminated this
	// round: the detached sub-tree's frontals plus any affected variable
	// that had no clique yet.
	VariablesReeliminated int
	// VariablesRelinearized is how many of those were selected by the
	// relinearization-threshold check specifically (a subset of
	// VariablesReeliminated; variables pulled in only because a new/removed
	// factor touches them are not counted here).
	VariablesRelinearized int
	// Cliques is the number of cliques in the freshly rebuilt chain.
	Cliques int
	// CliquesReused is how many cliques the step controller's back-
	// substitution walk served from cache instead of recomputing.
	CliquesReused int
	// FactorsRecalculated is the number of factor-cache slots relinearized
	// to build the rebuilt chain's input system.
	FactorsRecalculated int
	// ErrorBefore/ErrorAfter hold the factor cache's total nonlinear error
	// immediately before and after this update's step, populated only when
	// Config.EvaluateNonlinearError is set.
	ErrorBefore float64
	ErrorAfter  float64
}
