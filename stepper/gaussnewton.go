package stepper

import (
	"fmt"

	"github.com/katalvlaran/isam/bayestree"
	"github.com/katalvlaran/isam/linalg"
)

// WalkStats reports how much of a SolveGaussNewton walk was recomputed
// versus reused via wildfire propagation.
type WalkStats struct {
	Recomputed int
	Reused     int
}

// SolveGaussNewton solves delta = R^-1 d by back-substitution, walking the
// Bayes tree top-down from the root. A clique recomputes its frontal block
// if any of its own frontals is marked replaced, or if recomputation was
// forced by an ancestor (the "wildfire" propagates downward from any
// touched clique to every descendant, since a changed separator
// invalidates a descendant's cached block even when the descendant's own
// frontals did not change). A clique that need not recompute reuses
// whatever row is already in store.
func SolveGaussNewton(tree *bayestree.Tree, replaced []bool, store RowStore) (WalkStats, error) {
	var stats WalkStats
	if tree.Root() == nil {
		return stats, nil
	}

	var walk func(c *bayestree.Clique, forced bool) error
	walk = func(c *bayestree.Clique, forced bool) error {
		self := false
		for _, idx := range c.Frontals() {
			if int(idx) < len(replaced) && replaced[idx] {
				self = true
				break
			}
		}
		mustRecompute := forced || self
		if mustRecompute {
			xS := gatherRows(store, c.Separator())
			xF, err := linalg.BackSubstitute(c.Conditional.RFF, c.Conditional.RFS, c.Conditional.D, xS)
			if err != nil {
				return fmt.Errorf("stepper.SolveGaussNewton: %w", err)
			}
			scatterRows(store, c.Frontals(), xF)
			stats.Recomputed++
		} else {
			stats.Reused++
		}
		for _, ch := range c.Children {
			if err := walk(ch, mustRecompute); err != nil {
				return err
			}
		}

		return nil
	}

	if err := walk(tree.Root(), false); err != nil {
		return stats, err
	}

	return stats, nil
}

// GaussNewton is the pure Gauss-Newton nonlinear step controller: every
// update fully solves and retracts, with no trust region.
type GaussNewton struct {
	Config GaussNewtonConfig
}

// NewGaussNewton returns a GaussNewton controller with the given config.
func NewGaussNewton(cfg GaussNewtonConfig) *GaussNewton {
	return &GaussNewton{Config: cfg}
}

// Step solves the current tree into deltaNewton (wildfire-aware), copies the
// result into delta (the step actually applied), and retracts via eval.
func (gn *GaussNewton) Step(tree *bayestree.Tree, replaced []bool, n int, delta, deltaNewton RowStore, eval Evaluator) (StepResult, error) {
	stats, err := SolveGaussNewton(tree, replaced, deltaNewton)
	if err != nil {
		return StepResult{}, err
	}
	Unflatten(delta, n, Flatten(deltaNewton, n))
	if err := eval.Commit(delta); err != nil {
		return StepResult{}, fmt.Errorf("stepper.GaussNewton.Step: %w", err)
	}

	return StepResult{
		Accepted:      true,
		CliquesWalked: stats.Recomputed + stats.Reused,
		CliquesReused: stats.Reused,
	}, nil
}
