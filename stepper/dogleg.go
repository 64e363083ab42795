package stepper

import (
	"fmt"

	"github.com/katalvlaran/isam/bayestree"
)

// Dogleg is Powell's dogleg nonlinear step controller with an adaptive
// trust region. TrustRadius persists across Step calls on the same
// controller instance.
type Dogleg struct {
	Config      DoglegConfig
	TrustRadius float64
}

// NewDogleg returns a Dogleg controller with its trust radius initialized
// to cfg.InitialTrustRadius.
func NewDogleg(cfg DoglegConfig) *Dogleg {
	return &Dogleg{Config: cfg, TrustRadius: cfg.InitialTrustRadius}
}

// Step computes the Gauss-Newton leg into deltaNewton and the
// steepest-descent leg into deltaRg, blends them against the current trust
// radius, trials the blended step via eval, accepts or rejects it based on
// the actual/predicted reduction ratio rho, and adapts TrustRadius.
func (dl *Dogleg) Step(tree *bayestree.Tree, replaced []bool, n int, delta, deltaNewton, deltaRg RowStore, eval Evaluator) (StepResult, error) {
	stats, err := SolveGaussNewton(tree, replaced, deltaNewton)
	if err != nil {
		return StepResult{}, err
	}

	dims := DimsFrom(deltaNewton, n)
	g := NewRowStore(dims)
	ScatterGradient(tree, g)
	gFlat := Flatten(g, n)

	jNormSq := QuadraticForm(tree, g)
	var alpha float64
	if jNormSq > 0 {
		alpha = normSquared(gFlat) / jNormSq
	}
	sdFlat := scaled(gFlat, -alpha)
	Unflatten(deltaRg, n, sdFlat)

	gnFlat := Flatten(deltaNewton, n)
	gnNorm := norm(gnFlat)
	sdNorm := norm(sdFlat)

	var blended []float64
	hitBoundary := false
	switch {
	case gnNorm <= dl.TrustRadius:
		blended = gnFlat
	case sdNorm >= dl.TrustRadius:
		blended = scaled(sdFlat, dl.TrustRadius/sdNorm)
		hitBoundary = true
	default:
		blended = interpolateToRadius(sdFlat, gnFlat, dl.TrustRadius)
		hitBoundary = true
	}

	trial := NewRowStore(dims)
	Unflatten(trial, n, blended)

	before := eval.CurrentError()
	after, err := eval.TryRetract(trial)
	if err != nil {
		return StepResult{}, fmt.Errorf("stepper.Dogleg.Step: %w", err)
	}
	actualReduction := before - after

	// Predicted reduction of the local quadratic model q(x)=||Ax-b||^2:
	// q(0) - q(delta) = -(delta^T*Lambda*delta + 2*g.delta), where
	// Lambda = J^T J, so delta^T*Lambda*delta = ||J*delta||^2.
	predictedReduction := -(QuadraticForm(tree, trial) + 2*dot(gFlat, blended))

	rho := 0.0
	if predictedReduction != 0 {
		rho = actualReduction / predictedReduction
	}

	accept := rho > 0
	if accept {
		if err := eval.Commit(trial); err != nil {
			return StepResult{}, fmt.Errorf("stepper.Dogleg.Step: %w", err)
		}
		Unflatten(delta, n, blended)
	}

	dl.adapt(rho, hitBoundary)

	return StepResult{
		Accepted:      accept,
		Rho:           rho,
		TrustRadius:   dl.TrustRadius,
		CliquesWalked: stats.Recomputed + stats.Reused,
		CliquesReused: stats.Reused,
	}, nil
}

// adapt updates the trust radius per spec §4.6: shrink on a poor ratio,
// grow (capped) on an excellent ratio that actually used the full radius,
// otherwise leave it unchanged. SearchReduceOnly never grows.
func (dl *Dogleg) adapt(rho float64, hitBoundary bool) {
	switch {
	case rho < 0.25:
		dl.TrustRadius *= 0.25
	case rho > 0.75 && hitBoundary && dl.Config.AdaptationMode != SearchReduceOnly:
		ceiling := dl.Config.InitialTrustRadius * maxTrustRadiusGrowth
		grown := dl.TrustRadius * 2
		if grown > ceiling {
			grown = ceiling
		}
		dl.TrustRadius = grown
	}
}
