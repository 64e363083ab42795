package stepper

// AdaptationMode selects when the dogleg controller re-evaluates its trust
// radius against the actual-vs-predicted reduction ratio.
type AdaptationMode int

const (
	// SearchEachIteration re-evaluates rho and may shrink/grow every step.
	SearchEachIteration AdaptationMode = iota
	// SearchReduceOnly re-evaluates rho but never grows the trust radius.
	SearchReduceOnly
	// OneStepPerIteration applies exactly one adaptation decision per step
	// without an internal retry loop.
	OneStepPerIteration
)

// String renders the AdaptationMode for logging.
func (m AdaptationMode) String() string {
	switch m {
	case SearchEachIteration:
		return "SearchEachIteration"
	case SearchReduceOnly:
		return "SearchReduceOnly"
	case OneStepPerIteration:
		return "OneStepPerIteration"
	default:
		return "Unknown"
	}
}

// GaussNewtonConfig configures the pure Gauss-Newton controller.
type GaussNewtonConfig struct {
	// WildfireThreshold is carried with the config; SolveGaussNewton does not
	// read it. Back-substitution reuse is decided by the replaced flags alone,
	// so a value of 0 does not turn reuse off.
	WildfireThreshold float64
}

// DoglegConfig configures the Powell's dogleg controller.
type DoglegConfig struct {
	InitialTrustRadius float64
	AdaptationMode     AdaptationMode
	Verbose            bool
}

// maxTrustRadiusGrowth bounds how far the trust radius may grow relative to
// its initial value (spec §9 open question: "a reasonable upper bound
// (e.g., 10^3 x initial) should be chosen and documented").
const maxTrustRadiusGrowth = 1000.0
