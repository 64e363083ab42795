package isam

import (
	"github.com/rs/zerolog"

	"github.com/katalvlaran/isam/linalg"
	"github.com/katalvlaran/isam/stepper"
	"github.com/katalvlaran/isam/values"
)

// OptimizationMode selects the nonlinear step controller an Engine runs
// after each re-elimination.
type OptimizationMode int

const (
	// GaussNewtonOptimization selects the pure Gauss-Newton controller.
	GaussNewtonOptimization OptimizationMode = iota
	// DoglegOptimization selects Powell's dogleg controller with an
	// adaptive trust region.
	DoglegOptimization
)

// Config collects every knob an Engine needs at construction time. Build one
// with NewConfig and a chain of Options, following the teacher library's
// functional-options idiom (builder.BuilderOption).
type Config struct {
	Optimization OptimizationMode
	GaussNewton  stepper.GaussNewtonConfig
	Dogleg       stepper.DoglegConfig

	// RelinearizeThreshold is the L-infinity norm a variable's last computed
	// delta must exceed to be flagged for relinearization.
	RelinearizeThreshold float64
	// RelinearizeSkip is how many Update calls to let pass between
	// relinearization checks; 0 checks on every call.
	RelinearizeSkip int
	// EnableRelinearization gates the whole relinearization check. Disabling
	// it still re-eliminates variables touched by new or removed factors.
	EnableRelinearization bool
	// EvaluateNonlinearError fills Result.ErrorBefore/ErrorAfter with the
	// factor cache's total nonlinear error; it does not affect the dogleg
	// controller, which always needs the true nonlinear error for its
	// trust-region ratio regardless of this flag.
	EvaluateNonlinearError bool

	Factorization linalg.Factorization
	KeyFormatter  values.KeyFormatter
	Logger        zerolog.Logger
}

// Option mutates a Config under construction.
type Option func(*Config)

// NewConfig returns a Config with spec-documented defaults, folding in opts
// in order.
func NewConfig(opts ...Option) Config {
	cfg := Config{
		Optimization: GaussNewtonOptimization,
		GaussNewton:  stepper.GaussNewtonConfig{},
		Dogleg: stepper.DoglegConfig{
			InitialTrustRadius: 1.0,
			AdaptationMode:     stepper.SearchEachIteration,
		},
		RelinearizeThreshold:   0.1,
		RelinearizeSkip:        0,
		EnableRelinearization:  true,
		EvaluateNonlinearError: false,
		Factorization:          linalg.CholeskyFactorization,
		KeyFormatter:           values.DefaultKeyFormatter,
		Logger:                 zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

// WithGaussNewton selects the Gauss-Newton controller with the given config.
func WithGaussNewton(gn stepper.GaussNewtonConfig) Option {
	return func(c *Config) {
		c.Optimization = GaussNewtonOptimization
		c.GaussNewton = gn
	}
}

// WithDogleg selects the dogleg controller with the given config.
func WithDogleg(dl stepper.DoglegConfig) Option {
	return func(c *Config) {
		c.Optimization = DoglegOptimization
		c.Dogleg = dl
	}
}

// WithRelinearizeThreshold overrides the relinearization trigger threshold.
func WithRelinearizeThreshold(t float64) Option {
	return func(c *Config) { c.RelinearizeThreshold = t }
}

// WithRelinearizeSkip overrides how many updates pass between
// relinearization checks.
func WithRelinearizeSkip(n int) Option {
	return func(c *Config) { c.RelinearizeSkip = n }
}

// WithoutRelinearization disables the relinearization check entirely.
func WithoutRelinearization() Option {
	return func(c *Config) { c.EnableRelinearization = false }
}

// WithNonlinearErrorEvaluation fills Result.ErrorBefore/ErrorAfter on every
// Update.
func WithNonlinearErrorEvaluation() Option {
	return func(c *Config) { c.EvaluateNonlinearError = true }
}

// WithFactorization overrides the elimination kernel.
func WithFactorization(f linalg.Factorization) Option {
	return func(c *Config) { c.Factorization = f }
}

// WithKeyFormatter overrides how Keys are stringified for logging.
func WithKeyFormatter(fn values.KeyFormatter) Option {
	return func(c *Config) { c.KeyFormatter = fn }
}

// WithLogger overrides the Engine's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}
