package bayestree

import (
	"github.com/katalvlaran/isam/gaussfactor"
	"github.com/katalvlaran/isam/linalg"
	"github.com/katalvlaran/isam/ordering"
)

// GaussianConditional is p(F | S): an upper-triangular block
// [R_FF R_FS | d_F] and a per-frontal diagonal noise scaling, indexed by
// ordering.Index (not values.Key) since it describes the current
// linearization in elimination order.
type GaussianConditional struct {
	Frontals  []ordering.Index
	Separator []ordering.Index
	RFF       *linalg.Dense
	RFS       *linalg.Dense // nil when len(Separator) == 0
	D         []float64
	Sigma     []float64
}

// Clique holds a GaussianConditional, a cached separator factor
// representing the marginal contribution passed up from its descendants,
// the clique's local gradient contribution, and tree pointers. Parent is a
// non-owning back-reference; Children are owned by this Clique.
type Clique struct {
	Conditional     *GaussianConditional
	CachedSeparator *gaussfactor.HessianFactor // nil when Separator is empty
	Gradient        []float64                  // length sum(dim(Frontals)); −R_FFᵀ·D restricted to frontals
	FactorSlots     []gaussfactor.Slot         // raw factor-cache slots consumed when this clique was eliminated

	Parent   *Clique // non-owning
	Children []*Clique
}

// Frontals is a convenience accessor for Conditional.Frontals.
func (c *Clique) Frontals() []ordering.Index { return c.Conditional.Frontals }

// Separator is a convenience accessor for Conditional.Separator.
func (c *Clique) Separator() []ordering.Index { return c.Conditional.Separator }

// cloneConditional deep-copies a GaussianConditional's index slices and
// matrix blocks (the matrices themselves are treated as immutable once
// produced by elimination, but Dense.Clone is cheap and keeps Clone()
// genuinely isolated per spec §5's clone-isolation test expectation).
func cloneConditional(gc *GaussianConditional) *GaussianConditional {
	out := &GaussianConditional{
		Frontals:  append([]ordering.Index(nil), gc.Frontals...),
		Separator: append([]ordering.Index(nil), gc.Separator...),
		D:         append([]float64(nil), gc.D...),
		Sigma:     append([]float64(nil), gc.Sigma...),
	}
	if gc.RFF != nil {
		out.RFF = gc.RFF.Clone().(*linalg.Dense)
	}
	if gc.RFS != nil {
		out.RFS = gc.RFS.Clone().(*linalg.Dense)
	}

	return out
}
