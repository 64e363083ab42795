package gaussfactor

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/isam/values"
)

// Slot is the immutable dense index assigned to a factor at insertion time.
// It survives the factor's removal as a tombstone: slot indices are never
// reused.
type Slot int

// ErrUnknownSlot indicates removeSlots referenced a dead or out-of-range
// slot.
var ErrUnknownSlot = errors.New("gaussfactor: unknown or dead slot")

// FactorCache holds the active nonlinear factors by slot and, per variable,
// the inverted index of slots touching it.
type FactorCache struct {
	factors  map[Slot]Factor
	touching map[values.Key]map[Slot]struct{} // inverted index; mirrors core/adjacency_list.go's map-of-sets shape
	next     Slot
}

// NewFactorCache returns an empty FactorCache.
func NewFactorCache() *FactorCache {
	return &FactorCache{
		factors:  make(map[Slot]Factor),
		touching: make(map[values.Key]map[Slot]struct{}),
	}
}

// Add appends factor, assigning it a fresh Slot, and updates the inverted
// index for every key it touches.
func (c *FactorCache) Add(f Factor) Slot {
	slot := c.next
	c.next++
	c.factors[slot] = f
	for _, k := range f.Keys() {
		if c.touching[k] == nil {
			c.touching[k] = make(map[Slot]struct{})
		}
		c.touching[k][slot] = struct{}{}
	}

	return slot
}

// Remove tombstones slot: the factor is dropped from both the slot map and
// the inverted index, but the Slot number is never reassigned.
func (c *FactorCache) Remove(slot Slot) error {
	f, ok := c.factors[slot]
	if !ok {
		return fmt.Errorf("FactorCache.Remove(%d): %w", slot, ErrUnknownSlot)
	}
	for _, k := range f.Keys() {
		delete(c.touching[k], slot)
		if len(c.touching[k]) == 0 {
			delete(c.touching, k)
		}
	}
	delete(c.factors, slot)

	return nil
}

// Get returns the live factor at slot, or ok=false if dead/unknown.
func (c *FactorCache) Get(slot Slot) (Factor, bool) {
	f, ok := c.factors[slot]

	return f, ok
}

// Live reports whether slot currently holds a live factor.
func (c *FactorCache) Live(slot Slot) bool {
	_, ok := c.factors[slot]

	return ok
}

// FactorsTouching returns the union of live slots referencing any of keys.
func (c *FactorCache) FactorsTouching(keys []values.Key) map[Slot]struct{} {
	out := make(map[Slot]struct{})
	for _, k := range keys {
		for s := range c.touching[k] {
			out[s] = struct{}{}
		}
	}

	return out
}

// LinearizeAt relinearizes every slot in slots at est, returning the
// resulting JacobianFactorGraph. Slots must all be live; an unknown or dead
// slot is a programmer error surfaced as ErrUnknownSlot.
func (c *FactorCache) LinearizeAt(slots map[Slot]struct{}, est *values.Estimate) (*JacobianFactorGraph, error) {
	graph := &JacobianFactorGraph{Factors: make([]*JacobianFactor, 0, len(slots))}
	for slot := range slots {
		f, ok := c.factors[slot]
		if !ok {
			return nil, fmt.Errorf("FactorCache.LinearizeAt(%d): %w", slot, ErrUnknownSlot)
		}
		jf, err := f.Linearize(est)
		if err != nil {
			return nil, fmt.Errorf("FactorCache.LinearizeAt(%d): %w", slot, err)
		}
		graph.Factors = append(graph.Factors, jf)
	}

	return graph, nil
}

// TotalError sums Factor.Error(est) across every live factor, used when
// Config.EvaluateNonlinearError is enabled.
func (c *FactorCache) TotalError(est *values.Estimate) (float64, error) {
	total := 0.0
	for slot, f := range c.factors {
		e, err := f.Error(est)
		if err != nil {
			return 0, fmt.Errorf("FactorCache.TotalError(slot=%d): %w", slot, err)
		}
		total += e
	}

	return total, nil
}

// Slots returns every live slot, in no particular order.
func (c *FactorCache) Slots() []Slot {
	out := make([]Slot, 0, len(c.factors))
	for s := range c.factors {
		out = append(out, s)
	}

	return out
}

// Len returns the number of live factors.
func (c *FactorCache) Len() int { return len(c.factors) }

// Clone returns a deep-enough copy for Engine.Clone: factors are immutable
// once inserted so they are shared by reference, but the slot/index maps
// are independent (mutating the clone's cache must not affect the
// original's bookkeeping).
func (c *FactorCache) Clone() *FactorCache {
	out := NewFactorCache()
	out.next = c.next
	for s, f := range c.factors {
		out.factors[s] = f
	}
	for k, set := range c.touching {
		cp := make(map[Slot]struct{}, len(set))
		for s := range set {
			cp[s] = struct{}{}
		}
		out.touching[k] = cp
	}

	return out
}
