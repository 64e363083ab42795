package isam

import (
	"fmt"
	"sort"

	"github.com/katalvlaran/isam/bayestree"
	"github.com/katalvlaran/isam/diagview"
	"github.com/katalvlaran/isam/gaussfactor"
	"github.com/katalvlaran/isam/ordering"
	"github.com/katalvlaran/isam/stepper"
	"github.com/katalvlaran/isam/values"
)

// Engine is the incremental smoothing engine: one Ordering, one
// FactorCache, one Bayes Tree, one running Estimate, and the delta
// bookkeeping its step controller needs across Update calls.
type Engine struct {
	cfg      Config
	ordering *ordering.Ordering
	cache    *gaussfactor.FactorCache
	tree     *bayestree.Tree
	estimate *values.Estimate
	keyDims  map[values.Key]int

	delta       *ordering.PermutedView // last step actually applied
	deltaNewton *ordering.PermutedView // scratch: Gauss-Newton leg
	deltaRg     *ordering.PermutedView // scratch: steepest-descent leg (dogleg only)
	replaced    []bool                 // by Index: true if this variable's clique was rebuilt last round

	gn *stepper.GaussNewton
	dl *stepper.Dogleg

	relinearizeCountdown int
}

// NewEngine returns an empty Engine configured per cfg.
func NewEngine(cfg Config) *Engine {
	o := ordering.NewOrdering()
	e := &Engine{
		cfg:         cfg,
		ordering:    o,
		cache:       gaussfactor.NewFactorCache(),
		tree:        bayestree.NewTree(),
		estimate:    values.NewEstimate(),
		keyDims:     make(map[values.Key]int),
		delta:       ordering.NewPermutedView(o),
		deltaNewton: ordering.NewPermutedView(o),
		deltaRg:     ordering.NewPermutedView(o),
	}
	switch cfg.Optimization {
	case DoglegOptimization:
		e.dl = stepper.NewDogleg(cfg.Dogleg)
	default:
		e.gn = stepper.NewGaussNewton(cfg.GaussNewton)
	}

	return e
}

// GetOrdering returns the engine's Ordering.
func (e *Engine) GetOrdering() *ordering.Ordering { return e.ordering }

// Nodes returns every clique currently in the Bayes tree, pre-order from the
// root.
func (e *Engine) Nodes() []*bayestree.Clique { return e.tree.Nodes() }

// ToGraph renders the current Bayes tree as a diagview.Graph, labeled via
// the engine's configured KeyFormatter, for diagnostics and debug dumps.
func (e *Engine) ToGraph() *diagview.Graph { return e.tree.ToGraph(e.ordering, e.cfg.KeyFormatter) }

// GetFactorsUnsafe returns the live factor cache by slot, sharing storage
// with the engine; callers must not mutate the returned factors.
func (e *Engine) GetFactorsUnsafe() map[gaussfactor.Slot]gaussfactor.Factor {
	slots := e.cache.Slots()
	out := make(map[gaussfactor.Slot]gaussfactor.Factor, len(slots))
	for _, s := range slots {
		f, _ := e.cache.Get(s)
		out[s] = f
	}

	return out
}

// CalculateEstimate returns a defensive copy of the current running
// estimate.
func (e *Engine) CalculateEstimate() *values.Estimate { return e.estimate.Clone() }

// CalculateEstimateAt returns the current Value for a single key.
func (e *Engine) CalculateEstimateAt(key values.Key) (values.Value, error) {
	return e.estimate.At(key)
}

// Clone returns a deep, fully isolated copy of the engine: mutating the
// clone's ordering, tree, cache, estimate, or deltas must never affect the
// original (spec §5/§9).
func (e *Engine) Clone() *Engine {
	newOrdering := e.ordering.Clone()
	out := &Engine{
		cfg:                  e.cfg,
		ordering:             newOrdering,
		cache:                e.cache.Clone(),
		tree:                 e.tree.Clone(),
		estimate:             e.estimate.Clone(),
		keyDims:              make(map[values.Key]int, len(e.keyDims)),
		delta:                e.delta.CloneFor(newOrdering),
		deltaNewton:          e.deltaNewton.CloneFor(newOrdering),
		deltaRg:              e.deltaRg.CloneFor(newOrdering),
		replaced:             append([]bool(nil), e.replaced...),
		relinearizeCountdown: e.relinearizeCountdown,
	}
	for k, v := range e.keyDims {
		out.keyDims[k] = v
	}
	if e.dl != nil {
		dl := *e.dl
		out.dl = &dl
	}
	if e.gn != nil {
		gn := *e.gn
		out.gn = &gn
	}

	return out
}

// engineSnapshot captures every piece of Engine state that Update's
// AddVariables/AddFactors/RemoveFactors steps and the constrained-ordering
// permutation can mutate before re-elimination is attempted, so that a
// failure in Update up to and including re-elimination can restore the
// engine to exactly its pre-call state. An error from the step controller
// (step 9) arrives after the rebuilt sub-tree has been spliced in and is
// returned without this rollback. The Bayes tree itself is not part of the snapshot: DetachSet's own restore
// closure, plus undoing any applied permutation, already puts it back
// without the cost of cloning the whole tree on every call.
type engineSnapshot struct {
	ordering             *ordering.Ordering
	cache                *gaussfactor.FactorCache
	estimate             *values.Estimate
	delta                *ordering.PermutedView
	deltaNewton          *ordering.PermutedView
	deltaRg              *ordering.PermutedView
	replaced             []bool
	keyDims              map[values.Key]int
	relinearizeCountdown int
}

// snapshotState deep-copies every field restoreState can later put back,
// mirroring Clone's own field-by-field copies.
func (e *Engine) snapshotState() engineSnapshot {
	newOrdering := e.ordering.Clone()
	keyDims := make(map[values.Key]int, len(e.keyDims))
	for k, v := range e.keyDims {
		keyDims[k] = v
	}

	return engineSnapshot{
		ordering:             newOrdering,
		cache:                e.cache.Clone(),
		estimate:             e.estimate.Clone(),
		delta:                e.delta.CloneFor(newOrdering),
		deltaNewton:          e.deltaNewton.CloneFor(newOrdering),
		deltaRg:              e.deltaRg.CloneFor(newOrdering),
		replaced:             append([]bool(nil), e.replaced...),
		keyDims:              keyDims,
		relinearizeCountdown: e.relinearizeCountdown,
	}
}

// restoreState puts every field snap captured back onto e, discarding
// whatever Update had mutated since the snapshot was taken.
func (e *Engine) restoreState(snap engineSnapshot) {
	e.ordering = snap.ordering
	e.cache = snap.cache
	e.estimate = snap.estimate
	e.delta = snap.delta
	e.deltaNewton = snap.deltaNewton
	e.deltaRg = snap.deltaRg
	e.replaced = snap.replaced
	e.keyDims = snap.keyDims
	e.relinearizeCountdown = snap.relinearizeCountdown
}

// CurrentError implements stepper.Evaluator.
func (e *Engine) CurrentError() float64 {
	total, _ := e.cache.TotalError(e.estimate)

	return total
}

// TryRetract implements stepper.Evaluator.
func (e *Engine) TryRetract(delta stepper.RowStore) (float64, error) {
	trial := e.estimate.Clone()
	n := e.ordering.Len()
	for i := 0; i < n; i++ {
		idx := ordering.Index(i)
		row := delta.At(idx)
		if isZero(row) {
			continue
		}
		key, err := e.ordering.KeyOf(idx)
		if err != nil {
			return 0, fmt.Errorf("isam.Engine.TryRetract: %w", err)
		}
		v, err := trial.At(key)
		if err != nil {
			return 0, fmt.Errorf("isam.Engine.TryRetract: %w", err)
		}
		trial.Update(key, v.Retract(row))
	}

	total, err := e.cache.TotalError(trial)
	if err != nil {
		return 0, fmt.Errorf("isam.Engine.TryRetract: %w", err)
	}

	return total, nil
}

// Commit implements stepper.Evaluator.
func (e *Engine) Commit(delta stepper.RowStore) error {
	n := e.ordering.Len()
	for i := 0; i < n; i++ {
		idx := ordering.Index(i)
		row := delta.At(idx)
		if isZero(row) {
			continue
		}
		key, err := e.ordering.KeyOf(idx)
		if err != nil {
			return fmt.Errorf("isam.Engine.Commit: %w", err)
		}
		v, err := e.estimate.At(key)
		if err != nil {
			return fmt.Errorf("isam.Engine.Commit: %w", err)
		}
		e.estimate.Update(key, v.Retract(row))
	}

	return nil
}

// Update folds newFactors and newValues into the engine, removes
// removeSlots, and runs one nonlinear step, following the nine-step
// incremental update pipeline: add variables, add factors, remove factors,
// mark affected/relinearized variables, find the affected sub-tree,
// re-eliminate it, splice it back in, mark the replaced flags, and run the
// configured step controller.
func (e *Engine) Update(newFactors []gaussfactor.Factor, newValues map[values.Key]values.Value, removeSlots []gaussfactor.Slot, constrainedLastKeys map[values.Key]int) (Result, error) {
	for _, s := range removeSlots {
		if !e.cache.Live(s) {
			return Result{}, fmt.Errorf("isam.Engine.Update: remove slot %d: %w", s, ErrUnknownSlot)
		}
	}

	// Snapshot every piece of engine state AddVariables/AddFactors/
	// RemoveFactors and the constrained-ordering permutation below are about
	// to mutate, so any failure up to and including re-elimination (step 7)
	// can restore the engine to exactly its pre-call state instead of leaving
	// it partially mutated. A step-controller error is not rolled back.
	snap := e.snapshotState()

	var fringeRestore func()
	var undoPerm ordering.Permutation
	treePermuted := false

	fail := func(err error) (Result, error) {
		if fringeRestore != nil {
			fringeRestore()
		}
		if treePermuted {
			e.tree.PermuteWithInverse(undoPerm)
		}
		e.restoreState(snap)

		return Result{}, fmt.Errorf("isam.Engine.Update: %w", err)
	}

	// Step 1: AddVariables.
	for k, v := range newValues {
		if e.ordering.Has(k) {
			return fail(fmt.Errorf("newValues key %s: %w", k, ErrDuplicateKey))
		}
		if err := e.estimate.Insert(k, v); err != nil {
			return fail(err)
		}
		if _, err := e.ordering.Insert(k); err != nil {
			return fail(err)
		}
		e.keyDims[k] = v.Dim()
		e.delta.Append(make([]float64, v.Dim()))
		e.deltaNewton.Append(make([]float64, v.Dim()))
		e.deltaRg.Append(make([]float64, v.Dim()))
		e.replaced = append(e.replaced, false)
	}

	for k := range constrainedLastKeys {
		if !e.ordering.Has(k) {
			return fail(fmt.Errorf("constrainedLastKeys key %s: %w", k, ErrDuplicateKey))
		}
	}

	// Step 2: AddFactors.
	newFactorSlots := make([]gaussfactor.Slot, len(newFactors))
	for i, f := range newFactors {
		newFactorSlots[i] = e.cache.Add(f)
	}

	// Step 3: RemoveFactors.
	var removedKeys []values.Key
	for _, s := range removeSlots {
		f, _ := e.cache.Get(s)
		removedKeys = append(removedKeys, f.Keys()...)
		if err := e.cache.Remove(s); err != nil {
			return fail(err)
		}
	}

	// Steps 4-5: mark affected variables and check relinearization.
	affected := make(map[values.Key]struct{})
	for _, f := range newFactors {
		for _, k := range f.Keys() {
			affected[k] = struct{}{}
		}
	}
	for _, k := range removedKeys {
		affected[k] = struct{}{}
	}

	variablesRelinearized := 0
	if e.cfg.EnableRelinearization {
		if e.relinearizeCountdown <= 0 {
			for _, key := range e.ordering.Keys() {
				idx, _ := e.ordering.At(key)
				if linfNorm(e.delta.At(idx)) > e.cfg.RelinearizeThreshold {
					affected[key] = struct{}{}
					variablesRelinearized++
				}
			}
			e.relinearizeCountdown = e.cfg.RelinearizeSkip
		} else {
			e.relinearizeCountdown--
		}
	}

	e.cfg.Logger.Debug().
		Int("affected", len(affected)).
		Int("relinearized", variablesRelinearized).
		Msg("isam: affected variables marked")

	// Apply constrained-last permutation before computing any Index-keyed
	// structures, so the global ordering already reflects it.
	if len(constrainedLastKeys) > 0 {
		perm := constrainedPermutation(e.ordering, constrainedLastKeys)
		if err := e.ordering.PermuteInPlace(perm); err != nil {
			return fail(err)
		}
		e.tree.PermuteWithInverse(perm)
		undoPerm = perm.Invert()
		treePermuted = true
	}

	affectedIndices := make([]ordering.Index, 0, len(affected))
	for key := range affected {
		idx, err := e.ordering.At(key)
		if err != nil {
			continue
		}
		affectedIndices = append(affectedIndices, idx)
	}

	// Step 6: find the affected sub-tree.
	detachedSet := e.tree.FindAll(affectedIndices)

	reElimKeySet := make(map[values.Key]struct{}, len(affected))
	for k := range affected {
		reElimKeySet[k] = struct{}{} // variables with no existing clique yet still need elimination
	}
	involvedSlots := make(map[gaussfactor.Slot]struct{})
	for c := range detachedSet {
		for _, idx := range c.Frontals() {
			k, _ := e.ordering.KeyOf(idx)
			reElimKeySet[k] = struct{}{}
		}
		for _, s := range c.FactorSlots {
			involvedSlots[s] = struct{}{}
		}
	}
	for _, s := range newFactorSlots {
		involvedSlots[s] = struct{}{}
	}
	affectedList := make([]values.Key, 0, len(affected))
	for k := range affected {
		affectedList = append(affectedList, k)
	}
	for s := range e.cache.FactorsTouching(affectedList) {
		involvedSlots[s] = struct{}{}
	}
	// Keep only live slots whose keys are all re-eliminated: a removed slot
	// can still be listed in a detached clique's FactorSlots, and a factor
	// that also touches a fringe variable is already summarized by that
	// fringe clique's cached separator.
	for s := range involvedSlots {
		f, ok := e.cache.Get(s)
		if !ok {
			delete(involvedSlots, s)
			continue
		}
		for _, k := range f.Keys() {
			if _, in := reElimKeySet[k]; !in {
				delete(involvedSlots, s)
				break
			}
		}
	}

	fringe, restore := e.tree.DetachSet(detachedSet)
	fringeRestore = restore

	graph, err := e.cache.LinearizeAt(involvedSlots, e.estimate)
	if err != nil {
		return fail(err)
	}
	active := graph.Factors
	for _, fc := range fringe {
		if fc.CachedSeparator == nil {
			continue
		}
		pseudo, err := fc.CachedSeparator.AsJacobianFactor(e.keyDims)
		if err != nil {
			return fail(err)
		}
		active = append(active, pseudo)
	}

	reElimKeys := make([]values.Key, 0, len(reElimKeySet))
	for k := range reElimKeySet {
		reElimKeys = append(reElimKeys, k)
	}
	sort.Slice(reElimKeys, func(i, j int) bool {
		ii, _ := e.ordering.At(reElimKeys[i])
		jj, _ := e.ordering.At(reElimKeys[j])

		return ii < jj
	})

	keyIndex := make(map[values.Key]ordering.Index, len(reElimKeys))
	for _, k := range reElimKeys {
		idx, _ := e.ordering.At(k)
		keyIndex[k] = idx
	}
	slotsOf := attributeSlots(involvedSlots, e.cache, keyIndex)

	// Step 7: re-eliminate.
	newCliques, err := bayestree.EliminateChain(e.cfg.Factorization, reElimKeys, e.keyDims, keyIndex, active, slotsOf)
	if err != nil {
		return fail(err)
	}

	var newRoot *bayestree.Clique
	for _, c := range newCliques {
		if c.Parent == nil {
			newRoot = c

			break
		}
	}
	if newRoot != nil {
		e.tree.AttachChain(newRoot)
	}
	for _, fc := range fringe {
		parentIdx := bayestree.MinIndex(fc.Separator())
		parent := e.tree.CliqueFor(parentIdx)
		e.tree.Attach(fc, parent)
	}

	// Step 8: mark replaced flags for every re-eliminated variable.
	for _, k := range reElimKeys {
		idx := keyIndex[k]
		if int(idx) < len(e.replaced) {
			e.replaced[idx] = true
		}
	}

	result := Result{
		NewFactorsIndices:     newFactorSlots,
		VariablesReeliminated: len(reElimKeys),
		VariablesRelinearized: variablesRelinearized,
		Cliques:               len(newCliques),
		FactorsRecalculated:   len(involvedSlots),
	}
	if e.cfg.EvaluateNonlinearError {
		result.ErrorBefore = e.CurrentError()
	}

	// Step 9: run the configured step controller.
	n := e.ordering.Len()
	var stepErr error
	var sr stepper.StepResult
	switch e.cfg.Optimization {
	case DoglegOptimization:
		sr, stepErr = e.dl.Step(e.tree, e.replaced, n, e.delta, e.deltaNewton, e.deltaRg, e)
	default:
		sr, stepErr = e.gn.Step(e.tree, e.replaced, n, e.delta, e.deltaNewton, e)
	}
	if stepErr != nil {
		return Result{}, fmt.Errorf("isam.Engine.Update: %w", stepErr)
	}
	result.CliquesReused = sr.CliquesReused

	for i := range e.replaced {
		e.replaced[i] = false
	}

	if e.cfg.EvaluateNonlinearError {
		result.ErrorAfter = e.CurrentError()
	}

	e.cfg.Logger.Info().
		Int("cliques", result.Cliques).
		Int("reeliminated", result.VariablesReeliminated).
		Bool("accepted", sr.Accepted).
		Msg("isam: update complete")

	return result, nil
}
