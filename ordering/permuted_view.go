package ordering

// PermutedView pairs a Permutation with an indexed container of
// vector-valued rows (here []float64 per logical index). Reading at logical
// index i returns the underlying row at Permutation[i]. The view and the
// container share storage; extending the container by one element extends
// the identity-permuted view by one as well (see the AddVariables extension
// law in the spec).
//
// This generalizes the teacher library's non-mutating "view" idiom
// (core/view.go's UnweightedView/InducedSubgraph return a fresh Graph
// without touching the source) to an O(N) metadata indirection instead of
// an O(N) data copy: permuting the view never moves the underlying rows.
type PermutedView struct {
	perm Permutation
	rows [][]float64
}

// NewPermutedView returns an identity-permuted, empty view registered with
// o so that it is kept in lockstep by future o.PermuteInPlace and
// o.Insert calls.
func NewPermutedView(o *Ordering) *PermutedView {
	v := &PermutedView{}
	o.register(v)

	return v
}

// Len returns the number of logical rows.
func (v *PermutedView) Len() int { return len(v.rows) }

// At returns the row at logical index i (by value reference; callers must
// not retain it across a PermuteInPlace or Append).
func (v *PermutedView) At(i Index) []float64 {
	return v.rows[v.perm.Apply(i)]
}

// Set overwrites the row at logical index i.
func (v *PermutedView) Set(i Index, row []float64) {
	v.rows[v.perm.Apply(i)] = row
}

// Append adds a new physical row. It does not touch the Permutation itself:
// callers append through the owning Ordering.Insert, which calls
// extendIdentity on every registered view in lockstep, growing perm by
// exactly one identity entry per new logical index (the AddVariables
// extension law). Append must therefore run once per Ordering.Insert.
func (v *PermutedView) Append(row []float64) {
	v.rows = append(v.rows, row)
}

// CloneFor returns a deep copy of v registered with owner, for use when
// cloning an Engine that owns both an Ordering and its PermutedViews
// together (spec §9's clone-isolation requirement: mutating the clone's
// view must never touch the original's rows or permutation).
func (v *PermutedView) CloneFor(owner *Ordering) *PermutedView {
	out := &PermutedView{
		perm: append(Permutation(nil), v.perm...),
		rows: make([][]float64, len(v.rows)),
	}
	for i, row := range v.rows {
		out.rows[i] = append([]float64(nil), row...)
	}
	owner.register(out)

	return out
}

// permuteInPlace implements the Ordering-facing permutable interface: it
// rewrites only the Permutation, never the underlying rows, so this is
// O(N) metadata work regardless of per-row dimension.
func (v *PermutedView) permuteInPlace(perm Permutation) {
	n := len(v.rows)
	newPerm := make(Permutation, n)
	for i := 0; i < n; i++ {
		newPerm[i] = v.perm.Apply(perm.Apply(Index(i)))
	}
	v.perm = newPerm
}

// extendIdentity grows the Permutation by n identity entries. Ordering.Insert
// calls it on every registered view for each new key; the view's physical
// row for that key is added separately through Append.
func (v *PermutedView) extendIdentity(n int) {
	for i := 0; i < n; i++ {
		v.perm = append(v.perm, Index(len(v.perm)))
	}
}

// Compact collapses the permutation into physical storage when it has
// drifted far from identity, as suggested by the design notes: after
// compaction, reading logical index i is a direct slice access with no
// indirection. Safe to call at any time; it is a pure optimization.
func (v *PermutedView) Compact() {
	n := len(v.rows)
	compacted := make([][]float64, n)
	for i := 0; i < n; i++ {
		compacted[i] = v.rows[v.perm.Apply(Index(i))]
	}
	v.rows = compacted
	identity := make(Permutation, n)
	for i := range identity {
		identity[i] = Index(i)
	}
	v.perm = identity
}
