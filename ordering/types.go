package ordering

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/isam/values"
)

// Sentinel errors for the ordering package.
var (
	// ErrDuplicateKey indicates a key added that already exists.
	ErrDuplicateKey = errors.New("ordering: duplicate key")

	// ErrUnknownKey indicates a lookup referenced a key absent from the ordering.
	ErrUnknownKey = errors.New("ordering: unknown key")

	// ErrIndexOutOfRange indicates an Index outside [0, N) was requested.
	ErrIndexOutOfRange = errors.New("ordering: index out of range")

	// ErrBadPermutation indicates a Permutation is not a bijection on [0, N).
	ErrBadPermutation = errors.New("ordering: not a valid permutation")
)

// Index is a dense elimination-order position: lower indices are eliminated
// first. Index values are always in [0, N) for the current N.
type Index int

// Permutation is a bijection Index -> Index, used to reindex existing
// structures without rebuilding them. Permutations shorter than the current
// index count are implicitly extended by identity.
type Permutation []Index

// Apply returns perm[i] when i is in range, or i itself (identity extension)
// otherwise.
func (perm Permutation) Apply(i Index) Index {
	if int(i) < len(perm) {
		return perm[i]
	}

	return i
}

// validate checks that perm is injective on its own domain (a prefix of a
// bijection on [0, N) for some N >= len(perm)).
func (perm Permutation) validate() error {
	seen := make(map[Index]struct{}, len(perm))
	for _, idx := range perm {
		if idx < 0 {
			return fmt.Errorf("Permutation.validate: %w", ErrBadPermutation)
		}
		if _, dup := seen[idx]; dup {
			return fmt.Errorf("Permutation.validate: %w", ErrBadPermutation)
		}
		seen[idx] = struct{}{}
	}

	return nil
}

// Invert returns the inverse permutation over the same domain length.
func (perm Permutation) Invert() Permutation {
	inv := make(Permutation, len(perm))
	for i, j := range perm {
		inv[j] = Index(i)
	}

	return inv
}

// Ordering is a bijection Key <-> Index, backed by a dual hashed index for
// O(1) expected lookups in both directions (mirrors
// katalvlaran-lvlath/core's vertices map keyed by ID, generalized to a
// reverse slice rather than relying on stored struct fields).
type Ordering struct {
	keyToIndex map[values.Key]Index
	indexToKey []values.Key // indexToKey[i] is the Key at Index i

	views []permutable // every PermutedView registered for rewrite on permuteInPlace
}

// permutable is the narrow interface a PermutedView exposes back to its
// owning Ordering so that PermuteInPlace can rewrite every registered view
// without the Ordering needing to know the view's element type.
type permutable interface {
	permuteInPlace(perm Permutation)
	extendIdentity(n int)
}

// NewOrdering returns an empty Ordering.
func NewOrdering() *Ordering {
	return &Ordering{keyToIndex: make(map[values.Key]Index)}
}

// Len returns the number of keys currently in the ordering.
func (o *Ordering) Len() int { return len(o.indexToKey) }

// Insert appends a fresh Index for key, failing with ErrDuplicateKey if the
// key is already present. Complexity: O(1) expected.
func (o *Ordering) Insert(key values.Key) (Index, error) {
	if _, exists := o.keyToIndex[key]; exists {
		return 0, fmt.Errorf("Ordering.Insert(%s): %w", key, ErrDuplicateKey)
	}
	idx := Index(len(o.indexToKey))
	o.keyToIndex[key] = idx
	o.indexToKey = append(o.indexToKey, key)
	for _, v := range o.views {
		v.extendIdentity(1)
	}

	return idx, nil
}

// At returns the Index assigned to key. Complexity: O(1) expected.
func (o *Ordering) At(key values.Key) (Index, error) {
	idx, exists := o.keyToIndex[key]
	if !exists {
		return 0, fmt.Errorf("Ordering.At(%s): %w", key, ErrUnknownKey)
	}

	return idx, nil
}

// Has reports whether key is present.
func (o *Ordering) Has(key values.Key) bool {
	_, exists := o.keyToIndex[key]

	return exists
}

// KeyOf returns the Key assigned to idx. Complexity: O(1).
func (o *Ordering) KeyOf(idx Index) (values.Key, error) {
	if int(idx) < 0 || int(idx) >= len(o.indexToKey) {
		return 0, fmt.Errorf("Ordering.KeyOf(%d): %w", idx, ErrIndexOutOfRange)
	}

	return o.indexToKey[idx], nil
}

// Keys returns every key present, ordered by Index.
func (o *Ordering) Keys() []values.Key {
	out := make([]values.Key, len(o.indexToKey))
	copy(out, o.indexToKey)

	return out
}

// register attaches a PermutedView so that future PermuteInPlace calls
// rewrite it too. Called by NewPermutedView.
func (o *Ordering) register(v permutable) {
	o.views = append(o.views, v)
}

// Clone returns a deep copy of the Key<->Index bijection with no
// PermutedViews registered. A caller that also clones associated
// PermutedViews must re-attach them to the clone via PermutedView.CloneFor,
// which registers the copy itself.
func (o *Ordering) Clone() *Ordering {
	out := &Ordering{
		keyToIndex: make(map[values.Key]Index, len(o.keyToIndex)),
		indexToKey: append([]values.Key(nil), o.indexToKey...),
	}
	for k, v := range o.keyToIndex {
		out.keyToIndex[k] = v
	}

	return out
}

// PermuteInPlace reorders all Key<->Index pairs by applying perm: reading at
// logical index i after the permute returns what reading at perm[i] returned
// before. perm shorter than Len() is identity-extended. Every PermutedView
// registered with this Ordering is rewritten in lockstep, as is the
// Ordering's own storage.
func (o *Ordering) PermuteInPlace(perm Permutation) error {
	if err := perm.validate(); err != nil {
		return fmt.Errorf("Ordering.PermuteInPlace: %w", err)
	}

	n := len(o.indexToKey)
	newIndexToKey := make([]values.Key, n)
	for i := 0; i < n; i++ {
		src := perm.Apply(Index(i))
		if int(src) >= n {
			return fmt.Errorf("Ordering.PermuteInPlace: %w", ErrBadPermutation)
		}
		newIndexToKey[i] = o.indexToKey[src]
	}
	o.indexToKey = newIndexToKey
	// Recompute keyToIndex from the rewritten indexToKey (authoritative).
	for i, k := range o.indexToKey {
		o.keyToIndex[k] = Index(i)
	}

	for _, v := range o.views {
		v.permuteInPlace(perm)
	}

	return nil
}
