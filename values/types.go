package values

import (
	"errors"
	"fmt"
)

// Sentinel errors for the values package.
var (
	// ErrKeyNotFound indicates a lookup referenced a Key absent from an Estimate.
	ErrKeyNotFound = errors.New("values: key not found")

	// ErrDuplicateKey indicates an insert referenced a Key already present.
	ErrDuplicateKey = errors.New("values: duplicate key")
)

// Key is an opaque identifier of a variable: integer-like, totally ordered,
// hashable. Variables are not numbered contiguously; Key values are chosen
// by the caller (see Symbol for a human-readable convention).
type Key uint64

// Symbol builds a Key from a single-letter class tag and an index, following
// the common "x0", "L100" naming convention for poses/landmarks. The tag
// occupies the high byte so that keys of different classes never collide.
func Symbol(class byte, index uint64) Key {
	return Key(uint64(class)<<56 | (index & 0x00FFFFFFFFFFFFFF))
}

// Class returns the class tag a Symbol-built Key was constructed with.
func (k Key) Class() byte {
	return byte(uint64(k) >> 56)
}

// Index returns the numeric index a Symbol-built Key was constructed with.
func (k Key) Index() uint64 {
	return uint64(k) & 0x00FFFFFFFFFFFFFF
}

// String renders a Key using the Symbol convention when it looks like one,
// falling back to a raw decimal otherwise.
func (k Key) String() string {
	if c := k.Class(); c >= 'A' && c <= 'z' {
		return fmt.Sprintf("%c%d", c, k.Index())
	}

	return fmt.Sprintf("%d", uint64(k))
}

// KeyFormatter stringifies a Key for diagnostics and logging. The zero value
// of a Config is expected to default to Key.String.
type KeyFormatter func(Key) string

// DefaultKeyFormatter is the fallback KeyFormatter used when none is supplied.
func DefaultKeyFormatter(k Key) string { return k.String() }

// Value is a point on a manifold associated with a Key. The engine never
// interprets Value contents beyond this capability set.
type Value interface {
	// Dim returns the dimension of the tangent space at this point.
	Dim() int

	// Retract applies a tangent-space delta (length Dim()) to this Value,
	// producing a new Value on the manifold. It must not mutate the receiver.
	Retract(delta []float64) Value

	// LocalCoordinates returns the tangent-space delta that Retract would
	// need to move from the receiver to other. It is the left-inverse of
	// Retract at the receiver's linearization point.
	LocalCoordinates(other Value) []float64
}

// Estimate is a mapping from Key to Value. Insertion order is irrelevant for
// correctness; every Key appearing in any active factor must be present.
type Estimate struct {
	vals map[Key]Value
}

// NewEstimate returns an empty Estimate ready for use.
func NewEstimate() *Estimate {
	return &Estimate{vals: make(map[Key]Value)}
}

// Insert adds a fresh Key/Value pair. It fails with ErrDuplicateKey if the
// key is already present.
func (e *Estimate) Insert(k Key, v Value) error {
	if _, exists := e.vals[k]; exists {
		return fmt.Errorf("Estimate.Insert(%s): %w", k, ErrDuplicateKey)
	}
	e.vals[k] = v

	return nil
}

// Update overwrites the Value for an existing Key, or inserts it if absent.
func (e *Estimate) Update(k Key, v Value) {
	e.vals[k] = v
}

// At returns the Value stored for k, or ErrKeyNotFound.
func (e *Estimate) At(k Key) (Value, error) {
	v, exists := e.vals[k]
	if !exists {
		return nil, fmt.Errorf("Estimate.At(%s): %w", k, ErrKeyNotFound)
	}

	return v, nil
}

// Has reports whether k is present.
func (e *Estimate) Has(k Key) bool {
	_, exists := e.vals[k]

	return exists
}

// Keys returns every Key present, in no particular order.
func (e *Estimate) Keys() []Key {
	out := make([]Key, 0, len(e.vals))
	for k := range e.vals {
		out = append(out, k)
	}

	return out
}

// Len returns the number of entries.
func (e *Estimate) Len() int { return len(e.vals) }

// Clone returns a shallow copy: Values themselves are treated as immutable
// points on a manifold and are not deep-copied, matching the teacher
// library's Metadata-is-shared convention on shallow clones.
func (e *Estimate) Clone() *Estimate {
	out := &Estimate{vals: make(map[Key]Value, len(e.vals))}
	for k, v := range e.vals {
		out.vals[k] = v
	}

	return out
}

// Retracted returns a new Estimate where every Key present in delta has been
// moved along its tangent vector via Value.Retract. Keys absent from delta
// are copied through unchanged.
func (e *Estimate) Retracted(delta map[Key][]float64) *Estimate {
	out := e.Clone()
	for k, d := range delta {
		v, exists := out.vals[k]
		if !exists {
			continue
		}
		out.vals[k] = v.Retract(d)
	}

	return out
}
