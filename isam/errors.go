package isam

import "errors"

// Sentinel errors for the isam package.
var (
	// ErrDuplicateKey indicates a key in newValues already exists in the
	// ordering, or constrainedLastKeys names a key absent from the ordering
	// once AddVariables has run.
	ErrDuplicateKey = errors.New("isam: duplicate key")

	// ErrUnknownSlot indicates removeSlots referenced a dead or out-of-range
	// factor slot.
	ErrUnknownSlot = errors.New("isam: unknown or dead factor slot")
)
