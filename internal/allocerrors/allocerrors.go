// Package allocerrors declares the sentinel errors the core can surface:
// OutOfMemory, TooLarge, and (from the large-allocation free path only)
// InvalidFree are returned to the caller; the other failure conditions are
// invariant violations and go through internal/fatal instead.
package allocerrors

import "errors"

var (
	// ErrOutOfMemory is returned when the OS memory primitive fails, or a
	// jumbo allocation would exceed the address space.
	ErrOutOfMemory = errors.New("concpool: out of memory")

	// ErrTooLarge is returned by ThreadCache.Allocate when size exceeds
	// sizeclass.MaxBytes; callers must use the jumbo path instead.
	ErrTooLarge = errors.New("concpool: size exceeds MaxBytes, use the large-allocation path")

	// ErrInvalidFree is returned (wrapped) by concpool's FreeLarge when a
	// pointer cannot be mapped back to a span: a double free or a wild
	// pointer. On the small-object release path the same condition goes
	// through internal/fatal instead, whose panic value is a plain string,
	// not this error.
	ErrInvalidFree = errors.New("concpool: invalid free, pointer maps to no span")
)
