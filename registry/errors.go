package registry

import "errors"

var (
	// ErrInvalidHandle is returned when a handle is the zero value.
	ErrInvalidHandle = errors.New("registry: invalid handle")

	// ErrStaleHandle is returned when a handle's generation no longer
	// matches the slot it addresses - the slot was freed (persistent) or
	// the registry was reset (transient) since the handle was issued.
	ErrStaleHandle = errors.New("registry: stale handle (generation mismatch)")

	// ErrOutOfRange is returned when a handle's slot index is outside the
	// registry's current bounds.
	ErrOutOfRange = errors.New("registry: handle slot out of range")
)
