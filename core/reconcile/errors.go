package reconcile

import "errors"

var (
	// ErrUnmappedStatus is returned for a source lifecycle state outside the known table.
	ErrUnmappedStatus = errors.New("unmapped status")

	// ErrUniquenessConflict is returned when the registry rejects a write on a name collision.
	ErrUniquenessConflict = errors.New("uniqueness conflict")

	// ErrNotFound is returned when a registry object or a required association is absent.
	ErrNotFound = errors.New("not found")

	// ErrTransport is returned for network, auth and unexpected registry failures.
	ErrTransport = errors.New("transport failure")

	// ErrDataInconsistency is returned when an entity matches none of the handled cases.
	ErrDataInconsistency = errors.New("data inconsistency")
)
