package instances

import "errors"

var (
	// ErrNotFound is returned when a firmware id or run id has no match.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a spawn would violate a uniqueness
	// constraint — currently only the cortex-m3 Stellaris fixed-MAC guard.
	ErrConflict = errors.New("conflict")
)
