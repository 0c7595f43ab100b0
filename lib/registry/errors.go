package registry

import "errors"

// ErrNotFound is returned when a firmware id has no matching descriptor.
var ErrNotFound = errors.New("firmware not found")
