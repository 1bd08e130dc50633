package catalog

import "errors"

// ErrInvalidArgument is returned for inputs outside an operation's domain,
// e.g. a non-positive page size. An empty result is never an error.
var ErrInvalidArgument = errors.New("invalid argument")
