package audit

import "errors"

// ErrInvalidEntry is returned by Create when an entry lacks an action,
// entity type or source.
var ErrInvalidEntry = errors.New("audit: invalid entry")
