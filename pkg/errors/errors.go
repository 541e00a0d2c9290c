package errors

import "errors"

// ErrOptimisticLock is returned when a versioned update finds the row
// already modified by another actor.
var ErrOptimisticLock = errors.New("record was modified by another operation, refresh and retry")
