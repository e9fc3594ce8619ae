package assemble

import (
	"errors"
	"fmt"
)

// ErrReferenceNotFound is returned when a row points at a lookup row that
// does not exist. Missing names are never replaced with defaults.
var ErrReferenceNotFound = errors.New("reference not found")

// ReferenceError names the orphaned reference.
type ReferenceError struct {
	Table string
	ID    int
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%v: %s id %d", ErrReferenceNotFound, e.Table, e.ID)
}

func (e *ReferenceError) Unwrap() error {
	return ErrReferenceNotFound
}
