package store

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an ability, role, grant or assignment that
// must exist does not.
var ErrNotFound = errors.New("not found")

// ErrDuplicateName is returned when creating an ability or role whose
// (name, scope) key is already taken.
var ErrDuplicateName = errors.New("duplicate name")

// ErrAmbiguousAbility is returned when a (name, scope) lookup yields more
// than one ability. The unique index makes this an internal consistency
// fault.
var ErrAmbiguousAbility = errors.New("ambiguous ability")

// StorageError wraps an underlying persistence failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Wrap returns err wrapped in a *StorageError unless it is nil, already a
// *StorageError, or one of the package sentinels.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrDuplicateName) || errors.Is(err, ErrAmbiguousAbility) {
		return err
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
