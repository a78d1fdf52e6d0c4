package bouncer

import (
	"errors"

	"github.com/doodlesbykumbi/bouncer-in-go/pkg/store"
)

var (
	ErrNotFound         = store.ErrNotFound
	ErrDuplicateName    = store.ErrDuplicateName
	ErrAmbiguousAbility = store.ErrAmbiguousAbility
)

// ErrInvalidArgument is returned for empty names and malformed subjects.
var ErrInvalidArgument = errors.New("invalid argument")

// StorageError is the type of wrapped persistence failures.
type StorageError = store.StorageError

type (
	Ability       = store.Ability
	Role          = store.Role
	Grant         = store.Grant
	AbilityFilter = store.AbilityFilter
	RoleFilter    = store.RoleFilter
)
