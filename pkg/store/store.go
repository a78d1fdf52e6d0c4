package store

import (
	"context"
	"time"
)

// Ability is a grantable permission name. Abilities are unique by
// (Name, Scope); an empty Scope means unscoped.
type Ability struct {
	ID        int64
	Name      string
	Title     string
	OnlyOwned bool
	Options   map[string]any
	Scope     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Role is a named, assignable bundle of grants. Roles are unique by
// (Name, Scope).
type Role struct {
	ID        int64
	Name      string
	Title     string
	Level     *int
	Scope     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GrantKey is the uniqueness key of a grant row. ResourceType and
// ResourceID are empty for grants that apply to the ability generally.
type GrantKey struct {
	Entity       Entity
	AbilityID    int64
	ResourceType string
	ResourceID   string
}

// Grant is a raw, unresolved permission row.
type Grant struct {
	ID int64
	GrantKey
	Forbidden bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AbilityFilter narrows ListAbilities. Nil fields do not filter.
type AbilityFilter struct {
	Scope     *string
	OnlyOwned *bool
}

// RoleFilter narrows ListRoles. Nil fields do not filter.
type RoleFilter struct {
	Scope *string
}

// Store is the persistence contract of the authorization engine.
type Store interface {
	// Transaction runs fn against a transactional Store. The transaction is
	// rolled back if fn returns an error.
	Transaction(ctx context.Context, fn func(Store) error) error

	// CreateAbility inserts a new ability and fills in its ID and
	// timestamps. Returns ErrDuplicateName if (name, scope) is taken.
	CreateAbility(ctx context.Context, a *Ability) error
	// UpsertAbility creates the ability or updates title, only_owned and
	// options of the existing (name, scope) row.
	UpsertAbility(ctx context.Context, a *Ability) error
	// UpdateAbility rewrites title, only_owned, options and scope of the
	// ability with a.ID.
	UpdateAbility(ctx context.Context, a *Ability) error
	// FindAbilities returns every ability registered under (name, scope).
	FindAbilities(ctx context.Context, name, scope string) ([]Ability, error)
	FindAbilityByID(ctx context.Context, id int64) (Ability, error)
	ListAbilities(ctx context.Context, filter AbilityFilter) ([]Ability, error)
	// DeleteAbility removes the ability and every grant referencing it.
	DeleteAbility(ctx context.Context, id int64) error

	// UpsertRole creates the role or updates title and level of the
	// existing (name, scope) row.
	UpsertRole(ctx context.Context, r *Role) error
	CreateRole(ctx context.Context, r *Role) error
	// UpdateRole rewrites name, title and level of the role with r.ID.
	// Returns ErrDuplicateName if the new (name, scope) is taken.
	UpdateRole(ctx context.Context, r *Role) error
	FindRole(ctx context.Context, name, scope string) (Role, error)
	ListRoles(ctx context.Context, filter RoleFilter) ([]Role, error)
	// DeleteRole removes the role, its assignments and its grants.
	DeleteRole(ctx context.Context, id int64) error

	// AssignRole and RetractRole are idempotent.
	AssignRole(ctx context.Context, roleID int64, principalID string) error
	RetractRole(ctx context.Context, roleID int64, principalID string) error
	RolesOf(ctx context.Context, principalID string) ([]Role, error)
	PrincipalsWithRole(ctx context.Context, roleID int64) ([]string, error)
	// RolesWithAbility returns the roles holding an allow grant of
	// abilityID, on any resource.
	RolesWithAbility(ctx context.Context, abilityID int64) ([]Role, error)

	// PutGrant inserts the grant or flips Forbidden on the row with the
	// same key. There is never more than one row per GrantKey.
	PutGrant(ctx context.Context, g *Grant) error
	// DeleteGrant removes the row with the given key, if any.
	DeleteGrant(ctx context.Context, key GrantKey) error
	// DeleteForbid removes the row with the given key only if it forbids.
	DeleteForbid(ctx context.Context, key GrantKey) error
	GrantsFor(ctx context.Context, entity Entity) ([]Grant, error)
	// GrantsMatching returns the grants held by any of entities on any of
	// abilityIDs.
	GrantsMatching(ctx context.Context, entities []Entity, abilityIDs []int64) ([]Grant, error)
}
