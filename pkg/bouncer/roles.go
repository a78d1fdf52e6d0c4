package bouncer

import (
	"context"
	"errors"
	"fmt"

	"github.com/doodlesbykumbi/bouncer-in-go/pkg/audit"
	"github.com/doodlesbykumbi/bouncer-in-go/pkg/store"
)

// RoleSpec describes a role to create or update. Names are stored lower
// case. Nil Title and Level keep the values of an existing role.
type RoleSpec struct {
	Name  string
	Title *string
	Level *int
	Scope string
}

func (s RoleSpec) role() (store.Role, error) {
	r := store.Role{Name: normalizeRoleName(s.Name), Level: s.Level, Scope: s.Scope}
	if s.Title != nil {
		r.Title = *s.Title
	}
	if r.Name == "" {
		return r, fmt.Errorf("%w: empty role name", ErrInvalidArgument)
	}
	return r, nil
}

// RoleUpdate lists the attributes to change. Nil fields are left as they
// are. The scope is immutable.
type RoleUpdate struct {
	Name  *string
	Title *string
	Level *int
}

// UpsertRole creates the role or updates title and level of the existing
// (name, scope) role. Fields left nil in spec keep their stored values.
func (e *Engine) UpsertRole(ctx context.Context, spec RoleSpec) (Role, error) {
	r, err := spec.role()
	if err != nil {
		return Role{}, fmt.Errorf("bouncer: upsert role: %w", err)
	}

	ref := RoleRef{Name: r.Name, Scope: r.Scope}
	err = e.mutate(ctx, "upsert-role", func(st store.Store) error {
		existing, err := st.FindRole(ctx, r.Name, r.Scope)
		switch {
		case errors.Is(err, store.ErrNotFound):
		case err != nil:
			return err
		default:
			if spec.Title == nil {
				r.Title = existing.Title
			}
			if spec.Level == nil {
				r.Level = existing.Level
			}
		}
		return st.UpsertRole(ctx, &r)
	}, e.roleEvent(ctx, "upsert", ref))
	if err != nil {
		return Role{}, fmt.Errorf("bouncer: upsert role %s: %w", ref, err)
	}
	return r, nil
}

// UpdateRole renames a role or changes its title and level. Renaming onto
// a taken (name, scope) fails with ErrDuplicateName. Grants and
// assignments follow the role.
func (e *Engine) UpdateRole(ctx context.Context, ref RoleRef, upd RoleUpdate) (Role, error) {
	ref = ref.normalized()
	var r store.Role
	err := e.mutate(ctx, "update-role", func(st store.Store) error {
		var err error
		if r, err = st.FindRole(ctx, ref.Name, ref.Scope); err != nil {
			return err
		}
		if upd.Name != nil {
			r.Name = normalizeRoleName(*upd.Name)
			if r.Name == "" {
				return fmt.Errorf("%w: empty role name", ErrInvalidArgument)
			}
		}
		if upd.Title != nil {
			r.Title = *upd.Title
		}
		if upd.Level != nil {
			r.Level = upd.Level
		}
		return st.UpdateRole(ctx, &r)
	}, e.roleEvent(ctx, "update", ref))
	if err != nil {
		return Role{}, fmt.Errorf("bouncer: update role %s: %w", ref, err)
	}
	return r, nil
}

// CreateRole creates a role, failing with ErrDuplicateName when
// (name, scope) is taken.
func (e *Engine) CreateRole(ctx context.Context, spec RoleSpec) (Role, error) {
	r, err := spec.role()
	if err != nil {
		return Role{}, fmt.Errorf("bouncer: create role: %w", err)
	}

	ref := RoleRef{Name: r.Name, Scope: r.Scope}
	err = e.mutate(ctx, "create-role", func(st store.Store) error {
		return st.CreateRole(ctx, &r)
	}, e.roleEvent(ctx, "create", ref))
	if err != nil {
		return Role{}, fmt.Errorf("bouncer: create role %s: %w", ref, err)
	}
	return r, nil
}

// FindRole returns the (name, scope) role.
func (e *Engine) FindRole(ctx context.Context, ref RoleRef) (Role, error) {
	ref = ref.normalized()
	r, err := e.store.FindRole(ctx, ref.Name, ref.Scope)
	if err != nil {
		return Role{}, fmt.Errorf("bouncer: find role %s: %w", ref, err)
	}
	return r, nil
}

// ListRoles returns the roles matching filter.
func (e *Engine) ListRoles(ctx context.Context, filter RoleFilter) ([]Role, error) {
	roles, err := e.store.ListRoles(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("bouncer: list roles: %w", err)
	}
	return roles, nil
}

// DeleteRole removes a role with its assignments and grants.
func (e *Engine) DeleteRole(ctx context.Context, ref RoleRef) error {
	ref = ref.normalized()
	err := e.mutate(ctx, "delete-role", func(st store.Store) error {
		r, err := st.FindRole(ctx, ref.Name, ref.Scope)
		if err != nil {
			return err
		}
		return st.DeleteRole(ctx, r.ID)
	}, e.roleEvent(ctx, "delete", ref))
	if err != nil {
		return fmt.Errorf("bouncer: delete role %s: %w", ref, err)
	}
	return nil
}

// AssignRole gives the role to p. Assigning twice is a no-op.
func (e *Engine) AssignRole(ctx context.Context, ref RoleRef, p Principal) error {
	return e.membership(ctx, "assign", ref, p)
}

// RetractRole takes the role away from p. Retracting an unassigned role is
// a no-op.
func (e *Engine) RetractRole(ctx context.Context, ref RoleRef, p Principal) error {
	return e.membership(ctx, "retract", ref, p)
}

func (e *Engine) membership(ctx context.Context, op string, ref RoleRef, p Principal) error {
	ref = ref.normalized()
	principalID := p.PrincipalID()
	if principalID == "" {
		return fmt.Errorf("bouncer: %s role %s: %w: empty principal id", op, ref, ErrInvalidArgument)
	}

	err := e.mutate(ctx, op+"-role", func(st store.Store) error {
		r, err := st.FindRole(ctx, ref.Name, ref.Scope)
		if err != nil {
			return err
		}
		if op == "assign" {
			return st.AssignRole(ctx, r.ID, principalID)
		}
		return st.RetractRole(ctx, r.ID, principalID)
	}, func(err error) audit.Event {
		return audit.MembershipEvent{
			Actor:        actorFrom(ctx),
			Operation:    op,
			Role:         ref.Name,
			Scope:        ref.Scope,
			Principal:    principalID,
			Success:      err == nil,
			ErrorMessage: errorMessage(err),
		}
	})
	if err != nil {
		return fmt.Errorf("bouncer: %s role %s for %s: %w", op, ref, principalID, err)
	}
	return nil
}

// RolesOf returns the roles assigned to p, in every scope.
func (e *Engine) RolesOf(ctx context.Context, p Principal) ([]Role, error) {
	roles, err := e.store.RolesOf(ctx, p.PrincipalID())
	if err != nil {
		return nil, fmt.Errorf("bouncer: roles of %s: %w", p.PrincipalID(), err)
	}
	return roles, nil
}

// PrincipalsWithRole returns the ids of the principals holding the role.
func (e *Engine) PrincipalsWithRole(ctx context.Context, ref RoleRef) ([]string, error) {
	ref = ref.normalized()
	r, err := e.store.FindRole(ctx, ref.Name, ref.Scope)
	if err != nil {
		return nil, fmt.Errorf("bouncer: principals with role %s: %w", ref, err)
	}
	principals, err := e.store.PrincipalsWithRole(ctx, r.ID)
	if err != nil {
		return nil, fmt.Errorf("bouncer: principals with role %s: %w", ref, err)
	}
	return principals, nil
}

// RolesWithAbility returns the roles holding an allow grant of the
// ability, on any resource.
func (e *Engine) RolesWithAbility(ctx context.Context, ref AbilityRef) ([]Role, error) {
	a, err := findAbility(ctx, e.store, ref)
	if err != nil {
		return nil, fmt.Errorf("bouncer: roles with ability %s: %w", ref, err)
	}
	roles, err := e.store.RolesWithAbility(ctx, a.ID)
	if err != nil {
		return nil, fmt.Errorf("bouncer: roles with ability %s: %w", ref, err)
	}
	return roles, nil
}

func (e *Engine) roleEvent(ctx context.Context, op string, ref RoleRef) func(error) audit.Event {
	return func(err error) audit.Event {
		return audit.RoleEvent{
			Actor:        actorFrom(ctx),
			Operation:    op,
			Role:         ref.Name,
			Scope:        ref.Scope,
			Success:      err == nil,
			ErrorMessage: errorMessage(err),
		}
	}
}
