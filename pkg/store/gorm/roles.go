package gorm

import (
	"context"

	"github.com/doodlesbykumbi/bouncer-in-go/pkg/model"
	"github.com/doodlesbykumbi/bouncer-in-go/pkg/store"
)

const roleColumns = `id, name, title, level, scope, created_at, updated_at`

// UpsertRole creates the role or updates title and level of the existing
// (name, scope) row.
func (s *Store) UpsertRole(ctx context.Context, r *store.Role) error {
	var row model.Role
	err := s.conn(ctx).Raw(`
		INSERT INTO roles (name, title, level, scope)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (name, scope) DO UPDATE
		SET title = EXCLUDED.title, level = EXCLUDED.level, updated_at = NOW()
		RETURNING `+roleColumns,
		r.Name, r.Title, r.Level, r.Scope,
	).Scan(&row).Error
	if err != nil {
		return translate("upsert role", err)
	}
	*r = toRole(row)
	return nil
}

// CreateRole inserts a new role, failing on a (name, scope) conflict.
func (s *Store) CreateRole(ctx context.Context, r *store.Role) error {
	var row model.Role
	res := s.conn(ctx).Raw(`
		INSERT INTO roles (name, title, level, scope)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (name, scope) DO NOTHING
		RETURNING `+roleColumns,
		r.Name, r.Title, r.Level, r.Scope,
	).Scan(&row)
	if res.Error != nil {
		return translate("create role", res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrDuplicateName
	}
	*r = toRole(row)
	return nil
}

// UpdateRole rewrites name, title and level of the role with r.ID.
func (s *Store) UpdateRole(ctx context.Context, r *store.Role) error {
	var row model.Role
	res := s.conn(ctx).Raw(`
		UPDATE roles
		SET name = ?, title = ?, level = ?, updated_at = NOW()
		WHERE id = ?
		RETURNING `+roleColumns,
		r.Name, r.Title, r.Level, r.ID,
	).Scan(&row)
	if res.Error != nil {
		return translate("update role", res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	*r = toRole(row)
	return nil
}

// FindRole returns the (name, scope) role.
func (s *Store) FindRole(ctx context.Context, name, scope string) (store.Role, error) {
	roles, err := s.scanRoles(ctx, "find role", `
		SELECT `+roleColumns+`
		FROM roles
		WHERE name = ? AND scope = ?
	`, name, scope)
	if err != nil {
		return store.Role{}, err
	}
	if len(roles) == 0 {
		return store.Role{}, store.ErrNotFound
	}
	return roles[0], nil
}

// ListRoles returns the roles matching filter ordered by name.
func (s *Store) ListRoles(ctx context.Context, filter store.RoleFilter) ([]store.Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles WHERE TRUE`
	var args []interface{}

	if filter.Scope != nil {
		query += ` AND scope = ?`
		args = append(args, *filter.Scope)
	}

	query += ` ORDER BY name, scope`

	return s.scanRoles(ctx, "list roles", query, args...)
}

// DeleteRole removes the role and its grants. Assignments cascade through
// the assigned_roles foreign key.
func (s *Store) DeleteRole(ctx context.Context, id int64) error {
	res := s.conn(ctx).Exec(`DELETE FROM roles WHERE id = ?`, id)
	if res.Error != nil {
		return translate("delete role", res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	err := s.conn(ctx).Exec(
		`DELETE FROM permissions WHERE entity_type = ? AND entity_id = ?`,
		store.EntityRole.String(), roleEntityID(id),
	).Error
	return translate("delete role grants", err)
}

// AssignRole records the assignment; assigning twice is a no-op.
func (s *Store) AssignRole(ctx context.Context, roleID int64, principalID string) error {
	err := s.conn(ctx).Exec(`
		INSERT INTO assigned_roles (role_id, principal_id)
		VALUES (?, ?)
		ON CONFLICT DO NOTHING
	`, roleID, principalID).Error
	return translate("assign role", err)
}

// RetractRole removes the assignment; retracting twice is a no-op.
func (s *Store) RetractRole(ctx context.Context, roleID int64, principalID string) error {
	err := s.conn(ctx).Exec(
		`DELETE FROM assigned_roles WHERE role_id = ? AND principal_id = ?`,
		roleID, principalID,
	).Error
	return translate("retract role", err)
}

// RolesOf returns the roles assigned to a principal.
func (s *Store) RolesOf(ctx context.Context, principalID string) ([]store.Role, error) {
	return s.scanRoles(ctx, "roles of", `
		SELECT r.id, r.name, r.title, r.level, r.scope, r.created_at, r.updated_at
		FROM roles r
		JOIN assigned_roles ar ON ar.role_id = r.id
		WHERE ar.principal_id = ?
		ORDER BY r.name, r.scope
	`, principalID)
}

// PrincipalsWithRole returns the principals a role is assigned to.
func (s *Store) PrincipalsWithRole(ctx context.Context, roleID int64) ([]string, error) {
	var rows []model.AssignedRole
	err := s.conn(ctx).Raw(`
		SELECT role_id, principal_id
		FROM assigned_roles
		WHERE role_id = ?
		ORDER BY principal_id
	`, roleID).Scan(&rows).Error
	if err != nil {
		return nil, translate("principals with role", err)
	}

	principals := make([]string, 0, len(rows))
	for _, row := range rows {
		principals = append(principals, row.PrincipalID)
	}
	return principals, nil
}

// RolesWithAbility returns the roles holding an allow grant of abilityID.
func (s *Store) RolesWithAbility(ctx context.Context, abilityID int64) ([]store.Role, error) {
	return s.scanRoles(ctx, "roles with ability", `
		SELECT DISTINCT r.id, r.name, r.title, r.level, r.scope, r.created_at, r.updated_at
		FROM roles r
		JOIN permissions p ON p.entity_type = ? AND p.entity_id = r.id::text
		WHERE p.ability_id = ? AND NOT p.forbidden
		ORDER BY r.name, r.scope
	`, store.EntityRole.String(), abilityID)
}

func (s *Store) scanRoles(ctx context.Context, op, query string, args ...interface{}) ([]store.Role, error) {
	var rows []model.Role
	if err := s.conn(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, translate(op, err)
	}
	roles := make([]store.Role, 0, len(rows))
	for _, row := range rows {
		roles = append(roles, toRole(row))
	}
	return roles, nil
}
