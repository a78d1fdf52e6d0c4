package gorm

import (
	"context"

	"github.com/doodlesbykumbi/bouncer-in-go/pkg/model"
	"github.com/doodlesbykumbi/bouncer-in-go/pkg/store"
)

const abilityColumns = `id, name, title, only_owned, options, scope, created_at, updated_at`

// CreateAbility inserts a new ability, failing on a (name, scope) conflict.
func (s *Store) CreateAbility(ctx context.Context, a *store.Ability) error {
	var row model.Ability
	res := s.conn(ctx).Raw(`
		INSERT INTO abilities (name, title, only_owned, options, scope)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (name, scope) DO NOTHING
		RETURNING `+abilityColumns,
		a.Name, a.Title, a.OnlyOwned, options(a.Options), a.Scope,
	).Scan(&row)
	if res.Error != nil {
		return translate("create ability", res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrDuplicateName
	}
	*a = toAbility(row)
	return nil
}

// UpsertAbility creates the ability or updates the existing (name, scope) row.
func (s *Store) UpsertAbility(ctx context.Context, a *store.Ability) error {
	var row model.Ability
	err := s.conn(ctx).Raw(`
		INSERT INTO abilities (name, title, only_owned, options, scope)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (name, scope) DO UPDATE
		SET title = EXCLUDED.title, only_owned = EXCLUDED.only_owned,
		    options = EXCLUDED.options, updated_at = NOW()
		RETURNING `+abilityColumns,
		a.Name, a.Title, a.OnlyOwned, options(a.Options), a.Scope,
	).Scan(&row).Error
	if err != nil {
		return translate("upsert ability", err)
	}
	*a = toAbility(row)
	return nil
}

// UpdateAbility rewrites the mutable attributes of the ability with a.ID.
func (s *Store) UpdateAbility(ctx context.Context, a *store.Ability) error {
	var row model.Ability
	res := s.conn(ctx).Raw(`
		UPDATE abilities
		SET title = ?, only_owned = ?, options = ?, scope = ?, updated_at = NOW()
		WHERE id = ?
		RETURNING `+abilityColumns,
		a.Title, a.OnlyOwned, options(a.Options), a.Scope, a.ID,
	).Scan(&row)
	if res.Error != nil {
		return translate("update ability", res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	*a = toAbility(row)
	return nil
}

// FindAbilities returns every ability registered under (name, scope).
func (s *Store) FindAbilities(ctx context.Context, name, scope string) ([]store.Ability, error) {
	return s.scanAbilities(ctx, "find abilities", `
		SELECT `+abilityColumns+`
		FROM abilities
		WHERE name = ? AND scope = ?
		ORDER BY id
	`, name, scope)
}

// FindAbilityByID returns the ability with the given ID.
func (s *Store) FindAbilityByID(ctx context.Context, id int64) (store.Ability, error) {
	abilities, err := s.scanAbilities(ctx, "find ability", `
		SELECT `+abilityColumns+`
		FROM abilities
		WHERE id = ?
	`, id)
	if err != nil {
		return store.Ability{}, err
	}
	if len(abilities) == 0 {
		return store.Ability{}, store.ErrNotFound
	}
	return abilities[0], nil
}

// ListAbilities returns the abilities matching filter ordered by name.
func (s *Store) ListAbilities(ctx context.Context, filter store.AbilityFilter) ([]store.Ability, error) {
	query := `SELECT ` + abilityColumns + ` FROM abilities WHERE TRUE`
	var args []interface{}

	if filter.Scope != nil {
		query += ` AND scope = ?`
		args = append(args, *filter.Scope)
	}
	if filter.OnlyOwned != nil {
		query += ` AND only_owned = ?`
		args = append(args, *filter.OnlyOwned)
	}

	query += ` ORDER BY name, scope`

	return s.scanAbilities(ctx, "list abilities", query, args...)
}

// DeleteAbility removes the ability; its grants go with it through the
// permissions foreign key.
func (s *Store) DeleteAbility(ctx context.Context, id int64) error {
	res := s.conn(ctx).Exec(`DELETE FROM abilities WHERE id = ?`, id)
	if res.Error != nil {
		return translate("delete ability", res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) scanAbilities(ctx context.Context, op, query string, args ...interface{}) ([]store.Ability, error) {
	var rows []model.Ability
	if err := s.conn(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, translate(op, err)
	}
	abilities := make([]store.Ability, 0, len(rows))
	for _, row := range rows {
		abilities = append(abilities, toAbility(row))
	}
	return abilities, nil
}
