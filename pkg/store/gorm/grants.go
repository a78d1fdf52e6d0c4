package gorm

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/doodlesbykumbi/bouncer-in-go/pkg/model"
	"github.com/doodlesbykumbi/bouncer-in-go/pkg/store"
)

var grantKeyColumns = []clause.Column{
	{Name: "entity_type"},
	{Name: "entity_id"},
	{Name: "ability_id"},
	{Name: "resource_type"},
	{Name: "resource_id"},
}

// PutGrant upserts the grant on its key, flipping forbidden on an existing row.
func (s *Store) PutGrant(ctx context.Context, g *store.Grant) error {
	row := toPermission(*g)
	err := s.conn(ctx).Clauses(clause.OnConflict{
		Columns:   grantKeyColumns,
		DoUpdates: clause.AssignmentColumns([]string{"forbidden", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return translate("put grant", err)
	}
	g.ID = row.ID
	g.CreatedAt = row.CreatedAt
	g.UpdatedAt = row.UpdatedAt
	return nil
}

// DeleteGrant removes the row with the given key, if any.
func (s *Store) DeleteGrant(ctx context.Context, key store.GrantKey) error {
	err := s.whereKey(ctx, key).Delete(&model.Permission{}).Error
	return translate("delete grant", err)
}

// DeleteForbid removes the row with the given key only if it forbids.
func (s *Store) DeleteForbid(ctx context.Context, key store.GrantKey) error {
	err := s.whereKey(ctx, key).Where("forbidden = ?", true).Delete(&model.Permission{}).Error
	return translate("delete forbid", err)
}

// GrantsFor returns the raw grants held by an entity.
func (s *Store) GrantsFor(ctx context.Context, entity store.Entity) ([]store.Grant, error) {
	var rows []model.Permission
	err := s.conn(ctx).
		Where("entity_type = ? AND entity_id = ?", entity.Type.String(), entity.ID).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, translate("grants for", err)
	}
	return toGrants(rows)
}

// GrantsMatching returns the grants of any of entities on any of abilityIDs.
func (s *Store) GrantsMatching(ctx context.Context, entities []store.Entity, abilityIDs []int64) ([]store.Grant, error) {
	if len(entities) == 0 || len(abilityIDs) == 0 {
		return []store.Grant{}, nil
	}

	pairs := make([][]interface{}, 0, len(entities))
	for _, e := range entities {
		pairs = append(pairs, []interface{}{e.Type.String(), e.ID})
	}

	var rows []model.Permission
	err := s.conn(ctx).
		Where("ability_id IN ?", abilityIDs).
		Where("(entity_type, entity_id) IN ?", pairs).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, translate("grants matching", err)
	}
	return toGrants(rows)
}

func (s *Store) whereKey(ctx context.Context, key store.GrantKey) *gorm.DB {
	return s.conn(ctx).Where(
		"entity_type = ? AND entity_id = ? AND ability_id = ? AND resource_type = ? AND resource_id = ?",
		key.Entity.Type.String(), key.Entity.ID, key.AbilityID, key.ResourceType, key.ResourceID,
	)
}

func toGrants(rows []model.Permission) ([]store.Grant, error) {
	grants := make([]store.Grant, 0, len(rows))
	for _, row := range rows {
		g, err := toGrant(row)
		if err != nil {
			return nil, store.Wrap("decode grant", err)
		}
		grants = append(grants, g)
	}
	return grants, nil
}
