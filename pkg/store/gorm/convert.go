package gorm

import (
	"maps"
	"strconv"

	"gorm.io/datatypes"

	"github.com/doodlesbykumbi/bouncer-in-go/pkg/model"
	"github.com/doodlesbykumbi/bouncer-in-go/pkg/store"
)

func toAbility(m model.Ability) store.Ability {
	return store.Ability{
		ID:        m.ID,
		Name:      m.Name,
		Title:     m.Title,
		OnlyOwned: m.OnlyOwned,
		Options:   map[string]any(m.Options),
		Scope:     m.Scope,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func options(opts map[string]any) datatypes.JSONMap {
	if opts == nil {
		return nil
	}
	return datatypes.JSONMap(maps.Clone(opts))
}

func toRole(m model.Role) store.Role {
	return store.Role{
		ID:        m.ID,
		Name:      m.Name,
		Title:     m.Title,
		Level:     m.Level,
		Scope:     m.Scope,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toGrant(m model.Permission) (store.Grant, error) {
	entityType, err := store.EntityTypeString(m.EntityType)
	if err != nil {
		return store.Grant{}, err
	}
	return store.Grant{
		ID: m.ID,
		GrantKey: store.GrantKey{
			Entity:       store.Entity{Type: entityType, ID: m.EntityID},
			AbilityID:    m.AbilityID,
			ResourceType: m.ResourceType,
			ResourceID:   m.ResourceID,
		},
		Forbidden: m.Forbidden,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}, nil
}

func toPermission(g store.Grant) model.Permission {
	return model.Permission{
		AbilityID:    g.AbilityID,
		EntityType:   g.Entity.Type.String(),
		EntityID:     g.Entity.ID,
		ResourceType: g.ResourceType,
		ResourceID:   g.ResourceID,
		Forbidden:    g.Forbidden,
	}
}

func roleEntityID(roleID int64) string {
	return strconv.FormatInt(roleID, 10)
}
