package store

import "strconv"

//go:generate go tool enumer -type EntityType -trimprefix Entity -transform lower -yaml -output entity_type.gen.go

// EntityType is the kind of thing a grant is attached to.
type EntityType int

const (
	EntityRole EntityType = iota
	EntityPrincipal
	EntityEveryone
)

// Entity identifies a grant holder. Roles use their numeric ID rendered as
// a string, principals use their own stable ID, everyone has an empty ID.
type Entity struct {
	Type EntityType
	ID   string
}

// RoleEntity returns the entity for the role with the given ID.
func RoleEntity(roleID int64) Entity {
	return Entity{Type: EntityRole, ID: strconv.FormatInt(roleID, 10)}
}

// PrincipalEntity returns the entity for a principal.
func PrincipalEntity(principalID string) Entity {
	return Entity{Type: EntityPrincipal, ID: principalID}
}

// Everyone returns the pseudo-principal every principal belongs to.
func Everyone() Entity {
	return Entity{Type: EntityEveryone}
}

func (e Entity) String() string {
	if e.Type == EntityEveryone {
		return e.Type.String()
	}
	return e.Type.String() + ":" + e.ID
}
