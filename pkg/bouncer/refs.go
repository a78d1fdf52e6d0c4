package bouncer

import (
	"context"
	"fmt"
	"strings"

	"github.com/doodlesbykumbi/bouncer-in-go/pkg/store"
)

// Everything is the sentinel ability name matching every ability.
const Everything = "*"

// Principal is anything with a stable unique id. The engine never
// authenticates; it only needs the id.
type Principal interface {
	PrincipalID() string
}

// PrincipalID is the simplest Principal.
type PrincipalID string

func (p PrincipalID) PrincipalID() string {
	return string(p)
}

// AbilityRef names an ability by (name, scope).
type AbilityRef struct {
	Name  string
	Scope string
}

// Ref returns a reference to the unscoped ability name.
func Ref(name string) AbilityRef {
	return AbilityRef{Name: name}
}

// In returns the reference scoped to scope.
func (r AbilityRef) In(scope string) AbilityRef {
	r.Scope = scope
	return r
}

func (r AbilityRef) String() string {
	if r.Scope == "" {
		return r.Name
	}
	return r.Name + "@" + r.Scope
}

// RoleRef names a role by (name, scope). Names are case-insensitive.
type RoleRef struct {
	Name  string
	Scope string
}

// RoleNamed returns a reference to the unscoped role name.
func RoleNamed(name string) RoleRef {
	return RoleRef{Name: name}
}

// In returns the reference scoped to scope.
func (r RoleRef) In(scope string) RoleRef {
	r.Scope = scope
	return r
}

func (r RoleRef) normalized() RoleRef {
	r.Name = normalizeRoleName(r.Name)
	return r
}

func (r RoleRef) String() string {
	if r.Scope == "" {
		return r.Name
	}
	return r.Name + "@" + r.Scope
}

func normalizeRoleName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Subject is the holder of a grant: a role, a principal or everyone.
type Subject struct {
	kind      store.EntityType
	role      RoleRef
	principal string
}

// ForRole returns the subject for a role.
func ForRole(r RoleRef) Subject {
	return Subject{kind: store.EntityRole, role: r.normalized()}
}

// ForPrincipal returns the subject for a principal.
func ForPrincipal(p Principal) Subject {
	return Subject{kind: store.EntityPrincipal, principal: p.PrincipalID()}
}

// ForEveryone returns the pseudo-principal every principal belongs to.
func ForEveryone() Subject {
	return Subject{kind: store.EntityEveryone}
}

func (s Subject) String() string {
	switch s.kind {
	case store.EntityRole:
		return "role:" + s.role.String()
	case store.EntityPrincipal:
		return "principal:" + s.principal
	}
	return "everyone"
}

// ParseSubject parses "role:NAME", "role:NAME@SCOPE", "principal:ID" or
// "everyone".
func ParseSubject(s string) (Subject, error) {
	if s == "everyone" {
		return ForEveryone(), nil
	}
	kind, rest, ok := strings.Cut(s, ":")
	if !ok || rest == "" {
		return Subject{}, fmt.Errorf("%w: subject %q", ErrInvalidArgument, s)
	}
	switch kind {
	case "role":
		name, scope, _ := strings.Cut(rest, "@")
		return ForRole(RoleRef{Name: name, Scope: scope}), nil
	case "principal", "user":
		return ForPrincipal(PrincipalID(rest)), nil
	}
	return Subject{}, fmt.Errorf("%w: subject %q", ErrInvalidArgument, s)
}

func (s Subject) entity(ctx context.Context, st store.Store) (store.Entity, error) {
	switch s.kind {
	case store.EntityRole:
		if s.role.Name == "" {
			return store.Entity{}, fmt.Errorf("%w: empty role name", ErrInvalidArgument)
		}
		role, err := st.FindRole(ctx, s.role.Name, s.role.Scope)
		if err != nil {
			return store.Entity{}, fmt.Errorf("role %s: %w", s.role, err)
		}
		return store.RoleEntity(role.ID), nil
	case store.EntityPrincipal:
		if s.principal == "" {
			return store.Entity{}, fmt.Errorf("%w: empty principal id", ErrInvalidArgument)
		}
		return store.PrincipalEntity(s.principal), nil
	}
	return store.Everyone(), nil
}

// Resource is the target of a check or a grant. A Resource without an ID
// stands for its whole type.
type Resource struct {
	Type   string
	ID     string
	Fields map[string]string
}

// Instance returns a resource for one record. fields carries the
// attributes ownership is resolved from.
func Instance(typ, id string, fields map[string]string) *Resource {
	return &Resource{Type: typ, ID: id, Fields: fields}
}

// Class returns a resource standing for every record of typ.
func Class(typ string) *Resource {
	return &Resource{Type: typ}
}

func (r *Resource) key() (resourceType, resourceID string) {
	if r == nil {
		return "", ""
	}
	return r.Type, r.ID
}

func (r *Resource) String() string {
	switch {
	case r == nil || r.Type == "":
		return "anything"
	case r.ID == "":
		return r.Type
	}
	return r.Type + ":" + r.ID
}
