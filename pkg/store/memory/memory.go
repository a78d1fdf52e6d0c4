package memory

import (
	"context"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/doodlesbykumbi/bouncer-in-go/pkg/store"
)

// Ensure Store implements store.Store
var _ store.Store = (*Store)(nil)

type assignment struct {
	roleID      int64
	principalID string
}

type state struct {
	lastAbilityID int64
	lastRoleID    int64
	lastGrantID   int64
	abilities     map[int64]store.Ability
	roles         map[int64]store.Role
	assignments   map[assignment]struct{}
	grants        map[store.GrantKey]store.Grant
}

func newState() *state {
	return &state{
		abilities:   make(map[int64]store.Ability),
		roles:       make(map[int64]store.Role),
		assignments: make(map[assignment]struct{}),
		grants:      make(map[store.GrantKey]store.Grant),
	}
}

func (s *state) clone() *state {
	return &state{
		lastAbilityID: s.lastAbilityID,
		lastRoleID:    s.lastRoleID,
		lastGrantID:   s.lastGrantID,
		abilities:     maps.Clone(s.abilities),
		roles:         maps.Clone(s.roles),
		assignments:   maps.Clone(s.assignments),
		grants:        maps.Clone(s.grants),
	}
}

// Store is an in-process store.Store. All writes are serialized by a
// single mutex; Transaction holds it for the whole callback and restores a
// snapshot when the callback fails.
type Store struct {
	mu    *sync.RWMutex
	state **state
	inTx  bool
	now   func() time.Time
}

// New returns an empty Store.
func New() *Store {
	st := newState()
	return &Store{mu: &sync.RWMutex{}, state: &st, now: time.Now}
}

func (s *Store) read() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.RLock()
	return s.mu.RUnlock
}

func (s *Store) write() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) data() *state {
	return *s.state
}

// Transaction runs fn with exclusive access to the store.
func (s *Store) Transaction(ctx context.Context, fn func(store.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return store.Wrap("transaction", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data().clone()
	tx := &Store{mu: s.mu, state: s.state, inTx: true, now: s.now}
	if err := fn(tx); err != nil {
		*s.state = snapshot
		return err
	}
	return nil
}

func (s *Store) findAbility(name, scope string) (store.Ability, bool) {
	for _, a := range s.data().abilities {
		if a.Name == name && a.Scope == scope {
			return a, true
		}
	}
	return store.Ability{}, false
}

// CreateAbility inserts a new ability.
func (s *Store) CreateAbility(ctx context.Context, a *store.Ability) error {
	defer s.write()()
	if _, ok := s.findAbility(a.Name, a.Scope); ok {
		return store.ErrDuplicateName
	}
	d := s.data()
	d.lastAbilityID++
	a.ID = d.lastAbilityID
	a.CreatedAt = s.now()
	a.UpdatedAt = a.CreatedAt
	a.Options = maps.Clone(a.Options)
	d.abilities[a.ID] = *a
	return nil
}

// UpsertAbility creates or updates the (name, scope) ability.
func (s *Store) UpsertAbility(ctx context.Context, a *store.Ability) error {
	defer s.write()()
	d := s.data()
	existing, ok := s.findAbility(a.Name, a.Scope)
	if !ok {
		d.lastAbilityID++
		a.ID = d.lastAbilityID
		a.CreatedAt = s.now()
		a.UpdatedAt = a.CreatedAt
		a.Options = maps.Clone(a.Options)
		d.abilities[a.ID] = *a
		return nil
	}
	existing.Title = a.Title
	existing.OnlyOwned = a.OnlyOwned
	existing.Options = maps.Clone(a.Options)
	existing.UpdatedAt = s.now()
	d.abilities[existing.ID] = existing
	*a = existing
	return nil
}

// UpdateAbility rewrites the mutable attributes of an ability.
func (s *Store) UpdateAbility(ctx context.Context, a *store.Ability) error {
	defer s.write()()
	d := s.data()
	existing, ok := d.abilities[a.ID]
	if !ok {
		return store.ErrNotFound
	}
	if other, ok := s.findAbility(existing.Name, a.Scope); ok && other.ID != a.ID {
		return store.ErrDuplicateName
	}
	existing.Title = a.Title
	existing.OnlyOwned = a.OnlyOwned
	existing.Options = maps.Clone(a.Options)
	existing.Scope = a.Scope
	existing.UpdatedAt = s.now()
	d.abilities[a.ID] = existing
	*a = existing
	return nil
}

// FindAbilities returns the abilities registered under (name, scope).
func (s *Store) FindAbilities(ctx context.Context, name, scope string) ([]store.Ability, error) {
	defer s.read()()
	var result []store.Ability
	for _, a := range s.data().abilities {
		if a.Name == name && a.Scope == scope {
			result = append(result, a)
		}
	}
	sortAbilities(result)
	return result, nil
}

// FindAbilityByID returns the ability with the given ID.
func (s *Store) FindAbilityByID(ctx context.Context, id int64) (store.Ability, error) {
	defer s.read()()
	a, ok := s.data().abilities[id]
	if !ok {
		return store.Ability{}, store.ErrNotFound
	}
	return a, nil
}

// ListAbilities returns the abilities matching filter ordered by name.
func (s *Store) ListAbilities(ctx context.Context, filter store.AbilityFilter) ([]store.Ability, error) {
	defer s.read()()
	result := []store.Ability{}
	for _, a := range s.data().abilities {
		if filter.Scope != nil && a.Scope != *filter.Scope {
			continue
		}
		if filter.OnlyOwned != nil && a.OnlyOwned != *filter.OnlyOwned {
			continue
		}
		result = append(result, a)
	}
	sortAbilities(result)
	return result, nil
}

// DeleteAbility removes the ability and its grants.
func (s *Store) DeleteAbility(ctx context.Context, id int64) error {
	defer s.write()()
	d := s.data()
	if _, ok := d.abilities[id]; !ok {
		return store.ErrNotFound
	}
	delete(d.abilities, id)
	for key := range d.grants {
		if key.AbilityID == id {
			delete(d.grants, key)
		}
	}
	return nil
}

func (s *Store) findRole(name, scope string) (store.Role, bool) {
	for _, r := range s.data().roles {
		if r.Name == name && r.Scope == scope {
			return r, true
		}
	}
	return store.Role{}, false
}

// UpsertRole creates or updates the (name, scope) role.
func (s *Store) UpsertRole(ctx context.Context, r *store.Role) error {
	defer s.write()()
	d := s.data()
	existing, ok := s.findRole(r.Name, r.Scope)
	if !ok {
		s.insertRole(r)
		return nil
	}
	existing.Title = r.Title
	existing.Level = r.Level
	existing.UpdatedAt = s.now()
	d.roles[existing.ID] = existing
	*r = existing
	return nil
}

// CreateRole inserts a new role.
func (s *Store) CreateRole(ctx context.Context, r *store.Role) error {
	defer s.write()()
	if _, ok := s.findRole(r.Name, r.Scope); ok {
		return store.ErrDuplicateName
	}
	s.insertRole(r)
	return nil
}

func (s *Store) insertRole(r *store.Role) {
	d := s.data()
	d.lastRoleID++
	r.ID = d.lastRoleID
	r.CreatedAt = s.now()
	r.UpdatedAt = r.CreatedAt
	d.roles[r.ID] = *r
}

// UpdateRole rewrites name, title and level of the role with r.ID.
func (s *Store) UpdateRole(ctx context.Context, r *store.Role) error {
	defer s.write()()
	d := s.data()
	existing, ok := d.roles[r.ID]
	if !ok {
		return store.ErrNotFound
	}
	if other, ok := s.findRole(r.Name, existing.Scope); ok && other.ID != r.ID {
		return store.ErrDuplicateName
	}
	existing.Name = r.Name
	existing.Title = r.Title
	existing.Level = r.Level
	existing.UpdatedAt = s.now()
	d.roles[r.ID] = existing
	*r = existing
	return nil
}

// FindRole returns the (name, scope) role.
func (s *Store) FindRole(ctx context.Context, name, scope string) (store.Role, error) {
	defer s.read()()
	r, ok := s.findRole(name, scope)
	if !ok {
		return store.Role{}, store.ErrNotFound
	}
	return r, nil
}

// ListRoles returns the roles matching filter ordered by name.
func (s *Store) ListRoles(ctx context.Context, filter store.RoleFilter) ([]store.Role, error) {
	defer s.read()()
	result := []store.Role{}
	for _, r := range s.data().roles {
		if filter.Scope != nil && r.Scope != *filter.Scope {
			continue
		}
		result = append(result, r)
	}
	sortRoles(result)
	return result, nil
}

// DeleteRole removes the role with its assignments and grants.
func (s *Store) DeleteRole(ctx context.Context, id int64) error {
	defer s.write()()
	d := s.data()
	if _, ok := d.roles[id]; !ok {
		return store.ErrNotFound
	}
	delete(d.roles, id)
	for a := range d.assignments {
		if a.roleID == id {
			delete(d.assignments, a)
		}
	}
	entity := store.RoleEntity(id)
	for key := range d.grants {
		if key.Entity == entity {
			delete(d.grants, key)
		}
	}
	return nil
}

// AssignRole records that principalID holds roleID.
func (s *Store) AssignRole(ctx context.Context, roleID int64, principalID string) error {
	defer s.write()()
	d := s.data()
	if _, ok := d.roles[roleID]; !ok {
		return store.ErrNotFound
	}
	d.assignments[assignment{roleID: roleID, principalID: principalID}] = struct{}{}
	return nil
}

// RetractRole removes the assignment, if any.
func (s *Store) RetractRole(ctx context.Context, roleID int64, principalID string) error {
	defer s.write()()
	delete(s.data().assignments, assignment{roleID: roleID, principalID: principalID})
	return nil
}

// RolesOf returns the roles assigned to principalID.
func (s *Store) RolesOf(ctx context.Context, principalID string) ([]store.Role, error) {
	defer s.read()()
	d := s.data()
	result := []store.Role{}
	for a := range d.assignments {
		if a.principalID != principalID {
			continue
		}
		if r, ok := d.roles[a.roleID]; ok {
			result = append(result, r)
		}
	}
	sortRoles(result)
	return result, nil
}

// PrincipalsWithRole returns the principals holding roleID.
func (s *Store) PrincipalsWithRole(ctx context.Context, roleID int64) ([]string, error) {
	defer s.read()()
	result := []string{}
	for a := range s.data().assignments {
		if a.roleID == roleID {
			result = append(result, a.principalID)
		}
	}
	sort.Strings(result)
	return result, nil
}

// RolesWithAbility returns the roles holding an allow grant of abilityID.
func (s *Store) RolesWithAbility(ctx context.Context, abilityID int64) ([]store.Role, error) {
	defer s.read()()
	d := s.data()
	seen := make(map[int64]bool)
	result := []store.Role{}
	for key, g := range d.grants {
		if key.AbilityID != abilityID || key.Entity.Type != store.EntityRole || g.Forbidden {
			continue
		}
		for id, r := range d.roles {
			if store.RoleEntity(id) == key.Entity && !seen[id] {
				seen[id] = true
				result = append(result, r)
			}
		}
	}
	sortRoles(result)
	return result, nil
}

// PutGrant inserts the grant or updates the forbidden flag of its key.
func (s *Store) PutGrant(ctx context.Context, g *store.Grant) error {
	defer s.write()()
	d := s.data()
	if _, ok := d.abilities[g.AbilityID]; !ok {
		return store.ErrNotFound
	}
	now := s.now()
	existing, ok := d.grants[g.GrantKey]
	if !ok {
		d.lastGrantID++
		existing = store.Grant{ID: d.lastGrantID, GrantKey: g.GrantKey, CreatedAt: now}
	}
	existing.Forbidden = g.Forbidden
	existing.UpdatedAt = now
	d.grants[g.GrantKey] = existing
	*g = existing
	return nil
}

// DeleteGrant removes the row with key.
func (s *Store) DeleteGrant(ctx context.Context, key store.GrantKey) error {
	defer s.write()()
	delete(s.data().grants, key)
	return nil
}

// DeleteForbid removes the row with key when it forbids.
func (s *Store) DeleteForbid(ctx context.Context, key store.GrantKey) error {
	defer s.write()()
	d := s.data()
	if g, ok := d.grants[key]; ok && g.Forbidden {
		delete(d.grants, key)
	}
	return nil
}

// GrantsFor returns the raw grants held by entity.
func (s *Store) GrantsFor(ctx context.Context, entity store.Entity) ([]store.Grant, error) {
	defer s.read()()
	result := []store.Grant{}
	for key, g := range s.data().grants {
		if key.Entity == entity {
			result = append(result, g)
		}
	}
	sortGrants(result)
	return result, nil
}

// GrantsMatching returns the grants of entities on abilityIDs.
func (s *Store) GrantsMatching(ctx context.Context, entities []store.Entity, abilityIDs []int64) ([]store.Grant, error) {
	defer s.read()()
	result := []store.Grant{}
	for key, g := range s.data().grants {
		if slices.Contains(entities, key.Entity) && slices.Contains(abilityIDs, key.AbilityID) {
			result = append(result, g)
		}
	}
	sortGrants(result)
	return result, nil
}

func sortAbilities(abilities []store.Ability) {
	sort.Slice(abilities, func(i, j int) bool {
		if c := strings.Compare(abilities[i].Name, abilities[j].Name); c != 0 {
			return c < 0
		}
		return abilities[i].Scope < abilities[j].Scope
	})
}

func sortRoles(roles []store.Role) {
	sort.Slice(roles, func(i, j int) bool {
		if c := strings.Compare(roles[i].Name, roles[j].Name); c != 0 {
			return c < 0
		}
		return roles[i].Scope < roles[j].Scope
	})
}

func sortGrants(grants []store.Grant) {
	sort.Slice(grants, func(i, j int) bool { return grants[i].ID < grants[j].ID })
}
