package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/bouncer-in-go/pkg/store"
)

func TestAbilityUniqueByNameAndScope(t *testing.T) {
	ctx := context.Background()
	st := New()

	a := store.Ability{Name: "publish"}
	require.NoError(t, st.CreateAbility(ctx, &a))
	assert.NotZero(t, a.ID)

	dup := store.Ability{Name: "publish"}
	assert.ErrorIs(t, st.CreateAbility(ctx, &dup), store.ErrDuplicateName)

	scoped := store.Ability{Name: "publish", Scope: "tenant-1"}
	require.NoError(t, st.CreateAbility(ctx, &scoped))
	assert.NotEqual(t, a.ID, scoped.ID)

	found, err := st.FindAbilities(ctx, "publish", "tenant-1")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, scoped.ID, found[0].ID)
}

func TestUpsertAbilityUpdatesExisting(t *testing.T) {
	ctx := context.Background()
	st := New()

	a := store.Ability{Name: "view", Title: "View"}
	require.NoError(t, st.UpsertAbility(ctx, &a))

	b := store.Ability{Name: "view", Title: "View things", OnlyOwned: true}
	require.NoError(t, st.UpsertAbility(ctx, &b))
	assert.Equal(t, a.ID, b.ID)

	got, err := st.FindAbilityByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "View things", got.Title)
	assert.True(t, got.OnlyOwned)
}

func TestUpdateAbilityScopeCollision(t *testing.T) {
	ctx := context.Background()
	st := New()

	a := store.Ability{Name: "edit"}
	b := store.Ability{Name: "edit", Scope: "blue"}
	require.NoError(t, st.CreateAbility(ctx, &a))
	require.NoError(t, st.CreateAbility(ctx, &b))

	a.Scope = "blue"
	assert.ErrorIs(t, st.UpdateAbility(ctx, &a), store.ErrDuplicateName)

	missing := store.Ability{ID: 999}
	assert.ErrorIs(t, st.UpdateAbility(ctx, &missing), store.ErrNotFound)
}

func TestDeleteAbilityCascadesGrants(t *testing.T) {
	ctx := context.Background()
	st := New()

	a := store.Ability{Name: "delete"}
	require.NoError(t, st.CreateAbility(ctx, &a))
	g := store.Grant{GrantKey: store.GrantKey{Entity: store.Everyone(), AbilityID: a.ID}}
	require.NoError(t, st.PutGrant(ctx, &g))

	require.NoError(t, st.DeleteAbility(ctx, a.ID))
	grants, err := st.GrantsFor(ctx, store.Everyone())
	require.NoError(t, err)
	assert.Empty(t, grants)

	assert.ErrorIs(t, st.DeleteAbility(ctx, a.ID), store.ErrNotFound)
}

func TestRoleUpsertAndCreate(t *testing.T) {
	ctx := context.Background()
	st := New()

	level := 10
	r := store.Role{Name: "editor", Title: "Editor", Level: &level}
	require.NoError(t, st.UpsertRole(ctx, &r))

	again := store.Role{Name: "editor", Title: "Chief editor"}
	require.NoError(t, st.UpsertRole(ctx, &again))
	assert.Equal(t, r.ID, again.ID)
	assert.Equal(t, "Chief editor", again.Title)

	dup := store.Role{Name: "editor"}
	assert.ErrorIs(t, st.CreateRole(ctx, &dup), store.ErrDuplicateName)

	_, err := st.FindRole(ctx, "editor", "other")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateRole(t *testing.T) {
	ctx := context.Background()
	st := New()

	editor := store.Role{Name: "editor", Scope: "tenant-1"}
	require.NoError(t, st.CreateRole(ctx, &editor))
	admin := store.Role{Name: "admin", Scope: "tenant-1"}
	require.NoError(t, st.CreateRole(ctx, &admin))
	other := store.Role{Name: "writer"}
	require.NoError(t, st.CreateRole(ctx, &other))

	renamed := store.Role{ID: editor.ID, Name: "writer", Title: "Writer"}
	require.NoError(t, st.UpdateRole(ctx, &renamed))
	assert.Equal(t, "tenant-1", renamed.Scope, "the scope is kept")

	found, err := st.FindRole(ctx, "writer", "tenant-1")
	require.NoError(t, err)
	assert.Equal(t, editor.ID, found.ID)
	assert.Equal(t, "Writer", found.Title)

	clash := store.Role{ID: editor.ID, Name: "admin"}
	assert.ErrorIs(t, st.UpdateRole(ctx, &clash), store.ErrDuplicateName)
	missing := store.Role{ID: 42, Name: "gone"}
	assert.ErrorIs(t, st.UpdateRole(ctx, &missing), store.ErrNotFound)
}

func TestRolesWithAbility(t *testing.T) {
	ctx := context.Background()
	st := New()

	a := store.Ability{Name: "publish"}
	require.NoError(t, st.CreateAbility(ctx, &a))
	editor := store.Role{Name: "editor"}
	require.NoError(t, st.CreateRole(ctx, &editor))
	banned := store.Role{Name: "banned"}
	require.NoError(t, st.CreateRole(ctx, &banned))

	for _, g := range []store.Grant{
		{GrantKey: store.GrantKey{Entity: store.RoleEntity(editor.ID), AbilityID: a.ID}},
		{GrantKey: store.GrantKey{Entity: store.RoleEntity(editor.ID), AbilityID: a.ID, ResourceType: "post"}},
		{GrantKey: store.GrantKey{Entity: store.RoleEntity(banned.ID), AbilityID: a.ID}, Forbidden: true},
		{GrantKey: store.GrantKey{Entity: store.Everyone(), AbilityID: a.ID}},
	} {
		require.NoError(t, st.PutGrant(ctx, &g))
	}

	roles, err := st.RolesWithAbility(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, editor.ID, roles[0].ID)
}

func TestAssignmentIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := New()

	r := store.Role{Name: "admin"}
	require.NoError(t, st.CreateRole(ctx, &r))

	require.NoError(t, st.AssignRole(ctx, r.ID, "alice"))
	require.NoError(t, st.AssignRole(ctx, r.ID, "alice"))

	principals, err := st.PrincipalsWithRole(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, principals)

	require.NoError(t, st.RetractRole(ctx, r.ID, "alice"))
	require.NoError(t, st.RetractRole(ctx, r.ID, "alice"))

	roles, err := st.RolesOf(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, roles)

	assert.ErrorIs(t, st.AssignRole(ctx, 42, "alice"), store.ErrNotFound)
}

func TestDeleteRoleCascades(t *testing.T) {
	ctx := context.Background()
	st := New()

	r := store.Role{Name: "editor"}
	require.NoError(t, st.CreateRole(ctx, &r))
	a := store.Ability{Name: "publish"}
	require.NoError(t, st.CreateAbility(ctx, &a))
	require.NoError(t, st.AssignRole(ctx, r.ID, "alice"))
	g := store.Grant{GrantKey: store.GrantKey{Entity: store.RoleEntity(r.ID), AbilityID: a.ID}}
	require.NoError(t, st.PutGrant(ctx, &g))

	require.NoError(t, st.DeleteRole(ctx, r.ID))

	roles, err := st.RolesOf(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, roles)
	grants, err := st.GrantsFor(ctx, store.RoleEntity(r.ID))
	require.NoError(t, err)
	assert.Empty(t, grants)
}

func TestPutGrantKeepsOneRowPerKey(t *testing.T) {
	ctx := context.Background()
	st := New()

	a := store.Ability{Name: "publish"}
	require.NoError(t, st.CreateAbility(ctx, &a))
	key := store.GrantKey{Entity: store.PrincipalEntity("alice"), AbilityID: a.ID, ResourceType: "post", ResourceID: "7"}

	allow := store.Grant{GrantKey: key}
	require.NoError(t, st.PutGrant(ctx, &allow))
	forbid := store.Grant{GrantKey: key, Forbidden: true}
	require.NoError(t, st.PutGrant(ctx, &forbid))
	assert.Equal(t, allow.ID, forbid.ID)

	grants, err := st.GrantsFor(ctx, store.PrincipalEntity("alice"))
	require.NoError(t, err)
	require.Len(t, grants, 1)
	assert.True(t, grants[0].Forbidden)

	missing := store.Grant{GrantKey: store.GrantKey{Entity: store.Everyone(), AbilityID: 404}}
	assert.ErrorIs(t, st.PutGrant(ctx, &missing), store.ErrNotFound)
}

func TestDeleteForbidLeavesAllows(t *testing.T) {
	ctx := context.Background()
	st := New()

	a := store.Ability{Name: "view"}
	require.NoError(t, st.CreateAbility(ctx, &a))
	key := store.GrantKey{Entity: store.Everyone(), AbilityID: a.ID}
	g := store.Grant{GrantKey: key}
	require.NoError(t, st.PutGrant(ctx, &g))

	require.NoError(t, st.DeleteForbid(ctx, key))
	grants, err := st.GrantsFor(ctx, store.Everyone())
	require.NoError(t, err)
	assert.Len(t, grants, 1)

	require.NoError(t, st.DeleteGrant(ctx, key))
	require.NoError(t, st.DeleteGrant(ctx, key))
	grants, err = st.GrantsFor(ctx, store.Everyone())
	require.NoError(t, err)
	assert.Empty(t, grants)
}

func TestGrantsMatching(t *testing.T) {
	ctx := context.Background()
	st := New()

	view := store.Ability{Name: "view"}
	edit := store.Ability{Name: "edit"}
	require.NoError(t, st.CreateAbility(ctx, &view))
	require.NoError(t, st.CreateAbility(ctx, &edit))

	for _, g := range []store.Grant{
		{GrantKey: store.GrantKey{Entity: store.Everyone(), AbilityID: view.ID}},
		{GrantKey: store.GrantKey{Entity: store.PrincipalEntity("bob"), AbilityID: view.ID}},
		{GrantKey: store.GrantKey{Entity: store.PrincipalEntity("alice"), AbilityID: edit.ID}},
	} {
		require.NoError(t, st.PutGrant(ctx, &g))
	}

	grants, err := st.GrantsMatching(ctx, []store.Entity{store.PrincipalEntity("alice"), store.Everyone()}, []int64{view.ID})
	require.NoError(t, err)
	require.Len(t, grants, 1)
	assert.Equal(t, store.Everyone(), grants[0].Entity)
}

func TestTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	st := New()

	boom := errors.New("boom")
	err := st.Transaction(ctx, func(tx store.Store) error {
		a := store.Ability{Name: "publish"}
		if err := tx.CreateAbility(ctx, &a); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	found, err := st.FindAbilities(ctx, "publish", "")
	require.NoError(t, err)
	assert.Empty(t, found)

	err = st.Transaction(ctx, func(tx store.Store) error {
		a := store.Ability{Name: "publish"}
		return tx.CreateAbility(ctx, &a)
	})
	require.NoError(t, err)
	found, err = st.FindAbilities(ctx, "publish", "")
	require.NoError(t, err)
	assert.Len(t, found, 1)
}
