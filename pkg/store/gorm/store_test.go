package gorm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/doodlesbykumbi/bouncer-in-go/pkg/store"
)

func setupTestDB(t *testing.T) (*Store, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	gormDB, err := gorm.Open(
		postgres.New(postgres.Config{
			Conn:                 mockDB,
			PreferSimpleProtocol: true,
		}),
		&gorm.Config{
			Logger:                 logger.Default.LogMode(logger.Silent),
			SkipDefaultTransaction: true,
		},
	)
	require.NoError(t, err)

	return New(gormDB), mock
}

var now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func abilityRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "title", "only_owned", "options", "scope", "created_at", "updated_at"})
}

func roleRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "title", "level", "scope", "created_at", "updated_at"})
}

func TestCreateAbility(t *testing.T) {
	st, mock := setupTestDB(t)

	mock.ExpectQuery(`INSERT INTO abilities .* ON CONFLICT \(name, scope\) DO NOTHING`).
		WithArgs("publish", "Publish", false, sqlmock.AnyArg(), "").
		WillReturnRows(abilityRows().AddRow(1, "publish", "Publish", false, nil, "", now, now))

	a := store.Ability{Name: "publish", Title: "Publish"}
	require.NoError(t, st.CreateAbility(context.Background(), &a))
	assert.Equal(t, int64(1), a.ID)
	assert.Equal(t, now, a.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAbilityDuplicate(t *testing.T) {
	st, mock := setupTestDB(t)

	mock.ExpectQuery(`INSERT INTO abilities`).
		WillReturnRows(abilityRows())

	a := store.Ability{Name: "publish"}
	err := st.CreateAbility(context.Background(), &a)
	assert.ErrorIs(t, err, store.ErrDuplicateName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertAbility(t *testing.T) {
	st, mock := setupTestDB(t)

	mock.ExpectQuery(`INSERT INTO abilities .* DO UPDATE`).
		WithArgs("read-notification", "", true, sqlmock.AnyArg(), "").
		WillReturnRows(abilityRows().AddRow(3, "read-notification", "", true, []byte(`{"via":"notifiable_id"}`), "", now, now))

	a := store.Ability{Name: "read-notification", OnlyOwned: true, Options: map[string]any{"via": "notifiable_id"}}
	require.NoError(t, st.UpsertAbility(context.Background(), &a))
	assert.Equal(t, int64(3), a.ID)
	assert.Equal(t, "notifiable_id", a.Options["via"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAbilityNotFound(t *testing.T) {
	st, mock := setupTestDB(t)

	mock.ExpectQuery(`UPDATE abilities`).
		WillReturnRows(abilityRows())

	a := store.Ability{ID: 9, Title: "Gone"}
	assert.ErrorIs(t, st.UpdateAbility(context.Background(), &a), store.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindAbilities(t *testing.T) {
	st, mock := setupTestDB(t)

	mock.ExpectQuery(`SELECT .* FROM abilities\s+WHERE name = .* AND scope = `).
		WithArgs("publish", "tenant-1").
		WillReturnRows(abilityRows().AddRow(2, "publish", "", false, nil, "tenant-1", now, now))

	found, err := st.FindAbilities(context.Background(), "publish", "tenant-1")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "tenant-1", found[0].Scope)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindAbilityByIDNotFound(t *testing.T) {
	st, mock := setupTestDB(t)

	mock.ExpectQuery(`FROM abilities\s+WHERE id = `).
		WithArgs(int64(5)).
		WillReturnRows(abilityRows())

	_, err := st.FindAbilityByID(context.Background(), 5)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAbilitiesFilters(t *testing.T) {
	st, mock := setupTestDB(t)

	scope := "tenant-1"
	owned := true
	mock.ExpectQuery(`FROM abilities WHERE TRUE AND scope = .* AND only_owned = .* ORDER BY name, scope`).
		WithArgs("tenant-1", true).
		WillReturnRows(abilityRows().AddRow(4, "edit", "", true, nil, "tenant-1", now, now))

	abilities, err := st.ListAbilities(context.Background(), store.AbilityFilter{Scope: &scope, OnlyOwned: &owned})
	require.NoError(t, err)
	require.Len(t, abilities, 1)
	assert.True(t, abilities[0].OnlyOwned)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteAbility(t *testing.T) {
	st, mock := setupTestDB(t)

	mock.ExpectExec(`DELETE FROM abilities WHERE id = `).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM abilities WHERE id = `).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, st.DeleteAbility(context.Background(), 1))
	assert.ErrorIs(t, st.DeleteAbility(context.Background(), 1), store.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertRole(t *testing.T) {
	st, mock := setupTestDB(t)

	mock.ExpectQuery(`INSERT INTO roles .* DO UPDATE`).
		WithArgs("editor", "Editor", sqlmock.AnyArg(), "").
		WillReturnRows(roleRows().AddRow(1, "editor", "Editor", 20, "", now, now))

	level := 20
	r := store.Role{Name: "editor", Title: "Editor", Level: &level}
	require.NoError(t, st.UpsertRole(context.Background(), &r))
	assert.Equal(t, int64(1), r.ID)
	require.NotNil(t, r.Level)
	assert.Equal(t, 20, *r.Level)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRole(t *testing.T) {
	st, mock := setupTestDB(t)

	mock.ExpectQuery(`UPDATE roles\s+SET name = .*, title = .*, level = .* WHERE id = `).
		WithArgs("writer", "Editor", sqlmock.AnyArg(), int64(4)).
		WillReturnRows(roleRows().AddRow(4, "writer", "Editor", nil, "tenant-1", now, now))
	mock.ExpectQuery(`UPDATE roles`).
		WillReturnRows(roleRows())

	r := store.Role{ID: 4, Name: "writer", Title: "Editor"}
	require.NoError(t, st.UpdateRole(context.Background(), &r))
	assert.Equal(t, "tenant-1", r.Scope)

	gone := store.Role{ID: 9, Name: "gone"}
	assert.ErrorIs(t, st.UpdateRole(context.Background(), &gone), store.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRoleDuplicate(t *testing.T) {
	st, mock := setupTestDB(t)

	mock.ExpectQuery(`INSERT INTO roles .* DO NOTHING`).
		WillReturnRows(roleRows())

	r := store.Role{Name: "editor"}
	assert.ErrorIs(t, st.CreateRole(context.Background(), &r), store.ErrDuplicateName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteRoleRemovesGrants(t *testing.T) {
	st, mock := setupTestDB(t)

	mock.ExpectExec(`DELETE FROM roles WHERE id = `).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM permissions WHERE entity_type = .* AND entity_id = `).
		WithArgs("role", "3").
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, st.DeleteRole(context.Background(), 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteRoleNotFound(t *testing.T) {
	st, mock := setupTestDB(t)

	mock.ExpectExec(`DELETE FROM roles WHERE id = `).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, st.DeleteRole(context.Background(), 3), store.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignAndRetract(t *testing.T) {
	st, mock := setupTestDB(t)

	mock.ExpectExec(`INSERT INTO assigned_roles .* ON CONFLICT DO NOTHING`).
		WithArgs(int64(1), "alice").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM assigned_roles WHERE role_id = .* AND principal_id = `).
		WithArgs(int64(1), "alice").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, st.AssignRole(context.Background(), 1, "alice"))
	require.NoError(t, st.RetractRole(context.Background(), 1, "alice"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRolesOf(t *testing.T) {
	st, mock := setupTestDB(t)

	mock.ExpectQuery(`FROM roles r\s+JOIN assigned_roles ar`).
		WithArgs("alice").
		WillReturnRows(roleRows().
			AddRow(1, "admin", "", nil, "", now, now).
			AddRow(2, "editor", "", 10, "", now, now))

	roles, err := st.RolesOf(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, roles, 2)
	assert.Equal(t, "admin", roles[0].Name)
	assert.Nil(t, roles[0].Level)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPrincipalsWithRole(t *testing.T) {
	st, mock := setupTestDB(t)

	mock.ExpectQuery(`SELECT role_id, principal_id\s+FROM assigned_roles`).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"role_id", "principal_id"}).
			AddRow(2, "alice").
			AddRow(2, "bob"))

	principals, err := st.PrincipalsWithRole(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, principals)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRolesWithAbility(t *testing.T) {
	st, mock := setupTestDB(t)

	mock.ExpectQuery(`FROM roles r\s+JOIN permissions p ON p.entity_type = .* AND p.entity_id = r.id::text\s+WHERE p.ability_id = .* AND NOT p.forbidden`).
		WithArgs("role", int64(5)).
		WillReturnRows(roleRows().AddRow(1, "editor", "", nil, "", now, now))

	roles, err := st.RolesWithAbility(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, "editor", roles[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPutGrantUpserts(t *testing.T) {
	st, mock := setupTestDB(t)

	mock.ExpectQuery(`INSERT INTO "permissions" .* ON CONFLICT \("entity_type","entity_id","ability_id","resource_type","resource_id"\) DO UPDATE SET "forbidden"="excluded"."forbidden"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))

	g := store.Grant{
		GrantKey:  store.GrantKey{Entity: store.PrincipalEntity("alice"), AbilityID: 1},
		Forbidden: true,
	}
	require.NoError(t, st.PutGrant(context.Background(), &g))
	assert.Equal(t, int64(11), g.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteForbid(t *testing.T) {
	st, mock := setupTestDB(t)

	mock.ExpectExec(`DELETE FROM "permissions" WHERE .*entity_type = .* AND forbidden = `).
		WithArgs("everyone", "", int64(4), "", "", true).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := st.DeleteForbid(context.Background(), store.GrantKey{Entity: store.Everyone(), AbilityID: 4})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGrantsFor(t *testing.T) {
	st, mock := setupTestDB(t)

	mock.ExpectQuery(`SELECT \* FROM "permissions" WHERE .*entity_type = .* ORDER BY id`).
		WithArgs("role", "2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "ability_id", "entity_type", "entity_id", "resource_type", "resource_id", "forbidden", "created_at", "updated_at"}).
			AddRow(1, 5, "role", "2", "", "", false, now, now).
			AddRow(2, 6, "role", "2", "post", "7", true, now, now))

	grants, err := st.GrantsFor(context.Background(), store.RoleEntity(2))
	require.NoError(t, err)
	require.Len(t, grants, 2)
	assert.Equal(t, store.RoleEntity(2), grants[1].Entity)
	assert.Equal(t, "post", grants[1].ResourceType)
	assert.True(t, grants[1].Forbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGrantsMatchingSkipsEmptyQueries(t *testing.T) {
	st, mock := setupTestDB(t)

	grants, err := st.GrantsMatching(context.Background(), nil, []int64{1})
	require.NoError(t, err)
	assert.Empty(t, grants)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGrantsMatching(t *testing.T) {
	st, mock := setupTestDB(t)

	mock.ExpectQuery(`SELECT \* FROM "permissions" WHERE ability_id IN .* AND \(entity_type, entity_id\) IN`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "ability_id", "entity_type", "entity_id", "resource_type", "resource_id", "forbidden", "created_at", "updated_at"}).
			AddRow(1, 5, "everyone", "", "", "", false, now, now))

	grants, err := st.GrantsMatching(context.Background(),
		[]store.Entity{store.PrincipalEntity("alice"), store.Everyone()},
		[]int64{5},
	)
	require.NoError(t, err)
	require.Len(t, grants, 1)
	assert.Equal(t, store.Everyone(), grants[0].Entity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStorageErrorsAreWrapped(t *testing.T) {
	st, mock := setupTestDB(t)

	boom := errors.New("connection reset")
	mock.ExpectQuery(`FROM abilities`).WillReturnError(boom)

	_, err := st.FindAbilities(context.Background(), "publish", "")
	require.Error(t, err)
	var se *store.StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "find abilities", se.Op)
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionCommitAndRollback(t *testing.T) {
	st, mock := setupTestDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO assigned_roles`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := st.Transaction(context.Background(), func(tx store.Store) error {
		return tx.AssignRole(context.Background(), 1, "alice")
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectRollback()

	err = st.Transaction(context.Background(), func(tx store.Store) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}
