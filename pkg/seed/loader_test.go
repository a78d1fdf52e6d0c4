package seed

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/bouncer-in-go/pkg/bouncer"
	"github.com/doodlesbykumbi/bouncer-in-go/pkg/store/memory"
)

func newEngine() *bouncer.Engine {
	ownership := bouncer.NewOwnership("").
		OwnedVia("user", "id").
		OwnedVia("notification", "notifiable_id")
	return bouncer.New(memory.New(), bouncer.WithOwnership(ownership))
}

func loadPermissions(t *testing.T, e *bouncer.Engine) *LoadResult {
	t.Helper()
	f, err := os.Open("testdata/permissions.yml")
	require.NoError(t, err)
	defer f.Close()

	result, err := NewLoader(e).LoadFromReader(context.Background(), f)
	require.NoError(t, err)
	return result
}

type check struct {
	principal string
	ability   string
	res       *bouncer.Resource
	want      bool
}

var permissionChecks = []check{
	{"1", "read-email", bouncer.Instance("user", "2", nil), true},
	{"1", "index-roles", nil, true},
	{"2", "read", bouncer.Instance("user", "3", nil), true},
	{"2", "read", nil, false},
	{"2", "update", bouncer.Instance("user", "2", nil), true},
	{"2", "update", bouncer.Instance("user", "3", nil), false},
	{"2", "read-notification", bouncer.Instance("notification", "9", map[string]string{"notifiable_id": "2"}), true},
	{"2", "read-notification", bouncer.Instance("notification", "9", map[string]string{"notifiable_id": "3"}), false},
	{"2", "index-roles", nil, false},
	{"2", "fly", nil, false},
}

func assertChecks(t *testing.T, e *bouncer.Engine, checks []check) {
	t.Helper()
	for _, c := range checks {
		allowed, err := e.Can(context.Background(), bouncer.PrincipalID(c.principal), c.ability, c.res)
		require.NoError(t, err)
		assert.Equal(t, c.want, allowed, "%s %s on %s", c.principal, c.ability, c.res)
	}
}

func TestLoadPermissions(t *testing.T) {
	e := newEngine()
	result := loadPermissions(t, e)

	assert.Equal(t, &LoadResult{Abilities: 2, Roles: 1, Grants: 11, Memberships: 1}, result)
	assertChecks(t, e, permissionChecks)

	a, err := e.FindAbility(context.Background(), bouncer.Ref("read-email"))
	require.NoError(t, err)
	assert.True(t, a.OnlyOwned)
}

func TestLoadIsIdempotent(t *testing.T) {
	ctx := context.Background()
	e := newEngine()
	loadPermissions(t, e)
	loadPermissions(t, e)

	grants, err := e.GrantsFor(ctx, bouncer.ForEveryone())
	require.NoError(t, err)
	assert.Len(t, grants, 10)

	roles, err := e.ListRoles(ctx, bouncer.RoleFilter{})
	require.NoError(t, err)
	assert.Len(t, roles, 1)
	assertChecks(t, e, permissionChecks)
}

func TestLoadDryRun(t *testing.T) {
	ctx := context.Background()
	e := newEngine()

	result, err := NewLoader(e).WithDryRun(true).LoadFromString(ctx, `
- !role admin
- !ability view
- !allow
  to: !role admin
  ability: view
`)
	require.NoError(t, err)
	assert.True(t, result.DryRun)
	assert.Equal(t, 1, result.Grants)

	roles, err := e.ListRoles(ctx, bouncer.RoleFilter{})
	require.NoError(t, err)
	assert.Empty(t, roles)
}

func TestLoadDryRunReportsErrors(t *testing.T) {
	e := newEngine()
	_, err := NewLoader(e).WithDryRun(true).LoadFromString(context.Background(), `
- !allow
  to: !role ghost
  ability: "*"
`)
	assert.ErrorIs(t, err, bouncer.ErrNotFound)
}

func TestLoadRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	e := newEngine()

	_, err := NewLoader(e).LoadFromString(ctx, `
- !role editor
- !ability publish
- !allow
  to: !role editor
  ability: publish
- !allow
  to: !principal 7
  ability: undefined
`)
	require.Error(t, err)
	assert.ErrorIs(t, err, bouncer.ErrNotFound)
	assert.Contains(t, err.Error(), "!allow")

	roles, err := e.ListRoles(ctx, bouncer.RoleFilter{})
	require.NoError(t, err)
	assert.Empty(t, roles)
	abilities, err := e.ListAbilities(ctx, bouncer.AbilityFilter{})
	require.NoError(t, err)
	assert.Empty(t, abilities)
}

func TestLoadRolesBeforeGrants(t *testing.T) {
	ctx := context.Background()
	e := newEngine()

	result, err := NewLoader(e).LoadFromString(ctx, `
- !assign
  role: editor@tenant-1
  principals: ["5", "6"]
- !allow
  to: !role editor@tenant-1
  ability: publish
  scope: tenant-1
- !ability
  name: publish
  scope: tenant-1
- !role
  name: editor
  scope: tenant-1
`)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Memberships)

	allowed, err := e.Can(ctx, bouncer.PrincipalID("6"), "publish", nil, bouncer.InScope("tenant-1"))
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestLoadForbidAndRetract(t *testing.T) {
	ctx := context.Background()
	e := newEngine()
	loadPermissions(t, e)

	_, err := NewLoader(e).LoadFromString(ctx, `
- !forbid
  to: !principal 2
  ability: read
  type: user
  id: "3"
- !retract
  role: admin
  principal: "1"
`)
	require.NoError(t, err)

	assertChecks(t, e, []check{
		{"2", "read", bouncer.Instance("user", "3", nil), false},
		{"2", "read", bouncer.Instance("user", "4", nil), true},
		{"1", "index-roles", nil, false},
	})
}

func TestLoadRejectsIDWithoutType(t *testing.T) {
	e := newEngine()
	_, err := NewLoader(e).LoadFromString(context.Background(), `
- !ability view
- !allow
  to: !everyone
  ability: view
  id: "3"
`)
	assert.ErrorIs(t, err, bouncer.ErrInvalidArgument)
}

func TestExportRoundTrip(t *testing.T) {
	ctx := context.Background()
	source := newEngine()
	loadPermissions(t, source)

	statements, err := Export(ctx, source)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, statements))
	assert.Contains(t, buf.String(), "- !role\n")
	assert.Contains(t, buf.String(), "to: !everyone")

	target := newEngine()
	_, err = NewLoader(target).LoadFromReader(ctx, &buf)
	require.NoError(t, err, buf.String())
	assertChecks(t, target, permissionChecks)

	want, err := source.ListAbilities(ctx, bouncer.AbilityFilter{})
	require.NoError(t, err)
	got, err := target.ListAbilities(ctx, bouncer.AbilityFilter{})
	require.NoError(t, err)
	assert.ElementsMatch(t, abilityNames(want), abilityNames(got))
}

func abilityNames(abilities []bouncer.Ability) []string {
	names := make([]string, 0, len(abilities))
	for _, a := range abilities {
		names = append(names, a.Name+"@"+a.Scope)
	}
	return names
}
