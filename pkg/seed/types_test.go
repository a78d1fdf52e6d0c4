package seed

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParse(t *testing.T) {
	statements, err := Parse(strings.NewReader(`
- !ability view
- !ability
  name: read-notification
  only_owned: true
  options: {channel: mail}
- !role
  name: editor
  level: 5
  scope: tenant-1
- !allow
  to: !role editor@tenant-1
  ability: view
  abilities: [publish]
  type: post
- !forbid
  to: !principal 42
  ability: view
  type: post
  id: "7"
- !disallow
  to: !everyone
  ability: view
- !assign
  role: editor@tenant-1
  principal: "1"
  principals: ["2"]
- !retract
  role: editor@tenant-1
  principals: ["2"]
`))
	require.NoError(t, err)
	require.Len(t, statements, 8)

	level := 5
	assert.Equal(t, Ability{Name: "view"}, statements[0])
	assert.Equal(t, Ability{Name: "read-notification", OnlyOwned: true, Options: map[string]any{"channel": "mail"}}, statements[1])
	assert.Equal(t, Role{Name: "editor", Level: &level, Scope: "tenant-1"}, statements[2])
	assert.Equal(t, Allow{Permission{To: RoleRef("editor@tenant-1"), Abilities: []string{"view", "publish"}, Type: "post"}}, statements[3])
	assert.Equal(t, Forbid{Permission{To: PrincipalRef("42"), Abilities: []string{"view"}, Type: "post", ID: "7"}}, statements[4])
	assert.Equal(t, Disallow{Permission{To: EveryoneRef(), Abilities: []string{"view"}}}, statements[5])
	assert.Equal(t, Assign{Membership{Role: "editor@tenant-1", Principals: []string{"1", "2"}}}, statements[6])
	assert.Equal(t, Retract{Membership{Role: "editor@tenant-1", Principals: []string{"2"}}}, statements[7])
}

func TestParseEmpty(t *testing.T) {
	statements, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, statements)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "unknown statement",
			doc:  "- !permit\n  role: !user alice\n",
			want: `unknown statement "!permit"`,
		},
		{
			name: "not a sequence",
			doc:  "role: admin\n",
			want: "sequence of statements",
		},
		{
			name: "missing subject",
			doc:  "- !allow\n  ability: view\n",
			want: "no subject",
		},
		{
			name: "subject is not a subject",
			doc:  "- !allow\n  to: !ability view\n  ability: view\n",
			want: "!ability is not a subject",
		},
		{
			name: "role without name",
			doc:  "- !forbid\n  to: !role\n  ability: view\n",
			want: "!role needs an id",
		},
		{
			name: "no abilities",
			doc:  "- !allow\n  to: !everyone\n",
			want: "no abilities",
		},
		{
			name: "membership without role",
			doc:  "- !assign\n  principal: \"1\"\n",
			want: "no role",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSubjectRefMarshal(t *testing.T) {
	out, err := yaml.Marshal(Forbid{Permission{To: RoleRef("admin"), Abilities: []string{"*"}, Type: "user", ID: "2"}})
	require.NoError(t, err)
	for _, line := range []string{"!forbid\n", "to: !role admin\n", "abilities: ['*']\n", "type: user\n", `id: "2"`} {
		assert.Contains(t, string(out), line)
	}
}

func TestKindTag(t *testing.T) {
	assert.Equal(t, "!ability", KindAbility.Tag())
	assert.Equal(t, "!everyone", KindEveryone.Tag())

	k, err := KindString("Disallow")
	require.NoError(t, err)
	assert.Equal(t, KindDisallow, k)
}
