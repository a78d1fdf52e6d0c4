package seed

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/doodlesbykumbi/bouncer-in-go/pkg/bouncer"
)

// Export renders the abilities, roles, role and everyone grants and role
// memberships held by e as a seed document. Grants made directly to
// principals are application data and are left out.
func Export(ctx context.Context, e *bouncer.Engine) (Statements, error) {
	abilities, err := e.ListAbilities(ctx, bouncer.AbilityFilter{})
	if err != nil {
		return nil, err
	}
	roles, err := e.ListRoles(ctx, bouncer.RoleFilter{})
	if err != nil {
		return nil, err
	}

	var statements Statements
	byID := make(map[int64]bouncer.Ability, len(abilities))
	for _, a := range abilities {
		byID[a.ID] = a
		if a.Name == bouncer.Everything {
			continue
		}
		statements = append(statements, Ability{
			Name:      a.Name,
			Title:     a.Title,
			OnlyOwned: a.OnlyOwned,
			Options:   a.Options,
			Scope:     a.Scope,
		})
	}
	for _, r := range roles {
		statements = append(statements, Role{Name: r.Name, Title: r.Title, Level: r.Level, Scope: r.Scope})
	}

	grantsOf := func(subject bouncer.Subject, ref SubjectRef) error {
		grants, err := e.GrantsFor(ctx, subject)
		if err != nil {
			return err
		}
		for _, g := range grants {
			a, ok := byID[g.AbilityID]
			if !ok {
				return fmt.Errorf("grant %d references unknown ability %d", g.ID, g.AbilityID)
			}
			p := Permission{
				To:        ref,
				Abilities: []string{a.Name},
				Scope:     a.Scope,
				Type:      g.ResourceType,
				ID:        g.ResourceID,
			}
			if g.Forbidden {
				statements = append(statements, Forbid{p})
			} else {
				statements = append(statements, Allow{p})
			}
		}
		return nil
	}

	for _, r := range roles {
		ref := bouncer.RoleNamed(r.Name).In(r.Scope)
		if err := grantsOf(bouncer.ForRole(ref), RoleRef(ref.String())); err != nil {
			return nil, err
		}
		principals, err := e.PrincipalsWithRole(ctx, ref)
		if err != nil {
			return nil, err
		}
		if len(principals) > 0 {
			statements = append(statements, Assign{Membership{Role: ref.String(), Principals: principals}})
		}
	}
	if err := grantsOf(bouncer.ForEveryone(), EveryoneRef()); err != nil {
		return nil, err
	}
	return statements, nil
}

// Write encodes statements as YAML
func Write(w io.Writer, statements Statements) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode([]Statement(statements)); err != nil {
		return err
	}
	return enc.Close()
}
