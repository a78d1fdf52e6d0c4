package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/doodlesbykumbi/bouncer-in-go/pkg/bouncer"
)

// LoadResult counts what a load touched.
type LoadResult struct {
	Abilities   int  `json:"abilities"`
	Roles       int  `json:"roles"`
	Grants      int  `json:"grants"`
	Memberships int  `json:"memberships"`
	DryRun      bool `json:"dry_run"`
}

// Loader applies seed documents to an engine
type Loader struct {
	engine *bouncer.Engine
	actor  string
	dryRun bool
}

var errDryRun = errors.New("dry run")

// NewLoader creates a new seed loader
func NewLoader(e *bouncer.Engine) *Loader {
	return &Loader{engine: e, actor: "seed"}
}

// WithActor sets who the audit trail attributes the changes to
func (l *Loader) WithActor(actor string) *Loader {
	l.actor = actor
	return l
}

// WithDryRun sets whether to validate only without applying changes
func (l *Loader) WithDryRun(dryRun bool) *Loader {
	l.dryRun = dryRun
	return l
}

// LoadFromReader parses and loads a seed document from an io.Reader
func (l *Loader) LoadFromReader(ctx context.Context, r io.Reader) (*LoadResult, error) {
	statements, err := Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse seed: %w", err)
	}
	return l.Load(ctx, statements)
}

// LoadFromString parses and loads a seed document from a string
func (l *Loader) LoadFromString(ctx context.Context, text string) (*LoadResult, error) {
	return l.LoadFromReader(ctx, strings.NewReader(text))
}

// Load applies statements in one transaction, in two passes:
// 1. abilities and roles
// 2. grants and memberships
// so a document may reference a role before defining it.
func (l *Loader) Load(ctx context.Context, statements Statements) (*LoadResult, error) {
	ctx = bouncer.WithActor(ctx, l.actor)
	result := &LoadResult{DryRun: l.dryRun}

	var definitions, relationships Statements
	categorizeStatements(statements, &definitions, &relationships)

	err := l.engine.Transaction(ctx, func(tx *bouncer.Engine) error {
		lc := &loadContext{ctx: ctx, engine: tx, result: result}
		for _, stmt := range definitions {
			if err := lc.loadStatement(stmt); err != nil {
				return err
			}
		}
		for _, stmt := range relationships {
			if err := lc.loadStatement(stmt); err != nil {
				return err
			}
		}
		if l.dryRun {
			return errDryRun
		}
		return nil
	})
	if l.dryRun && errors.Is(err, errDryRun) {
		return result, nil
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// categorizeStatements separates definitions from the statements that
// reference them
func categorizeStatements(statements Statements, definitions, relationships *Statements) {
	for _, stmt := range statements {
		switch stmt.(type) {
		case Ability, Role:
			*definitions = append(*definitions, stmt)
		default:
			*relationships = append(*relationships, stmt)
		}
	}
}

type loadContext struct {
	ctx    context.Context
	engine *bouncer.Engine
	result *LoadResult
}

func (lc *loadContext) loadStatement(stmt Statement) error {
	var err error
	switch s := stmt.(type) {
	case Ability:
		err = lc.loadAbility(s)
	case Role:
		err = lc.loadRole(s)
	case Allow:
		err = lc.loadPermission(s.Permission, lc.engine.Allow)
	case Forbid:
		err = lc.loadPermission(s.Permission, lc.engine.Forbid)
	case Disallow:
		err = lc.loadPermission(s.Permission, lc.engine.Disallow)
	case Assign:
		err = lc.loadMembership(s.Membership, lc.engine.AssignRole)
	case Retract:
		err = lc.loadMembership(s.Membership, lc.engine.RetractRole)
	default:
		return fmt.Errorf("unknown statement type: %T", stmt)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", stmt.kind().Tag(), err)
	}
	return nil
}

func (lc *loadContext) loadAbility(a Ability) error {
	_, err := lc.engine.SaveAbility(lc.ctx, bouncer.AbilitySpec{
		Name:      a.Name,
		Title:     a.Title,
		OnlyOwned: a.OnlyOwned,
		Options:   a.Options,
		Scope:     a.Scope,
	})
	if err != nil {
		return err
	}
	lc.result.Abilities++
	return nil
}

func (lc *loadContext) loadRole(r Role) error {
	spec := bouncer.RoleSpec{Name: r.Name, Level: r.Level, Scope: r.Scope}
	if r.Title != "" {
		spec.Title = &r.Title
	}
	if _, err := lc.engine.UpsertRole(lc.ctx, spec); err != nil {
		return err
	}
	lc.result.Roles++
	return nil
}

type grantFunc func(context.Context, bouncer.Subject, bouncer.AbilityRef, *bouncer.Resource) error

func (lc *loadContext) loadPermission(p Permission, grant grantFunc) error {
	subject, err := p.To.Subject()
	if err != nil {
		return err
	}

	refs := make([]bouncer.AbilityRef, 0, len(p.Abilities))
	for _, name := range p.Abilities {
		refs = append(refs, bouncer.Ref(name).In(p.Scope))
	}

	var res *bouncer.Resource
	switch {
	case p.Type == "" && (p.ID != "" || p.Owned):
		return fmt.Errorf("%w: id and owned need a type", bouncer.ErrInvalidArgument)
	case p.Owned:
		if res, err = lc.engine.ToOwn(lc.ctx, p.Type, refs...); err != nil {
			return err
		}
		if p.ID != "" {
			res = bouncer.Instance(p.Type, p.ID, nil)
		}
	case p.Type != "" && p.ID == "":
		res = bouncer.Class(p.Type)
	case p.Type != "":
		res = bouncer.Instance(p.Type, p.ID, nil)
	}

	for _, ref := range refs {
		if err := grant(lc.ctx, subject, ref, res); err != nil {
			return err
		}
		lc.result.Grants++
	}
	return nil
}

type membershipFunc func(context.Context, bouncer.RoleRef, bouncer.Principal) error

func (lc *loadContext) loadMembership(m Membership, apply membershipFunc) error {
	role := parseRoleRef(m.Role)
	for _, id := range m.Principals {
		if err := apply(lc.ctx, role, bouncer.PrincipalID(id)); err != nil {
			return err
		}
		lc.result.Memberships++
	}
	return nil
}

// Parse parses a seed document from a reader
func Parse(r io.Reader) (Statements, error) {
	var statements Statements
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&statements); err != nil {
		if errors.Is(err, io.EOF) {
			return Statements{}, nil
		}
		return nil, err
	}
	return statements, nil
}
