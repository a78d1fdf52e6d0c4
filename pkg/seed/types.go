package seed

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Statement is one entry of a seed document.
type Statement interface {
	kind() Kind
}

// Ability defines an ability, or updates title, only_owned and options of
// an existing one.
type Ability struct {
	Name      string         `yaml:"name"`
	Title     string         `yaml:"title,omitempty"`
	OnlyOwned bool           `yaml:"only_owned,omitempty"`
	Options   map[string]any `yaml:"options,omitempty"`
	Scope     string         `yaml:"scope,omitempty"`
}

// UnmarshalYAML for Ability handles both scalar (just the name) and
// mapping forms
func (a *Ability) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		a.Name = value.Value
		return nil
	}
	type abilityAlias Ability
	return value.Decode((*abilityAlias)(a))
}

// Role creates a role or updates title and level of an existing one.
type Role struct {
	Name  string `yaml:"name"`
	Title string `yaml:"title,omitempty"`
	Level *int   `yaml:"level,omitempty"`
	Scope string `yaml:"scope,omitempty"`
}

// UnmarshalYAML for Role handles both scalar (just the name) and mapping
// forms
func (r *Role) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		r.Name = value.Value
		return nil
	}
	type roleAlias Role
	return value.Decode((*roleAlias)(r))
}

// Permission is the body shared by !allow, !forbid and !disallow. Type and
// ID select the resource: neither means a general grant, Type alone the
// whole type. Owned marks the abilities only_owned before granting them
// on the type.
type Permission struct {
	To        SubjectRef `yaml:"to"`
	Abilities []string   `yaml:"abilities,flow"`
	Scope     string     `yaml:"scope,omitempty"`
	Type      string     `yaml:"type,omitempty"`
	ID        string     `yaml:"id,omitempty"`
	Owned     bool       `yaml:"owned,omitempty"`
}

// UnmarshalYAML for Permission handles both "ability" and "abilities"
// fields
func (p *Permission) UnmarshalYAML(value *yaml.Node) error {
	type permissionRaw struct {
		To        SubjectRef `yaml:"to"`
		Ability   string     `yaml:"ability"`
		Abilities []string   `yaml:"abilities"`
		Scope     string     `yaml:"scope"`
		Type      string     `yaml:"type"`
		ID        string     `yaml:"id"`
		Owned     bool       `yaml:"owned"`
	}
	var raw permissionRaw
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.To == (SubjectRef{}) {
		return fmt.Errorf("line %d: no subject", value.Line)
	}
	*p = Permission{
		To:        raw.To,
		Abilities: raw.Abilities,
		Scope:     raw.Scope,
		Type:      raw.Type,
		ID:        raw.ID,
		Owned:     raw.Owned,
	}
	if raw.Ability != "" {
		p.Abilities = append([]string{raw.Ability}, p.Abilities...)
	}
	if len(p.Abilities) == 0 {
		return fmt.Errorf("line %d: no abilities", value.Line)
	}
	return nil
}

type Allow struct {
	Permission `yaml:",inline"`
}

type Forbid struct {
	Permission `yaml:",inline"`
}

type Disallow struct {
	Permission `yaml:",inline"`
}

// Membership is the body shared by !assign and !retract.
type Membership struct {
	Role       string   `yaml:"role"`
	Principals []string `yaml:"principals,flow"`
}

// UnmarshalYAML for Membership handles both "principal" and "principals"
// fields
func (m *Membership) UnmarshalYAML(value *yaml.Node) error {
	type membershipRaw struct {
		Role       string   `yaml:"role"`
		Principal  string   `yaml:"principal"`
		Principals []string `yaml:"principals"`
	}
	var raw membershipRaw
	if err := value.Decode(&raw); err != nil {
		return err
	}
	m.Role = raw.Role
	m.Principals = raw.Principals
	if raw.Principal != "" {
		m.Principals = append([]string{raw.Principal}, m.Principals...)
	}
	if m.Role == "" {
		return fmt.Errorf("line %d: no role", value.Line)
	}
	return nil
}

type Assign struct {
	Membership `yaml:",inline"`
}

type Retract struct {
	Membership `yaml:",inline"`
}

func (Ability) kind() Kind  { return KindAbility }
func (Role) kind() Kind     { return KindRole }
func (Allow) kind() Kind    { return KindAllow }
func (Forbid) kind() Kind   { return KindForbid }
func (Disallow) kind() Kind { return KindDisallow }
func (Assign) kind() Kind   { return KindAssign }
func (Retract) kind() Kind  { return KindRetract }

// Statements is a seed document.
type Statements []Statement

func (s *Statements) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: a seed document is a sequence of statements", value.Line)
	}

	statements := make(Statements, 0, len(value.Content))
	for _, node := range value.Content {
		var (
			statement Statement
			err       error
		)
		switch node.Tag {
		case KindAbility.Tag():
			statement, err = decode[Ability](node)
		case KindRole.Tag():
			statement, err = decode[Role](node)
		case KindAllow.Tag():
			statement, err = decode[Allow](node)
		case KindForbid.Tag():
			statement, err = decode[Forbid](node)
		case KindDisallow.Tag():
			statement, err = decode[Disallow](node)
		case KindAssign.Tag():
			statement, err = decode[Assign](node)
		case KindRetract.Tag():
			statement, err = decode[Retract](node)
		default:
			return fmt.Errorf("line %d: unknown statement %q", node.Line, node.Tag)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", node.Tag, err)
		}
		statements = append(statements, statement)
	}

	*s = statements
	return nil
}

func decode[T Statement](node *yaml.Node) (Statement, error) {
	var v T
	if err := node.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// taggedNode encodes v, which must not implement yaml.Marshaler itself,
// as a mapping tagged with kind.
func taggedNode(v any, kind Kind) (*yaml.Node, error) {
	node := &yaml.Node{}
	if err := node.Encode(v); err != nil {
		return nil, err
	}
	node.Tag = kind.Tag()
	node.Style = yaml.TaggedStyle
	return node, nil
}

func (a Ability) MarshalYAML() (interface{}, error) {
	type plain Ability
	return taggedNode(plain(a), KindAbility)
}

func (r Role) MarshalYAML() (interface{}, error) {
	type plain Role
	return taggedNode(plain(r), KindRole)
}

func (p Allow) MarshalYAML() (interface{}, error) {
	type plain Permission
	return taggedNode(plain(p.Permission), KindAllow)
}

func (p Forbid) MarshalYAML() (interface{}, error) {
	type plain Permission
	return taggedNode(plain(p.Permission), KindForbid)
}

func (p Disallow) MarshalYAML() (interface{}, error) {
	type plain Permission
	return taggedNode(plain(p.Permission), KindDisallow)
}

func (m Assign) MarshalYAML() (interface{}, error) {
	type plain Membership
	return taggedNode(plain(m.Membership), KindAssign)
}

func (m Retract) MarshalYAML() (interface{}, error) {
	type plain Membership
	return taggedNode(plain(m.Membership), KindRetract)
}
