package seed

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/doodlesbykumbi/bouncer-in-go/pkg/bouncer"
)

// SubjectRef is the holder of a grant, written as a tagged scalar:
// "!role admin", "!role editor@tenant-1", "!principal 42" or "!everyone".
type SubjectRef struct {
	Id   string
	Kind Kind
}

func RoleRef(id string) SubjectRef {
	return SubjectRef{Id: id, Kind: KindRole}
}

func PrincipalRef(id string) SubjectRef {
	return SubjectRef{Id: id, Kind: KindPrincipal}
}

func EveryoneRef() SubjectRef {
	return SubjectRef{Kind: KindEveryone}
}

func (r *SubjectRef) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: subject must be a tagged scalar", value.Line)
	}
	kind, err := KindString(strings.TrimPrefix(value.Tag, "!"))
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	switch kind {
	case KindRole, KindPrincipal:
		if value.Value == "" {
			return fmt.Errorf("line %d: %s needs an id", value.Line, kind.Tag())
		}
	case KindEveryone:
	default:
		return fmt.Errorf("line %d: %s is not a subject", value.Line, kind.Tag())
	}
	r.Id = value.Value
	r.Kind = kind
	return nil
}

func (r SubjectRef) MarshalYAML() (interface{}, error) {
	return &yaml.Node{
		Kind:  yaml.ScalarNode,
		Value: r.Id,
		Tag:   r.Kind.Tag(),
		Style: yaml.TaggedStyle,
	}, nil
}

// Subject converts the reference for the engine.
func (r SubjectRef) Subject() (bouncer.Subject, error) {
	switch r.Kind {
	case KindRole:
		return bouncer.ForRole(parseRoleRef(r.Id)), nil
	case KindPrincipal:
		return bouncer.ForPrincipal(bouncer.PrincipalID(r.Id)), nil
	case KindEveryone:
		return bouncer.ForEveryone(), nil
	}
	return bouncer.Subject{}, fmt.Errorf("%w: %s is not a subject", bouncer.ErrInvalidArgument, r.Kind.Tag())
}

func (r SubjectRef) String() string {
	if r.Kind == KindEveryone {
		return r.Kind.Tag()
	}
	return r.Kind.Tag() + " " + r.Id
}

// parseRoleRef splits "name@scope".
func parseRoleRef(s string) bouncer.RoleRef {
	name, scope, _ := strings.Cut(s, "@")
	return bouncer.RoleNamed(name).In(scope)
}
