package bouncer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/doodlesbykumbi/bouncer-in-go/pkg/audit"
	"github.com/doodlesbykumbi/bouncer-in-go/pkg/store"
)

// AbilitySpec describes an ability to define.
type AbilitySpec struct {
	Name      string
	Title     string
	OnlyOwned bool
	Options   map[string]any
	Scope     string
}

// AbilityUpdate lists the attributes to change. Nil fields are left as
// they are. The name is immutable.
type AbilityUpdate struct {
	Title     *string
	OnlyOwned *bool
	Options   map[string]any
	Scope     *string
}

// DefineAbility registers a new ability. It fails with ErrDuplicateName
// when (name, scope) is taken.
func (e *Engine) DefineAbility(ctx context.Context, spec AbilitySpec) (Ability, error) {
	a := store.Ability{
		Name:      strings.TrimSpace(spec.Name),
		Title:     spec.Title,
		OnlyOwned: spec.OnlyOwned,
		Options:   spec.Options,
		Scope:     spec.Scope,
	}
	if a.Name == "" {
		return Ability{}, fmt.Errorf("bouncer: define ability: %w: empty name", ErrInvalidArgument)
	}

	err := e.mutate(ctx, "define-ability", func(st store.Store) error {
		return st.CreateAbility(ctx, &a)
	}, e.abilityEvent(ctx, "define", AbilityRef{Name: a.Name, Scope: a.Scope}))
	if err != nil {
		return Ability{}, fmt.Errorf("bouncer: define ability %s: %w", AbilityRef{Name: a.Name, Scope: a.Scope}, err)
	}
	return a, nil
}

// SaveAbility defines the ability or updates title, only_owned and
// options of the existing one. Seeds use it to stay idempotent.
func (e *Engine) SaveAbility(ctx context.Context, spec AbilitySpec) (Ability, error) {
	a := store.Ability{
		Name:      strings.TrimSpace(spec.Name),
		Title:     spec.Title,
		OnlyOwned: spec.OnlyOwned,
		Options:   spec.Options,
		Scope:     spec.Scope,
	}
	if a.Name == "" {
		return Ability{}, fmt.Errorf("bouncer: save ability: %w: empty name", ErrInvalidArgument)
	}

	ref := AbilityRef{Name: a.Name, Scope: a.Scope}
	err := e.mutate(ctx, "save-ability", func(st store.Store) error {
		return st.UpsertAbility(ctx, &a)
	}, e.abilityEvent(ctx, "save", ref))
	if err != nil {
		return Ability{}, fmt.Errorf("bouncer: save ability %s: %w", ref, err)
	}
	return a, nil
}

// FindAbility returns the ability registered under exactly (name, scope).
func (e *Engine) FindAbility(ctx context.Context, ref AbilityRef) (Ability, error) {
	a, err := findAbility(ctx, e.store, ref)
	if err != nil {
		return Ability{}, fmt.Errorf("bouncer: find ability %s: %w", ref, err)
	}
	return a, nil
}

// UpdateAbility changes the mutable attributes of an ability.
func (e *Engine) UpdateAbility(ctx context.Context, ref AbilityRef, upd AbilityUpdate) (Ability, error) {
	var a store.Ability
	err := e.mutate(ctx, "update-ability", func(st store.Store) error {
		var err error
		if a, err = findAbility(ctx, st, ref); err != nil {
			return err
		}
		if upd.Title != nil {
			a.Title = *upd.Title
		}
		if upd.OnlyOwned != nil {
			a.OnlyOwned = *upd.OnlyOwned
		}
		if upd.Options != nil {
			a.Options = upd.Options
		}
		if upd.Scope != nil {
			a.Scope = *upd.Scope
		}
		return st.UpdateAbility(ctx, &a)
	}, e.abilityEvent(ctx, "update", ref))
	if err != nil {
		return Ability{}, fmt.Errorf("bouncer: update ability %s: %w", ref, err)
	}
	return a, nil
}

// DeleteAbility removes an ability and every grant referencing it.
func (e *Engine) DeleteAbility(ctx context.Context, ref AbilityRef) error {
	err := e.mutate(ctx, "delete-ability", func(st store.Store) error {
		a, err := findAbility(ctx, st, ref)
		if err != nil {
			return err
		}
		return st.DeleteAbility(ctx, a.ID)
	}, e.abilityEvent(ctx, "delete", ref))
	if err != nil {
		return fmt.Errorf("bouncer: delete ability %s: %w", ref, err)
	}
	return nil
}

// ListAbilities returns the abilities matching filter.
func (e *Engine) ListAbilities(ctx context.Context, filter AbilityFilter) ([]Ability, error) {
	abilities, err := e.store.ListAbilities(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("bouncer: list abilities: %w", err)
	}
	return abilities, nil
}

// ToOwn marks the referenced abilities as only_owned, defining the missing
// ones, and returns the class resource to grant them on:
//
//	res, err := e.ToOwn(ctx, "notification", bouncer.Ref("read-notification"))
//	err = e.AllowEveryone(ctx, bouncer.Ref("read-notification"), res)
func (e *Engine) ToOwn(ctx context.Context, resourceType string, refs ...AbilityRef) (*Resource, error) {
	if resourceType == "" {
		return nil, fmt.Errorf("bouncer: to own: %w: empty resource type", ErrInvalidArgument)
	}

	err := e.mutate(ctx, "to-own", func(st store.Store) error {
		for _, ref := range refs {
			a, err := findAbility(ctx, st, ref)
			switch {
			case errors.Is(err, store.ErrNotFound):
				a = store.Ability{Name: ref.Name, Scope: ref.Scope, OnlyOwned: true}
				if err := st.CreateAbility(ctx, &a); err != nil {
					return fmt.Errorf("ability %s: %w", ref, err)
				}
			case err != nil:
				return fmt.Errorf("ability %s: %w", ref, err)
			case !a.OnlyOwned:
				a.OnlyOwned = true
				if err := st.UpdateAbility(ctx, &a); err != nil {
					return fmt.Errorf("ability %s: %w", ref, err)
				}
			}
		}
		return nil
	}, e.abilityEvent(ctx, "to-own", AbilityRef{Name: joinRefs(refs)}))
	if err != nil {
		return nil, fmt.Errorf("bouncer: to own %s: %w", resourceType, err)
	}
	return Class(resourceType), nil
}

// findAbility looks up exactly (name, scope).
func findAbility(ctx context.Context, st store.Store, ref AbilityRef) (store.Ability, error) {
	found, err := st.FindAbilities(ctx, ref.Name, ref.Scope)
	if err != nil {
		return store.Ability{}, err
	}
	switch len(found) {
	case 0:
		return store.Ability{}, store.ErrNotFound
	case 1:
		return found[0], nil
	}
	return store.Ability{}, store.ErrAmbiguousAbility
}

// grantableAbility resolves the ability a grant refers to. The Everything
// sentinel is defined on first use.
func grantableAbility(ctx context.Context, st store.Store, ref AbilityRef) (store.Ability, error) {
	a, err := findAbility(ctx, st, ref)
	if err == nil || ref.Name != Everything || !errors.Is(err, store.ErrNotFound) {
		return a, err
	}
	a = store.Ability{Name: Everything, Title: "All abilities", Scope: ref.Scope}
	if err := st.UpsertAbility(ctx, &a); err != nil {
		return store.Ability{}, err
	}
	return a, nil
}

func (e *Engine) abilityEvent(ctx context.Context, op string, ref AbilityRef) func(error) audit.Event {
	return func(err error) audit.Event {
		return audit.AbilityEvent{
			Actor:        actorFrom(ctx),
			Operation:    op,
			Ability:      ref.Name,
			Scope:        ref.Scope,
			Success:      err == nil,
			ErrorMessage: errorMessage(err),
		}
	}
}

func joinRefs(refs []AbilityRef) string {
	names := make([]string, 0, len(refs))
	for _, ref := range refs {
		names = append(names, ref.String())
	}
	return strings.Join(names, ",")
}
