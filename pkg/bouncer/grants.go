package bouncer

import (
	"context"
	"fmt"

	"github.com/doodlesbykumbi/bouncer-in-go/pkg/audit"
	"github.com/doodlesbykumbi/bouncer-in-go/pkg/store"
)

// Grant allows or forbids an ability to subj, on res or generally when
// res is nil. An existing row for the same key is flipped in place, so a
// key never holds both an allow and a forbid.
func (e *Engine) Grant(ctx context.Context, pol Polarity, subj Subject, ref AbilityRef, res *Resource) error {
	op := pol.String()
	return e.ledger(ctx, op, subj, ref, res, func(st store.Store, key store.GrantKey) error {
		g := store.Grant{GrantKey: key, Forbidden: pol.forbidden()}
		return st.PutGrant(ctx, &g)
	})
}

// Allow grants the ability to subj.
func (e *Engine) Allow(ctx context.Context, subj Subject, ref AbilityRef, res *Resource) error {
	return e.Grant(ctx, PolarityAllow, subj, ref, res)
}

// Forbid forbids the ability to subj.
func (e *Engine) Forbid(ctx context.Context, subj Subject, ref AbilityRef, res *Resource) error {
	return e.Grant(ctx, PolarityForbid, subj, ref, res)
}

// Disallow removes the grant row for the exact key, allow or forbid. It
// is a no-op when there is none.
func (e *Engine) Disallow(ctx context.Context, subj Subject, ref AbilityRef, res *Resource) error {
	return e.ledger(ctx, "disallow", subj, ref, res, func(st store.Store, key store.GrantKey) error {
		return st.DeleteGrant(ctx, key)
	})
}

// Unforbid removes the grant row for the exact key only when it forbids.
func (e *Engine) Unforbid(ctx context.Context, subj Subject, ref AbilityRef, res *Resource) error {
	return e.ledger(ctx, "unforbid", subj, ref, res, func(st store.Store, key store.GrantKey) error {
		return st.DeleteForbid(ctx, key)
	})
}

// AllowEveryone grants the ability to every principal.
func (e *Engine) AllowEveryone(ctx context.Context, ref AbilityRef, res *Resource) error {
	return e.Allow(ctx, ForEveryone(), ref, res)
}

// ForbidEveryone forbids the ability to every principal.
func (e *Engine) ForbidEveryone(ctx context.Context, ref AbilityRef, res *Resource) error {
	return e.Forbid(ctx, ForEveryone(), ref, res)
}

// AllowEverything grants every ability to subj.
func (e *Engine) AllowEverything(ctx context.Context, subj Subject, res *Resource) error {
	return e.Allow(ctx, subj, Ref(Everything), res)
}

// ForbidEverything forbids every ability to subj.
func (e *Engine) ForbidEverything(ctx context.Context, subj Subject, res *Resource) error {
	return e.Forbid(ctx, subj, Ref(Everything), res)
}

// GrantsFor returns the raw, unresolved grant rows held by subj.
func (e *Engine) GrantsFor(ctx context.Context, subj Subject) ([]Grant, error) {
	entity, err := subj.entity(ctx, e.store)
	if err != nil {
		return nil, fmt.Errorf("bouncer: grants for %s: %w", subj, err)
	}
	grants, err := e.store.GrantsFor(ctx, entity)
	if err != nil {
		return nil, fmt.Errorf("bouncer: grants for %s: %w", subj, err)
	}
	return grants, nil
}

func (e *Engine) ledger(ctx context.Context, op string, subj Subject, ref AbilityRef, res *Resource, fn func(store.Store, store.GrantKey) error) error {
	resourceType, resourceID := res.key()
	if resourceType == "" && resourceID != "" {
		return fmt.Errorf("bouncer: %s %s: %w: resource id without type", op, ref, ErrInvalidArgument)
	}

	err := e.mutate(ctx, op, func(st store.Store) error {
		entity, err := subj.entity(ctx, st)
		if err != nil {
			return err
		}
		var ability store.Ability
		if op == "disallow" || op == "unforbid" {
			ability, err = findAbility(ctx, st, ref)
		} else {
			ability, err = grantableAbility(ctx, st, ref)
		}
		if err != nil {
			return fmt.Errorf("ability %s: %w", ref, err)
		}
		return fn(st, store.GrantKey{
			Entity:       entity,
			AbilityID:    ability.ID,
			ResourceType: resourceType,
			ResourceID:   resourceID,
		})
	}, func(err error) audit.Event {
		return audit.PermissionEvent{
			Actor:        actorFrom(ctx),
			Operation:    op,
			Entity:       subj.String(),
			Ability:      ref.Name,
			Scope:        ref.Scope,
			ResourceType: resourceType,
			ResourceID:   resourceID,
			Success:      err == nil,
			ErrorMessage: errorMessage(err),
		}
	})
	if err != nil {
		return fmt.Errorf("bouncer: %s %s to %s on %s: %w", op, ref, subj, res, err)
	}
	return nil
}
