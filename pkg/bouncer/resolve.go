package bouncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/doodlesbykumbi/bouncer-in-go/pkg/audit"
	"github.com/doodlesbykumbi/bouncer-in-go/pkg/cache"
	"github.com/doodlesbykumbi/bouncer-in-go/pkg/store"
)

// Tier is the specificity level a decision was made at.
type Tier int

const (
	TierNone Tier = iota
	TierSpecific
	TierGeneral
	TierEverything
)

func (t Tier) String() string {
	switch t {
	case TierSpecific:
		return "specific"
	case TierGeneral:
		return "general"
	case TierEverything:
		return "everything"
	}
	return "none"
}

// Decision is the outcome of a check together with the grant that decided
// it. Grant is nil for default denials.
type Decision struct {
	Allowed   bool
	Tier      Tier
	Forbidden bool
	Grant     *Grant
	Reason    string
}

type checkOptions struct {
	scope   string
	noCache bool
}

// CheckOption tunes a single check.
type CheckOption func(*checkOptions)

// InScope runs the check within scope. Only roles and abilities of that
// scope, or unscoped ones, take part.
func InScope(scope string) CheckOption {
	return func(o *checkOptions) { o.scope = scope }
}

// WithoutCache bypasses the decision memo.
func WithoutCache() CheckOption {
	return func(o *checkOptions) { o.noCache = true }
}

// Can reports whether p may exercise ability on res. A nil res asks about
// the ability in general. Denials are not errors; err is only set when
// the grants could not be read.
func (e *Engine) Can(ctx context.Context, p Principal, ability string, res *Resource, opts ...CheckOption) (bool, error) {
	o := checkOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	principalID := p.PrincipalID()
	resourceType, resourceID := res.key()
	ev := audit.CheckEvent{
		Principal:    principalID,
		Ability:      ability,
		Scope:        o.scope,
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}

	useCache := e.cache != nil && !o.noCache && !e.tx
	var (
		key cache.Key
		gen int64
	)
	if useCache {
		owner, _ := e.ownership.Owner(res)
		key = cache.Key{
			Principal:    principalID,
			Ability:      ability,
			Scope:        o.scope,
			ResourceType: resourceType,
			ResourceID:   resourceID,
			Owner:        owner,
		}
		allowed, ok, g, err := e.cache.Lookup(ctx, key)
		if err != nil {
			// an unreachable generation source must not serve stale entries
			useCache = false
		} else {
			e.metrics.ObserveCache(ok)
			if ok {
				ev.Allowed, ev.Cached = allowed, true
				e.audit.Record(ctx, ev)
				return allowed, nil
			}
			gen = g
		}
	}

	start := time.Now()
	d, err := e.resolve(ctx, principalID, ability, res, o.scope)
	e.metrics.ObserveDuration(start)
	if err != nil {
		e.metrics.ObserveError("check")
		ev.ErrorMessage = err.Error()
		e.audit.Record(ctx, ev)
		return false, fmt.Errorf("bouncer: check %s for %s on %s: %w", ability, principalID, res, err)
	}

	e.metrics.ObserveCheck(d.Allowed, d.Tier.String())
	ev.Allowed, ev.Tier = d.Allowed, d.Tier.String()
	e.audit.Record(ctx, ev)

	if useCache {
		// a failed write only costs a future miss
		_ = e.cache.Store(ctx, key, d.Allowed, gen)
	}
	return d.Allowed, nil
}

// Cannot is the negation of Can. Errors deny.
func (e *Engine) Cannot(ctx context.Context, p Principal, ability string, res *Resource, opts ...CheckOption) (bool, error) {
	allowed, err := e.Can(ctx, p, ability, res, opts...)
	return !allowed, err
}

// Explain resolves a check against the store, bypassing the memo, and
// reports which grant decided it.
func (e *Engine) Explain(ctx context.Context, p Principal, ability string, res *Resource, opts ...CheckOption) (Decision, error) {
	o := checkOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	d, err := e.resolve(ctx, p.PrincipalID(), ability, res, o.scope)
	if err != nil {
		return Decision{}, fmt.Errorf("bouncer: explain %s for %s on %s: %w", ability, p.PrincipalID(), res, err)
	}
	return d, nil
}

// tiers holds the grants that apply to one check, by specificity.
type tiers struct {
	specific   []store.Grant
	general    []store.Grant
	everything []store.Grant
}

func (e *Engine) resolve(ctx context.Context, principalID, ability string, res *Resource, scope string) (Decision, error) {
	if principalID == "" {
		return Decision{}, fmt.Errorf("%w: empty principal id", ErrInvalidArgument)
	}

	abilities, err := e.candidateAbilities(ctx, ability, scope)
	if err != nil {
		return Decision{}, err
	}
	if len(abilities) == 0 {
		return Decision{Reason: fmt.Sprintf("ability %s is not defined", AbilityRef{Name: ability, Scope: scope})}, nil
	}

	entities, err := e.candidateEntities(ctx, principalID, scope)
	if err != nil {
		return Decision{}, err
	}

	ids := make([]int64, 0, len(abilities))
	for id := range abilities {
		ids = append(ids, id)
	}
	grants, err := e.store.GrantsMatching(ctx, entities, ids)
	if err != nil {
		return Decision{}, err
	}

	t := partition(grants, abilities, res)

	// Any forbid that applies denies, whatever its specificity.
	for _, tier := range []struct {
		tier   Tier
		grants []store.Grant
	}{
		{TierSpecific, t.specific},
		{TierGeneral, t.general},
		{TierEverything, t.everything},
	} {
		for _, g := range tier.grants {
			if g.Forbidden {
				return Decision{
					Tier:      tier.tier,
					Forbidden: true,
					Grant:     &g,
					Reason:    fmt.Sprintf("forbidden to %s", g.Entity),
				}, nil
			}
		}
	}

	for _, tier := range []struct {
		tier   Tier
		grants []store.Grant
	}{
		{TierSpecific, t.specific},
		{TierGeneral, t.general},
		{TierEverything, t.everything},
	} {
		for _, g := range tier.grants {
			if abilities[g.AbilityID].OnlyOwned && !e.ownership.Owns(principalID, res) {
				continue
			}
			return Decision{
				Allowed: true,
				Tier:    tier.tier,
				Grant:   &g,
				Reason:  fmt.Sprintf("allowed to %s", g.Entity),
			}, nil
		}
	}

	return Decision{Reason: "no applicable grant"}, nil
}

// candidateAbilities returns the ability named name together with the
// Everything abilities, keyed by id. A scoped ability shadows the unscoped
// one of the same name; Everything is taken from both.
func (e *Engine) candidateAbilities(ctx context.Context, name, scope string) (map[int64]store.Ability, error) {
	found := make(map[int64]store.Ability)

	if name != Everything {
		a, err := e.scopedAbility(ctx, name, scope)
		switch {
		case errors.Is(err, store.ErrNotFound):
			return found, nil
		case err != nil:
			return nil, err
		}
		found[a.ID] = a
	}

	scopes := []string{""}
	if scope != "" {
		scopes = append(scopes, scope)
	}
	for _, s := range scopes {
		all, err := e.store.FindAbilities(ctx, Everything, s)
		if err != nil {
			return nil, err
		}
		for _, a := range all {
			found[a.ID] = a
		}
	}
	return found, nil
}

func (e *Engine) scopedAbility(ctx context.Context, name, scope string) (store.Ability, error) {
	if scope != "" {
		a, err := findAbility(ctx, e.store, AbilityRef{Name: name, Scope: scope})
		if !errors.Is(err, store.ErrNotFound) {
			return a, err
		}
	}
	return findAbility(ctx, e.store, AbilityRef{Name: name})
}

// candidateEntities returns the principal, its roles valid in scope and
// everyone.
func (e *Engine) candidateEntities(ctx context.Context, principalID, scope string) ([]store.Entity, error) {
	roles, err := e.store.RolesOf(ctx, principalID)
	if err != nil {
		return nil, err
	}
	entities := []store.Entity{store.PrincipalEntity(principalID), store.Everyone()}
	for _, r := range roles {
		if r.Scope == "" || r.Scope == scope {
			entities = append(entities, store.RoleEntity(r.ID))
		}
	}
	return entities, nil
}

// partition sorts grants into tiers. A grant on exactly res is specific.
// Unrestricted grants and grants on the whole type of an instance are
// general. Grants on other resources do not apply.
func partition(grants []store.Grant, abilities map[int64]store.Ability, res *Resource) tiers {
	resourceType, resourceID := res.key()

	var t tiers
	for _, g := range grants {
		a, ok := abilities[g.AbilityID]
		if !ok {
			continue
		}
		if a.Name == Everything {
			if g.ResourceType == "" || (g.ResourceType == resourceType && (g.ResourceID == "" || g.ResourceID == resourceID)) {
				t.everything = append(t.everything, g)
			}
			continue
		}
		switch {
		case g.ResourceType == "":
			t.general = append(t.general, g)
		case g.ResourceType != resourceType:
		case g.ResourceID == resourceID:
			t.specific = append(t.specific, g)
		case g.ResourceID == "":
			t.general = append(t.general, g)
		}
	}
	return t
}
