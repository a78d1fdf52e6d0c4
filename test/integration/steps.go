package integration

import (
	"context"
	"errors"
	"fmt"

	"github.com/cucumber/godog"

	"github.com/doodlesbykumbi/bouncer-in-go/pkg/bouncer"
	"github.com/doodlesbykumbi/bouncer-in-go/pkg/seed"
)

// StepsContext holds state shared between step definitions
type StepsContext struct {
	tc      *TestContext
	engine  *bouncer.Engine
	replica *bouncer.Engine
}

// NewStepsContext creates a new steps context
func NewStepsContext(tc *TestContext) *StepsContext {
	return &StepsContext{tc: tc}
}

// RegisterSteps registers all step definitions
func (s *StepsContext) RegisterSteps(sc *godog.ScenarioContext) {
	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		if err := s.tc.Reset(ctx); err != nil {
			return ctx, fmt.Errorf("failed to reset database: %w", err)
		}
		s.engine = s.tc.NewEngine()
		s.replica = s.tc.NewEngine()
		return bouncer.WithActor(ctx, "cucumber"), nil
	})

	// Registry steps
	sc.Step(`^an ability "([^"]*)"$`, s.anAbility)
	sc.Step(`^an ability "([^"]*)" that only applies to owned resources$`, s.anOwnedAbility)
	sc.Step(`^a role "([^"]*)"$`, s.aRole)
	sc.Step(`^I delete role "([^"]*)"$`, s.iDeleteRole)
	sc.Step(`^I delete ability "([^"]*)"$`, s.iDeleteAbility)
	sc.Step(`^role "([^"]*)" should not exist$`, s.roleShouldNotExist)

	// Membership steps
	sc.Step(`^I assign role "([^"]*)" to "([^"]*)"$`, s.iAssignRole)
	sc.Step(`^I retract role "([^"]*)" from "([^"]*)"$`, s.iRetractRole)

	// Grant steps
	sc.Step(`^I (allow|forbid) "([^"]*)" to "([^"]*)"$`, s.iGrant)
	sc.Step(`^I (allow|forbid) "([^"]*)" to "([^"]*)" on type "([^"]*)"$`, s.iGrantOnType)
	sc.Step(`^I (allow|forbid) "([^"]*)" to "([^"]*)" on "([^"]*)" "([^"]*)"$`, s.iGrantOn)
	sc.Step(`^"([^"]*)" should have (\d+) grants?$`, s.shouldHaveGrants)

	// Check steps
	sc.Step(`^"([^"]*)" (can|cannot) "([^"]*)"$`, s.check)
	sc.Step(`^"([^"]*)" (can|cannot) "([^"]*)" on "([^"]*)" "([^"]*)"$`, s.checkOn)
	sc.Step(`^"([^"]*)" (can|cannot) "([^"]*)" on "([^"]*)" "([^"]*)" owned by "([^"]*)"$`, s.checkOwned)
	sc.Step(`^the replica says "([^"]*)" (can|cannot) "([^"]*)"$`, s.replicaCheck)

	// Seed steps
	sc.Step(`^I load the following seed:$`, s.iLoadSeed)
	sc.Step(`^loading the following seed fails:$`, s.loadingSeedFails)

	// Audit steps
	sc.Step(`^the audit trail should contain (\d+) "([^"]*)" messages?$`, s.auditTrailShouldContain)
}

func (s *StepsContext) anAbility(ctx context.Context, name string) error {
	_, err := s.engine.DefineAbility(ctx, bouncer.AbilitySpec{Name: name})
	return err
}

func (s *StepsContext) anOwnedAbility(ctx context.Context, name string) error {
	_, err := s.engine.DefineAbility(ctx, bouncer.AbilitySpec{Name: name, OnlyOwned: true})
	return err
}

func (s *StepsContext) aRole(ctx context.Context, name string) error {
	_, err := s.engine.UpsertRole(ctx, bouncer.RoleSpec{Name: name})
	return err
}

func (s *StepsContext) iDeleteRole(ctx context.Context, name string) error {
	return s.engine.DeleteRole(ctx, bouncer.RoleNamed(name))
}

func (s *StepsContext) iDeleteAbility(ctx context.Context, name string) error {
	return s.engine.DeleteAbility(ctx, bouncer.Ref(name))
}

func (s *StepsContext) roleShouldNotExist(ctx context.Context, name string) error {
	_, err := s.engine.FindRole(ctx, bouncer.RoleNamed(name))
	if !errors.Is(err, bouncer.ErrNotFound) {
		return fmt.Errorf("expected role %s not to exist, got %v", name, err)
	}
	return nil
}

func (s *StepsContext) iAssignRole(ctx context.Context, role, principal string) error {
	return s.engine.AssignRole(ctx, bouncer.RoleNamed(role), bouncer.PrincipalID(principal))
}

func (s *StepsContext) iRetractRole(ctx context.Context, role, principal string) error {
	return s.engine.RetractRole(ctx, bouncer.RoleNamed(role), bouncer.PrincipalID(principal))
}

func (s *StepsContext) grant(ctx context.Context, polarity, subject, ability string, res *bouncer.Resource) error {
	pol, err := bouncer.PolarityString(polarity)
	if err != nil {
		return err
	}
	subj, err := bouncer.ParseSubject(subject)
	if err != nil {
		return err
	}
	return s.engine.Grant(ctx, pol, subj, bouncer.Ref(ability), res)
}

func (s *StepsContext) iGrant(ctx context.Context, polarity, subject, ability string) error {
	return s.grant(ctx, polarity, subject, ability, nil)
}

func (s *StepsContext) iGrantOnType(ctx context.Context, polarity, subject, ability, typ string) error {
	return s.grant(ctx, polarity, subject, ability, bouncer.Class(typ))
}

func (s *StepsContext) iGrantOn(ctx context.Context, polarity, subject, ability, typ, id string) error {
	return s.grant(ctx, polarity, subject, ability, bouncer.Instance(typ, id, nil))
}

func (s *StepsContext) shouldHaveGrants(ctx context.Context, subject string, count int) error {
	subj, err := bouncer.ParseSubject(subject)
	if err != nil {
		return err
	}
	grants, err := s.engine.GrantsFor(ctx, subj)
	if err != nil {
		return err
	}
	if len(grants) != count {
		return fmt.Errorf("expected %d grants for %s, got %d", count, subject, len(grants))
	}
	return nil
}

func expect(e *bouncer.Engine, ctx context.Context, principal, verdict, ability string, res *bouncer.Resource) error {
	allowed, err := e.Can(ctx, bouncer.PrincipalID(principal), ability, res)
	if err != nil {
		return err
	}
	if want := verdict == "can"; allowed != want {
		d, _ := e.Explain(ctx, bouncer.PrincipalID(principal), ability, res)
		return fmt.Errorf("expected %s %s %s on %s, got allowed=%v (%s, tier %s)",
			principal, verdict, ability, res, allowed, d.Reason, d.Tier)
	}
	return nil
}

func (s *StepsContext) check(ctx context.Context, principal, verdict, ability string) error {
	return expect(s.engine, ctx, principal, verdict, ability, nil)
}

func (s *StepsContext) checkOn(ctx context.Context, principal, verdict, ability, typ, id string) error {
	return expect(s.engine, ctx, principal, verdict, ability, bouncer.Instance(typ, id, nil))
}

func (s *StepsContext) checkOwned(ctx context.Context, principal, verdict, ability, typ, id, owner string) error {
	field := s.engine.Ownership().Field(typ)
	return expect(s.engine, ctx, principal, verdict, ability, bouncer.Instance(typ, id, map[string]string{field: owner}))
}

func (s *StepsContext) replicaCheck(ctx context.Context, principal, verdict, ability string) error {
	return expect(s.replica, ctx, principal, verdict, ability, nil)
}

func (s *StepsContext) iLoadSeed(ctx context.Context, doc *godog.DocString) error {
	_, err := seed.NewLoader(s.engine).WithActor("cucumber").LoadFromString(ctx, doc.Content)
	return err
}

func (s *StepsContext) loadingSeedFails(ctx context.Context, doc *godog.DocString) error {
	_, err := seed.NewLoader(s.engine).LoadFromString(ctx, doc.Content)
	if err == nil {
		return fmt.Errorf("expected the seed to fail")
	}
	return nil
}

func (s *StepsContext) auditTrailShouldContain(ctx context.Context, count int, msgid string) error {
	var n int64
	if err := s.tc.DB.WithContext(ctx).Raw(`SELECT count(*) FROM messages WHERE msgid = ?`, msgid).Scan(&n).Error; err != nil {
		return err
	}
	if n != int64(count) {
		return fmt.Errorf("expected %d %q audit messages, got %d", count, msgid, n)
	}
	return nil
}
