// Package bouncer is a role and ability authorization engine.
//
// Abilities are named permissions. Roles bundle grants and are assigned to
// principals. A grant allows or forbids one ability to a role, a principal
// or everyone, either generally, on a whole resource type or on a single
// resource.
//
//	e := bouncer.New(memory.New())
//	admin, _ := e.UpsertRole(ctx, bouncer.RoleSpec{Name: "admin"})
//	_ = e.AllowEverything(ctx, bouncer.ForRole(bouncer.RoleNamed(admin.Name)), nil)
//	_ = e.AssignRole(ctx, bouncer.RoleNamed("admin"), bouncer.PrincipalID("1"))
//	ok, err := e.Can(ctx, bouncer.PrincipalID("1"), "delete", bouncer.Instance("user", "2", nil))
//
// # Resolution
//
// A check collects the grants held by the principal, its roles and
// everyone on the checked ability and on the Everything ability, and
// sorts them by specificity:
//
//   - specific: granted on exactly the checked resource
//   - general: granted without a resource, or on the whole resource type
//   - everything: granted through the Everything ability
//
// A forbid in any tier denies. Otherwise the most specific allow grants.
// Allows of only_owned abilities only apply when the principal owns the
// resource, as told by the engine's Ownership registry. Forbids always
// apply. Everything else, including unknown abilities, is denied.
//
// # Caching
//
// Decisions are memoized when the engine is built WithCache. Every
// mutation refreshes the memo after it commits, so a check never observes
// a decision computed before a committed change.
package bouncer
