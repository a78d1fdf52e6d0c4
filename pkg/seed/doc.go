// Package seed loads YAML seed documents into the authorization engine.
//
// A seed document is a sequence of tagged statements:
//
//   - Abilities: !ability, by name or with title, only_owned, options, scope
//   - Roles: !role, by name or with title, level, scope
//   - Grants: !allow, !forbid and !disallow
//   - Memberships: !assign and !retract
//
// # Example
//
//	# seed.yml
//	- !role
//	  name: admin
//	  title: Administrator
//	- !ability read
//	- !allow
//	  to: !role admin
//	  ability: "*"
//	- !allow
//	  to: !everyone
//	  abilities: [read]
//	  type: user
//	- !allow
//	  to: !everyone
//	  owned: true
//	  abilities: [update]
//	  type: user
//	- !assign
//	  role: admin
//	  principals: ["1"]
//
// Subjects are written !role NAME, !role NAME@SCOPE, !principal ID or
// !everyone. The Everything ability must be quoted since a bare * starts a
// YAML alias.
//
// # Loading
//
// Abilities and roles are applied before grants and memberships, all in one
// transaction. Every statement is idempotent, so a document can be loaded
// again after editing it:
//
//	result, err := seed.NewLoader(engine).LoadFromReader(ctx, f)
package seed
