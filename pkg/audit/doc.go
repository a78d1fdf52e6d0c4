// Package audit provides the security audit trail for the engine.
//
// Events are written as RFC5424 syslog lines and, when an audit database
// is configured, persisted to its messages table.
//
// # Event Types
//
//   - CheckEvent: an authorization decision
//   - PermissionEvent: allow, forbid, disallow and unforbid on the grant ledger
//   - MembershipEvent: role assignment and retraction
//   - AbilityEvent: ability definition, update and deletion
//   - RoleEvent: role upsert, creation and deletion
//
// # Usage
//
//	rec := audit.NewRecorder(audit.NewLogger(os.Stdout), store)
//	rec.Record(ctx, audit.CheckEvent{Principal: "42", Ability: "publish", Allowed: true})
//
// A nil *Recorder records nothing.
package audit
