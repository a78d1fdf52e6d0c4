// Package gorm provides the PostgreSQL implementation of store.Store.
//
// Uniqueness is enforced by the database: (name, scope) constraints on
// abilities and roles, and the permissions_grant_key constraint on grants.
// Grant writes are single-statement upserts so concurrent allow and forbid
// calls on one key converge to a single row. Deletes cascade through
// foreign keys. The schema lives in db/migrations.
//
// The *gorm.DB handed to New should be opened with TranslateError enabled
// (pkg/db does this) so constraint violations map to store sentinels.
package gorm
