// Package model defines the database models for the authorization engine.
//
// These are GORM row types. pkg/store/gorm converts them to and from the
// store records; nothing outside that package should need them.
//
// # Database Schema
//
//   - abilities: grantable permission names, unique by (name, scope)
//   - roles: assignable grant bundles, unique by (name, scope)
//   - assigned_roles: (role_id, principal_id) assignments
//   - permissions: grant rows, unique by (entity_type, entity_id,
//     ability_id, resource_type, resource_id)
//
// The schema itself is owned by the SQL migrations in db/migrations.
package model
