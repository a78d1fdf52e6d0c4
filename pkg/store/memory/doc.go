// Package memory provides an in-process implementation of store.Store.
//
// It enforces the same uniqueness rules as the PostgreSQL schema: abilities
// and roles are unique by (name, scope) and grants by (entity, ability,
// resource). Deletes cascade the same way the foreign keys do. It is used
// by the engine tests and by embedders that keep grants in memory.
package memory
