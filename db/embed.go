// Package db embeds the SQL schema migrations for production builds.
package db

import "embed"

// Migrations holds db/migrations/*.sql, used by bouncerctl when built with
// the embed_migrations tag and by the integration tests.
//
//go:embed migrations/*.sql
var Migrations embed.FS
