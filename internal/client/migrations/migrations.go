// Package migrations embeds the client's SQLite schema migrations.
// Migrations are additive only: adding tables, columns, or indexes never
// destroys previously persisted rows.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
