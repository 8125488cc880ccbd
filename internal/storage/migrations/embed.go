// Package migrations embeds the SQL migrations applied to the local
// durable database on startup.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
