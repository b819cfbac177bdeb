// Package migrations embeds the goose SQL migrations for the PostgreSQL store.
package migrations

import "embed"

//go:embed *.sql
var MigrationsFS embed.FS
