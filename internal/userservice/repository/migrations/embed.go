// Package migrations embeds the goose migration scripts for the PostgreSQL
// user repository.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
