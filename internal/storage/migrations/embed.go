// Package migrations embeds the goose SQL migrations for the
// encounter/entity/preview schema (spec §6).
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
