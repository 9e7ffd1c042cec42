// Package migrations embeds the goose SQL migrations of the ledger schema.
package migrations

import "embed"

// FS holds every *.sql migration, applied in version order by goose
//
//go:embed *.sql
var FS embed.FS
