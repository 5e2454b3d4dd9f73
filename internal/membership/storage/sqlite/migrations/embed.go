package migrations

import "embed"

// FS contains embedded SQLite migrations for membership storage.
//
//go:embed *.sql
var FS embed.FS
