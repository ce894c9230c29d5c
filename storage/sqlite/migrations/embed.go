package migrations

import "embed"

// FS contains embedded SQLite migrations for schoolmate storage.
//
//go:embed *.sql
var FS embed.FS
