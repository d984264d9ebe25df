package migrations

import "embed"

// FS contains the embedded journal migrations.
//
//go:embed *.sql
var FS embed.FS
