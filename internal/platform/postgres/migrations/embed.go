// Package migrations contains the embedded SQL migrations for the
// Postgres schema. They are applied with goose at server startup.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
