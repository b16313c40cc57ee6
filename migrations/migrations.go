// Package migrations holds the Postgres schema used when STORE_DRIVER=postgres.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
