// Package migrations holds the SQL that creates the upstream BIM relations
// and a small fixture dataset for development and integration tests.
// Production databases are owned by the upstream system and are never migrated.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
