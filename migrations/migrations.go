// Package migrations embeds the schema files so the migrate binary carries
// them wherever it is deployed.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
