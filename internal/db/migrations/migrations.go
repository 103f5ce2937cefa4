// Package migrations embeds the goose SQL migrations for the slidecraft schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
