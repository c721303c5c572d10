// Package migrations embeds the versioned sqlite schema.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
