// Package migration embeds the database schema files.
package migration

import "embed"

// FS holds the per-driver schema files.
//
//go:embed sqlite/LATEST.sql postgres/LATEST.sql
var FS embed.FS
