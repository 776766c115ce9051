// Package migrations embeds the versioned schema files for each backend.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS

// Sub returns the migration directory of one backend ("sqlite" or "postgres").
func Sub(backend string) (fs.FS, error) {
	return fs.Sub(FS, backend)
}
