// Package migrations embeds the scan history schema into the binary.
package migrations

import (
	"embed"

	"github.com/Brad-K99/EventCounterForRC/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "."
}
