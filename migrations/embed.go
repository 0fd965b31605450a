// Package migrations embeds SQL migration files into the binary.
//
// The files only touch the main schema. Attached tenant schemas belong to the
// upstream system and are never migrated from here.
package migrations

import (
	"embed"

	"github.com/nerrad567/gray-logic-roi/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "."
}
