// Package migrations embeds the RoboHome schema into the binary.
package migrations

import (
	"embed"

	"github.com/robohome/robohome-core/internal/infrastructure/database"
)

//go:embed *.sql
var files embed.FS

func init() {
	database.RegisterMigrations(files, ".")
}
