// Package migrations holds the Postgres schema history, applied with bun/migrate.
package migrations

import "github.com/uptrace/bun/migrate"

// Migrations is the registry every migration file adds itself to
var Migrations = migrate.NewMigrations()

func init() {
	// Derive each migration's id from its file name
	if err := Migrations.DiscoverCaller(); err != nil {
		panic(err)
	}
}
