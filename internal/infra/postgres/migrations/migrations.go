// Package migrations holds the Postgres schema, applied with bun's migrator.
package migrations

import (
	"context"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

var Migrations = migrate.NewMigrations()

// register adds an embedded up script and a DROP TABLE down step.
func register(name, up, table string) {
	Migrations.Add(migrate.Migration{
		Name: name,
		Up: func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, up)
			return err
		},
		Down: func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS `+table)
			return err
		},
	})
}
