package migrations

import (
	_ "embed"
)

//go:embed 2025010101_create_users.sql
var createUsersSQL string

func init() {
	Migrations.MustRegister(
		execSQL(createUsersSQL),
		execSQL(`DROP TABLE IF EXISTS users`),
	)
}
