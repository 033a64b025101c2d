// Package migration applies versioned SQL schema changes.
//
// Migration files are read from an fs.FS (normally an embed.FS owned by the
// storage driver) and follow the naming convention {version}_{description}.sql,
// for example "001_initial_schema.sql". Applied versions are tracked in a
// schema_migrations table so each file runs exactly once, inside its own
// transaction.
//
// Example usage:
//
//	manager := migration.NewManager(migration.NewScanner(files, "migrations"),
//		migration.NewSQLExecutor(db, migration.QuestionBind), logger)
//	if err := manager.RunMigrations(ctx); err != nil {
//		return err
//	}
package migration
