// Package migration applies versioned SQL files to a SQLite database.
//
// Migration files are read from an fs.FS and must be named
// {version}_{description}.sql (e.g. "001_initial_schema.sql"). Applied
// versions are tracked in a schema_migrations table so each file runs once.
//
// Example usage:
//
//	manager := migration.NewManager(db, migrations, "migrations", logger)
//	if err := manager.Run(ctx); err != nil {
//		return err
//	}
package migration
