// Package database provides the SQLite connection used by RoboHome Core.
//
// It opens the database with foreign keys enforced (rule conditions and
// actions cascade with their event), optional WAL journaling and a busy
// timeout, and applies the embedded schema migrations.
//
//	db, err := database.Open(ctx, cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migrations are additive. Each file pair is named
// YYYYMMDD_HHMMSS_description.up.sql / .down.sql.
package database
