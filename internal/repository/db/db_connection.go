package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// InitDB opens/creates a SQLite DB file and ensures tables exist.
func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	// Conservative pool settings for SQLite
	db.SetMaxOpenConns(1) // SQLite is not great with many writers
	db.SetMaxIdleConns(1)

	// Pragmas to improve reliability
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set PRAGMA journal_mode=WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set PRAGMA foreign_keys=ON: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set PRAGMA busy_timeout=5000: %w", err)
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	// Fail fast if the DB cannot be reached
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return db, nil
}

const sqliteDriverName = "sqlite"

const schemaBoostInstances = `
CREATE TABLE IF NOT EXISTS boost_instances (
    id TEXT PRIMARY KEY,
    thermostat_ref TEXT NOT NULL,
    thermostat_name TEXT NOT NULL,
    boost_temp_c REAL,
    duration_hours REAL NOT NULL DEFAULT 0,
    boost_active BOOLEAN NOT NULL DEFAULT 0,
    schedule_override BOOLEAN NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL
);
`

const schemaBoostTimers = `
CREATE TABLE IF NOT EXISTS boost_timers (
    instance_id TEXT PRIMARY KEY,
    end_at TIMESTAMP NOT NULL
);
`

const schemaSchedulerSnapshots = `
CREATE TABLE IF NOT EXISTS scheduler_snapshots (
    instance_id TEXT PRIMARY KEY,
    entities TEXT NOT NULL
);
`

const schemaTemperatureSnapshots = `
CREATE TABLE IF NOT EXISTS temperature_snapshots (
    instance_id TEXT PRIMARY KEY,
    target_c REAL NOT NULL
);
`

const schemaBoostEvents = `
CREATE TABLE IF NOT EXISTS boost_events (
    id TEXT PRIMARY KEY,
    occurred_at TIMESTAMP NOT NULL,
    type TEXT NOT NULL,
    message TEXT NOT NULL,
    meta TEXT
);
`

const schemaUsers = `
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT UNIQUE NOT NULL,
    password_hash TEXT NOT NULL
);
`

func ensureSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() {
		// In case of panic, rollback to avoid leaving an open transaction
		_ = tx.Rollback()
	}()

	for i, stmt := range []string{
		schemaBoostInstances,
		schemaBoostTimers,
		schemaSchedulerSnapshots,
		schemaTemperatureSnapshots,
		schemaBoostEvents,
		schemaUsers,
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}
	return nil
}
