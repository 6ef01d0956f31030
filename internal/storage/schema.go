package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
}

// migrations[i] moves the schema from version i to i+1.
var migrations = [][]string{
	{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id       TEXT PRIMARY KEY,
			preset_id    TEXT NOT NULL,
			spec_hash    TEXT,
			mode         TEXT,
			status       TEXT NOT NULL,
			category     TEXT,
			error        TEXT,
			attempts     INTEGER,
			series_count INTEGER,
			partial      INTEGER,
			overrides    TEXT,
			started_at   TEXT NOT NULL,
			day          TEXT NOT NULL,
			duration_ms  INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS daily_runs (
			date      TEXT PRIMARY KEY,
			runs      INTEGER NOT NULL,
			succeeded INTEGER NOT NULL,
			failed    INTEGER NOT NULL,
			cancelled INTEGER NOT NULL,
			partial   INTEGER NOT NULL,
			total_ms  INTEGER NOT NULL
		)`,
		"CREATE INDEX IF NOT EXISTS idx_runs_day ON runs(day)",
		"CREATE INDEX IF NOT EXISTS idx_runs_preset ON runs(preset_id)",
	},
}

var currentSchemaVersion = len(migrations)

// OpenDB opens (creating if needed) the run history database and brings its
// schema up to date.
func OpenDB(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("creating parent directories: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}

	if err := migrateSchema(db, dbPath); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func schemaVersion(db *sql.DB) (int, error) {
	if _, err := db.Exec("CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)"); err != nil {
		return 0, fmt.Errorf("creating schema_version table: %w", err)
	}
	var v int
	err := db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return v, nil
}

func migrateSchema(db *sql.DB, dbPath string) error {
	from, err := schemaVersion(db)
	if err != nil {
		return err
	}
	if from > currentSchemaVersion {
		return fmt.Errorf(
			"database schema version %d is newer than this presetdeck version supports (max: %d); upgrade presetdeck or delete %s to start fresh",
			from, currentSchemaVersion, dbPath,
		)
	}
	for v := from; v < currentSchemaVersion; v++ {
		if err := applyMigration(db, v); err != nil {
			return fmt.Errorf("migration v%d→v%d: %w", v, v+1, err)
		}
	}
	return nil
}

func applyMigration(db *sql.DB, from int) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range migrations[from] {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}

	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		return fmt.Errorf("clearing schema version: %w", err)
	}
	if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", from+1); err != nil {
		return fmt.Errorf("recording schema version: %w", err)
	}
	return tx.Commit()
}
