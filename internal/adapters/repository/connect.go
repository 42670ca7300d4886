package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

// Driver names a supported SQL backend.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Open opens a DB and ensures schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:streamwise.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/streamwise?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	// Every connection to :memory: is a separate database.
	if driver == DriverSQLite && strings.Contains(dsn, ":memory:") {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := ensureSchema(ctx, db, driver); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	var schema string
	switch driver {
	case DriverSQLite:
		schema = schemaSQLite
	case DriverPostgres:
		schema = schemaPostgres
	}
	_, err := db.ExecContext(ctx, schema)
	return err
}

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  name TEXT,
  email TEXT,
  role TEXT NOT NULL,
  school_name TEXT,
  education_level TEXT,
  interests_json TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS academic_records (
  id TEXT PRIMARY KEY,
  student_id TEXT NOT NULL,
  school_id TEXT NOT NULL DEFAULT '',
  class_level TEXT NOT NULL,
  streams_json TEXT NOT NULL,
  averages_json TEXT NOT NULL,
  updated_at INTEGER NOT NULL,
  UNIQUE (student_id, class_level)
);

CREATE TABLE IF NOT EXISTS interest_profiles (
  student_id TEXT PRIMARY KEY,
  id TEXT NOT NULL,
  answers_json TEXT NOT NULL,
  scores_json TEXT NOT NULL,
  total_questions INTEGER NOT NULL,
  submitted_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS recommendation_snapshots (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  id TEXT NOT NULL UNIQUE,
  student_id TEXT NOT NULL,
  primary_category TEXT NOT NULL,
  alternative TEXT NOT NULL DEFAULT '',
  reason TEXT NOT NULL DEFAULT '',
  scores_json TEXT NOT NULL,
  computed_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshots_student ON recommendation_snapshots (student_id, seq);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  name TEXT,
  email TEXT,
  role TEXT NOT NULL,
  school_name TEXT,
  education_level TEXT,
  interests_json TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS academic_records (
  id TEXT PRIMARY KEY,
  student_id TEXT NOT NULL,
  school_id TEXT NOT NULL DEFAULT '',
  class_level TEXT NOT NULL,
  streams_json TEXT NOT NULL,
  averages_json TEXT NOT NULL,
  updated_at BIGINT NOT NULL,
  UNIQUE (student_id, class_level)
);

CREATE TABLE IF NOT EXISTS interest_profiles (
  student_id TEXT PRIMARY KEY,
  id TEXT NOT NULL,
  answers_json TEXT NOT NULL,
  scores_json TEXT NOT NULL,
  total_questions INTEGER NOT NULL,
  submitted_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS recommendation_snapshots (
  seq BIGSERIAL PRIMARY KEY,
  id TEXT NOT NULL UNIQUE,
  student_id TEXT NOT NULL,
  primary_category TEXT NOT NULL,
  alternative TEXT NOT NULL DEFAULT '',
  reason TEXT NOT NULL DEFAULT '',
  scores_json TEXT NOT NULL,
  computed_at BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshots_student ON recommendation_snapshots (student_id, seq);
`
