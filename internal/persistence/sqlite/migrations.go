package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type migration struct {
	version    int
	name       string
	statements []string
}

var migrations = []migration{
	{
		version: 1,
		name:    "create_series_and_classes",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS series (
				id              TEXT PRIMARY KEY,
				gym_id          TEXT NOT NULL,
				title           TEXT NOT NULL,
				description     TEXT,
				class_type_id   TEXT NOT NULL,
				location_id     TEXT NOT NULL,
				coach_id        TEXT,
				capacity        INTEGER NOT NULL CHECK (capacity > 0),
				recurrence_type TEXT NOT NULL CHECK (recurrence_type IN ('daily', 'weekly', 'monthly')),
				recurrence_days INTEGER NOT NULL DEFAULT 0,
				start_date      TEXT NOT NULL,
				end_date        TEXT NOT NULL,
				start_time      TEXT NOT NULL,
				end_time        TEXT NOT NULL,
				created_at      TEXT NOT NULL,
				updated_at      TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS classes (
				id            TEXT PRIMARY KEY,
				gym_id        TEXT NOT NULL,
				title         TEXT NOT NULL,
				description   TEXT,
				class_type_id TEXT NOT NULL,
				location_id   TEXT NOT NULL,
				coach_id      TEXT,
				capacity      INTEGER NOT NULL CHECK (capacity > 0),
				start_time    TEXT NOT NULL,
				end_time      TEXT NOT NULL,
				status        TEXT NOT NULL DEFAULT 'scheduled' CHECK (status IN ('scheduled', 'cancelled', 'completed')),
				is_recurring  INTEGER NOT NULL DEFAULT 0,
				series_id     TEXT REFERENCES series(id) ON DELETE SET NULL,
				created_at    TEXT NOT NULL,
				updated_at    TEXT NOT NULL,
				CHECK (end_time > start_time)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_classes_location_start ON classes(location_id, start_time)`,
			`CREATE INDEX IF NOT EXISTS idx_classes_coach_start ON classes(coach_id, start_time)`,
			`CREATE INDEX IF NOT EXISTS idx_classes_series ON classes(series_id)`,
			`CREATE INDEX IF NOT EXISTS idx_classes_gym_start ON classes(gym_id, start_time)`,
			`CREATE INDEX IF NOT EXISTS idx_series_gym ON series(gym_id)`,
		},
	},
}

// migrate applies every migration newer than the recorded schema version.
func migrate(ctx context.Context, pool *ConnectionPool) error {
	if _, err := pool.DB().ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		name       TEXT NOT NULL,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("sqlite: create schema_migrations: %w", err)
	}

	var current sql.NullInt64
	if err := pool.DB().QueryRowContext(ctx, "SELECT MAX(version) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("sqlite: read schema version: %w", err)
	}

	for _, m := range migrations {
		if current.Valid && int64(m.version) <= current.Int64 {
			continue
		}
		err := pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			for _, stmt := range m.statements {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return err
				}
			}
			_, err := tx.ExecContext(ctx,
				"INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)",
				m.version, m.name, time.Now().UTC().Format(time.RFC3339))
			return err
		})
		if err != nil {
			return fmt.Errorf("sqlite: apply migration %d (%s): %w", m.version, m.name, err)
		}
	}
	return nil
}
