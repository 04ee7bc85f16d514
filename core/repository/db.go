package repository

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// DB wraps the PostgreSQL connection pool
type DB struct {
	*sql.DB
}

// NewDB opens and pings a PostgreSQL database
func NewDB(databaseURL string) (*DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &DB{DB: db}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id              UUID PRIMARY KEY,
	repo_url        TEXT NOT NULL,
	source_location TEXT NOT NULL,
	status          TEXT NOT NULL,
	attempts        INTEGER NOT NULL DEFAULT 0,
	snapshot_json   JSONB,
	message         TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL,
	finished_at     TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS run_events (
	id           BIGSERIAL PRIMARY KEY,
	run_id       UUID NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	attempt      INTEGER NOT NULL,
	at           TIMESTAMPTZ NOT NULL,
	review_state TEXT NOT NULL,
	debt_state   TEXT NOT NULL,
	complete     BOOLEAN NOT NULL,
	reason       TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS run_events_run_id_idx ON run_events (run_id, attempt);
`

// Migrate creates the tables if they do not exist
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
