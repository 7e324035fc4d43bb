package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema holds the full DDL for the workflow engine. Statements are
// idempotent so Migrate can run on every startup.
//
// The partial unique index on service_requests backs the "at most one
// non-completed request per client" invariant even when two transactions
// pass the application-level check concurrently.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id          TEXT PRIMARY KEY,
    full_name   TEXT NOT NULL,
    phone       TEXT NOT NULL,
    role        TEXT NOT NULL DEFAULT 'client' CHECK (role IN ('client', 'admin')),
    registered  BOOLEAN NOT NULL DEFAULT FALSE,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS masters (
    user_id  TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
    load     INT NOT NULL DEFAULT 0 CHECK (load BETWEEN 0 AND 100)
);

CREATE TABLE IF NOT EXISTS master_applications (
    user_id     TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS service_requests (
    id          UUID PRIMARY KEY,
    client_id   TEXT NOT NULL REFERENCES users(id),
    master_id   TEXT REFERENCES users(id),
    address     TEXT NOT NULL,
    status      TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'in_progress', 'completed')),
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS uq_service_requests_active_client
    ON service_requests (client_id) WHERE status <> 'completed';

CREATE INDEX IF NOT EXISTS idx_service_requests_master
    ON service_requests (master_id);

CREATE TABLE IF NOT EXISTS reports (
    id              UUID PRIMARY KEY,
    user_id         TEXT NOT NULL REFERENCES users(id),
    report_text     TEXT NOT NULL,
    admin_feedback  TEXT,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_reports_user ON reports (user_id, created_at DESC);
`

// Migrate applies the embedded schema.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("db: apply schema: %w", err)
	}
	return nil
}
