package postgres

// Schema is the bootstrap DDL. Applied by cmd/seed and by integration tests;
// production migrations that go beyond this live with the deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS accounts (
    id            UUID PRIMARY KEY,
    email         TEXT NOT NULL UNIQUE,
    display_name  TEXT NOT NULL DEFAULT '',
    role          TEXT NOT NULL DEFAULT 'user',
    password_hash TEXT NOT NULL DEFAULT '',
    created_at    TIMESTAMPTZ NOT NULL,
    updated_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS audit_events (
    id         UUID PRIMARY KEY,
    timestamp  TIMESTAMPTZ NOT NULL,
    actor_id   UUID NOT NULL,
    target_id  UUID NOT NULL,
    action     TEXT NOT NULL,
    details    JSONB NOT NULL DEFAULT '{}',
    request_id TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS audit_events_actor_ts ON audit_events (actor_id, timestamp DESC);
`
