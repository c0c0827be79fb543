package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate creates the schema. Called explicitly from main at startup, never
// as an import-time side effect.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	_, err := db.Exec(ctx, schema)
	return err
}

const schema = `
CREATE TABLE IF NOT EXISTS models (
	id          TEXT PRIMARY KEY,
	slug        TEXT NOT NULL UNIQUE,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	category    TEXT NOT NULL DEFAULT '',
	file_url    TEXT NOT NULL DEFAULT '',
	excel_url   TEXT NOT NULL DEFAULT '',
	price_cents BIGINT NOT NULL DEFAULT 0,
	status      TEXT NOT NULL DEFAULT 'active',
	tags        TEXT[] NOT NULL DEFAULT '{}',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS orders (
	id                  TEXT PRIMARY KEY,
	stripe_session_id   TEXT NOT NULL UNIQUE,
	customer_email      TEXT NOT NULL,
	customer_name       TEXT NOT NULL DEFAULT '',
	model_id            TEXT NOT NULL DEFAULT '',
	model_title         TEXT NOT NULL DEFAULT 'Unknown Model',
	model_slug          TEXT NOT NULL DEFAULT '',
	amount_cents        BIGINT NOT NULL DEFAULT 0,
	currency            TEXT NOT NULL DEFAULT 'usd',
	status              TEXT NOT NULL DEFAULT 'pending',
	payment_status      TEXT NOT NULL DEFAULT '',
	download_expires_at TIMESTAMPTZ,
	download_count      INT NOT NULL DEFAULT 0,
	max_downloads       INT NOT NULL DEFAULT 5,
	metadata            JSONB NOT NULL DEFAULT '{}',
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_orders_customer_email ON orders(customer_email);

CREATE TABLE IF NOT EXISTS leads (
	id         TEXT PRIMARY KEY,
	email      TEXT NOT NULL,
	name       TEXT NOT NULL DEFAULT '',
	company    TEXT NOT NULL DEFAULT '',
	interest   TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	name          TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL DEFAULT 'customer',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS analytics_events (
	event_id       TEXT PRIMARY KEY,
	event_type     TEXT NOT NULL,
	occurred_at    TIMESTAMPTZ NOT NULL,
	producer       TEXT NOT NULL DEFAULT '',
	correlation_id TEXT NOT NULL DEFAULT '',
	payload        JSONB NOT NULL DEFAULT '{}',
	recorded_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
`
