/**
 * @description
 * This file creates the service's tables on startup when they do not exist
 * yet, so a fresh database works out of the box and the static default
 * pricing config covers the window until the back office seeds real rules.
 */

package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS exchange_rates (
	id         BIGSERIAL PRIMARY KEY,
	rate       DOUBLE PRECISION NOT NULL CHECK (rate > 0),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS service_fee_tiers (
	id              BIGSERIAL PRIMARY KEY,
	shipping_method TEXT NOT NULL,
	deposit_percent INT  NOT NULL,
	min_value       DOUBLE PRECISION NOT NULL,
	max_value       DOUBLE PRECISION,
	fee_percent     DOUBLE PRECISION NOT NULL
);

CREATE TABLE IF NOT EXISTS shipping_rate_tiers (
	id              BIGSERIAL PRIMARY KEY,
	shipping_method TEXT NOT NULL,
	warehouse       TEXT NOT NULL,
	rate_basis      TEXT NOT NULL,
	subtype         TEXT,
	min_value       DOUBLE PRECISION NOT NULL,
	max_value       DOUBLE PRECISION,
	price_per_unit  DOUBLE PRECISION NOT NULL
);

CREATE TABLE IF NOT EXISTS leads (
	id             UUID PRIMARY KEY,
	customer_name  TEXT NOT NULL,
	phone          TEXT NOT NULL,
	email          TEXT NOT NULL DEFAULT '',
	note           TEXT NOT NULL DEFAULT '',
	order_json     JSONB NOT NULL,
	breakdown_json JSONB NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_service_fee_tiers_group
	ON service_fee_tiers (shipping_method, deposit_percent, min_value);
CREATE INDEX IF NOT EXISTS idx_shipping_rate_tiers_group
	ON shipping_rate_tiers (shipping_method, warehouse, rate_basis, subtype, min_value);
CREATE INDEX IF NOT EXISTS idx_leads_created_at
	ON leads (created_at DESC);
`

// EnsureSchema creates the tables and indexes the repository relies on.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	_, err := db.Exec(ctx, schemaDDL)
	return err
}
