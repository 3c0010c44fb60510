// Package database opens the PostgreSQL pool and owns the schema.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a pgx connection pool using the provided DSN.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = 8
	cfg.MaxConnIdleTime = 5 * time.Minute
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	return pool, nil
}

// Schema is the DDL applied by EnsureSchema. Every statement is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS organizations (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS profiles (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL,
	first_name TEXT,
	last_name TEXT,
	organization_id UUID REFERENCES organizations(id),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS previos (
	id UUID PRIMARY KEY,
	client TEXT NOT NULL,
	date DATE NOT NULL,
	entry TEXT NOT NULL,
	supplier TEXT NOT NULL,
	packages INTEGER NOT NULL DEFAULT 0,
	package_type TEXT,
	carrier TEXT,
	total_weight NUMERIC,
	location TEXT,
	purchase_order TEXT,
	tracking_number TEXT,
	reviewer TEXT,
	packaging JSONB,
	status TEXT NOT NULL DEFAULT 'in-progress',
	organization_id UUID NOT NULL REFERENCES organizations(id),
	created_by TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_previos_status ON previos(status);
CREATE INDEX IF NOT EXISTS idx_previos_created_at ON previos(created_at DESC);

CREATE TABLE IF NOT EXISTS products (
	id UUID PRIMARY KEY,
	previo_id UUID NOT NULL REFERENCES previos(id) ON DELETE CASCADE,
	position INTEGER NOT NULL DEFAULT 0,
	name TEXT NOT NULL,
	description TEXT,
	quantity INTEGER NOT NULL DEFAULT 0,
	weight NUMERIC,
	serial_number TEXT,
	image_url TEXT,
	details JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_products_previo ON products(previo_id, position);

CREATE TABLE IF NOT EXISTS operation_images (
	id UUID PRIMARY KEY,
	url TEXT NOT NULL UNIQUE,
	operation_type TEXT NOT NULL CHECK (operation_type IN ('previo','embalaje','inspeccion','despacho')),
	operation_id UUID NOT NULL,
	product_id UUID,
	description TEXT,
	file_path TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_operation_images_op ON operation_images(operation_type, operation_id);

CREATE TABLE IF NOT EXISTS previo_reports (
	id UUID PRIMARY KEY,
	previo_id UUID NOT NULL REFERENCES previos(id) ON DELETE CASCADE,
	object_key TEXT NOT NULL,
	status TEXT NOT NULL,
	content TEXT,
	error_message TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_previo_reports_previo ON previo_reports(previo_id, created_at DESC);`

// EnsureSchema creates the tables if needed.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
