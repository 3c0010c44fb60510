// Package repository holds the SQL used by the API, the worker and the CLI.
// Every call is a single request/response against PostgreSQL: no retries,
// and multi-row writes are not wrapped in a transaction.
package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the subset of *pgxpool.Pool the repositories use.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ DB = (*pgxpool.Pool)(nil)

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
